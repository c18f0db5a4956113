package publish

import (
	"context"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/siteslot/siteslot/internal/cdn"
	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/dns"
	"github.com/siteslot/siteslot/internal/naming"
	"github.com/siteslot/siteslot/internal/target"
)

// Purger purges content paths on a CDN endpoint and waits for completion.
type Purger interface {
	Purge(ctx context.Context, paths []string) error
}

// Activator points a DNS record at a host.
type Activator interface {
	Activate(ctx context.Context, record, host string) error
	// Current returns the host record points at, or "" when it is unset.
	Current(ctx context.Context, record string) (string, error)
	FQDN(record string) string
}

// Backend builds the remote collaborators of one slot.
type Backend interface {
	Store(names naming.Names) (target.Target, error)
	Purger(names naming.Names) (Purger, error)
	Activator(zone config.Zone) (Activator, error)
}

// AzureBackend resolves slots to a static website container, a CDN endpoint
// and an Azure DNS zone in one subscription.
type AzureBackend struct {
	SubscriptionID string
	ResourceGroup  string
	Credential     azcore.TokenCredential
	// StoreType overrides the content store backend; empty means azure.
	StoreType  string
	MaxRetries int

	// Bucket is a shared s3 or gcs bucket. When empty every slot uses a
	// bucket named after its storage account; when set every slot gets its
	// own key prefix inside it.
	Bucket string
	Region string
	// Prefix is prepended to every key of every slot.
	Prefix string
	// KMSKey is an AWS KMS key id for s3 or a Cloud KMS key name for gcs.
	KMSKey string
}

// storeConfig describes the content store of one slot.
func (b *AzureBackend) storeConfig(names naming.Names) target.Config {
	cfg := target.Config{
		Name:           names.StorageAccount,
		Type:           b.StoreType,
		StorageAccount: names.StorageAccount,
		Credential:     b.Credential,
		MaxRetries:     b.MaxRetries,
		Region:         b.Region,
		Prefix:         b.Prefix,
	}
	switch b.StoreType {
	case "s3", "gcs":
		cfg.Bucket = names.StorageAccount
		if b.Bucket != "" {
			cfg.Bucket = b.Bucket
			cfg.Prefix = path.Join(b.Prefix, names.StorageAccount)
		}
		cfg.KMSKeyID = b.KMSKey
		cfg.KMSKeyName = b.KMSKey
	}
	return cfg
}

func (b *AzureBackend) Store(names naming.Names) (target.Target, error) {
	tgt, err := target.NewTarget(b.storeConfig(names))
	if err != nil {
		return nil, fmt.Errorf("publish: store: %w", err)
	}
	return tgt, nil
}

func (b *AzureBackend) Purger(names naming.Names) (Purger, error) {
	p, err := cdn.NewPurger(b.SubscriptionID, b.Credential, cdn.Endpoint{
		ResourceGroup: b.ResourceGroup,
		Profile:       names.CDNProfile,
		Name:          names.CDNEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: purger: %w", err)
	}
	return p, nil
}

func (b *AzureBackend) Activator(zone config.Zone) (Activator, error) {
	a, err := dns.NewActivator(b.SubscriptionID, b.Credential, dns.Zone{
		ResourceGroup: zone.ResourceGroupName,
		Name:          zone.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: activator: %w", err)
	}
	return a, nil
}
