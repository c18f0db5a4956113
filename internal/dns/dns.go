// Package dns switches the public record of a zone between slots by
// pointing a CNAME at the chosen slot's CDN endpoint host.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
)

// DefaultTTL is the TTL in seconds of activated records.
const DefaultTTL = 300

// recordSetsAPI is the part of armdns.RecordSetsClient used here.
type recordSetsAPI interface {
	CreateOrUpdate(ctx context.Context, resourceGroupName, zoneName, relativeRecordSetName string,
		recordType armdns.RecordType, parameters armdns.RecordSet, options *armdns.RecordSetsClientCreateOrUpdateOptions,
	) (armdns.RecordSetsClientCreateOrUpdateResponse, error)
	Get(ctx context.Context, resourceGroupName, zoneName, relativeRecordSetName string,
		recordType armdns.RecordType, options *armdns.RecordSetsClientGetOptions,
	) (armdns.RecordSetsClientGetResponse, error)
}

// Zone locates a DNS zone.
type Zone struct {
	ResourceGroup string
	Name          string
}

// Activator writes CNAME records in one zone.
type Activator struct {
	client recordSetsAPI
	zone   Zone
	TTL    int64
}

// NewActivator creates an Activator for zone in the given subscription.
func NewActivator(subscriptionID string, cred azcore.TokenCredential, zone Zone) (*Activator, error) {
	client, err := armdns.NewRecordSetsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("dns: record sets client: %w", err)
	}
	return &Activator{client: client, zone: zone, TTL: DefaultTTL}, nil
}

// FQDN returns the full name of a relative record in the zone.
func (a *Activator) FQDN(record string) string {
	if record == "@" {
		return a.zone.Name
	}
	return record + "." + a.zone.Name
}

// Current returns the host the CNAME record points at, or "" when the
// record does not exist.
func (a *Activator) Current(ctx context.Context, record string) (string, error) {
	resp, err := a.client.Get(ctx, a.zone.ResourceGroup, a.zone.Name, record, armdns.RecordTypeCNAME, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("dns: get %s: %w", a.FQDN(record), err)
	}
	if p := resp.Properties; p != nil && p.CnameRecord != nil && p.CnameRecord.Cname != nil {
		return *p.CnameRecord.Cname, nil
	}
	return "", nil
}

// Activate points record at host.
func (a *Activator) Activate(ctx context.Context, record, host string) error {
	_, err := a.client.CreateOrUpdate(ctx, a.zone.ResourceGroup, a.zone.Name, record, armdns.RecordTypeCNAME,
		armdns.RecordSet{
			Properties: &armdns.RecordSetProperties{
				TTL:         to.Ptr(a.TTL),
				CnameRecord: &armdns.CnameRecord{Cname: to.Ptr(host)},
			},
		}, nil)
	if err != nil {
		return fmt.Errorf("dns: point %s at %s: %w", a.FQDN(record), host, err)
	}
	return nil
}
