// Package cdn drives the Azure CDN endpoint of a slot: content purges and
// CDN-managed HTTPS on custom domains.
package cdn

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cdn/armcdn"
)

// PurgeAll is the content path purging every cached object.
const PurgeAll = "/*"

// Endpoint locates a CDN endpoint.
type Endpoint struct {
	ResourceGroup string
	Profile       string
	Name          string
}

func (e Endpoint) String() string {
	return e.Profile + "/" + e.Name
}

// endpointsAPI is the part of armcdn.EndpointsClient used here.
type endpointsAPI interface {
	BeginPurgeContent(ctx context.Context, resourceGroupName, profileName, endpointName string,
		contentFilePaths armcdn.PurgeParameters, options *armcdn.EndpointsClientBeginPurgeContentOptions,
	) (*runtime.Poller[armcdn.EndpointsClientPurgeContentResponse], error)
}

// Purger purges cached content of one endpoint.
type Purger struct {
	client   endpointsAPI
	endpoint Endpoint
	// Frequency is how often the purge operation status is polled.
	Frequency time.Duration
}

// NewPurger creates a Purger for endpoint in the given subscription.
func NewPurger(subscriptionID string, cred azcore.TokenCredential, endpoint Endpoint) (*Purger, error) {
	client, err := armcdn.NewEndpointsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("cdn: endpoints client: %w", err)
	}
	return &Purger{client: client, endpoint: endpoint, Frequency: 5 * time.Second}, nil
}

// Purge removes paths from the endpoint's cache and waits until the
// operation finishes.
func (p *Purger) Purge(ctx context.Context, paths []string) error {
	poller, err := p.client.BeginPurgeContent(ctx, p.endpoint.ResourceGroup, p.endpoint.Profile, p.endpoint.Name,
		armcdn.PurgeParameters{ContentPaths: to.SliceOfPtrs(paths...)}, nil)
	if err != nil {
		return fmt.Errorf("cdn: purge %s: %w", p.endpoint, err)
	}
	if _, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: p.Frequency}); err != nil {
		return fmt.Errorf("cdn: purge %s: %w", p.endpoint, err)
	}
	return nil
}
