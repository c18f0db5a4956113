package cdn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cdn/armcdn"
)

// ErrHTTPSFailed is returned when the CDN reports a failed HTTPS state.
var ErrHTTPSFailed = errors.New("custom domain HTTPS provisioning failed")

// DefaultHTTPSPollInterval is how often the custom domain state is read.
const DefaultHTTPSPollInterval = 10 * time.Second

// customDomainsAPI is the part of armcdn.CustomDomainsClient used here.
type customDomainsAPI interface {
	Get(ctx context.Context, resourceGroupName, profileName, endpointName, customDomainName string,
		options *armcdn.CustomDomainsClientGetOptions,
	) (armcdn.CustomDomainsClientGetResponse, error)
	EnableCustomHTTPS(ctx context.Context, resourceGroupName, profileName, endpointName, customDomainName string,
		options *armcdn.CustomDomainsClientEnableCustomHTTPSOptions,
	) (armcdn.CustomDomainsClientEnableCustomHTTPSResponse, error)
	DisableCustomHTTPS(ctx context.Context, resourceGroupName, profileName, endpointName, customDomainName string,
		options *armcdn.CustomDomainsClientDisableCustomHTTPSOptions,
	) (armcdn.CustomDomainsClientDisableCustomHTTPSResponse, error)
}

// HTTPSManager toggles CDN-managed certificates on an endpoint's custom
// domains.
type HTTPSManager struct {
	client       customDomainsAPI
	endpoint     Endpoint
	pollInterval time.Duration
}

// NewHTTPSManager creates an HTTPSManager for endpoint.
func NewHTTPSManager(subscriptionID string, cred azcore.TokenCredential, endpoint Endpoint) (*HTTPSManager, error) {
	client, err := armcdn.NewCustomDomainsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("cdn: custom domains client: %w", err)
	}
	return &HTTPSManager{client: client, endpoint: endpoint, pollInterval: DefaultHTTPSPollInterval}, nil
}

// managedHTTPS requests a dedicated CDN certificate served over SNI with
// TLS 1.2 or newer.
var managedHTTPS = &armcdn.ManagedHTTPSParameters{
	CertificateSource: to.Ptr(armcdn.CertificateSourceCdn),
	ProtocolType:      to.Ptr(armcdn.ProtocolTypeServerNameIndication),
	MinimumTLSVersion: to.Ptr(armcdn.MinimumTLSVersionTLS12),
	CertificateSourceParameters: &armcdn.CertificateSourceParameters{
		TypeName:        to.Ptr(armcdn.CdnCertificateSourceParametersTypeNameCdnCertificateSourceParameters),
		CertificateType: to.Ptr(armcdn.CertificateTypeDedicated),
	},
}

// State returns the HTTPS provisioning state and substate of a domain.
func (m *HTTPSManager) State(ctx context.Context, domain string) (state, substate string, err error) {
	resp, err := m.client.Get(ctx, m.endpoint.ResourceGroup, m.endpoint.Profile, m.endpoint.Name, domain, nil)
	if err != nil {
		return "", "", fmt.Errorf("cdn: get custom domain %q: %w", domain, err)
	}
	if p := resp.Properties; p != nil {
		if p.CustomHTTPSProvisioningState != nil {
			state = string(*p.CustomHTTPSProvisioningState)
		}
		if p.CustomHTTPSProvisioningSubstate != nil {
			substate = string(*p.CustomHTTPSProvisioningSubstate)
		}
	}
	return state, substate, nil
}

// TargetState is the provisioning state SetHTTPS waits for.
func TargetState(enable bool) string {
	if enable {
		return string(armcdn.CustomHTTPSProvisioningStateEnabled)
	}
	return string(armcdn.CustomHTTPSProvisioningStateDisabled)
}

// SetHTTPS enables or disables HTTPS on a custom domain and waits until the
// provisioning state settles. Nothing is requested when the domain is
// already in the wanted state; enabling takes a long time and is not a
// no-op on the Azure side. onState, when set, receives every polled state.
func (m *HTTPSManager) SetHTTPS(ctx context.Context, domain string, enable bool, onState func(state, substate string)) error {
	want := TargetState(enable)

	state, _, err := m.State(ctx, domain)
	if err != nil {
		return err
	}
	if state == want {
		return nil
	}

	if enable {
		_, err = m.client.EnableCustomHTTPS(ctx, m.endpoint.ResourceGroup, m.endpoint.Profile, m.endpoint.Name, domain,
			&armcdn.CustomDomainsClientEnableCustomHTTPSOptions{CustomDomainHTTPSParameters: managedHTTPS})
	} else {
		_, err = m.client.DisableCustomHTTPS(ctx, m.endpoint.ResourceGroup, m.endpoint.Profile, m.endpoint.Name, domain, nil)
	}
	if err != nil {
		return fmt.Errorf("cdn: request HTTPS change on %q: %w", domain, err)
	}

	for {
		state, substate, err := m.State(ctx, domain)
		if err != nil {
			return err
		}
		if onState != nil {
			onState(state, substate)
		}
		switch state {
		case want:
			return nil
		case string(armcdn.CustomHTTPSProvisioningStateFailed):
			return fmt.Errorf("cdn: %q: %w: %s", domain, ErrHTTPSFailed, substate)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}
