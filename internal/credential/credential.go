// Package credential builds the Azure token credential described by the
// pipeline configuration.
package credential

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/siteslot/siteslot/internal/config"
)

// New returns a client certificate credential for "sp" authentication or a
// user-assigned managed identity credential for "msi".
func New(cfg *config.PipelineConfig) (azcore.TokenCredential, error) {
	switch cfg.Auth.Type {
	case config.AuthServicePrincipal:
		return servicePrincipal(cfg)
	case config.AuthManagedIdentity:
		cred, err := azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(cfg.Auth.ClientID),
		})
		if err != nil {
			return nil, fmt.Errorf("credential: managed identity: %w", err)
		}
		return cred, nil
	default:
		return nil, fmt.Errorf("credential: unsupported auth type %q", cfg.Auth.Type)
	}
}

// servicePrincipal parses the PEM key and certificate in memory. Nothing is
// written to disk.
func servicePrincipal(cfg *config.PipelineConfig) (azcore.TokenCredential, error) {
	pem := []byte(cfg.Auth.KeyPEM + "\n" + cfg.Auth.CertPEM)
	certs, key, err := azidentity.ParseCertificates(pem, nil)
	if err != nil {
		// The parse error is not wrapped; it may quote key material.
		return nil, fmt.Errorf("credential: service principal certificate could not be parsed")
	}
	cred, err := azidentity.NewClientCertificateCredential(cfg.Azure.TenantID, cfg.Auth.ClientID, certs, key, nil)
	if err != nil {
		return nil, fmt.Errorf("credential: service principal: %w", err)
	}
	return cred, nil
}
