// Package config loads the two configuration documents a publish needs:
// the pipeline configuration (Azure tenant, subscription and credentials)
// and the infrastructure configuration (naming inputs and slot ids).
//
// Both documents are JSON or YAML. They arrive either inline, through the
// AZURE_PIPELINE_CONFIG and WEBSITE_INFRA_CONFIG environment variables, or
// from files.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/siteslot/siteslot/internal/naming"
)

// Well-known environment variables carrying inline configuration.
const (
	PipelineConfigEnv = "AZURE_PIPELINE_CONFIG"
	InfraConfigEnv    = "WEBSITE_INFRA_CONFIG"
)

// Auth types.
const (
	AuthServicePrincipal = "sp"
	AuthManagedIdentity  = "msi"
)

// Error is returned for every configuration problem.
type Error struct {
	Doc string // "pipeline" or "infrastructure"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Doc, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PipelineConfig identifies the Azure subscription and how to authenticate.
type PipelineConfig struct {
	Azure AzureInfo `json:"azure" yaml:"azure"`
	Auth  Auth      `json:"auth" yaml:"auth"`
}

// AzureInfo holds the tenant and subscription ids.
type AzureInfo struct {
	TenantID       string `json:"tenantId" yaml:"tenantId"`
	SubscriptionID string `json:"subscriptionId" yaml:"subscriptionId"`
}

// Auth selects a service principal with a client certificate ("sp") or a
// user-assigned managed identity ("msi").
type Auth struct {
	Type     string `json:"type" yaml:"type"`
	ClientID string `json:"clientId" yaml:"clientId"`
	KeyPEM   string `json:"keyPEM,omitempty" yaml:"keyPEM,omitempty"`
	CertPEM  string `json:"certPEM,omitempty" yaml:"certPEM,omitempty"`
}

// Validate checks the pipeline configuration. Messages name fields only,
// never their values.
func (c *PipelineConfig) Validate() error {
	if err := validateUUID("azure.tenantId", c.Azure.TenantID); err != nil {
		return err
	}
	if err := validateUUID("azure.subscriptionId", c.Azure.SubscriptionID); err != nil {
		return err
	}
	if err := validateUUID("auth.clientId", c.Auth.ClientID); err != nil {
		return err
	}
	switch c.Auth.Type {
	case AuthServicePrincipal:
		if c.Auth.KeyPEM == "" || c.Auth.CertPEM == "" {
			return fmt.Errorf("auth.keyPEM and auth.certPEM are required for sp authentication")
		}
	case AuthManagedIdentity:
	default:
		return fmt.Errorf("auth.type must be %q or %q", AuthServicePrincipal, AuthManagedIdentity)
	}
	return nil
}

func validateUUID(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := uuid.Parse(v); err != nil {
		return fmt.Errorf("%s must be a UUID", field)
	}
	return nil
}

// InfraConfig holds the naming inputs and the slot layout.
type InfraConfig struct {
	Organization          string      `json:"organization" yaml:"organization"`
	Environment           string      `json:"environment" yaml:"environment"`
	ResourceGroupName     string      `json:"resourceGroupName" yaml:"resourceGroupName"`
	RelativeCodeDirectory string      `json:"relativeCodeDirectory" yaml:"relativeCodeDirectory"`
	IDInfo                IDInfoField `json:"idInfo" yaml:"idInfo"`
}

// Validate checks required fields, the slot layout and the resource names
// every slot resolves to.
func (c *InfraConfig) Validate() error {
	required := []struct{ field, value string }{
		{"organization", c.Organization},
		{"environment", c.Environment},
		{"resourceGroupName", c.ResourceGroupName},
		{"relativeCodeDirectory", c.RelativeCodeDirectory},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.field)
		}
	}
	if c.IDInfo.Value == nil {
		return fmt.Errorf("idInfo is required")
	}
	if err := validateIDInfo(c.IDInfo.Value); err != nil {
		return fmt.Errorf("idInfo: %w", err)
	}
	for _, id := range c.IDInfo.Value.IDs() {
		if err := naming.ValidateStorageAccount(naming.StorageAccount(c.Organization, c.Environment, id)); err != nil {
			return fmt.Errorf("idInfo: slot %q: %w", id, err)
		}
	}
	return nil
}

func validateIDInfo(info IDInfo) error {
	ids := info.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("at least one deployment slot id is required")
	}
	if dups := lo.FindDuplicates(ids); len(dups) > 0 {
		return fmt.Errorf("duplicate slot ids %v", dups)
	}
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("slot ids must not be empty")
		}
	}
	if scheme, ok := info.TagScheme(); ok {
		if err := scheme.Validate(); err != nil {
			return fmt.Errorf("tagInfo: %w", err)
		}
		for _, id := range ids {
			if err := scheme.ValidateID(id); err != nil {
				return fmt.Errorf("tagInfo: %w", err)
			}
		}
	}
	if m, ok := info.(MultipleIDs); ok {
		if m.Zone.ResourceGroupName == "" || m.Zone.Name == "" {
			return fmt.Errorf("zone.resourceGroupName and zone.name are required")
		}
	}
	return nil
}

// CheckSlot reports an error when id is not one of the configured slots.
func (c *InfraConfig) CheckSlot(id string) error {
	ids := c.IDInfo.Value.IDs()
	if !lo.Contains(ids, id) {
		return fmt.Errorf("unknown slot %q (known: %s)", id, strings.Join(ids, ", "))
	}
	return nil
}

// CodeDir resolves the website code directory against the working directory.
func (c *InfraConfig) CodeDir(cwd string) string {
	return filepath.Join(cwd, filepath.FromSlash(c.RelativeCodeDirectory))
}

// BuildDir is the directory holding the built site.
func (c *InfraConfig) BuildDir(cwd string) string {
	return filepath.Join(c.CodeDir(cwd), "build")
}
