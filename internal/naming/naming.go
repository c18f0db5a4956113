// Package naming derives the Azure resource names of a site slot from the
// organization, environment and slot id.
package naming

import "fmt"

// EndpointHostSuffix is the DNS suffix of Azure CDN endpoint hosts.
const EndpointHostSuffix = ".azureedge.net"

// Names holds the resources that belong to one slot.
type Names struct {
	StorageAccount string
	CDNProfile     string
	CDNEndpoint    string
}

// StorageAccount returns the storage account serving a slot's content.
func StorageAccount(org, env, id string) string {
	return fmt.Sprintf("%s%ssite%s", org, env, id)
}

// CDNProfile returns the CDN profile shared by all slots of an environment.
func CDNProfile(org, env string) string {
	return fmt.Sprintf("%s-%s", org, env)
}

// CDNEndpoint returns a slot's CDN endpoint name.
func CDNEndpoint(org, env, id string) string {
	return fmt.Sprintf("%s-%s-%s", org, env, id)
}

// EndpointHost returns the public host name of a CDN endpoint.
func EndpointHost(endpoint string) string {
	return endpoint + EndpointHostSuffix
}

// ForSlot returns all resource names of one slot.
func ForSlot(org, env, id string) Names {
	return Names{
		StorageAccount: StorageAccount(org, env, id),
		CDNProfile:     CDNProfile(org, env),
		CDNEndpoint:    CDNEndpoint(org, env, id),
	}
}

// ValidateStorageAccount reports whether name is a legal storage account
// name: 3 to 24 lowercase letters or digits.
func ValidateStorageAccount(name string) error {
	if len(name) < 3 || len(name) > 24 {
		return fmt.Errorf("storage account name %q must be 3 to 24 characters long", name)
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("storage account name %q may contain only lowercase letters and digits", name)
		}
	}
	return nil
}
