package naming

import "testing"

func TestForSlot(t *testing.T) {
	got := ForSlot("acme", "prod", "blue")
	want := Names{
		StorageAccount: "acmeprodsiteblue",
		CDNProfile:     "acme-prod",
		CDNEndpoint:    "acme-prod-blue",
	}
	if got != want {
		t.Errorf("ForSlot() = %+v, want %+v", got, want)
	}
}

func TestEndpointHost(t *testing.T) {
	if got := EndpointHost("acme-prod-green"); got != "acme-prod-green.azureedge.net" {
		t.Errorf("EndpointHost() = %q", got)
	}
}

func TestValidateStorageAccount(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"acmeprodsiteblue", false},
		{"abc", false},
		{"ab", true},
		{"acmeproductionsitegreen01", true},
		{"acme-prod", true},
		{"AcmeProd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageAccount(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStorageAccount(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
