package credential

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/siteslot/siteslot/internal/config"
)

const (
	tenantID = "0b1c2d3e-4f50-6172-8394-a5b6c7d8e9f0"
	clientID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

// selfSigned returns a PEM RSA private key and certificate.
func selfSigned(t *testing.T) (keyPEM, certPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "siteslot-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return keyPEM, certPEM
}

func TestNewServicePrincipal(t *testing.T) {
	keyPEM, certPEM := selfSigned(t)
	cfg := &config.PipelineConfig{
		Azure: config.AzureInfo{TenantID: tenantID},
		Auth:  config.Auth{Type: config.AuthServicePrincipal, ClientID: clientID, KeyPEM: keyPEM, CertPEM: certPEM},
	}
	cred, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cred == nil {
		t.Fatal("New() returned nil credential")
	}
}

func TestNewServicePrincipalBadPEM(t *testing.T) {
	cfg := &config.PipelineConfig{
		Azure: config.AzureInfo{TenantID: tenantID},
		Auth:  config.Auth{Type: config.AuthServicePrincipal, ClientID: clientID, KeyPEM: "SECRET-KEY", CertPEM: "nope"},
	}
	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "SECRET-KEY") {
		t.Errorf("error leaks key material: %v", err)
	}
}

func TestNewManagedIdentity(t *testing.T) {
	cfg := &config.PipelineConfig{
		Auth: config.Auth{Type: config.AuthManagedIdentity, ClientID: clientID},
	}
	if _, err := New(cfg); err != nil {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNewUnsupported(t *testing.T) {
	if _, err := New(&config.PipelineConfig{Auth: config.Auth{Type: "pat"}}); err == nil {
		t.Error("expected error for unsupported auth type")
	}
}
