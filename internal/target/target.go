package target

import (
	"context"
	"errors"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// WebContainer is the container Azure serves static website content from.
const WebContainer = "$web"

// PutOptions controls optional behavior for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectMeta is returned from Get.
type ObjectMeta struct {
	ETag        string
	Size        int64
	ContentType string
}

// ObjectInfo is a single entry returned from List.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// Target is the content store a site slot is published to. Implementations
// exist for an Azure static website container, S3, GCS and memory.
type Target interface {
	// Put writes an object unconditionally, replacing any existing object.
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error
	// Get retrieves an object. Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectMeta, error)
	// Delete removes a single object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all objects under the given prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Name returns the target name for logging.
	Name() string
}

// Config holds the configuration used by NewTarget to construct a Target.
type Config struct {
	Name           string
	Type           string // "azure", "s3", "gcs", "memory"
	Bucket         string
	Region         string
	Prefix         string
	StorageAccount string
	ContainerName  string // defaults to WebContainer
	KMSKeyID       string
	KMSKeyName     string
	MaxRetries     int
	RetryBackoff   string // "exponential" | "linear"

	// Credential authenticates Azure requests. When nil the default Azure
	// credential chain is used.
	Credential azcore.TokenCredential
}
