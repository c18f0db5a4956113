package target

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/samber/lo"
)

// azureTarget stores a site in the static website container of a storage
// account.
type azureTarget struct {
	container *container.Client
	prefix    string
	name      string
}

// ContainerURL is the blob endpoint of a container in account.
func ContainerURL(account, containerName string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, containerName)
}

func newAzureTarget(cfg Config) (Target, error) {
	if cfg.StorageAccount == "" {
		return nil, fmt.Errorf("storage account must be set")
	}
	cred := cfg.Credential
	if cred == nil {
		def, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating Azure credential: %w", err)
		}
		cred = def
	}
	client, err := container.NewClient(ContainerURL(cfg.StorageAccount, lo.CoalesceOrEmpty(cfg.ContainerName, WebContainer)), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure container client: %w", err)
	}
	return &azureTarget{container: client, prefix: normalizePrefix(cfg.Prefix), name: cfg.Name}, nil
}

func (t *azureTarget) Name() string {
	return t.name
}

func (t *azureTarget) blob(key string) string {
	return t.prefix + key
}

func (t *azureTarget) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error {
	upload := &blockblob.UploadStreamOptions{}
	if opts.ContentType != "" {
		upload.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(opts.ContentType)}
	}
	if len(opts.Metadata) > 0 {
		upload.Metadata = lo.MapValues(opts.Metadata, func(v, _ string) *string { return to.Ptr(v) })
	}
	if _, err := t.container.NewBlockBlobClient(t.blob(key)).UploadStream(ctx, body, upload); err != nil {
		return fmt.Errorf("azure upload %q: %w", key, err)
	}
	return nil
}

func (t *azureTarget) Get(ctx context.Context, key string) (io.ReadCloser, ObjectMeta, error) {
	resp, err := t.container.NewBlobClient(t.blob(key)).DownloadStream(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, ObjectMeta{}, ErrNotFound
		}
		return nil, ObjectMeta{}, fmt.Errorf("azure download %q: %w", key, err)
	}
	meta := ObjectMeta{
		Size:        lo.FromPtr(resp.ContentLength),
		ContentType: lo.FromPtr(resp.ContentType),
	}
	if resp.ETag != nil {
		meta.ETag = string(*resp.ETag)
	}
	return resp.Body, meta, nil
}

// Delete removes one blob and its snapshots. The static website container
// does not accept batch deletes, so every blob is its own request.
func (t *azureTarget) Delete(ctx context.Context, key string) error {
	_, err := t.container.NewBlobClient(t.blob(key)).Delete(ctx, &blob.DeleteOptions{
		DeleteSnapshots: to.Ptr(blob.DeleteSnapshotsOptionTypeInclude),
	})
	if err != nil && !isAzureNotFound(err) {
		return fmt.Errorf("azure delete %q: %w", key, err)
	}
	return nil
}

func (t *azureTarget) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	pager := t.container.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: to.Ptr(t.blob(prefix))})
	var objects []ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list %q: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			info := ObjectInfo{Key: strings.TrimPrefix(*item.Name, t.prefix)}
			if p := item.Properties; p != nil {
				info.Size = lo.FromPtr(p.ContentLength)
				if p.ETag != nil {
					info.ETag = string(*p.ETag)
				}
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

func isAzureNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound)
}

// normalizePrefix makes a non-empty prefix end with a slash.
func normalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
