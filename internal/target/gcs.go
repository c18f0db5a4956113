package target

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcsstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// gcsTarget stores a site in a Cloud Storage bucket configured as a
// website.
type gcsTarget struct {
	bucket     *gcsstorage.BucketHandle
	prefix     string
	kmsKeyName string
	name       string
}

// newGCSTarget authenticates with Application Default Credentials.
func newGCSTarget(cfg Config) (Target, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	client, err := gcsstorage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &gcsTarget{
		bucket:     client.Bucket(cfg.Bucket),
		prefix:     normalizePrefix(cfg.Prefix),
		kmsKeyName: cfg.KMSKeyName,
		name:       cfg.Name,
	}, nil
}

func (t *gcsTarget) Name() string {
	return t.name
}

func (t *gcsTarget) object(key string) *gcsstorage.ObjectHandle {
	return t.bucket.Object(t.prefix + key)
}

// Put streams body into the object. A failed copy cancels the write so no
// partial object is committed.
func (t *gcsTarget) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := t.object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata
	w.KMSKeyName = t.kmsKeyName
	if _, err := io.Copy(w, body); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("gcs write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs commit %q: %w", key, err)
	}
	return nil
}

func (t *gcsTarget) Get(ctx context.Context, key string) (io.ReadCloser, ObjectMeta, error) {
	r, err := t.object(key).NewReader(ctx)
	switch {
	case errors.Is(err, gcsstorage.ErrObjectNotExist):
		return nil, ObjectMeta{}, ErrNotFound
	case err != nil:
		return nil, ObjectMeta{}, fmt.Errorf("gcs read %q: %w", key, err)
	}
	return r, ObjectMeta{Size: r.Attrs.Size, ContentType: r.Attrs.ContentType}, nil
}

func (t *gcsTarget) Delete(ctx context.Context, key string) error {
	err := t.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %q: %w", key, err)
	}
	return nil
}

func (t *gcsTarget) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := t.bucket.Objects(ctx, &gcsstorage.Query{Prefix: t.prefix + prefix})
	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return objects, nil
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %q: %w", prefix, err)
		}
		objects = append(objects, ObjectInfo{
			Key:  strings.TrimPrefix(attrs.Name, t.prefix),
			Size: attrs.Size,
			ETag: attrs.Etag,
		})
	}
}
