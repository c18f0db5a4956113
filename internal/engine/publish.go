package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/siteslot/siteslot/internal/bundle"
	"github.com/siteslot/siteslot/internal/manifest"
	"github.com/siteslot/siteslot/internal/target"
)

// Publish replaces the content of a slot's store with the bundle.
//
// Steps:
//  1. List the keys already stored
//  2. Upload all bundle files in parallel
//  3. Build and upload the release manifest
//  4. Compute the orphaned keys
//  5. Delete the orphans, one request per key, at most MaxParallelDeletes at a time
//
// A failure aborts the remaining steps. Nothing is rolled back.
func (e *Engine) Publish(ctx context.Context, tgt target.Target, input PublishInput) (*PublishResult, error) {
	if input.Bundle == nil {
		return nil, fmt.Errorf("engine: publish: no bundle")
	}

	// Step 1: Existing keys.
	existing, err := tgt.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("engine: list existing: %w", err)
	}

	// Step 2: Upload files.
	if err := e.uploadFiles(ctx, tgt, input.Bundle); err != nil {
		return nil, fmt.Errorf("engine: upload files: %w", err)
	}

	// Step 3: Manifest.
	manifestJSON, err := e.uploadManifest(ctx, tgt, input)
	if err != nil {
		return nil, fmt.Errorf("engine: upload manifest: %w", err)
	}

	uploaded := append(input.Bundle.Keys(), manifest.Key)
	if input.OnUploaded != nil {
		input.OnUploaded(uploaded)
	}

	// Step 4: Orphans.
	existingKeys := lo.Map(existing, func(o target.ObjectInfo, _ int) string { return o.Key })
	orphans := ArtifactsToDelete(existingKeys, uploaded)

	// Step 5: Delete.
	if err := e.deleteKeys(ctx, tgt, orphans); err != nil {
		return nil, fmt.Errorf("engine: delete orphans: %w", err)
	}
	if input.OnDeleted != nil {
		input.OnDeleted(orphans)
	}

	return &PublishResult{
		TargetName:   tgt.Name(),
		Uploaded:     uploaded,
		Deleted:      orphans,
		ManifestJSON: manifestJSON,
	}, nil
}

// uploadFiles uploads all bundle files to the target in parallel, bounded
// by the engine's semaphore.
func (e *Engine) uploadFiles(ctx context.Context, tgt target.Target, b *bundle.Bundle) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, fe := range b.Files {
		g.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("acquire semaphore for %q: %w", fe.RelPath, err)
			}
			defer e.sem.Release(1)

			content, err := b.ReadFile(fe)
			if err != nil {
				return fmt.Errorf("read file %q: %w", fe.RelPath, err)
			}

			if err := tgt.Put(gctx, fe.RelPath, bytes.NewReader(content), target.PutOptions{
				ContentType: bundle.ContentTypeForFile(fe.RelPath),
			}); err != nil {
				return fmt.Errorf("put %q: %w", fe.RelPath, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// uploadManifest builds and uploads the release manifest.
func (e *Engine) uploadManifest(ctx context.Context, tgt target.Target, input PublishInput) ([]byte, error) {
	b := input.Bundle

	files := make(map[string]string, len(b.Files))
	for _, fe := range b.Files {
		hash, ok := b.FileHashes[fe.RelPath]
		if !ok {
			return nil, fmt.Errorf("missing hash for file %q", fe.RelPath)
		}
		files[fe.RelPath] = hash
	}

	m := &manifest.Manifest{
		SchemaVersion: manifest.SchemaVersion,
		ToolVersion:   input.ToolVersion,
		Slot:          input.Slot,
		Version:       input.Version,
		Tag:           input.Tag,
		RunID:         input.RunID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		BundleHash:    b.BundleHash,
		Origin: &manifest.Origin{
			Type:      originType(b),
			SourceDir: b.SourceDir,
			Commit:    input.Commit,
		},
		Files: files,
	}

	manifestJSON, err := manifest.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	if err := tgt.Put(ctx, manifest.Key, bytes.NewReader(manifestJSON), target.PutOptions{
		ContentType: bundle.ContentTypeManifest,
	}); err != nil {
		return nil, fmt.Errorf("put manifest: %w", err)
	}

	return manifestJSON, nil
}

func originType(b *bundle.Bundle) string {
	if b.SourceDir == "" {
		return "memory"
	}
	return "build"
}
