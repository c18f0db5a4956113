package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/siteslot/siteslot/internal/manifest"
	"github.com/siteslot/siteslot/internal/target"
)

// Inspect reads the release manifest of a slot's store and compares it
// with the stored keys. A store without a manifest reports MissingManifest
// and is not healthy. When expectedBundleHash is set, a different manifest
// bundle hash marks the slot as drifted.
func (e *Engine) Inspect(ctx context.Context, tgt target.Target, expectedBundleHash string) (*SlotStatus, error) {
	status := &SlotStatus{
		TargetName: tgt.Name(),
	}

	// Step 1: Read the manifest.
	m, err := readManifest(ctx, tgt)
	if err != nil {
		if errors.Is(err, target.ErrNotFound) {
			status.MissingManifest = true
			return status, nil
		}
		return nil, fmt.Errorf("engine: inspect: %w", err)
	}
	status.Manifest = m

	// Step 2: Drift.
	if expectedBundleHash != "" && m.BundleHash != expectedBundleHash {
		status.Drifted = true
	}

	// Step 3: Compare stored keys with the manifest.
	objects, err := tgt.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("engine: inspect: list: %w", err)
	}
	stored := lo.Map(objects, func(o target.ObjectInfo, _ int) string { return o.Key })
	listed := m.Keys()

	status.MissingFiles = sortedCopy(ArtifactsToDelete(listed, stored))
	status.ExtraFiles = ArtifactsToDelete(stored, listed)

	// Step 4: Health.
	status.Healthy = len(status.MissingFiles) == 0

	return status, nil
}

// readManifest fetches and decodes the release manifest. It returns
// target.ErrNotFound when the store has none.
func readManifest(ctx context.Context, tgt target.Target) (*manifest.Manifest, error) {
	rc, _, err := tgt.Get(ctx, manifest.Key)
	if err != nil {
		if errors.Is(err, target.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read manifest body: %w", err)
	}

	m, err := manifest.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}
