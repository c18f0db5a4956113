package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/siteslot/siteslot/internal/bundle"
	"github.com/siteslot/siteslot/internal/manifest"
	"github.com/siteslot/siteslot/internal/planformat"
	"github.com/siteslot/siteslot/internal/target"
)

// Plan compares a bundle with a slot's store without changing it. File
// hashes come from the stored release manifest; a stored file the manifest
// does not describe is always planned as an update.
func (e *Engine) Plan(ctx context.Context, tgt target.Target, b *bundle.Bundle) ([]planformat.FileChange, error) {
	objects, err := tgt.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("engine: plan: list: %w", err)
	}

	var previous map[string]string
	m, err := readManifest(ctx, tgt)
	switch {
	case err == nil:
		previous = m.Files
	case errors.Is(err, target.ErrNotFound):
	default:
		return nil, fmt.Errorf("engine: plan: %w", err)
	}

	stored := make(map[string]target.ObjectInfo, len(objects))
	for _, o := range objects {
		stored[o.Key] = o
	}

	var changes []planformat.FileChange
	for _, fe := range b.Files {
		newHash := b.FileHashes[fe.RelPath]
		fc := planformat.FileChange{
			RelPath: fe.RelPath,
			NewHash: newHash,
		}
		if _, ok := stored[fe.RelPath]; !ok {
			fc.Action = planformat.ActionCreate
		} else {
			fc.OldHash = previous[fe.RelPath]
			if fc.OldHash == newHash {
				fc.Action = planformat.ActionNoop
			} else {
				fc.Action = planformat.ActionUpdate
			}
		}
		if data, err := b.ReadFile(fe); err == nil {
			fc.SizeBytes = int64(len(data))
		}
		changes = append(changes, fc)
	}

	existingKeys := make([]string, 0, len(objects))
	for _, o := range objects {
		existingKeys = append(existingKeys, o.Key)
	}
	for _, key := range ArtifactsToDelete(existingKeys, append(b.Keys(), manifest.Key)) {
		changes = append(changes, planformat.FileChange{
			RelPath: key,
			Action:  planformat.ActionDestroy,
			OldHash: previous[key],
		})
	}

	return changes, nil
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
