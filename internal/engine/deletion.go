package engine

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/siteslot/siteslot/internal/target"
)

// ArtifactsToDelete returns the keys of existing that are absent from
// uploaded, in existing order. The order of uploaded does not matter.
func ArtifactsToDelete(existing, uploaded []string) []string {
	keep := lo.SliceToMap(uploaded, func(k string) (string, struct{}) { return k, struct{}{} })
	return lo.Filter(existing, func(k string, _ int) bool {
		_, ok := keep[k]
		return !ok
	})
}

// deleteKeys deletes keys one request at a time, at most MaxParallelDeletes
// in flight. The store rejects batch deletes.
func (e *Engine) deleteKeys(ctx context.Context, tgt target.Target, keys []string) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, key := range keys {
		g.Go(func() error {
			if err := e.deleteSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.deleteSem.Release(1)

			if err := tgt.Delete(gctx, key); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
			return nil
		})
	}

	return g.Wait()
}
