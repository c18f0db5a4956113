// Package engine publishes a built site into a slot's content store. It
// uploads every bundle file, records a release manifest, removes orphaned
// artifacts, and can plan or inspect a slot without changing it.
package engine

import (
	"github.com/siteslot/siteslot/internal/bundle"
	"github.com/siteslot/siteslot/internal/manifest"
	"golang.org/x/sync/semaphore"
)

// MaxParallelDeletes bounds how many single-object deletes are in flight.
const MaxParallelDeletes = 10

// Engine orchestrates publish, plan, and inspect operations against content
// stores. It uses a weighted semaphore to bound concurrency across parallel
// file uploads.
type Engine struct {
	sem       *semaphore.Weighted
	deleteSem *semaphore.Weighted
}

// New creates a new Engine with the given upload concurrency semaphore.
func New(sem *semaphore.Weighted) *Engine {
	return &Engine{
		sem:       sem,
		deleteSem: semaphore.NewWeighted(MaxParallelDeletes),
	}
}

// PublishInput holds everything needed to publish a bundle into a slot.
type PublishInput struct {
	Bundle      *bundle.Bundle
	Slot        string
	Version     string
	Tag         string // empty when the release is not tagged
	RunID       string
	ToolVersion string
	Commit      string

	// OnUploaded is called once every file and the manifest are stored,
	// before any delete starts.
	OnUploaded func(keys []string)
	// OnDeleted is called after all orphaned artifacts are removed.
	OnDeleted func(keys []string)
}

// PublishResult holds the outcome of publishing to a single store.
type PublishResult struct {
	TargetName   string
	Uploaded     []string
	Deleted      []string
	ManifestJSON []byte
}

// SlotStatus holds the state read from a slot's store.
type SlotStatus struct {
	TargetName      string
	Manifest        *manifest.Manifest
	Healthy         bool // all manifest files present
	Drifted         bool // bundle_hash mismatch
	MissingManifest bool
	MissingFiles    []string
	ExtraFiles      []string // stored but not in the manifest
}
