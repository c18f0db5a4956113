// Package manifest describes the release manifest stored next to the site
// files in every slot.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Key is the object key the manifest is stored under in a slot's store.
const Key = ".siteslot/manifest.json"

// SchemaVersion is the newest manifest schema this build understands.
const SchemaVersion = 1

// Manifest records what a publish run wrote into a slot. Files maps every
// uploaded key to its content digest.
type Manifest struct {
	SchemaVersion int               `json:"schema_version"`
	ToolVersion   string            `json:"tool_version"`
	Slot          string            `json:"slot"`
	Version       string            `json:"version"`
	Tag           string            `json:"tag,omitempty"`
	RunID         string            `json:"run_id"`
	CreatedAt     string            `json:"created_at"`
	BundleHash    string            `json:"bundle_hash"`
	Origin        *Origin           `json:"origin,omitempty"`
	Files         map[string]string `json:"files"`
}

// Origin is where the published files came from.
type Origin struct {
	Type      string `json:"type"`
	SourceDir string `json:"source_dir,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// Keys returns every key the manifest accounts for in the store, its own
// key included, in sorted order.
func (m *Manifest) Keys() []string {
	keys := append(lo.Keys(m.Files), Key)
	slices.Sort(keys)
	return keys
}

// Marshal encodes m as indented JSON. Struct fields keep declaration order
// and file keys are sorted, so equal manifests encode to equal bytes.
func Marshal(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, errors.New("manifest: nil manifest")
	}
	return json.MarshalIndent(m, "", "  ")
}

// Unmarshal decodes a manifest and rejects schemas newer than
// SchemaVersion.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("manifest: unsupported schema version %d", m.SchemaVersion)
	}
	return &m, nil
}
