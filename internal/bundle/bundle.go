package bundle

import (
	"fmt"
	"maps"
	"os"
)

// Bundle is the file set of one release.
type Bundle struct {
	SourceDir  string
	Files      []FileEntry
	FileHashes map[string]string // relpath -> digest
	BundleHash string

	contents map[string][]byte // in-memory bundles only
}

// Options tunes Scan.
type Options struct {
	// Excludes are extra patterns on top of the built-in ones.
	Excludes []string
	// AllowExternalSymlinks accepts links resolving outside the directory.
	AllowExternalSymlinks bool
	// OnExcluded, when set, receives every path left out of the bundle.
	// Excluded directories end in "/" and their contents are not reported.
	OnExcluded func(rel string)
}

// Scan enumerates, validates and hashes the build directory dir.
func Scan(dir string, opts Options) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle: build directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bundle: build directory %q is not a directory", dir)
	}

	x, err := NewExcluder(opts.Excludes)
	if err != nil {
		return nil, err
	}
	files, err := enumerate(dir, x, opts)
	if err != nil {
		return nil, fmt.Errorf("bundle: scan %s: %w", dir, err)
	}

	hashes := make(map[string]string, len(files))
	for _, fe := range files {
		if hashes[fe.RelPath], err = hashFile(fe.AbsPath); err != nil {
			return nil, fmt.Errorf("bundle: hash %q: %w", fe.RelPath, err)
		}
	}

	return &Bundle{
		SourceDir:  dir,
		Files:      files,
		FileHashes: hashes,
		BundleHash: Sum(hashes),
	}, nil
}

// FromFiles builds a bundle from in-memory contents keyed by relative path.
func FromFiles(files map[string][]byte) *Bundle {
	b := &Bundle{
		FileHashes: make(map[string]string, len(files)),
		contents:   maps.Clone(files),
	}
	for _, rel := range sortedKeys(files) {
		b.Files = append(b.Files, FileEntry{RelPath: rel})
		b.FileHashes[rel] = HashBytes(files[rel])
	}
	b.BundleHash = Sum(b.FileHashes)
	return b
}

// Keys returns the relative paths of all files in order.
func (b *Bundle) Keys() []string {
	keys := make([]string, len(b.Files))
	for i, fe := range b.Files {
		keys[i] = fe.RelPath
	}
	return keys
}

// ReadFile returns the content of fe.
func (b *Bundle) ReadFile(fe FileEntry) ([]byte, error) {
	if fe.AbsPath != "" {
		return os.ReadFile(fe.AbsPath)
	}
	if data, ok := b.contents[fe.RelPath]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("bundle: no content for %q", fe.RelPath)
}
