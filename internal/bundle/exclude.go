// Package bundle scans a website build directory into the set of files a
// release uploads: enumeration, exclusion, hashing, symlink validation and
// content types.
package bundle

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Built-in patterns are matched against base names at any depth and cannot
// be switched off. A directory match drops the whole subtree.
var (
	secretDirs  = []string{".git", ".svn", ".hg", ".ssh", ".aws", ".azure", ".gnupg"}
	secretFiles = []string{
		".env", ".env.*", ".npmrc", ".netrc",
		"*.pem", "*.key", "*.p12", "*.pfx", "*.jks",
		"id_rsa", "id_ecdsa", "id_ed25519",
	}
	// Publishable despite matching secretFiles.
	publicFiles = []string{".env.example", ".env.template"}

	// .siteslot is reserved for the release manifest.
	litterDirs  = []string{"node_modules", ".cache", ".siteslot"}
	litterFiles = []string{".DS_Store", "Thumbs.db", "*.tsbuildinfo"}
)

// Excluder decides which build paths stay out of a bundle. Paths are
// slash-separated and relative to the build directory.
type Excluder struct {
	user []string
}

// NewExcluder validates user patterns. They follow gitignore habits: a
// trailing slash names a directory, a pattern without a slash matches base
// names at any depth, blank lines and "#" comments are ignored.
func NewExcluder(patterns []string) (*Excluder, error) {
	x := &Excluder{}
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(p, "/")) {
			return nil, fmt.Errorf("bundle: invalid exclude pattern %q", p)
		}
		x.user = append(x.user, p)
	}
	return x, nil
}

// Dir reports whether the directory rel and everything below it is excluded.
func (x *Excluder) Dir(rel string) bool {
	base := path.Base(rel)
	if matchAny(secretDirs, base) || matchAny(litterDirs, base) {
		return true
	}
	for _, p := range x.user {
		if matchUser(strings.TrimSuffix(p, "/"), rel) {
			return true
		}
	}
	return false
}

// File reports whether the file rel is excluded, ignoring its directories.
func (x *Excluder) File(rel string) bool {
	base := path.Base(rel)
	if matchAny(secretFiles, base) && !matchAny(publicFiles, base) {
		return true
	}
	if matchAny(litterFiles, base) {
		return true
	}
	for _, p := range x.user {
		if !strings.HasSuffix(p, "/") && matchUser(p, rel) {
			return true
		}
	}
	return false
}

// Excluded reports whether rel or any directory above it is excluded.
func (x *Excluder) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for i, c := range rel {
		if c == '/' && x.Dir(rel[:i]) {
			return true
		}
	}
	return x.File(rel)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func matchUser(pattern, rel string) bool {
	if !strings.Contains(pattern, "/") {
		rel = path.Base(rel)
	}
	ok, _ := doublestar.Match(pattern, rel)
	return ok
}
