// Package tagname encodes and decodes release tag names.
//
// Format: <prefix><id><separator><version>
//   - prefix:    fixed per environment, e.g. "website-"
//   - id:        deployment slot, e.g. "blue"
//   - separator: fixed per environment, e.g. "-v"
//   - version:   semantic version text, not validated here
//
// Example: website-blue-v1.2.0
//
// There is no escaping. Decoding splits at the first separator found after
// the prefix, so ids and versions must not contain the separator. Validate
// and ValidateID check this when configuration is loaded.
package tagname

import (
	"errors"
	"fmt"
	"strings"
)

// refsTagsPrefix is the ref path prefix of tags in ls-remote output.
const refsTagsPrefix = "refs/tags/"

// Scheme describes how a slot id and a version are joined into a tag name.
type Scheme struct {
	Prefix           string `json:"prefix" yaml:"prefix"`
	VersionSeparator string `json:"versionSeparator" yaml:"versionSeparator"`
}

// Tag is the decoded form of a tag name.
type Tag struct {
	Scheme  Scheme
	ID      string
	Version string
}

// Validate reports whether the scheme can round-trip tag names.
func (s Scheme) Validate() error {
	if s.Prefix == "" {
		return errors.New("tagname: prefix must not be empty")
	}
	if s.VersionSeparator == "" {
		return errors.New("tagname: version separator must not be empty")
	}
	if strings.Contains(s.Prefix, s.VersionSeparator) {
		return fmt.Errorf("tagname: version separator %q must not appear in prefix %q", s.VersionSeparator, s.Prefix)
	}
	return nil
}

// ValidateID reports whether id can be encoded with this scheme without
// making the decoded result ambiguous.
func (s Scheme) ValidateID(id string) error {
	if id == "" {
		return errors.New("tagname: id must not be empty")
	}
	if strings.Contains(id, s.VersionSeparator) {
		return fmt.Errorf("tagname: id %q contains version separator %q", id, s.VersionSeparator)
	}
	return nil
}

// Encode joins the tag parts into a tag name.
func Encode(t Tag) string {
	return t.Scheme.Prefix + t.ID + t.Scheme.VersionSeparator + t.Version
}

// Decode splits name into slot id and version. The second return value is
// false when name does not start with the scheme prefix or has no
// separator after it.
func Decode(s Scheme, name string) (Tag, bool) {
	if !strings.HasPrefix(name, s.Prefix) || s.VersionSeparator == "" {
		return Tag{}, false
	}

	rest := name[len(s.Prefix):]
	idx := strings.Index(rest, s.VersionSeparator)
	if idx < 0 {
		return Tag{}, false
	}

	return Tag{
		Scheme:  s,
		ID:      rest[:idx],
		Version: rest[idx+len(s.VersionSeparator):],
	}, true
}

// ParseRawTagFeed extracts tag short names from `git ls-remote --tags --refs`
// output. Each non-blank line is "<hash>\t<ref>"; the ref has its
// "refs/tags/" prefix removed. Input order is kept and nothing is
// deduplicated.
func ParseRawTagFeed(feed string) []string {
	tags := []string{}
	for _, line := range strings.Split(feed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ref := line
		if i := strings.LastIndex(line, "\t"); i >= 0 {
			ref = line[i+1:]
		}
		ref = strings.TrimSpace(ref)
		tags = append(tags, strings.TrimPrefix(ref, refsTagsPrefix))
	}
	return tags
}
