// Package slot decides which blue/green deployment slot receives a release.
//
// The decision is derived only from release tags: every tag that decodes to
// a known slot id contributes one version to the history. Only the newest
// known version may rotate to the next slot, so hotfixes of older releases
// never claim a fresh slot.
package slot

import (
	"slices"

	"github.com/blang/semver/v4"
	"github.com/samber/lo"

	"github.com/siteslot/siteslot/internal/tagname"
)

// History maps a released version to the slot id it was published to.
type History map[string]string

// Decision is the outcome of Pick. ID is empty when the release must be
// skipped. PreviousVersions lists every known version, newest first, and is
// populated either way.
type Decision struct {
	ID               string
	PreviousVersions []string
}

// Chosen reports whether a slot was selected.
func (d Decision) Chosen() bool {
	return d.ID != ""
}

// Newest returns the newest known version, or "" when there is no history.
func (d Decision) Newest() string {
	if len(d.PreviousVersions) == 0 {
		return ""
	}
	return d.PreviousVersions[0]
}

// BuildHistory decodes tags with the scheme and keeps those whose id is one
// of ids. Tags with a foreign prefix, a missing separator, an unknown id or
// a version that is not valid semver are skipped.
func BuildHistory(scheme tagname.Scheme, ids []string, tags []string) History {
	h := History{}
	for _, name := range tags {
		t, ok := tagname.Decode(scheme, name)
		if !ok || !lo.Contains(ids, t.ID) {
			continue
		}
		if _, err := semver.Parse(t.Version); err != nil {
			continue
		}
		h[t.Version] = t.ID
	}
	return h
}

// Versions returns the history's versions sorted newest first by semantic
// version precedence. Versions of equal precedence are ordered lexically so
// the result is stable.
func (h History) Versions() []string {
	versions := lo.Keys(h)
	slices.SortFunc(versions, func(a, b string) int {
		if c := semver.MustParse(b).Compare(semver.MustParse(a)); c != 0 {
			return c
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return versions
}

// Pick selects the slot for current.
//
//   - current already released: no slot.
//   - no history: ids[0].
//   - newest known version older than current: the id after the newest
//     version's id, wrapping around.
//   - otherwise: no slot.
func Pick(scheme tagname.Scheme, ids []string, tags []string, current semver.Version) Decision {
	h := BuildHistory(scheme, ids, tags)
	d := Decision{PreviousVersions: h.Versions()}

	if len(ids) == 0 {
		return d
	}

	if _, ok := h[current.String()]; ok {
		return d
	}

	if len(d.PreviousVersions) == 0 {
		d.ID = ids[0]
		return d
	}

	newest := d.PreviousVersions[0]
	if !semver.MustParse(newest).LT(current) {
		return d
	}

	idx := lo.IndexOf(ids, h[newest])
	d.ID = ids[(idx+1)%len(ids)]
	return d
}
