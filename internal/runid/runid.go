// Package runid names publish runs.
//
// A run id is "run_" followed by the UTC start time and 8 lowercase hex
// characters from a random UUID, for example run_20260213T200102Z_6f2c9a1b.
// It is written to the release manifest and the release tag message, and
// status reads the publish time back out of it.
package runid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prefix = "run_"
	layout = "20060102T150405Z"
	// suffixLen is the number of hex characters after the timestamp.
	suffixLen = 8
)

// New returns a run id stamped with the current time.
func New() string {
	u := uuid.New()
	return prefix + time.Now().UTC().Format(layout) + "_" + hex.EncodeToString(u[:suffixLen/2])
}

// Parse returns the start time encoded in id.
func Parse(id string) (time.Time, error) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return time.Time{}, fmt.Errorf("runid: %q does not start with %q", id, prefix)
	}
	stamp, suffix, ok := strings.Cut(rest, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("runid: %q has no random suffix", id)
	}
	at, err := time.Parse(layout, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("runid: %q: %w", id, err)
	}
	if err := checkSuffix(suffix); err != nil {
		return time.Time{}, fmt.Errorf("runid: %q: %w", id, err)
	}
	return at, nil
}

func checkSuffix(s string) error {
	if len(s) != suffixLen {
		return fmt.Errorf("random suffix must be %d characters", suffixLen)
	}
	if strings.ToLower(s) != s {
		return errors.New("random suffix must be lowercase")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return errors.New("random suffix must be hex")
	}
	return nil
}
