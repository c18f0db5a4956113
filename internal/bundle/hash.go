package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Digests are written "sha256:<hex>".
const digestPrefix = "sha256:"

func digest(h hash.Hash) string {
	return digestPrefix + hex.EncodeToString(h.Sum(nil))
}

// HashBytes returns the digest of data.
func HashBytes(data []byte) string {
	h := sha256.New()
	h.Write(data)
	return digest(h)
}

// hashFile returns the digest of the file at p.
func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return digest(h), nil
}

// Sum combines per-file digests into the bundle digest: the sha256 of one
// "<relpath>\x00<hex>\n" line per file in byte order of relpath. Identical
// trees give identical sums regardless of scan order.
func Sum(files map[string]string) string {
	h := sha256.New()
	for _, rel := range sortedKeys(files) {
		fmt.Fprintf(h, "%s\x00%s\n", rel, strings.TrimPrefix(files[rel], digestPrefix))
	}
	return digest(h)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
