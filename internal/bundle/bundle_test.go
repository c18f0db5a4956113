package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeTree creates files below a fresh directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func sha(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// Excluder
// ---------------------------------------------------------------------------

func TestExcluder_BuiltIn(t *testing.T) {
	x, err := NewExcluder(nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{".git/config", true},
		{"nested/.git/HEAD", true},
		{".aws/credentials", true},
		{".azure/azureProfile.json", true},
		{".env", true},
		{".env.production", true},
		{"static/.env.local", true},
		{".npmrc", true},
		{"certs/server.pem", true},
		{"tls.key", true},
		{"id_ed25519", true},
		{"node_modules/react/index.js", true},
		{".siteslot/manifest.json", true},
		{"static/.DS_Store", true},
		{"tsconfig.tsbuildinfo", true},

		{".env.example", false},
		{".env.template", false},
		{"index.html", false},
		{"static/js/main.4f2a.js", false},
		{"keys.json", false},
		{"env.js", false},
		{".well-known/security.txt", false},
	}
	for _, tt := range tests {
		if got := x.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExcluder_User(t *testing.T) {
	x, err := NewExcluder([]string{
		"# source maps stay private",
		"*.map",
		"",
		"drafts/",
		"static/media/**/*.psd",
		"  report.html  ",
	})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{"static/js/main.js.map", true},
		{"main.js.map", true},
		{"drafts/post.html", true},
		{"drafts/img/a.png", true},
		{"static/media/raw/hero.psd", true},
		{"report.html", true},
		{"nested/report.html", true},

		{"static/js/main.js", false},
		{"drafts.html", false},
		{"hero.psd", false},
		{"# source maps stay private", false},
	}
	for _, tt := range tests {
		if got := x.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExcluder_DirPatternOnlyMatchesDirs(t *testing.T) {
	x, err := NewExcluder([]string{"drafts/"})
	if err != nil {
		t.Fatal(err)
	}
	if x.File("drafts") {
		t.Error("directory pattern matched a file")
	}
	if !x.Dir("drafts") {
		t.Error("directory pattern did not match the directory")
	}
}

func TestNewExcluder_InvalidPattern(t *testing.T) {
	if _, err := NewExcluder([]string{"static/[a-"}); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}

// ---------------------------------------------------------------------------
// Hashing
// ---------------------------------------------------------------------------

func TestHashBytes(t *testing.T) {
	if got, want := HashBytes([]byte("hello")), sha("hello"); got != want {
		t.Errorf("HashBytes = %q, want %q", got, want)
	}
}

func TestSum(t *testing.T) {
	files := map[string]string{
		"b.js":       sha("b"),
		"a.html":     sha("a"),
		"static/c.c": sha("c"),
	}

	h := sha256.New()
	for _, rel := range []string{"a.html", "b.js", "static/c.c"} {
		h.Write([]byte(rel + "\x00" + files[rel][len("sha256:"):] + "\n"))
	}
	want := "sha256:" + hex.EncodeToString(h.Sum(nil))

	if got := Sum(files); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
	for i := 0; i < 5; i++ {
		if Sum(files) != want {
			t.Fatal("Sum is not deterministic")
		}
	}

	files["a.html"] = sha("changed")
	if Sum(files) == want {
		t.Error("Sum did not change with a file digest")
	}
}

func TestSum_RenameChangesSum(t *testing.T) {
	a := Sum(map[string]string{"index.html": sha("x")})
	b := Sum(map[string]string{"home.html": sha("x")})
	if a == b {
		t.Error("renaming a file did not change the sum")
	}
}

// ---------------------------------------------------------------------------
// Scan
// ---------------------------------------------------------------------------

func TestScan(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":              "<html></html>",
		"a.txt":                   "a",
		"a/b.txt":                 "b",
		"static/js/main.js":       "console.log(1)",
		"static/js/main.js.map":   "{}",
		".env":                    "SECRET=1",
		"node_modules/x/index.js": "x",
	})

	b, err := Scan(dir, Options{Excludes: []string{"*.map"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Byte order: "." sorts before "/".
	want := []string{"a.txt", "a/b.txt", "index.html", "static/js/main.js"}
	if got := b.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
	if b.SourceDir != dir {
		t.Errorf("SourceDir = %q", b.SourceDir)
	}
	if b.FileHashes["index.html"] != sha("<html></html>") {
		t.Errorf("index.html digest = %q", b.FileHashes["index.html"])
	}
	if b.BundleHash != Sum(b.FileHashes) {
		t.Error("BundleHash does not match Sum of file digests")
	}
	for _, fe := range b.Files {
		if !filepath.IsAbs(fe.AbsPath) {
			t.Errorf("%s: AbsPath %q is not absolute", fe.RelPath, fe.AbsPath)
		}
	}

	data, err := b.ReadFile(b.Files[2])
	if err != nil || string(data) != "<html></html>" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

func TestScan_ReportsExcluded(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":              "<html></html>",
		"static/app.js.map":       "{}",
		".env":                    "SECRET=1",
		".env.example":            "SECRET=",
		"node_modules/x/index.js": "x",
		"node_modules/y/index.js": "y",
	})

	var got []string
	b, err := Scan(dir, Options{
		Excludes:   []string{"*.map"},
		OnExcluded: func(rel string) { got = append(got, rel) },
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	slices.Sort(got)
	want := []string{".env", "node_modules/", "static/app.js.map"}
	if !slices.Equal(got, want) {
		t.Errorf("excluded = %v, want %v", got, want)
	}
	if keys := b.Keys(); !slices.Equal(keys, []string{".env.example", "index.html"}) {
		t.Errorf("Keys = %v", keys)
	}
}

func TestScan_SameTreeSameHash(t *testing.T) {
	files := map[string]string{"index.html": "x", "static/app.js": "y"}
	a, err := Scan(writeTree(t, files), Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Scan(writeTree(t, files), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if a.BundleHash != b.BundleHash {
		t.Error("identical trees hashed differently")
	}
}

func TestScan_Empty(t *testing.T) {
	b, err := Scan(t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Files) != 0 {
		t.Errorf("expected no files, got %v", b.Keys())
	}
}

func TestScan_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		dir  string
		opts Options
	}{
		{name: "missing", dir: filepath.Join(t.TempDir(), "build")},
		{name: "not a directory", dir: file},
		{name: "bad pattern", dir: t.TempDir(), opts: Options{Excludes: []string{"[a-"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Scan(tt.dir, tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Symlinks
// ---------------------------------------------------------------------------

func TestScan_SymlinkInTree(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "home"})
	if err := os.Symlink(filepath.Join(dir, "index.html"), filepath.Join(dir, "default.html")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	b, err := Scan(dir, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if b.FileHashes["default.html"] != sha("home") {
		t.Errorf("linked file digest = %q", b.FileHashes["default.html"])
	}
}

func TestScan_SymlinkEscape(t *testing.T) {
	outside := writeTree(t, map[string]string{"secret.txt": "s"})
	dir := writeTree(t, map[string]string{"index.html": "home"})
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(dir, "leak.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := Scan(dir, Options{})
	var escape *SymlinkEscapeError
	if !errors.As(err, &escape) {
		t.Fatalf("err = %v, want SymlinkEscapeError", err)
	}
	if escape.Path != "leak.txt" {
		t.Errorf("Path = %q", escape.Path)
	}

	b, err := Scan(dir, Options{AllowExternalSymlinks: true})
	if err != nil {
		t.Fatalf("Scan with external links allowed: %v", err)
	}
	if !slices.Contains(b.Keys(), "leak.txt") {
		t.Errorf("Keys = %v", b.Keys())
	}
}

func TestScan_SymlinkToDirectory(t *testing.T) {
	dir := writeTree(t, map[string]string{"static/app.js": "x"})
	if err := os.Symlink(filepath.Join(dir, "static"), filepath.Join(dir, "assets")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if _, err := Scan(dir, Options{}); err == nil {
		t.Fatal("expected error for a directory symlink")
	}
}

// ---------------------------------------------------------------------------
// In-memory bundles
// ---------------------------------------------------------------------------

func TestFromFiles(t *testing.T) {
	files := map[string][]byte{
		"static/app.js": []byte("js"),
		"index.html":    []byte("html"),
	}
	b := FromFiles(files)

	if got := b.Keys(); !slices.Equal(got, []string{"index.html", "static/app.js"}) {
		t.Errorf("Keys = %v", got)
	}
	if b.FileHashes["index.html"] != sha("html") {
		t.Errorf("digest = %q", b.FileHashes["index.html"])
	}

	// Same content on disk gives the same bundle hash.
	disk, err := Scan(writeTree(t, map[string]string{"static/app.js": "js", "index.html": "html"}), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if disk.BundleHash != b.BundleHash {
		t.Error("in-memory and on-disk bundle hashes differ")
	}

	files["index.html"] = []byte("mutated")
	data, err := b.ReadFile(b.Files[0])
	if err != nil || string(data) != "html" {
		t.Errorf("ReadFile after caller mutation = %q, %v", data, err)
	}
	if _, err := b.ReadFile(FileEntry{RelPath: "missing.html"}); err == nil {
		t.Error("expected error for unknown file")
	}
}

// ---------------------------------------------------------------------------
// Content types
// ---------------------------------------------------------------------------

func TestContentTypeForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"index.html", "text/html"},
		{"static/css/main.3cd1.css", "text/css"},
		{"static/js/main.4f2a.js", "application/javascript"},
		{"static/js/main.4f2a.js.map", "application/json"},
		{"manifest.json", "application/json"},
		{"site.webmanifest", "application/manifest+json"},
		{"robots.txt", "text/plain"},
		{"logo.svg", "image/svg+xml"},
		{"favicon.ico", "image/x-icon"},
		{"hero.webp", "image/webp"},
		{"fonts/inter.woff2", "font/woff2"},
		{"INDEX.HTML", "text/html"},
		{"PHOTO.JPG", "image/jpeg"},
		{"LICENSE", ContentTypeDefault},
		{"data.unknown-ext", ContentTypeDefault},
	}
	for _, tt := range tests {
		if got := ContentTypeForFile(tt.filename); got != tt.want {
			t.Errorf("ContentTypeForFile(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
