package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileEntry is one file of a bundle.
type FileEntry struct {
	RelPath string // slash-separated path below the build directory
	AbsPath string // empty for in-memory bundles
}

// SymlinkEscapeError reports a symlink resolving outside the build directory.
type SymlinkEscapeError struct {
	Path   string
	Target string
}

func (e *SymlinkEscapeError) Error() string {
	return fmt.Sprintf("bundle: symlink %q resolves to %q outside the build directory", e.Path, e.Target)
}

// walker collects the files of one build directory.
type walker struct {
	root          string // absolute, symlinks resolved
	excluder      *Excluder
	allowExternal bool
	onExcluded    func(rel string)
	entries       []FileEntry
}

func (w *walker) visit(p string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	switch {
	case rel == ".":
		return nil
	case d.IsDir():
		if w.excluder.Dir(rel) {
			w.skipped(rel + "/")
			return fs.SkipDir
		}
		return nil
	case w.excluder.File(rel):
		w.skipped(rel)
		return nil
	case d.Type()&fs.ModeSymlink != 0:
		if err := w.checkSymlink(rel, p); err != nil {
			return err
		}
	case !d.Type().IsRegular():
		return nil
	}

	w.entries = append(w.entries, FileEntry{RelPath: rel, AbsPath: p})
	return nil
}

func (w *walker) skipped(rel string) {
	if w.onExcluded != nil {
		w.onExcluded(rel)
	}
}

// checkSymlink accepts links to regular files inside the root, or anywhere
// when external links are allowed.
func (w *walker) checkSymlink(rel, p string) error {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return fmt.Errorf("resolve symlink %q: %w", rel, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("stat symlink target %q: %w", rel, err)
	}
	if info.IsDir() {
		return fmt.Errorf("symlink %q points to a directory", rel)
	}
	if w.allowExternal {
		return nil
	}
	if !strings.HasPrefix(resolved, w.root+string(filepath.Separator)) {
		return &SymlinkEscapeError{Path: rel, Target: resolved}
	}
	return nil
}

// enumerate walks dir and returns its included files in byte order of
// their relative paths.
func enumerate(dir string, x *Excluder, opts Options) ([]FileEntry, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return nil, err
	}

	w := &walker{root: root, excluder: x, allowExternal: opts.AllowExternalSymlinks, onExcluded: opts.OnExcluded}
	if err := filepath.WalkDir(root, w.visit); err != nil {
		return nil, err
	}
	slices.SortFunc(w.entries, func(a, b FileEntry) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	return w.entries, nil
}
