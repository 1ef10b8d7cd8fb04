package vcs

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Worktree is the user's working directory. Files are addressed by absolute
// path; the repository directory is never listed or written through it.
type Worktree struct {
	fs   billy.Filesystem
	root string
}

// NewWorktree wraps fs, whose root corresponds to the absolute path root.
func NewWorktree(fs billy.Filesystem, root string) *Worktree {
	return &Worktree{fs: fs, root: filepath.Clean(root)}
}

// Root returns the absolute working directory path.
func (w *Worktree) Root() string { return w.root }

// Abs resolves a user-supplied file name against the working root.
func (w *Worktree) Abs(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(w.root, name)
}

// Rel returns path relative to the working root. Paths outside the root or
// inside the repository directory are rejected.
func (w *Worktree) Rel(path string) (string, error) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%s is outside the working directory", path)
	}
	if rel == DirName || strings.HasPrefix(rel, DirName+string(filepath.Separator)) {
		return "", errors.Errorf("%s is inside the repository directory", path)
	}
	return rel, nil
}

// Read returns the content of the file at path. Missing or unreachable files
// yield an error matching os.ErrNotExist.
func (w *Worktree) Read(path string) ([]byte, error) {
	rel, err := w.Rel(path)
	if err != nil {
		return nil, os.ErrNotExist
	}
	info, err := w.fs.Stat(rel)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, os.ErrNotExist
	}
	return readFile(w.fs, rel)
}

// Exists reports whether a regular file is present at path.
func (w *Worktree) Exists(path string) bool {
	rel, err := w.Rel(path)
	if err != nil {
		return false
	}
	info, err := w.fs.Stat(rel)
	return err == nil && info.Mode().IsRegular()
}

// Write replaces the file at path with data. An empty directory tree left
// where the file belongs is cleared first.
func (w *Worktree) Write(path string, data []byte) error {
	rel, err := w.Rel(path)
	if err != nil {
		return err
	}
	if info, err := w.fs.Lstat(rel); err == nil && info.IsDir() {
		if err := w.clearDir(rel); err != nil {
			return err
		}
	}
	return SafeWrite(w.fs, rel, data)
}

// Remove deletes the file at path and any parent directories left empty. A
// missing file is not an error.
func (w *Worktree) Remove(path string) error {
	rel, err := w.Rel(path)
	if err != nil {
		return err
	}
	if err := w.fs.Remove(rel); err != nil && !isNotExist(err) {
		return errors.Wrapf(err, "remove %s", rel)
	}
	return w.prune(filepath.Dir(rel))
}

// prune removes dir and each parent in turn until one is not empty.
func (w *Worktree) prune(dir string) error {
	for ; dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		entries, err := w.fs.ReadDir(dir)
		if isNotExist(err) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "list %s", dir)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := w.fs.Remove(dir); err != nil && !isNotExist(err) {
			return errors.Wrapf(err, "remove %s", dir)
		}
	}
	return nil
}

// clearDir removes the directory tree at rel, which must hold no files.
func (w *Worktree) clearDir(rel string) error {
	files, err := w.filesUnder(rel)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return errors.Errorf("%s: directory is not empty", rel)
	}
	if err := util.RemoveAll(w.fs, rel); err != nil {
		return errors.Wrapf(err, "remove %s", rel)
	}
	return nil
}

// Files lists every regular file below the root as absolute paths, sorted.
func (w *Worktree) Files() ([]string, error) {
	var files []string
	err := util.Walk(w.fs, ".", func(rel string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", rel)
		}
		switch {
		case info.IsDir() && rel == DirName:
			return filepath.SkipDir
		case info.Mode().IsRegular() && !isTempName(info.Name()):
			files = append(files, w.abs(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// filesUnder lists the absolute paths of every non-directory entry below
// rel, temp files and symlinks included.
func (w *Worktree) filesUnder(rel string) ([]string, error) {
	var files []string
	err := util.Walk(w.fs, rel, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", p)
		}
		if !info.IsDir() {
			files = append(files, w.abs(p))
		}
		return nil
	})
	return files, err
}

func (w *Worktree) abs(rel string) string {
	return filepath.Join(w.root, rel)
}

// UnsafeWrites returns the paths among writes that would clobber untracked
// work. A regular file is in the way when it is absent from tracked and holds
// bytes different from what would be written. A directory at a written path,
// or a file where one of its parent directories belongs, is in the way unless
// every file it holds is listed in removes, the paths deleted before any
// write happens.
func (w *Worktree) UnsafeWrites(tracked Tree, writes map[string][]byte, removes []string) ([]string, error) {
	removed := lo.SliceToMap(removes, func(p string) (string, bool) { return p, true })
	var unsafe []string
	for path, data := range writes {
		blocked, err := w.blocked(path, data, tracked, removed)
		if err != nil {
			return nil, err
		}
		if blocked {
			unsafe = append(unsafe, path)
		}
	}
	sort.Strings(unsafe)
	return unsafe, nil
}

func (w *Worktree) blocked(path string, data []byte, tracked Tree, removed map[string]bool) (bool, error) {
	rel, err := w.Rel(path)
	if err != nil {
		return false, nil
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for i := 1; i < len(parts); i++ {
		parent := filepath.Join(parts[:i]...)
		info, err := w.fs.Lstat(parent)
		if isNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrapf(err, "stat %s", parent)
		}
		if !info.IsDir() {
			return !removed[w.abs(parent)], nil
		}
	}

	info, err := w.fs.Lstat(rel)
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", rel)
	}
	switch {
	case info.IsDir():
		files, err := w.filesUnder(rel)
		if err != nil {
			return false, err
		}
		return lo.SomeBy(files, func(f string) bool { return !removed[f] }), nil
	case !info.Mode().IsRegular():
		return true, nil
	case tracked.Has(path):
		return false, nil
	}
	current, err := readFile(w.fs, rel)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", rel)
	}
	return !bytes.Equal(current, data), nil
}
