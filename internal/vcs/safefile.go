package vcs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

const tempPrefix = ".tmp-"

type syncer interface {
	Sync() error
}

// SafeWrite writes data to name atomically: tempfile -> sync -> rename.
// The tempfile is created in the same directory as name so the rename stays
// on one filesystem. Missing parent directories are created.
func SafeWrite(fs billy.Filesystem, name string, data []byte) (err error) {
	dir := filepath.Dir(name)
	if err = fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create dir %s", dir)
	}
	f, err := fs.TempFile(dir, tempPrefix)
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()

	// Clean up on any error
	defer func() {
		if err != nil {
			fs.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, "write temp file")
	}
	if s, ok := f.(syncer); ok {
		if err = s.Sync(); err != nil {
			f.Close()
			return errors.Wrap(err, "fsync temp file")
		}
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err = fs.Rename(tmp, name); err != nil {
		return errors.Wrap(err, "rename temp to target")
	}
	return nil
}

// readFile returns the contents of name. A missing file yields an error
// matching os.ErrNotExist.
func readFile(fs billy.Basic, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func exists(fs billy.Basic, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}
