package fuse

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/samber/lo"

	"github.com/systemshift/gitlet/internal/vcs"
)

// relativeTree rekeys a commit tree by slash-separated paths relative to the
// working root. Paths outside the root are dropped.
func relativeTree(w *vcs.Worktree, t vcs.Tree) map[string]vcs.ID {
	out := make(map[string]vcs.ID, len(t))
	for abs, id := range t {
		rel, err := w.Rel(abs)
		if err != nil {
			continue
		}
		out[filepath.ToSlash(rel)] = id
	}
	return out
}

// treeEntry is one name inside a directory of a commit tree.
type treeEntry struct {
	Name string
	Dir  bool
	ID   vcs.ID
}

// listDir returns the entries directly under dir ("" for the top level),
// sorted by name.
func listDir(files map[string]vcs.ID, dir string) []treeEntry {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	byName := make(map[string]treeEntry)
	for p, id := range files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			byName[rest[:i]] = treeEntry{Name: rest[:i], Dir: true}
			continue
		}
		byName[rest] = treeEntry{Name: rest, ID: id}
	}
	entries := lo.Values(byName)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// lookupEntry finds name directly under dir.
func lookupEntry(files map[string]vcs.ID, dir, name string) (treeEntry, bool) {
	p := path.Join(dir, name)
	if id, ok := files[p]; ok {
		return treeEntry{Name: name, ID: id}, true
	}
	sub := p + "/"
	if lo.SomeBy(lo.Keys(files), func(f string) bool { return strings.HasPrefix(f, sub) }) {
		return treeEntry{Name: name, Dir: true}, true
	}
	return treeEntry{}, false
}

// TreeDir is one directory of a commit's tree.
type TreeDir struct {
	fs.Inode
	repo  *vcs.Repository
	files map[string]vcs.ID
	dir   string
	key   string
}

var _ = (fs.NodeLookuper)((*TreeDir)(nil))
var _ = (fs.NodeReaddirer)((*TreeDir)(nil))
var _ = (fs.NodeGetattrer)((*TreeDir)(nil))

func (d *TreeDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno(d.key)
	return fs.OK
}

func (d *TreeDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	list := listDir(d.files, d.dir)
	entries := make([]fuse.DirEntry, len(list))
	for i, e := range list {
		mode := uint32(syscall.S_IFREG)
		if e.Dir {
			mode = syscall.S_IFDIR
		}
		entries[i] = fuse.DirEntry{
			Name: e.Name,
			Mode: mode,
			Ino:  stableIno(d.key + "/" + e.Name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *TreeDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	e, ok := lookupEntry(d.files, d.dir, name)
	if !ok {
		return nil, syscall.ENOENT
	}
	key := d.key + "/" + name
	if e.Dir {
		sub := &TreeDir{repo: d.repo, files: d.files, dir: path.Join(d.dir, name), key: key}
		return d.NewInode(ctx, sub, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: stableIno(key)}), fs.OK
	}
	id := e.ID
	f := &BytesFile{key: key, immutable: true, load: func() ([]byte, error) {
		blob, err := d.repo.Commits.GetBlob(id)
		if err != nil {
			return nil, err
		}
		return blob.Content, nil
	}}
	return d.NewInode(ctx, f, fs.StableAttr{Mode: syscall.S_IFREG, Ino: stableIno(key)}), fs.OK
}
