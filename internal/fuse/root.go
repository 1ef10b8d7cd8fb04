package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"

	"github.com/systemshift/gitlet/internal/vcs"
)

// RootNode is the mountpoint directory. Contains "HEAD", "branches/",
// "commits/" and "log/".
type RootNode struct {
	fs.Inode
	repo *vcs.Repository
	log  *zap.Logger
}

var _ = (fs.NodeOnAdder)((*RootNode)(nil))
var _ = (fs.NodeGetattrer)((*RootNode)(nil))

func (r *RootNode) OnAdd(ctx context.Context) {
	head := &BytesFile{key: "HEAD", load: func() ([]byte, error) {
		name, err := r.repo.Refs.Head()
		if err != nil {
			return nil, err
		}
		return []byte(name + "\n"), nil
	}}
	r.AddChild("HEAD", r.NewPersistentInode(ctx, head, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("HEAD"),
	}), true)

	dirs := []struct {
		name string
		node fs.InodeEmbedder
	}{
		{"branches", &BranchesDir{repo: r.repo}},
		{"commits", &CommitsDir{repo: r.repo, log: r.log}},
		{"log", &LogDir{repo: r.repo}},
	}
	for _, d := range dirs {
		r.AddChild(d.name, r.NewPersistentInode(ctx, d.node, fs.StableAttr{
			Mode: syscall.S_IFDIR,
			Ino:  stableIno(d.name),
		}), true)
	}
}

func (r *RootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("/")
	return fs.OK
}

// BranchesDir lists branches as symlinks into commits/.
type BranchesDir struct {
	fs.Inode
	repo *vcs.Repository
}

var _ = (fs.NodeLookuper)((*BranchesDir)(nil))
var _ = (fs.NodeReaddirer)((*BranchesDir)(nil))
var _ = (fs.NodeGetattrer)((*BranchesDir)(nil))

func (d *BranchesDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("branches")
	return fs.OK
}

func (d *BranchesDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := d.repo.Refs.Branches()
	if err != nil {
		return nil, errno(err)
	}
	entries := make([]fuse.DirEntry, len(names))
	for i, name := range names {
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFLNK,
			Ino:  stableIno("branches/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *BranchesDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	id, err := d.repo.Refs.Branch(name)
	if err != nil {
		return nil, errno(err)
	}
	sym := &Symlink{target: "../commits/" + id.String()}
	child := d.NewInode(ctx, sym, fs.StableAttr{
		Mode: syscall.S_IFLNK,
		Ino:  stableIno("branches/" + name + "@" + id.String()),
	})
	return child, fs.OK
}

// CommitsDir lists every commit in the store. Lookup also accepts a unique
// id prefix.
type CommitsDir struct {
	fs.Inode
	repo *vcs.Repository
	log  *zap.Logger
}

var _ = (fs.NodeLookuper)((*CommitsDir)(nil))
var _ = (fs.NodeReaddirer)((*CommitsDir)(nil))
var _ = (fs.NodeGetattrer)((*CommitsDir)(nil))

func (d *CommitsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("commits")
	return fs.OK
}

func (d *CommitsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	commits, err := d.repo.GlobalLog()
	if err != nil {
		d.log.Warn("list commits", zap.Error(err))
		return nil, errno(err)
	}
	entries := make([]fuse.DirEntry, len(commits))
	for i, c := range commits {
		entries[i] = fuse.DirEntry{
			Name: c.ID.String(),
			Mode: syscall.S_IFDIR,
			Ino:  stableIno("commits/" + c.ID.String()),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *CommitsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	c, err := d.repo.Commits.Resolve(name)
	if err != nil {
		return nil, errno(err)
	}
	key := "commits/" + c.ID.String()
	dir := &TreeDir{repo: d.repo, files: relativeTree(d.repo.Work, c.Tree), key: key}
	child := d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(key),
	})
	return child, fs.OK
}
