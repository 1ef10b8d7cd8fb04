package fuse

import (
	"context"
	"strconv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/vcs"
)

const maxLogEntries = 64

// LogDir exposes the current branch's log as files: log/0 is the tip, log/1
// its first parent, and so on.
type LogDir struct {
	fs.Inode
	repo *vcs.Repository
}

var _ = (fs.NodeLookuper)((*LogDir)(nil))
var _ = (fs.NodeReaddirer)((*LogDir)(nil))
var _ = (fs.NodeGetattrer)((*LogDir)(nil))

func (d *LogDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("log")
	return fs.OK
}

func (d *LogDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	commits, err := d.repo.Log()
	if err != nil {
		return nil, errno(err)
	}
	n := len(commits)
	if n > maxLogEntries {
		n = maxLogEntries
	}
	entries := make([]fuse.DirEntry, n)
	for i := range entries {
		name := strconv.Itoa(i)
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFREG,
			Ino:  stableIno("log/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *LogDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 || idx >= maxLogEntries || strconv.Itoa(idx) != name {
		return nil, syscall.ENOENT
	}
	if _, err := logEntry(d.repo, idx); err != nil {
		return nil, syscall.ENOENT
	}
	f := &BytesFile{key: "log/" + name, load: func() ([]byte, error) {
		return logEntry(d.repo, idx)
	}}
	child := d.NewInode(ctx, f, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("log/" + name),
	})
	return child, fs.OK
}

// logEntry renders the idx-th commit of the current log.
func logEntry(repo *vcs.Repository, idx int) ([]byte, error) {
	commits, err := repo.Log()
	if err != nil {
		return nil, err
	}
	if idx >= len(commits) {
		return nil, syscall.ENOENT
	}
	return []byte(commits[idx].LogEntry()), nil
}
