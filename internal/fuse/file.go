package fuse

import (
	"context"
	"hash/fnv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/vcs"
)

// stableIno returns a stable inode number for a view path.
func stableIno(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

// errno maps a repository error to a FUSE status.
func errno(err error) syscall.Errno {
	if e, ok := err.(syscall.Errno); ok {
		return e
	}
	if vcs.IsUserError(err) {
		return syscall.ENOENT
	}
	return syscall.EIO
}

// readSlice returns the part of data a read of n bytes at off should see.
func readSlice(data []byte, n int, off int64) []byte {
	if off >= int64(len(data)) {
		return nil
	}
	end := off + int64(n)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[off:end]
}

// BytesFile is a read-only file whose content is loaded on each access.
// Immutable files (blobs) let the kernel keep its page cache.
type BytesFile struct {
	fs.Inode
	key       string
	immutable bool
	load      func() ([]byte, error)
}

var _ = (fs.NodeGetattrer)((*BytesFile)(nil))
var _ = (fs.NodeOpener)((*BytesFile)(nil))
var _ = (fs.NodeReader)((*BytesFile)(nil))

func (f *BytesFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, err := f.load()
	if err != nil {
		return errno(err)
	}
	out.Mode = 0444
	out.Size = uint64(len(data))
	out.Ino = stableIno(f.key)
	return fs.OK
}

func (f *BytesFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return nil, 0, syscall.EROFS
	}
	if f.immutable {
		return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
	}
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (f *BytesFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := f.load()
	if err != nil {
		return nil, errno(err)
	}
	return fuse.ReadResultData(readSlice(data, len(dest), off)), fs.OK
}

// Symlink points a branch at its tip commit directory.
type Symlink struct {
	fs.Inode
	target string
}

var _ = (fs.NodeReadlinker)((*Symlink)(nil))
var _ = (fs.NodeGetattrer)((*Symlink)(nil))

func (s *Symlink) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(s.target), fs.OK
}

func (s *Symlink) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0777 | syscall.S_IFLNK
	out.Size = uint64(len(s.target))
	return fs.OK
}
