// Package fuse serves a read-only FUSE view of a gitlet repository:
//
//	HEAD                 current branch name
//	branches/<name>      symlink to commits/<id> of the branch tip
//	commits/<id>/...     the files tracked by a commit
//	log/<n>              the n-th entry of the current branch's log
package fuse

import (
	"github.com/hanwen/go-fuse/v2/fs"
	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/systemshift/gitlet/internal/vcs"
)

// Mount mounts the view of repo at mountpoint. Call Wait on the returned
// server to block and Unmount to stop.
func Mount(mountpoint string, repo *vcs.Repository, log *zap.Logger) (*gofuse.Server, error) {
	root := &RootNode{repo: repo, log: log}

	opts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			FsName:        "gitlet",
			Name:          "gitlet",
			DisableXAttrs: true,
			Options:       []string{"ro"},
			Debug:         log.Core().Enabled(zap.DebugLevel),
		},
	}

	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "mount %s", mountpoint)
	}
	log.Info("mounted repository", zap.String("mountpoint", mountpoint), zap.String("root", repo.Work.Root()))
	return server, nil
}
