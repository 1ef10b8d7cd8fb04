package cli

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	gitletfuse "github.com/systemshift/gitlet/internal/fuse"
	"github.com/systemshift/gitlet/internal/logging"
)

// newMountCmd serves the read-only repository view until the command's
// context is cancelled or the filesystem is unmounted.
func newMountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "mount <mountpoint>",
		Short:              "Mount a read-only view of branches, commits and log",
		Args:               exactOperands(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.From(ctx).With(zap.String("command", "mount"))
			r, err := a.open()
			if err != nil {
				return err
			}
			mountpoint := args[0]
			if err := os.MkdirAll(mountpoint, 0755); err != nil {
				return errors.Wrap(err, "create mountpoint")
			}
			server, err := gitletfuse.Mount(mountpoint, r, log)
			if err != nil {
				return err
			}
			serve(ctx, server, mountpoint, log)
			return nil
		},
	}
}

// unmounter is the part of the FUSE server serve drives.
type unmounter interface {
	Unmount() error
	Wait()
}

// serve blocks until the filesystem is unmounted. Cancelling ctx unmounts it.
func serve(ctx context.Context, server unmounter, mountpoint string, log *zap.Logger) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			log.Info("unmounting", zap.String("mountpoint", mountpoint))
			if err := server.Unmount(); err != nil {
				log.Warn("unmount failed", zap.Error(err))
			}
		case <-done:
		}
	}()
	server.Wait()
	close(done)
	wg.Wait()
}
