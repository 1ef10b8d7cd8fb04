// Package cli maps gitlet command lines onto repository operations and
// renders their results in the gitlet text formats.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/warpfork/go-errcat"
	"go.uber.org/zap"

	"github.com/systemshift/gitlet/internal/config"
	"github.com/systemshift/gitlet/internal/logging"
	"github.com/systemshift/gitlet/internal/vcs"
)

// ExitSuccess is the status of every gitlet invocation, including those
// that report an error.
const ExitSuccess = 0

// ErrUsage is the category of command-line shape errors.
const ErrUsage vcs.ErrorCategory = "gitlet-usage"

const (
	msgNoCommand         = "Please enter a command."
	msgUnknownCommand    = "No command with that name exists."
	msgIncorrectOperands = "Incorrect operands."
	msgFastForwarded     = "Current branch fast-forwarded."
	msgMergeConflict     = "Encountered a merge conflict."
)

func usageError(msg string) error {
	return errcat.Errorf(ErrUsage, "%s", msg)
}

// app carries what a single invocation needs.
type app struct {
	settings *config.Settings
	log      *zap.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) options() []vcs.Option {
	return []vcs.Option{vcs.WithLogger(a.log)}
}

func (a *app) init() (*vcs.Repository, error) {
	return vcs.Init(osfs.New(a.settings.Dir), a.settings.Dir, a.options()...)
}

func (a *app) open() (*vcs.Repository, error) {
	return vcs.Open(osfs.New(a.settings.Dir), a.settings.Dir, a.options()...)
}

func (a *app) println(args ...interface{}) {
	fmt.Fprintln(a.stdout, args...)
}

// Main runs one gitlet command. args[0] is the program name. User errors
// are printed to stdout, repository failures to stderr; the status is
// ExitSuccess either way.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return ExitSuccess
	}
	log, err := logging.New(settings.LogLevel, settings.LogFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return ExitSuccess
	}
	defer log.Sync()

	a := &app{settings: settings, log: log, stdout: stdout, stderr: stderr}
	a.report(a.run(logging.With(ctx, log), args[1:]))
	return ExitSuccess
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(msgNoCommand)
	}
	root := newRootCmd(a)
	cmd, _, err := root.Find(args)
	if err != nil || cmd == root {
		return usageError(msgUnknownCommand)
	}
	root.SetArgs(args)
	a.log.Debug("running command", zap.String("command", cmd.Name()), zap.Strings("args", args[1:]))
	return root.ExecuteContext(ctx)
}

func (a *app) report(err error) {
	if err == nil {
		return
	}
	if vcs.Category(err) == ErrUsage || vcs.IsUserError(err) {
		a.println(vcs.Message(err))
		var ec errcat.Error
		if errors.As(err, &ec) && len(ec.Details()) > 0 {
			a.log.Debug("user error", zap.Any("details", ec.Details()))
		}
		return
	}
	fmt.Fprintf(a.stderr, "fatal: %v\n", err)
}
