package cli

import (
	"github.com/spf13/cobra"

	"github.com/systemshift/gitlet/internal/vcs"
)

// exactOperands rejects any operand count other than n.
func exactOperands(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError(msgIncorrectOperands)
		}
		return nil
	}
}

// repoCommand builds a subcommand that takes n operands and runs against the
// opened repository.
func repoCommand(a *app, use, short string, n int, run func(r *vcs.Repository, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		Args:               exactOperands(n),
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			return run(r, args)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gitlet",
		Short:         "A small content-addressed version-control system",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(
		&cobra.Command{
			Use:                "init",
			Short:              "Create a repository in the working directory",
			Args:               exactOperands(0),
			DisableFlagParsing: true,
			RunE: func(_ *cobra.Command, _ []string) error {
				_, err := a.init()
				return err
			},
		},
		repoCommand(a, "add <file>", "Stage a file for the next commit", 1, func(r *vcs.Repository, args []string) error {
			return r.Add(args[0])
		}),
		repoCommand(a, "commit <message>", "Record the staged changes", 1, func(r *vcs.Repository, args []string) error {
			_, err := r.Commit(args[0])
			return err
		}),
		repoCommand(a, "rm <file>", "Unstage a file or stage its removal", 1, func(r *vcs.Repository, args []string) error {
			return r.Remove(args[0])
		}),
		repoCommand(a, "log", "Show the first-parent history of the current branch", 0, func(r *vcs.Repository, _ []string) error {
			commits, err := r.Log()
			if err != nil {
				return err
			}
			renderLog(a.stdout, commits)
			return nil
		}),
		repoCommand(a, "global-log", "Show every commit ever made", 0, func(r *vcs.Repository, _ []string) error {
			commits, err := r.GlobalLog()
			if err != nil {
				return err
			}
			renderLog(a.stdout, commits)
			return nil
		}),
		repoCommand(a, "find <message>", "Print the ids of commits with the given message", 1, func(r *vcs.Repository, args []string) error {
			ids, err := r.Find(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				a.println(id)
			}
			return nil
		}),
		repoCommand(a, "status", "Show branches, staged files and working changes", 0, func(r *vcs.Repository, _ []string) error {
			st, err := r.Status()
			if err != nil {
				return err
			}
			renderStatus(a.stdout, st)
			return nil
		}),
		newCheckoutCmd(a),
		repoCommand(a, "branch <name>", "Create a branch at the current commit", 1, func(r *vcs.Repository, args []string) error {
			return r.Branch(args[0])
		}),
		repoCommand(a, "rm-branch <name>", "Delete a branch pointer", 1, func(r *vcs.Repository, args []string) error {
			return r.RemoveBranch(args[0])
		}),
		repoCommand(a, "reset <commit>", "Check out a commit and move the current branch to it", 1, func(r *vcs.Repository, args []string) error {
			return r.Reset(args[0])
		}),
		repoCommand(a, "merge <branch>", "Merge a branch into the current branch", 1, func(r *vcs.Repository, args []string) error {
			res, err := r.Merge(args[0])
			if err != nil {
				return err
			}
			if res.FastForward {
				a.println(msgFastForwarded)
			}
			if res.Conflicted {
				a.println(msgMergeConflict)
			}
			return nil
		}),
		newMountCmd(a),
	)
	return root
}

// newCheckoutCmd handles the three checkout forms. The repository check comes
// before operand validation for this command.
func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "checkout (<branch> | -- <file> | <commit> -- <file>)",
		Short:              "Restore a branch, or a file from the current or a given commit",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			switch {
			case len(args) == 1:
				return r.CheckoutBranch(args[0])
			case len(args) == 2 && args[0] == "--":
				return r.CheckoutFile(args[1])
			case len(args) == 3 && args[1] == "--":
				return r.CheckoutFileAt(args[0], args[2])
			}
			return usageError(msgIncorrectOperands)
		},
	}
}
