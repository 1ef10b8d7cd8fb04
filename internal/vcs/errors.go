package vcs

import (
	"github.com/pkg/errors"
	"github.com/warpfork/go-errcat"
)

// ErrorCategory is the category attached to every errcat error the engine
// returns. The error message of a user category is the exact text shown to
// the user.
type ErrorCategory string

const (
	ErrAlreadyInitialized    ErrorCategory = "gitlet-already-initialized"
	ErrNotInitialized        ErrorCategory = "gitlet-not-initialized"
	ErrFileNotFound          ErrorCategory = "gitlet-file-not-found"
	ErrEmptyMessage          ErrorCategory = "gitlet-empty-message"
	ErrNothingStaged         ErrorCategory = "gitlet-nothing-staged"
	ErrNothingToRemove       ErrorCategory = "gitlet-nothing-to-remove"
	ErrNoCommitWithMessage   ErrorCategory = "gitlet-no-commit-with-message"
	ErrNoSuchBranch          ErrorCategory = "gitlet-no-such-branch"
	ErrCheckoutCurrent       ErrorCategory = "gitlet-checkout-current"
	ErrFileNotInCommit       ErrorCategory = "gitlet-file-not-in-commit"
	ErrNoSuchCommit          ErrorCategory = "gitlet-no-such-commit"
	ErrBranchExists          ErrorCategory = "gitlet-branch-exists"
	ErrInvalidBranchName     ErrorCategory = "gitlet-invalid-branch-name"
	ErrCannotRemoveCurrent   ErrorCategory = "gitlet-cannot-remove-current"
	ErrUntrackedFileConflict ErrorCategory = "gitlet-untracked-file-conflict"
	ErrUncommittedChanges    ErrorCategory = "gitlet-uncommitted-changes"
	ErrSelfMerge             ErrorCategory = "gitlet-self-merge"
	ErrGivenBranchIsAncestor ErrorCategory = "gitlet-given-branch-is-ancestor"

	// Fatal categories: the repository is corrupted.
	ErrObjectNotFound ErrorCategory = "gitlet-object-not-found"
	ErrNotCommit      ErrorCategory = "gitlet-not-a-commit"
	ErrCorrupt        ErrorCategory = "gitlet-corrupt"
)

var userCategories = map[ErrorCategory]bool{
	ErrAlreadyInitialized:    true,
	ErrNotInitialized:        true,
	ErrFileNotFound:          true,
	ErrEmptyMessage:          true,
	ErrNothingStaged:         true,
	ErrNothingToRemove:       true,
	ErrNoCommitWithMessage:   true,
	ErrNoSuchBranch:          true,
	ErrCheckoutCurrent:       true,
	ErrFileNotInCommit:       true,
	ErrNoSuchCommit:          true,
	ErrBranchExists:          true,
	ErrInvalidBranchName:     true,
	ErrCannotRemoveCurrent:   true,
	ErrUntrackedFileConflict: true,
	ErrUncommittedChanges:    true,
	ErrSelfMerge:             true,
	ErrGivenBranchIsAncestor: true,
}

// Messages shown for user errors.
const (
	msgAlreadyInitialized = "A Gitlet version-control system already exists in the current directory."
	msgNotInitialized     = "Not in an initialized Gitlet directory."
	msgFileNotFound       = "File does not exist."
	msgEmptyMessage       = "Please enter a commit message."
	msgNothingStaged      = "No changes added to the commit."
	msgNothingToRemove    = "No reason to remove the file."
	msgNoCommitFound      = "Found no commit with that message."
	msgNoSuchBranch       = "A branch with that name does not exist."
	msgCheckoutNoBranch   = "No such branch exists."
	msgCheckoutCurrent    = "No need to checkout the current branch."
	msgFileNotInCommit    = "File does not exist in that commit."
	msgNoSuchCommit       = "No commit with that id exists."
	msgBranchExists       = "A branch with that name already exists."
	msgInvalidBranchName  = "Invalid branch name."
	msgCannotRemove       = "Cannot remove the current branch."
	msgUntrackedInTheWay  = "There is an untracked file in the way; delete it, or add and commit it first."
	msgUncommitted        = "You have uncommitted changes."
	msgSelfMerge          = "Cannot merge a branch with itself."
	msgGivenIsAncestor    = "Given branch is an ancestor of the current branch."
)

// Category returns the category carried by err, or "" if it has none.
func Category(err error) ErrorCategory {
	var ec errcat.Error
	if errors.As(err, &ec) {
		if c, ok := ec.Category().(ErrorCategory); ok {
			return c
		}
	}
	return ""
}

// IsUserError reports whether err is an input error that should be shown to
// the user as a single line, as opposed to a fatal repository failure.
func IsUserError(err error) bool {
	return userCategories[Category(err)]
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var ec errcat.Error
	if errors.As(err, &ec) {
		return ec.Message()
	}
	return err.Error()
}

func userError(category ErrorCategory, msg string) error {
	return errcat.Errorf(category, "%s", msg)
}
