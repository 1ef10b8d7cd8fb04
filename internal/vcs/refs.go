package vcs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/warpfork/go-errcat"
)

const (
	headsDir = "refs/heads"
	headFile = "HEAD"

	// DefaultBranch is the branch created by Init.
	DefaultBranch = "master"
)

// RefStore manages HEAD and the branch pointers. Each branch is a file in
// refs/heads whose content is a commit id; HEAD holds the current branch
// name.
type RefStore struct {
	fs billy.Filesystem // rooted at the repository directory
}

// NewRefStore creates a RefStore over the repository directory.
func NewRefStore(fs billy.Filesystem) *RefStore {
	return &RefStore{fs: fs}
}

// ValidBranchName reports whether name can be stored as a branch file.
func ValidBranchName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if isTempName(name) {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func branchPath(name string) string {
	return filepath.Join(headsDir, name)
}

// Head returns the name of the current branch.
func (r *RefStore) Head() (string, error) {
	data, err := readFile(r.fs, headFile)
	if err != nil {
		return "", errcat.Errorf(ErrCorrupt, "read HEAD: %s", err)
	}
	name := strings.TrimSpace(string(data))
	if !ValidBranchName(name) {
		return "", errcat.Errorf(ErrCorrupt, "HEAD names invalid branch %q", name)
	}
	return name, nil
}

// SetHead points HEAD at the named branch.
func (r *RefStore) SetHead(name string) error {
	if err := SafeWrite(r.fs, headFile, []byte(name+"\n")); err != nil {
		return errors.Wrap(err, "write HEAD")
	}
	return nil
}

// SetBranch writes a branch pointer, creating the branch if needed.
func (r *RefStore) SetBranch(name string, id ID) error {
	if !ValidBranchName(name) {
		return userError(ErrInvalidBranchName, msgInvalidBranchName)
	}
	if err := SafeWrite(r.fs, branchPath(name), []byte(string(id)+"\n")); err != nil {
		return errors.Wrapf(err, "write branch %s", name)
	}
	return nil
}

// Branch resolves a branch name to its commit id.
func (r *RefStore) Branch(name string) (ID, error) {
	if !r.HasBranch(name) {
		return "", userError(ErrNoSuchBranch, msgNoSuchBranch)
	}
	data, err := readFile(r.fs, branchPath(name))
	if err != nil {
		return "", errors.Wrapf(err, "read branch %s", name)
	}
	id := ID(strings.TrimSpace(string(data)))
	if !validID(id) {
		return "", errcat.Errorf(ErrCorrupt, "branch %s holds invalid id %q", name, id)
	}
	return id, nil
}

// DeleteBranch removes a branch pointer.
func (r *RefStore) DeleteBranch(name string) error {
	if !r.HasBranch(name) {
		return userError(ErrNoSuchBranch, msgNoSuchBranch)
	}
	if err := r.fs.Remove(branchPath(name)); err != nil {
		return errors.Wrapf(err, "delete branch %s", name)
	}
	return nil
}

// HasBranch checks if a branch exists.
func (r *RefStore) HasBranch(name string) bool {
	return ValidBranchName(name) && exists(r.fs, branchPath(name))
}

// Branches returns all branch names, sorted.
func (r *RefStore) Branches() ([]string, error) {
	entries, err := r.fs.ReadDir(headsDir)
	if err != nil {
		return nil, errors.Wrap(err, "list branches")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isTempName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Current resolves HEAD to the current branch name and its tip id.
func (r *RefStore) Current() (string, ID, error) {
	name, err := r.Head()
	if err != nil {
		return "", "", err
	}
	id, err := r.Branch(name)
	if err != nil {
		if Category(err) == ErrNoSuchBranch {
			return "", "", errcat.Errorf(ErrCorrupt, "HEAD names missing branch %q", name)
		}
		return "", "", err
	}
	return name, id, nil
}
