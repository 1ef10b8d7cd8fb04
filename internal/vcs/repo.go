package vcs

import (
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/warpfork/go-errcat"
	"go.uber.org/zap"
)

// DirName is the repository directory inside the working root.
const DirName = ".gitlet"

const objectsDir = "objects"

// Repository bundles the object store, refs, staging area and working
// directory of one gitlet repository. Every operation loads the state it
// needs from disk and writes objects before moving refs.
type Repository struct {
	meta    billy.Filesystem
	Store   *ObjectStore
	Refs    *RefStore
	Commits *CommitLog
	Work    *Worktree

	log *zap.Logger
	now func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithClock sets the time source used to stamp new commits.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func newRepository(fs billy.Filesystem, root string, opts []Option) (*Repository, error) {
	r := &Repository{log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(r)
	}
	meta, err := fs.Chroot(DirName)
	if err != nil {
		return nil, errors.Wrap(err, "open repository dir")
	}
	objects, err := meta.Chroot(objectsDir)
	if err != nil {
		return nil, errors.Wrap(err, "open objects dir")
	}
	r.meta = meta
	r.Store = NewObjectStore(objects)
	r.Refs = NewRefStore(meta)
	r.Commits = NewCommitLog(r.Store, r.log)
	r.Work = NewWorktree(fs, root)
	return r, nil
}

// Init creates a repository in fs, whose root is the absolute path root. It
// writes the root commit, a master branch pointing at it, HEAD and empty
// staging indices.
func Init(fs billy.Filesystem, root string, opts ...Option) (*Repository, error) {
	if exists(fs, DirName) {
		return nil, userError(ErrAlreadyInitialized, msgAlreadyInitialized)
	}
	for _, dir := range []string{
		DirName,
		filepath.Join(DirName, objectsDir),
		filepath.Join(DirName, headsDir),
	} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create dir %s", dir)
		}
	}
	r, err := newRepository(fs, root, opts)
	if err != nil {
		return nil, err
	}

	initial, err := NewCommit(InitialCommitMessage, time.Unix(0, 0).UTC(), nil, nil)
	if err != nil {
		return nil, err
	}
	if _, err := r.Commits.Put(initial); err != nil {
		return nil, err
	}
	if err := r.Refs.SetBranch(DefaultBranch, initial.ID); err != nil {
		return nil, err
	}
	if err := r.Refs.SetHead(DefaultBranch); err != nil {
		return nil, err
	}
	stage, err := LoadStagingArea(r.meta)
	if err != nil {
		return nil, err
	}
	if err := stage.Save(); err != nil {
		return nil, err
	}
	r.log.Debug("initialized repository", zap.String("root", root), zap.Stringer("initial", initial.ID))
	return r, nil
}

// Open opens the repository in fs, whose root is the absolute path root.
func Open(fs billy.Filesystem, root string, opts ...Option) (*Repository, error) {
	info, err := fs.Stat(DirName)
	if err != nil || !info.IsDir() {
		return nil, userError(ErrNotInitialized, msgNotInitialized)
	}
	return newRepository(fs, root, opts)
}

// Head returns the current branch name and its tip commit.
func (r *Repository) Head() (string, *Commit, error) {
	name, id, err := r.Refs.Current()
	if err != nil {
		return "", nil, err
	}
	c, err := r.Commits.GetCommit(id)
	if err != nil {
		return "", nil, err
	}
	return name, c, nil
}

// Stage loads the current staging area.
func (r *Repository) Stage() (*StagingArea, error) {
	return LoadStagingArea(r.meta)
}

// Add stages the working file name for the next commit.
func (r *Repository) Add(name string) error {
	path := r.Work.Abs(name)
	content, err := r.Work.Read(path)
	if isNotExist(err) {
		return userError(ErrFileNotFound, msgFileNotFound)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	_, tip, err := r.Head()
	if err != nil {
		return err
	}
	stage, err := r.Stage()
	if err != nil {
		return err
	}

	blob := &Blob{Path: path, Content: content}
	id, err := blob.ID()
	if err != nil {
		return err
	}
	outcome := stage.StageForAddition(tip.Tree, path, id)
	if outcome == AddStaged {
		if _, err := r.Commits.PutBlob(blob); err != nil {
			return err
		}
	}
	r.log.Debug("add", zap.String("path", path), zap.Int("outcome", int(outcome)))
	return stage.Save()
}

// Remove unstages name if it is staged for addition, or stages a tracked
// file for removal and deletes it from the working directory.
func (r *Repository) Remove(name string) error {
	path := r.Work.Abs(name)
	_, tip, err := r.Head()
	if err != nil {
		return err
	}
	stage, err := r.Stage()
	if err != nil {
		return err
	}
	outcome, err := stage.StageForRemoval(tip.Tree, path)
	if err != nil {
		return err
	}
	if err := stage.Save(); err != nil {
		return err
	}
	if outcome == RemoveStaged {
		return r.Work.Remove(path)
	}
	return nil
}

// Commit snapshots the tip tree with the staged changes applied and
// advances the current branch to the new commit.
func (r *Repository) Commit(message string) (*Commit, error) {
	if message == "" {
		return nil, userError(ErrEmptyMessage, msgEmptyMessage)
	}
	branch, tip, err := r.Head()
	if err != nil {
		return nil, err
	}
	stage, err := r.Stage()
	if err != nil {
		return nil, err
	}
	if stage.IsEmpty() {
		return nil, userError(ErrNothingStaged, msgNothingStaged)
	}

	tree := tip.Tree.Clone()
	for path, id := range stage.Add.Entries() {
		tree[path] = id
	}
	for _, path := range stage.Remove.Paths() {
		delete(tree, path)
	}
	return r.writeCommit(branch, message, []ID{tip.ID}, tree, stage)
}

// writeCommit stores a commit, then moves the branch, then clears the
// staging area.
func (r *Repository) writeCommit(branch, message string, parents []ID, tree Tree, stage *StagingArea) (*Commit, error) {
	c, err := NewCommit(message, r.now(), parents, tree)
	if err != nil {
		return nil, err
	}
	if _, err := r.Commits.Put(c); err != nil {
		return nil, err
	}
	if err := r.Refs.SetBranch(branch, c.ID); err != nil {
		return nil, err
	}
	stage.Clear()
	if err := stage.Save(); err != nil {
		return nil, err
	}
	r.log.Debug("advanced branch", zap.String("branch", branch), zap.Stringer("commit", c.ID))
	return c, nil
}

// Log returns the first-parent history of the current branch, newest first.
func (r *Repository) Log() ([]*Commit, error) {
	_, id, err := r.Refs.Current()
	if err != nil {
		return nil, err
	}
	return r.Commits.Log(id)
}

// GlobalLog returns every commit ever made, reachable or not.
func (r *Repository) GlobalLog() ([]*Commit, error) {
	return r.Commits.All()
}

// Find returns the ids of commits with exactly the given message.
func (r *Repository) Find(message string) ([]ID, error) {
	return r.Commits.Find(message)
}

// Branch creates a branch at the current tip.
func (r *Repository) Branch(name string) error {
	if !ValidBranchName(name) {
		return userError(ErrInvalidBranchName, msgInvalidBranchName)
	}
	if r.Refs.HasBranch(name) {
		return userError(ErrBranchExists, msgBranchExists)
	}
	_, id, err := r.Refs.Current()
	if err != nil {
		return err
	}
	return r.Refs.SetBranch(name, id)
}

// RemoveBranch deletes a branch pointer. Commits stay in the store.
func (r *Repository) RemoveBranch(name string) error {
	head, err := r.Refs.Head()
	if err != nil {
		return err
	}
	if name == head {
		return userError(ErrCannotRemoveCurrent, msgCannotRemove)
	}
	return r.Refs.DeleteBranch(name)
}

// CheckoutBranch makes name the current branch and materializes its tip.
func (r *Repository) CheckoutBranch(name string) error {
	if !r.Refs.HasBranch(name) {
		return userError(ErrNoSuchBranch, msgCheckoutNoBranch)
	}
	head, current, err := r.Head()
	if err != nil {
		return err
	}
	if name == head {
		return userError(ErrCheckoutCurrent, msgCheckoutCurrent)
	}
	id, err := r.Refs.Branch(name)
	if err != nil {
		return err
	}
	target, err := r.Commits.GetCommit(id)
	if err != nil {
		return err
	}
	if err := r.materialize(current, target); err != nil {
		return err
	}
	if err := r.Refs.SetHead(name); err != nil {
		return err
	}
	return r.clearStage()
}

// CheckoutFile restores name from the current tip.
func (r *Repository) CheckoutFile(name string) error {
	_, tip, err := r.Head()
	if err != nil {
		return err
	}
	return r.checkoutFile(tip, tip, name)
}

// CheckoutFileAt restores name from the commit identified by prefix.
func (r *Repository) CheckoutFileAt(prefix, name string) error {
	source, err := r.Commits.Resolve(prefix)
	if err != nil {
		return err
	}
	_, tip, err := r.Head()
	if err != nil {
		return err
	}
	return r.checkoutFile(tip, source, name)
}

func (r *Repository) checkoutFile(current, source *Commit, name string) error {
	path := r.Work.Abs(name)
	id, ok := source.Tree[path]
	if !ok {
		return userError(ErrFileNotInCommit, msgFileNotInCommit)
	}
	blob, err := r.Commits.GetBlob(id)
	if err != nil {
		return err
	}
	writes := map[string][]byte{path: blob.Content}
	if err := r.checkUntracked(current.Tree, writes, nil); err != nil {
		return err
	}
	return r.Work.Write(path, blob.Content)
}

// Reset checks out the commit identified by prefix and moves the current
// branch to it.
func (r *Repository) Reset(prefix string) error {
	target, err := r.Commits.Resolve(prefix)
	if err != nil {
		return err
	}
	branch, current, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.materialize(current, target); err != nil {
		return err
	}
	if err := r.Refs.SetBranch(branch, target.ID); err != nil {
		return err
	}
	return r.clearStage()
}

func (r *Repository) clearStage() error {
	stage, err := r.Stage()
	if err != nil {
		return err
	}
	stage.Clear()
	return stage.Save()
}

// materialize replaces the working files of current with those of target.
// Nothing is touched if an untracked file would be overwritten.
func (r *Repository) materialize(current, target *Commit) error {
	writes := make(map[string][]byte, len(target.Tree))
	for path, id := range target.Tree {
		blob, err := r.Commits.GetBlob(id)
		if err != nil {
			return err
		}
		writes[path] = blob.Content
	}
	removes := lo.Filter(current.Tree.Paths(), func(path string, _ int) bool { return !target.Tree.Has(path) })
	if err := r.checkUntracked(current.Tree, writes, removes); err != nil {
		return err
	}
	for _, path := range removes {
		if err := r.Work.Remove(path); err != nil {
			return err
		}
	}
	for _, path := range target.Tree.Paths() {
		if err := r.Work.Write(path, writes[path]); err != nil {
			return err
		}
	}
	r.log.Debug("materialized commit", zap.Stringer("from", current.ID), zap.Stringer("to", target.ID))
	return nil
}

func (r *Repository) checkUntracked(tracked Tree, writes map[string][]byte, removes []string) error {
	unsafe, err := r.Work.UnsafeWrites(tracked, writes, removes)
	if err != nil {
		return err
	}
	if len(unsafe) > 0 {
		r.log.Debug("untracked files in the way", zap.Strings("paths", unsafe))
		return errcat.ErrorDetailed(ErrUntrackedFileConflict, msgUntrackedInTheWay, map[string]string{
			"path": unsafe[0],
		})
	}
	return nil
}
