package vcs

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/warpfork/go-errcat"
	"go.uber.org/zap"
)

// CommitLog reads commits and blobs out of the object store and walks the
// commit graph.
type CommitLog struct {
	store *ObjectStore
	log   *zap.Logger
}

// NewCommitLog creates a CommitLog over store.
func NewCommitLog(store *ObjectStore, log *zap.Logger) *CommitLog {
	return &CommitLog{store: store, log: log}
}

// Put stores c. The returned id always equals c.ID.
func (cl *CommitLog) Put(c *Commit) (ID, error) {
	data, err := c.Encode()
	if err != nil {
		return "", errors.Wrap(err, "encode commit")
	}
	id, err := cl.store.Put(data)
	if err != nil {
		return "", errors.Wrap(err, "store commit")
	}
	cl.log.Debug("stored commit", zap.Stringer("id", id), zap.Int("parents", len(c.Parents)), zap.Int("files", len(c.Tree)))
	return id, nil
}

// GetCommit reads a commit by id. An id that does not name a commit means
// the repository is corrupted.
func (cl *CommitLog) GetCommit(id ID) (*Commit, error) {
	data, err := cl.store.Get(id)
	if err != nil {
		return nil, err
	}
	c, err := DecodeCommit(id, data)
	if Category(err) == ErrNotCommit {
		return nil, errcat.Errorf(ErrCorrupt, "%s", Message(err))
	}
	return c, err
}

// GetBlob reads a blob by id.
func (cl *CommitLog) GetBlob(id ID) (*Blob, error) {
	data, err := cl.store.Get(id)
	if err != nil {
		return nil, err
	}
	return DecodeBlob(id, data)
}

// PutBlob stores b and returns its id.
func (cl *CommitLog) PutBlob(b *Blob) (ID, error) {
	data, err := b.Encode()
	if err != nil {
		return "", errors.Wrap(err, "encode blob")
	}
	id, err := cl.store.Put(data)
	if err != nil {
		return "", errors.Wrapf(err, "store blob for %s", b.Path)
	}
	cl.log.Debug("stored blob", zap.Stringer("id", id), zap.String("path", b.Path))
	return id, nil
}

// Log walks the first-parent chain from head down to the root, newest first.
func (cl *CommitLog) Log(head ID) ([]*Commit, error) {
	var commits []*Commit
	for current := head; current != ""; {
		c, err := cl.GetCommit(current)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
		current = c.FirstParent()
	}
	return commits, nil
}

// All returns every commit in the store, ordered by id. Objects that are not
// commits are skipped; this scan does not follow reachability.
func (cl *CommitLog) All() ([]*Commit, error) {
	ids, err := cl.store.List()
	if err != nil {
		return nil, err
	}
	var commits []*Commit
	for _, id := range ids {
		data, err := cl.store.Get(id)
		if err != nil {
			return nil, err
		}
		c, err := DecodeCommit(id, data)
		if err != nil {
			if Category(err) != ErrNotCommit {
				cl.log.Warn("skipping undecodable object", zap.Stringer("id", id), zap.Error(err))
			}
			continue
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// Find returns the ids of every commit whose message equals message.
func (cl *CommitLog) Find(message string) ([]ID, error) {
	commits, err := cl.All()
	if err != nil {
		return nil, err
	}
	var ids []ID
	for _, c := range commits {
		if c.Message == message {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil, userError(ErrNoCommitWithMessage, msgNoCommitFound)
	}
	return ids, nil
}

// Resolve finds the single commit whose id starts with prefix. Missing,
// ambiguous or non-commit matches fail with ErrNoSuchCommit.
func (cl *CommitLog) Resolve(prefix string) (*Commit, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || len(prefix) > idLength {
		return nil, userError(ErrNoSuchCommit, msgNoSuchCommit)
	}
	ids, err := cl.store.List()
	if err != nil {
		return nil, err
	}
	var match *Commit
	for _, id := range ids {
		if !strings.HasPrefix(string(id), prefix) {
			continue
		}
		data, err := cl.store.Get(id)
		if err != nil {
			return nil, err
		}
		c, err := DecodeCommit(id, data)
		if err != nil {
			continue
		}
		if match != nil {
			cl.log.Debug("ambiguous commit prefix", zap.String("prefix", prefix))
			return nil, userError(ErrNoSuchCommit, msgNoSuchCommit)
		}
		match = c
	}
	if match == nil {
		return nil, userError(ErrNoSuchCommit, msgNoSuchCommit)
	}
	return match, nil
}

// ancestors returns every commit reachable from start through any parent
// link, including start, in breadth-first order.
func (cl *CommitLog) ancestors(start ...ID) ([]ID, map[ID]bool, error) {
	seen := make(map[ID]bool)
	var order []ID
	queue := append([]ID(nil), start...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		c, err := cl.GetCommit(id)
		if err != nil {
			return nil, nil, err
		}
		queue = append(queue, c.Parents...)
	}
	return order, seen, nil
}

// SplitPoint returns the lowest common ancestor of current and target: a
// common ancestor that is not an ancestor of any other common ancestor.
// When several qualify (criss-cross histories), the one met first in a
// breadth-first walk from target wins.
func (cl *CommitLog) SplitPoint(current, target ID) (ID, error) {
	_, ofCurrent, err := cl.ancestors(current)
	if err != nil {
		return "", err
	}
	targetOrder, _, err := cl.ancestors(target)
	if err != nil {
		return "", err
	}
	var common []ID
	for _, id := range targetOrder {
		if ofCurrent[id] {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return "", errcat.Errorf(ErrCorrupt, "commits %s and %s share no history", current.Short(), target.Short())
	}

	// Everything reachable from a parent of a common ancestor is dominated.
	var parents []ID
	for _, id := range common {
		c, err := cl.GetCommit(id)
		if err != nil {
			return "", err
		}
		parents = append(parents, c.Parents...)
	}
	_, dominated, err := cl.ancestors(parents...)
	if err != nil {
		return "", err
	}
	for _, id := range common {
		if !dominated[id] {
			return id, nil
		}
	}
	return "", errcat.Errorf(ErrCorrupt, "commit graph between %s and %s has a cycle", current.Short(), target.Short())
}
