package vcs

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/warpfork/go-errcat"
)

const (
	encodingVersion = 1

	kindBlob   = "blob"
	kindCommit = "commit"

	// InitialCommitMessage is the message of the root commit created by Init.
	InitialCommitMessage = "initial commit"

	// TimestampLayout renders commit times as "Thu Jan 1 00:00:00 1970 +0000".
	TimestampLayout = "Mon Jan 2 15:04:05 2006 -0700"
)

// FormatTimestamp renders t in the commit timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Tree maps an absolute file path to the id of the blob tracked there.
type Tree map[string]ID

// Clone returns an independent copy of t.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Paths returns the tracked paths in sorted order.
func (t Tree) Paths() []string {
	paths := lo.Keys(t)
	sort.Strings(paths)
	return paths
}

// Has reports whether path is tracked.
func (t Tree) Has(path string) bool {
	_, ok := t[path]
	return ok
}

// Blob is one file's tracked content. Its id covers both the path and the
// bytes, so identical content at two paths is stored twice.
type Blob struct {
	Path    string
	Content []byte
}

type blobRecord struct {
	V       int    `json:"v"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

// Encode returns the canonical byte encoding of b.
func (b *Blob) Encode() ([]byte, error) {
	content := b.Content
	if content == nil {
		content = []byte{}
	}
	return CanonicalJSON(blobRecord{V: encodingVersion, Kind: kindBlob, Path: b.Path, Content: content})
}

// ID computes the content address of b without storing it.
func (b *Blob) ID() (ID, error) {
	data, err := b.Encode()
	if err != nil {
		return "", errors.Wrap(err, "encode blob")
	}
	return HashObject(data)
}

// Commit is an immutable snapshot of the tracked tree.
type Commit struct {
	ID        ID
	Message   string
	Timestamp string
	Parents   []ID
	Tree      Tree
}

type commitRecord struct {
	V         int    `json:"v"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Parents   []ID   `json:"parents"`
	Tree      Tree   `json:"tree"`
}

// NewCommit builds a commit and computes its id.
func NewCommit(message string, when time.Time, parents []ID, tree Tree) (*Commit, error) {
	if parents == nil {
		parents = []ID{}
	}
	if tree == nil {
		tree = Tree{}
	}
	c := &Commit{
		Message:   message,
		Timestamp: FormatTimestamp(when),
		Parents:   parents,
		Tree:      tree,
	}
	data, err := c.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encode commit")
	}
	if c.ID, err = HashObject(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode returns the canonical byte encoding of c. The id is not part of it.
func (c *Commit) Encode() ([]byte, error) {
	parents := c.Parents
	if parents == nil {
		parents = []ID{}
	}
	tree := c.Tree
	if tree == nil {
		tree = Tree{}
	}
	return CanonicalJSON(commitRecord{
		V:         encodingVersion,
		Kind:      kindCommit,
		Message:   c.Message,
		Timestamp: c.Timestamp,
		Parents:   parents,
		Tree:      tree,
	})
}

// IsMerge reports whether c has two parents.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) == 2
}

// FirstParent returns the first parent id, or "" for the root commit.
func (c *Commit) FirstParent() ID {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

type objectHeader struct {
	V    int    `json:"v"`
	Kind string `json:"kind"`
}

func decodeHeader(id ID, data []byte) (objectHeader, error) {
	var h objectHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return h, errcat.Errorf(ErrCorrupt, "object %s: undecodable: %s", id, err)
	}
	if h.V != encodingVersion {
		return h, errcat.Errorf(ErrCorrupt, "object %s: unsupported encoding version %d", id, h.V)
	}
	return h, nil
}

// DecodeCommit parses a stored object as a commit. Objects of another kind
// fail with ErrNotCommit.
func DecodeCommit(id ID, data []byte) (*Commit, error) {
	h, err := decodeHeader(id, data)
	if err != nil {
		return nil, err
	}
	if h.Kind != kindCommit {
		return nil, errcat.Errorf(ErrNotCommit, "object %s is a %s, not a commit", id, h.Kind)
	}
	var rec commitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errcat.Errorf(ErrCorrupt, "object %s: undecodable commit: %s", id, err)
	}
	if rec.Tree == nil {
		rec.Tree = Tree{}
	}
	if rec.Parents == nil {
		rec.Parents = []ID{}
	}
	return &Commit{
		ID:        id,
		Message:   rec.Message,
		Timestamp: rec.Timestamp,
		Parents:   rec.Parents,
		Tree:      rec.Tree,
	}, nil
}

// DecodeBlob parses a stored object as a blob.
func DecodeBlob(id ID, data []byte) (*Blob, error) {
	h, err := decodeHeader(id, data)
	if err != nil {
		return nil, err
	}
	if h.Kind != kindBlob {
		return nil, errcat.Errorf(ErrCorrupt, "object %s is a %s, not a blob", id, h.Kind)
	}
	var rec blobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errcat.Errorf(ErrCorrupt, "object %s: undecodable blob: %s", id, err)
	}
	if rec.Content == nil {
		rec.Content = []byte{}
	}
	return &Blob{Path: rec.Path, Content: rec.Content}, nil
}
