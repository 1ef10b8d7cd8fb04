package vcs

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashObject_Deterministic(t *testing.T) {
	a, err := HashObject([]byte("hello"))
	require.NoError(t, err)
	b, err := HashObject([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, string(a), idLength)
	// SHA-1 of "hello".
	assert.Equal(t, ID("aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"), a)
}

func TestObjectStore_PutIdempotent(t *testing.T) {
	s := NewObjectStore(memfs.New())

	id1, err := s.Put([]byte("payload"))
	require.NoError(t, err)
	id2, err := s.Put([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []ID{id1}, ids)

	data, err := s.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.True(t, s.Has(id1))
}

func TestObjectStore_GetMissing(t *testing.T) {
	s := NewObjectStore(memfs.New())

	_, err := s.Get(ID("0123456789012345678901234567890123456789"))
	require.Error(t, err)
	assert.Equal(t, ErrObjectNotFound, Category(err))
	assert.False(t, IsUserError(err))
	assert.EqualError(t, err, "object 0123456789012345678901234567890123456789 not found (repository corrupted)")

	_, err = s.Get(ID("../HEAD"))
	assert.Equal(t, ErrObjectNotFound, Category(err))
	assert.EqualError(t, err, "object ../HEAD not found (repository corrupted)")
}

func TestBlobID_IncludesPath(t *testing.T) {
	a := &Blob{Path: "/work/a.txt", Content: []byte("same")}
	b := &Blob{Path: "/work/b.txt", Content: []byte("same")}
	again := &Blob{Path: "/work/a.txt", Content: []byte("same")}

	idA, err := a.ID()
	require.NoError(t, err)
	idB, err := b.ID()
	require.NoError(t, err)
	idAgain, err := again.ID()
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
	assert.Equal(t, idA, idAgain)
}

func TestBlob_EmptyContentRoundTrip(t *testing.T) {
	s := NewObjectStore(memfs.New())
	data, err := (&Blob{Path: "/work/empty"}).Encode()
	require.NoError(t, err)
	id, err := s.Put(data)
	require.NoError(t, err)

	got, err := s.Get(id)
	require.NoError(t, err)
	blob, err := DecodeBlob(id, got)
	require.NoError(t, err)
	assert.Equal(t, "/work/empty", blob.Path)
	assert.Equal(t, []byte{}, blob.Content)
}

func TestNewCommit_Reproducible(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tree := Tree{"/work/f.txt": ID("aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d")}
	parents := []ID{"0123456789012345678901234567890123456789"}

	c1, err := NewCommit("m1", when, parents, tree)
	require.NoError(t, err)
	c2, err := NewCommit("m1", when, parents, tree.Clone())
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	c3, err := NewCommit("m2", when, parents, tree)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c3.ID)
}

func TestDecodeCommit_RejectsBlob(t *testing.T) {
	data, err := (&Blob{Path: "/work/x", Content: []byte("x")}).Encode()
	require.NoError(t, err)
	_, err = DecodeCommit("0123456789012345678901234567890123456789", data)
	assert.Equal(t, ErrNotCommit, Category(err))

	_, err = DecodeCommit("0123456789012345678901234567890123456789", []byte("not json"))
	assert.Equal(t, ErrCorrupt, Category(err))
}

func TestCommit_EncodeDecode(t *testing.T) {
	root, err := NewCommit(InitialCommitMessage, time.Unix(0, 0).UTC(), nil, nil)
	require.NoError(t, err)
	data, err := root.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parents":[]`)
	assert.Contains(t, string(data), `"tree":{}`)
	assert.Contains(t, string(data), `"timestamp":"Thu Jan 1 00:00:00 1970 +0000"`)

	decoded, err := DecodeCommit(root.ID, data)
	require.NoError(t, err)
	assert.Equal(t, root, decoded)
}

func TestCommit_LogEntry(t *testing.T) {
	c := &Commit{
		ID:        "1111111111111111111111111111111111111111",
		Message:   "Merged dev into master.",
		Timestamp: "Thu Jan 1 00:00:00 1970 +0000",
		Parents:   []ID{"abcdef0123456789abcdef0123456789abcdef01", "9876543210fedcba9876543210fedcba98765432"},
	}
	want := "===\n" +
		"commit 1111111111111111111111111111111111111111\n" +
		"Merge: abcdef0 9876543\n" +
		"Date: Thu Jan 1 00:00:00 1970 +0000\n" +
		"Merged dev into master.\n\n"
	assert.Equal(t, want, c.LogEntry())

	c.Parents = c.Parents[:1]
	assert.NotContains(t, c.LogEntry(), "Merge:")
}
