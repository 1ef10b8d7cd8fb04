package vcs

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWrite_CreatesParents(t *testing.T) {
	fs := memfs.New()

	require.NoError(t, SafeWrite(fs, "a/b/test.txt", []byte("hello world")))

	got, err := readFile(fs, "a/b/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestSafeWrite_OverwriteExisting(t *testing.T) {
	fs := memfs.New()

	require.NoError(t, SafeWrite(fs, "test.txt", []byte("first")))
	require.NoError(t, SafeWrite(fs, "test.txt", []byte("second")))

	got, err := readFile(fs, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestSafeWrite_NoTempFilesLeft(t *testing.T) {
	fs := memfs.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, SafeWrite(fs, "test.txt", []byte{byte('a' + i)}))
	}

	entries, err := fs.ReadDir(".")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.txt", entries[0].Name())
}

func TestReadFile_Missing(t *testing.T) {
	_, err := readFile(memfs.New(), "nope")
	assert.True(t, isNotExist(err))
}
