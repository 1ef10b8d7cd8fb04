package vcs

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

const testRoot = "/work"

// testClock returns a clock that advances one minute per call.
func testClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestRepo(t *testing.T) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	r, err := Init(fs, testRoot, WithClock(testClock()))
	require.NoError(t, err)
	return r, fs
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
}

func readWork(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func commitFiles(t *testing.T, r *Repository, fs billy.Filesystem, message string, files map[string]string) *Commit {
	t.Helper()
	for name, content := range files {
		writeFile(t, fs, name, content)
		require.NoError(t, r.Add(name))
	}
	c, err := r.Commit(message)
	require.NoError(t, err)
	return c
}
