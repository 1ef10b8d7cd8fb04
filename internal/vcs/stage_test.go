package vcs

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = ID("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	idB = ID("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	idC = ID("cccccccccccccccccccccccccccccccccccccccc")
)

func newTestStaging(t *testing.T) *StagingArea {
	t.Helper()
	area, err := LoadStagingArea(memfs.New())
	require.NoError(t, err)
	return area
}

func TestStageForAddition_NewFile(t *testing.T) {
	area := newTestStaging(t)

	outcome := area.StageForAddition(Tree{}, "/w/f", idA)
	assert.Equal(t, AddStaged, outcome)
	id, ok := area.Add.Get("/w/f")
	require.True(t, ok)
	assert.Equal(t, idA, id)
}

func TestStageForAddition_ReplacesPreviousEntry(t *testing.T) {
	area := newTestStaging(t)

	area.StageForAddition(Tree{}, "/w/f", idA)
	area.StageForAddition(Tree{}, "/w/f", idB)
	assert.Len(t, area.Add.Entries(), 1)
	assert.False(t, area.Add.ContainsID(idA))
	assert.True(t, area.Add.ContainsID(idB))
}

func TestStageForAddition_UnchangedIsNoop(t *testing.T) {
	area := newTestStaging(t)
	tip := Tree{"/w/f": idA}

	assert.Equal(t, AddUnchanged, area.StageForAddition(tip, "/w/f", idA))
	assert.Equal(t, AddUnchanged, area.StageForAddition(tip, "/w/f", idA))
	assert.True(t, area.IsEmpty())
}

func TestStageForAddition_RevertDropsStaleEntry(t *testing.T) {
	area := newTestStaging(t)
	tip := Tree{"/w/f": idA}

	assert.Equal(t, AddStaged, area.StageForAddition(tip, "/w/f", idB))
	assert.Equal(t, AddUnchanged, area.StageForAddition(tip, "/w/f", idA))
	assert.True(t, area.Add.IsEmpty())
}

func TestStageForAddition_CancelsRemoval(t *testing.T) {
	area := newTestStaging(t)
	tip := Tree{"/w/f": idA}

	outcome, err := area.StageForRemoval(tip, "/w/f")
	require.NoError(t, err)
	assert.Equal(t, RemoveStaged, outcome)

	assert.Equal(t, AddUnstagedRemoval, area.StageForAddition(tip, "/w/f", idA))
	assert.True(t, area.IsEmpty())
}

func TestStageForAddition_RewrittenAfterRemoval(t *testing.T) {
	area := newTestStaging(t)
	tip := Tree{"/w/f": idA}

	_, err := area.StageForRemoval(tip, "/w/f")
	require.NoError(t, err)

	assert.Equal(t, AddStaged, area.StageForAddition(tip, "/w/f", idB))
	assert.Equal(t, []string{"/w/f"}, area.Add.Paths())
	assert.True(t, area.Remove.IsEmpty())
}

func TestStageForRemoval(t *testing.T) {
	tip := Tree{"/w/tracked": idA}

	t.Run("staged addition is unstaged", func(t *testing.T) {
		area := newTestStaging(t)
		area.StageForAddition(tip, "/w/new", idC)

		outcome, err := area.StageForRemoval(tip, "/w/new")
		require.NoError(t, err)
		assert.Equal(t, RemoveUnstagedAddition, outcome)
		assert.True(t, area.IsEmpty())
	})

	t.Run("tracked file is staged for removal", func(t *testing.T) {
		area := newTestStaging(t)

		outcome, err := area.StageForRemoval(tip, "/w/tracked")
		require.NoError(t, err)
		assert.Equal(t, RemoveStaged, outcome)
		id, ok := area.Remove.Get("/w/tracked")
		require.True(t, ok)
		assert.Equal(t, idA, id)
	})

	t.Run("unknown file", func(t *testing.T) {
		area := newTestStaging(t)

		_, err := area.StageForRemoval(tip, "/w/other")
		assert.Equal(t, ErrNothingToRemove, Category(err))
		assert.Equal(t, "No reason to remove the file.", Message(err))
	})
}

func TestStagingArea_Persists(t *testing.T) {
	fs := memfs.New()
	area, err := LoadStagingArea(fs)
	require.NoError(t, err)
	area.StageForAddition(Tree{}, "/w/f", idA)
	_, err = area.StageForRemoval(Tree{"/w/g": idB}, "/w/g")
	require.NoError(t, err)
	require.NoError(t, area.Save())

	loaded, err := LoadStagingArea(fs)
	require.NoError(t, err)
	assert.Equal(t, map[string]ID{"/w/f": idA}, loaded.Add.Entries())
	assert.Equal(t, []string{"/w/g"}, loaded.Remove.Paths())

	loaded.Clear()
	require.NoError(t, loaded.Save())
	reloaded, err := LoadStagingArea(fs)
	require.NoError(t, err)
	assert.True(t, reloaded.IsEmpty())
}
