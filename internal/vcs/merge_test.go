package vcs

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyPaths(t *testing.T) {
	tests := []struct {
		name                   string
		split, current, target Tree
		want                   MergeAction
	}{
		{"unchanged everywhere", Tree{"f": idA}, Tree{"f": idA}, Tree{"f": idA}, MergeKeep},
		{"modified in target only", Tree{"f": idA}, Tree{"f": idA}, Tree{"f": idB}, MergeOverwrite},
		{"modified in current only", Tree{"f": idA}, Tree{"f": idB}, Tree{"f": idA}, MergeKeep},
		{"same change both sides", Tree{"f": idA}, Tree{"f": idB}, Tree{"f": idB}, MergeKeep},
		{"different changes", Tree{"f": idA}, Tree{"f": idB}, Tree{"f": idC}, MergeConflict},
		{"added in target only", Tree{}, Tree{}, Tree{"f": idA}, MergeWrite},
		{"added in current only", Tree{}, Tree{"f": idA}, Tree{}, MergeKeep},
		{"added same both sides", Tree{}, Tree{"f": idA}, Tree{"f": idA}, MergeKeep},
		{"added differently", Tree{}, Tree{"f": idA}, Tree{"f": idB}, MergeConflict},
		{"deleted in target, unchanged in current", Tree{"f": idA}, Tree{"f": idA}, Tree{}, MergeDelete},
		{"deleted in target, modified in current", Tree{"f": idA}, Tree{"f": idB}, Tree{}, MergeConflict},
		{"deleted in current, unchanged in target", Tree{"f": idA}, Tree{}, Tree{"f": idA}, MergeKeep},
		{"deleted in current, modified in target", Tree{"f": idA}, Tree{}, Tree{"f": idB}, MergeConflict},
		{"deleted both sides", Tree{"f": idA}, Tree{}, Tree{}, MergeKeep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ClassifyPaths(tt.split, tt.current, tt.target)
			require.Len(t, plan, 1)
			assert.Equal(t, "f", plan[0].Path)
			assert.Equal(t, tt.want, plan[0].Action, "got %s", plan[0].Action)
		})
	}
}

func TestClassifyPaths_SortedUnion(t *testing.T) {
	plan := ClassifyPaths(Tree{"b": idA}, Tree{"c": idA, "b": idA}, Tree{"a": idB})
	paths := make([]string, len(plan))
	for i, p := range plan {
		paths[i] = p.Path
	}
	assert.Equal(t, []string{"a", "b", "c"}, paths)
	assert.Equal(t, inTarget, plan[0].Bits)
	assert.Equal(t, inSplit|inCurrent, plan[1].Bits)
	assert.Equal(t, inCurrent, plan[2].Bits)
}

func TestConflictContent(t *testing.T) {
	assert.Equal(t,
		"<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>>\n",
		string(ConflictContent([]byte("ours\n"), []byte("theirs\n"))))
	assert.Equal(t,
		"<<<<<<< HEAD\nours\n=======\n>>>>>>>\n",
		string(ConflictContent([]byte("ours\n"), nil)))
}

// graph builds commits with the given parents in an empty store.
type graph struct {
	t   *testing.T
	log *CommitLog
	ids map[string]ID
	n   int
}

func newGraph(t *testing.T) *graph {
	return &graph{t: t, log: NewCommitLog(NewObjectStore(memfs.New()), zap.NewNop()), ids: map[string]ID{}}
}

func (g *graph) add(name string, parents ...string) ID {
	g.t.Helper()
	var ps []ID
	for _, p := range parents {
		ps = append(ps, g.ids[p])
	}
	g.n++
	c, err := NewCommit(name, time.Unix(int64(g.n)*60, 0), ps, nil)
	require.NoError(g.t, err)
	id, err := g.log.Put(c)
	require.NoError(g.t, err)
	g.ids[name] = id
	return id
}

func TestSplitPoint(t *testing.T) {
	t.Run("linear history", func(t *testing.T) {
		g := newGraph(t)
		g.add("root")
		g.add("a", "root")
		g.add("b", "a")

		split, err := g.log.SplitPoint(g.ids["b"], g.ids["a"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["a"], split)

		split, err = g.log.SplitPoint(g.ids["a"], g.ids["b"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["a"], split)
	})

	t.Run("diverged branches", func(t *testing.T) {
		g := newGraph(t)
		g.add("root")
		g.add("base", "root")
		g.add("left", "base")
		g.add("right1", "base")
		g.add("right2", "right1")

		split, err := g.log.SplitPoint(g.ids["left"], g.ids["right2"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["base"], split)
	})

	t.Run("merge commit makes target side closer", func(t *testing.T) {
		// root - b1 - b2 (branch)
		//   \            \
		//    c1 --------- m (current, merged branch at b2)
		// then branch advances to b3. The split for m and b3 is b2,
		// although root is nearer along m's first-parent chain.
		g := newGraph(t)
		g.add("root")
		g.add("b1", "root")
		g.add("b2", "b1")
		g.add("c1", "root")
		g.add("m", "c1", "b2")
		g.add("b3", "b2")

		split, err := g.log.SplitPoint(g.ids["m"], g.ids["b3"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["b2"], split)
	})

	t.Run("criss-cross picks the first candidate from target", func(t *testing.T) {
		// a1 and b1 both qualify: each branch merged the other's tip.
		g := newGraph(t)
		g.add("root")
		g.add("a1", "root")
		g.add("b1", "root")
		g.add("a2", "a1", "b1")
		g.add("b2", "b1", "a1")

		split, err := g.log.SplitPoint(g.ids["a2"], g.ids["b2"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["b1"], split)

		split, err = g.log.SplitPoint(g.ids["b2"], g.ids["a2"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["a1"], split)
	})

	t.Run("target merge commit reaches split through second parent", func(t *testing.T) {
		g := newGraph(t)
		g.add("root")
		g.add("s1", "root")
		g.add("c1", "s1")
		g.add("x1", "root")
		g.add("m", "x1", "s1")

		split, err := g.log.SplitPoint(g.ids["c1"], g.ids["m"])
		require.NoError(t, err)
		assert.Equal(t, g.ids["s1"], split)
	})
}
