package vcs

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Presence bits for a path across the three merge trees.
const (
	inSplit   = 1
	inCurrent = 2
	inTarget  = 4
)

// MergeAction is what a merge does with one path.
type MergeAction int

const (
	// MergeKeep leaves the current branch's version (or absence) alone.
	MergeKeep MergeAction = iota
	// MergeWrite adds a file that only the target branch introduced.
	MergeWrite
	// MergeOverwrite replaces an unchanged file with the target's version.
	MergeOverwrite
	// MergeDelete removes a file the target deleted and current left alone.
	MergeDelete
	// MergeConflict writes conflict markers around both versions.
	MergeConflict
)

func (a MergeAction) String() string {
	switch a {
	case MergeKeep:
		return "keep"
	case MergeWrite:
		return "write"
	case MergeOverwrite:
		return "overwrite"
	case MergeDelete:
		return "delete"
	case MergeConflict:
		return "conflict"
	}
	return "unknown"
}

// PathPlan is the classification of one path. Current and Target are the
// blob ids on each side, empty when the side does not track the path.
type PathPlan struct {
	Path    string
	Bits    int
	Action  MergeAction
	Current ID
	Target  ID
}

// ClassifyPaths decides the merge action for every path in the union of the
// split, current and target trees. The result is sorted by path.
func ClassifyPaths(split, current, target Tree) []PathPlan {
	paths := lo.Uniq(append(append(split.Paths(), current.Paths()...), target.Paths()...))
	sort.Strings(paths)

	plans := make([]PathPlan, 0, len(paths))
	for _, path := range paths {
		s, inS := split[path]
		c, inC := current[path]
		t, inT := target[path]

		bits := 0
		if inS {
			bits |= inSplit
		}
		if inC {
			bits |= inCurrent
		}
		if inT {
			bits |= inTarget
		}

		plan := PathPlan{Path: path, Bits: bits, Current: c, Target: t}
		switch bits {
		case inSplit | inCurrent:
			// Deleted in target.
			if s == c {
				plan.Action = MergeDelete
			} else {
				plan.Action = MergeConflict
			}
		case inSplit | inTarget:
			// Deleted in current; a target edit conflicts with the deletion.
			if s != t {
				plan.Action = MergeConflict
			}
		case inCurrent | inTarget:
			if c != t {
				plan.Action = MergeConflict
			}
		case inSplit | inCurrent | inTarget:
			switch {
			case c == t:
			case s == c:
				plan.Action = MergeOverwrite
			case s == t:
			default:
				plan.Action = MergeConflict
			}
		case inTarget:
			plan.Action = MergeWrite
		}
		// inSplit alone and inCurrent alone need nothing.
		plans = append(plans, plan)
	}
	return plans
}

// ConflictContent renders the conflict-marker file for two sides. A side
// that does not track the path contributes empty content.
func ConflictContent(current, target []byte) []byte {
	var out []byte
	out = append(out, "<<<<<<< HEAD\n"...)
	out = append(out, current...)
	out = append(out, "=======\n"...)
	out = append(out, target...)
	out = append(out, ">>>>>>>\n"...)
	return out
}

// MergeResult describes a completed merge.
type MergeResult struct {
	// FastForward is set when the current branch simply moved to the target
	// tip; no commit was created.
	FastForward bool
	// Conflicted is set when at least one path received conflict markers.
	Conflicted bool
	Commit     *Commit
	Plan       []PathPlan
}

// Merge merges branch target into the current branch.
func (r *Repository) Merge(target string) (*MergeResult, error) {
	stage, err := r.Stage()
	if err != nil {
		return nil, err
	}
	if !stage.IsEmpty() {
		return nil, userError(ErrUncommittedChanges, msgUncommitted)
	}
	if !r.Refs.HasBranch(target) {
		return nil, userError(ErrNoSuchBranch, msgNoSuchBranch)
	}
	branch, current, err := r.Head()
	if err != nil {
		return nil, err
	}
	if branch == target {
		return nil, userError(ErrSelfMerge, msgSelfMerge)
	}
	targetID, err := r.Refs.Branch(target)
	if err != nil {
		return nil, err
	}
	splitID, err := r.Commits.SplitPoint(current.ID, targetID)
	if err != nil {
		return nil, err
	}
	if splitID == targetID {
		return nil, userError(ErrGivenBranchIsAncestor, msgGivenIsAncestor)
	}
	if splitID == current.ID {
		// Fast-forward is a plain checkout of the target branch.
		if err := r.CheckoutBranch(target); err != nil {
			return nil, err
		}
		r.log.Debug("fast-forwarded", zap.String("from", branch), zap.String("to", target))
		return &MergeResult{FastForward: true}, nil
	}

	split, err := r.Commits.GetCommit(splitID)
	if err != nil {
		return nil, err
	}
	other, err := r.Commits.GetCommit(targetID)
	if err != nil {
		return nil, err
	}
	plan := ClassifyPaths(split.Tree, current.Tree, other.Tree)

	// Resolve every write before touching the working directory.
	writes := make(map[string][]byte)
	var conflicts []*Blob
	var deletes []string
	for _, p := range plan {
		switch p.Action {
		case MergeWrite, MergeOverwrite:
			blob, err := r.Commits.GetBlob(p.Target)
			if err != nil {
				return nil, err
			}
			writes[p.Path] = blob.Content
		case MergeConflict:
			ours, err := r.blobContent(p.Current)
			if err != nil {
				return nil, err
			}
			theirs, err := r.blobContent(p.Target)
			if err != nil {
				return nil, err
			}
			content := ConflictContent(ours, theirs)
			writes[p.Path] = content
			conflicts = append(conflicts, &Blob{Path: p.Path, Content: content})
		case MergeDelete:
			deletes = append(deletes, p.Path)
		}
	}
	if err := r.checkUntracked(current.Tree, writes, deletes); err != nil {
		return nil, err
	}

	tree := current.Tree.Clone()
	for _, p := range plan {
		if p.Action == MergeWrite || p.Action == MergeOverwrite {
			tree[p.Path] = p.Target
		}
	}
	for _, blob := range conflicts {
		id, err := r.Commits.PutBlob(blob)
		if err != nil {
			return nil, err
		}
		tree[blob.Path] = id
	}
	for _, path := range deletes {
		delete(tree, path)
	}

	for _, path := range deletes {
		if err := r.Work.Remove(path); err != nil {
			return nil, err
		}
	}
	for _, p := range plan {
		data, ok := writes[p.Path]
		if !ok {
			continue
		}
		if err := r.Work.Write(p.Path, data); err != nil {
			return nil, err
		}
	}

	message := "Merged " + target + " into " + branch + "."
	c, err := r.writeCommit(branch, message, []ID{current.ID, targetID}, tree, stage)
	if err != nil {
		return nil, err
	}
	r.log.Debug("merged",
		zap.String("target", target),
		zap.Stringer("split", splitID),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("writes", len(writes)),
		zap.Int("deletes", len(deletes)))
	return &MergeResult{Conflicted: len(conflicts) > 0, Commit: c, Plan: plan}, nil
}

func (r *Repository) blobContent(id ID) ([]byte, error) {
	if id == "" {
		return nil, nil
	}
	blob, err := r.Commits.GetBlob(id)
	if err != nil {
		return nil, err
	}
	return blob.Content, nil
}
