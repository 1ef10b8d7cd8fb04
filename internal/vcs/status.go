package vcs

import (
	"bytes"
	"sort"

	"github.com/samber/lo"
)

// Modification kinds reported for unstaged changes.
const (
	Modified = "modified"
	Deleted  = "deleted"
)

// Modification is a tracked or staged file whose working copy diverged.
type Modification struct {
	Path string
	Kind string
}

// Status is a snapshot of the repository for the status command. All paths
// are relative to the working root and sorted.
type Status struct {
	Current   string
	Branches  []string
	Staged    []string
	Removed   []string
	Unstaged  []Modification
	Untracked []string
}

// Status computes the branch list, the staging area and the differences
// between the working directory and the tip commit.
func (r *Repository) Status() (*Status, error) {
	current, tip, err := r.Head()
	if err != nil {
		return nil, err
	}
	branches, err := r.Refs.Branches()
	if err != nil {
		return nil, err
	}
	stage, err := r.Stage()
	if err != nil {
		return nil, err
	}
	files, err := r.Work.Files()
	if err != nil {
		return nil, err
	}
	present := lo.SliceToMap(files, func(f string) (string, bool) { return f, true })

	st := &Status{
		Current:  current,
		Branches: branches,
		Staged:   r.relAll(stage.Add.Paths()),
		Removed:  r.relAll(stage.Remove.Paths()),
	}

	changes := make(map[string]string)
	for _, path := range tip.Tree.Paths() {
		if !present[path] {
			if !stage.Remove.ContainsPath(path) {
				changes[path] = Deleted
			}
			continue
		}
		if stage.Add.ContainsPath(path) {
			continue
		}
		differs, err := r.differs(path, tip.Tree[path])
		if err != nil {
			return nil, err
		}
		if differs {
			changes[path] = Modified
		}
	}
	for path, id := range stage.Add.Entries() {
		if !present[path] {
			changes[path] = Deleted
			continue
		}
		differs, err := r.differs(path, id)
		if err != nil {
			return nil, err
		}
		if differs {
			changes[path] = Modified
		}
	}
	for _, path := range lo.Keys(changes) {
		st.Unstaged = append(st.Unstaged, Modification{Path: r.rel(path), Kind: changes[path]})
	}
	sort.Slice(st.Unstaged, func(i, j int) bool { return st.Unstaged[i].Path < st.Unstaged[j].Path })

	for _, path := range files {
		if tip.Tree.Has(path) || stage.Add.ContainsPath(path) || stage.Remove.ContainsPath(path) {
			continue
		}
		st.Untracked = append(st.Untracked, r.rel(path))
	}
	sort.Strings(st.Untracked)
	return st, nil
}

// differs reports whether the working copy of path differs from blob id.
func (r *Repository) differs(path string, id ID) (bool, error) {
	blob, err := r.Commits.GetBlob(id)
	if err != nil {
		return false, err
	}
	content, err := r.Work.Read(path)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(blob.Content, content), nil
}

func (r *Repository) rel(path string) string {
	rel, err := r.Work.Rel(path)
	if err != nil {
		return path
	}
	return rel
}

func (r *Repository) relAll(paths []string) []string {
	out := lo.Map(paths, func(p string, _ int) string { return r.rel(p) })
	sort.Strings(out)
	return out
}
