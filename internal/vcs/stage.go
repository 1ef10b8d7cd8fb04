package vcs

import (
	"encoding/json"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/warpfork/go-errcat"
)

const (
	addStageFile    = "addStage"
	removeStageFile = "removeStage"
)

// Stage is one persisted path -> blob id index.
type Stage struct {
	fs      billy.Filesystem
	name    string
	entries map[string]ID
}

type stageRecord struct {
	V       int           `json:"v"`
	Entries map[string]ID `json:"entries"`
}

// LoadStage reads the index stored in file name. A missing file is an empty
// index.
func LoadStage(fs billy.Filesystem, name string) (*Stage, error) {
	s := &Stage{fs: fs, name: name, entries: make(map[string]ID)}
	data, err := readFile(fs, name)
	if isNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	var rec stageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errcat.Errorf(ErrCorrupt, "%s: undecodable: %s", name, err)
	}
	if rec.V != encodingVersion {
		return nil, errcat.Errorf(ErrCorrupt, "%s: unsupported encoding version %d", name, rec.V)
	}
	for path, id := range rec.Entries {
		s.entries[path] = id
	}
	return s, nil
}

// Save persists the index.
func (s *Stage) Save() error {
	data, err := CanonicalJSON(stageRecord{V: encodingVersion, Entries: s.entries})
	if err != nil {
		return errors.Wrapf(err, "encode %s", s.name)
	}
	if err := SafeWrite(s.fs, s.name, data); err != nil {
		return errors.Wrapf(err, "write %s", s.name)
	}
	return nil
}

// Put maps path to id, replacing any previous entry.
func (s *Stage) Put(path string, id ID) { s.entries[path] = id }

// Delete drops the entry for path, if any.
func (s *Stage) Delete(path string) { delete(s.entries, path) }

// Get returns the blob id staged at path.
func (s *Stage) Get(path string) (ID, bool) {
	id, ok := s.entries[path]
	return id, ok
}

// ContainsPath reports whether path has an entry.
func (s *Stage) ContainsPath(path string) bool {
	_, ok := s.entries[path]
	return ok
}

// ContainsID reports whether any entry maps to id.
func (s *Stage) ContainsID(id ID) bool {
	return lo.Contains(lo.Values(s.entries), id)
}

// DeleteID drops every entry that maps to id.
func (s *Stage) DeleteID(id ID) {
	for path, v := range s.entries {
		if v == id {
			delete(s.entries, path)
		}
	}
}

func (s *Stage) IsEmpty() bool { return len(s.entries) == 0 }

func (s *Stage) Clear() { s.entries = make(map[string]ID) }

// Paths returns the staged paths in sorted order.
func (s *Stage) Paths() []string {
	paths := lo.Keys(s.entries)
	sort.Strings(paths)
	return paths
}

// Entries returns a copy of the index.
func (s *Stage) Entries() map[string]ID {
	return lo.Assign(s.entries)
}

// StagingArea is the pending-change buffer, split into add and remove
// intents.
type StagingArea struct {
	Add    *Stage
	Remove *Stage
}

// LoadStagingArea reads both indices from the repository directory.
func LoadStagingArea(fs billy.Filesystem) (*StagingArea, error) {
	add, err := LoadStage(fs, addStageFile)
	if err != nil {
		return nil, err
	}
	remove, err := LoadStage(fs, removeStageFile)
	if err != nil {
		return nil, err
	}
	return &StagingArea{Add: add, Remove: remove}, nil
}

func (a *StagingArea) IsEmpty() bool {
	return a.Add.IsEmpty() && a.Remove.IsEmpty()
}

func (a *StagingArea) Clear() {
	a.Add.Clear()
	a.Remove.Clear()
}

// Save persists both indices.
func (a *StagingArea) Save() error {
	if err := a.Add.Save(); err != nil {
		return err
	}
	return a.Remove.Save()
}

// AddOutcome says what StageForAddition did.
type AddOutcome int

const (
	// AddUnchanged: the content matches the tip commit; nothing is staged.
	AddUnchanged AddOutcome = iota
	// AddUnstagedRemoval: a pending removal of the same content was cancelled.
	AddUnstagedRemoval
	// AddStaged: the blob must be stored and is now in the add-index. Any
	// pending removal of the path is dropped.
	AddStaged
)

// StageForAddition records the intent to add blob id at path given the tip
// commit's tree.
func (a *StagingArea) StageForAddition(tip Tree, path string, id ID) AddOutcome {
	if a.Remove.ContainsID(id) {
		a.Remove.DeleteID(id)
		return AddUnstagedRemoval
	}
	if tip[path] == id {
		// Reverting to the committed content cancels an older staged edit.
		a.Add.Delete(path)
		return AddUnchanged
	}
	// A file rewritten after rm is tracked again.
	a.Remove.Delete(path)
	a.Add.Put(path, id)
	return AddStaged
}

// RemoveOutcome says what StageForRemoval did.
type RemoveOutcome int

const (
	// RemoveUnstagedAddition: the path was only staged for addition.
	RemoveUnstagedAddition RemoveOutcome = iota + 1
	// RemoveStaged: the path is tracked and now in the remove-index; the
	// working file must be deleted.
	RemoveStaged
)

// StageForRemoval records the intent to stop tracking path.
func (a *StagingArea) StageForRemoval(tip Tree, path string) (RemoveOutcome, error) {
	if a.Add.ContainsPath(path) {
		a.Add.Delete(path)
		return RemoveUnstagedAddition, nil
	}
	if id, ok := tip[path]; ok {
		a.Remove.Put(path, id)
		return RemoveStaged, nil
	}
	return 0, userError(ErrNothingToRemove, msgNothingToRemove)
}
