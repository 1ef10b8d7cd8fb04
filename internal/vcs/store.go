package vcs

import (
	"encoding/hex"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
	"github.com/warpfork/go-errcat"
)

// ID is the lowercase hex SHA-1 digest of an object's canonical encoding.
type ID string

// idLength is the length of a full hex id (160-bit digest).
const idLength = 40

// Short returns the 7-character abbreviation used in merge log lines.
func (id ID) Short() string {
	if len(id) < 7 {
		return string(id)
	}
	return string(id[:7])
}

func (id ID) String() string { return string(id) }

func validID(id ID) bool {
	if len(id) != idLength {
		return false
	}
	_, err := hex.DecodeString(string(id))
	return err == nil
}

// HashObject computes the id of data: a SHA-1 multihash whose digest is
// rendered as hex.
func HashObject(data []byte) (ID, error) {
	mh, err := multihash.Sum(data, multihash.SHA1, -1)
	if err != nil {
		return "", errors.Wrap(err, "multihash")
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return "", errors.Wrap(err, "decode multihash")
	}
	return ID(hex.EncodeToString(decoded.Digest)), nil
}

// ObjectStore manages content-addressed immutable objects in a flat
// directory. The filename of each object is its id.
type ObjectStore struct {
	fs billy.Filesystem // rooted at objects/
}

// NewObjectStore creates an ObjectStore over fs, which must be rooted at the
// objects directory.
func NewObjectStore(fs billy.Filesystem) *ObjectStore {
	return &ObjectStore{fs: fs}
}

// Put writes data to the object store, returning its id.
// If the object already exists, this is a no-op.
func (s *ObjectStore) Put(data []byte) (ID, error) {
	id, err := HashObject(data)
	if err != nil {
		return "", err
	}
	if s.Has(id) {
		return id, nil
	}
	if err := SafeWrite(s.fs, string(id), data); err != nil {
		return "", errors.Wrapf(err, "write object %s", id)
	}
	return id, nil
}

// Get reads an object by id. A missing object means the repository is
// corrupted and is reported with ErrObjectNotFound.
func (s *ObjectStore) Get(id ID) ([]byte, error) {
	if !validID(id) {
		return nil, objectNotFound(id)
	}
	data, err := readFile(s.fs, string(id))
	if isNotExist(err) {
		return nil, objectNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read object %s", id)
	}
	return data, nil
}

func objectNotFound(id ID) error {
	return errcat.Errorf(ErrObjectNotFound, "object %s not found (repository corrupted)", id)
}

// Has checks if an object exists.
func (s *ObjectStore) Has(id ID) bool {
	return validID(id) && exists(s.fs, string(id))
}

// List returns the ids of every stored object, sorted.
func (s *ObjectStore) List() ([]ID, error) {
	entries, err := s.fs.ReadDir(".")
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	ids := make([]ID, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isTempName(e.Name()) {
			continue
		}
		if id := ID(e.Name()); validID(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
