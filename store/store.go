// Package store persists processor snapshots by name.
//
// Snapshots are stored in their CBOR encoding (vm.MarshalSnapshot), so every
// backend holds exactly the bytes the vm package produces. Three backends
// exist: an in-process map, a SQLite database file and a Pebble directory.
package store

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/vm"
)

var log = commonlog.GetLogger("intcode.store")

var (
	// ErrNotFound indicates the requested snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidName is returned for an empty snapshot name.
	ErrInvalidName = errors.New("invalid snapshot name")
)

// Store is a named collection of snapshots. Implementations are safe for
// concurrent use.
type Store interface {
	// Put saves s under name, replacing any previous snapshot.
	Put(name string, s *vm.Snapshot) error
	// Get loads the snapshot saved under name.
	Get(name string) (*vm.Snapshot, error)
	// List returns all snapshot names in ascending order.
	List() ([]string, error)
	// Delete removes the snapshot saved under name.
	Delete(name string) error
	Close() error
}

// Open creates the store selected by backend. path is ignored by the memory
// backend.
func Open(backend, path string) (Store, error) {
	log.Debugf("opening %s store at %q", backend, path)
	switch backend {
	case manifest.BackendMemory:
		return NewMemory(), nil
	case manifest.BackendSQLite:
		return OpenSQLite(path)
	case manifest.BackendPebble:
		return OpenPebble(path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// OpenManifest opens the store configured in m.
func OpenManifest(m *manifest.Manifest) (Store, error) {
	return Open(m.Store.Backend, m.StorePath())
}

func checkName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	return nil
}

func encode(s *vm.Snapshot) ([]byte, error) {
	data, err := vm.MarshalSnapshot(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func decode(name string, data []byte) (*vm.Snapshot, error) {
	s, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return s, nil
}
