package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/chazu/intcode/vm"
)

// keyPrefix namespaces snapshot keys so the database can hold other data.
const keyPrefix = "snapshot/"

// Pebble stores snapshots in a Pebble key-value directory.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (creating if needed) the Pebble database in dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble at %s: %w", dir, err)
	}
	return &Pebble{db: db}, nil
}

func snapshotKey(name string) []byte {
	return []byte(keyPrefix + name)
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix.
func prefixUpperBound(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

func (p *Pebble) Put(name string, s *vm.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := p.db.Set(snapshotKey(name), data, pebble.Sync); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (p *Pebble) Get(name string) (*vm.Snapshot, error) {
	value, closer, err := p.db.Get(snapshotKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	defer closer.Close()

	// value is only valid until closer.Close
	data := append([]byte(nil), value...)
	return decode(name, data)
}

func (p *Pebble) List() ([]string, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: prefixUpperBound(keyPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer iter.Close()

	names := []string{}
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()[len(keyPrefix):]))
	}
	return names, iter.Error()
}

func (p *Pebble) Delete(name string) error {
	key := snapshotKey(name)
	_, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	closer.Close()
	if err := p.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
