package store

import (
	"sort"
	"sync"

	"github.com/chazu/intcode/vm"
)

// Memory keeps encoded snapshots in a map. Its contents are lost when the
// process exits.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(name string, s *vm.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = data
	return nil
}

func (m *Memory) Get(name string) (*vm.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(name, data)
}

func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; !ok {
		return ErrNotFound
	}
	delete(m.data, name)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
