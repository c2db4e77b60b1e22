// Package manifest handles intcode.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "intcode.toml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
)

// DefaultSessionMemoryLimit caps the memory of each session the server hosts
// when [server] memory-limit is not set.
const DefaultSessionMemoryLimit = 1 << 20

// Manifest represents an intcode.toml configuration.
type Manifest struct {
	Program ProgramConfig `toml:"program"`
	VM      VMConfig      `toml:"vm"`
	Network NetworkConfig `toml:"network"`
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// ProgramConfig names the default program file.
type ProgramConfig struct {
	Path string `toml:"path"`
}

// VMConfig configures every processor the tools create.
type VMConfig struct {
	MemoryLimit int  `toml:"memory-limit"` // cells; 0 means unlimited
	Trace       bool `toml:"trace"`
}

// NetworkConfig configures the network simulator.
type NetworkConfig struct {
	Size       int   `toml:"size"`
	NATAddress int64 `toml:"nat-address"`
	MaxRounds  int   `toml:"max-rounds"`
}

// ServerConfig configures the session server.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MaxSessions int    `toml:"max-sessions"`
	MemoryLimit int    `toml:"memory-limit"` // cells per session
}

// StoreConfig selects the snapshot store.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns a manifest with every default applied and no directory.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Network.Size == 0 {
		m.Network.Size = 50
	}
	if m.Network.NATAddress == 0 {
		m.Network.NATAddress = 255
	}
	if m.Server.Addr == "" {
		m.Server.Addr = "localhost:8547"
	}
	if m.Server.MemoryLimit == 0 {
		m.Server.MemoryLimit = DefaultSessionMemoryLimit
	}
	if m.Store.Backend == "" {
		m.Store.Backend = BackendMemory
	}
	if m.Store.Path == "" {
		switch m.Store.Backend {
		case BackendSQLite:
			m.Store.Path = filepath.Join(".intcode", "snapshots.db")
		case BackendPebble:
			m.Store.Path = filepath.Join(".intcode", "snapshots")
		}
	}
}

// Validate reports configuration values that cannot work.
func (m *Manifest) Validate() error {
	switch m.Store.Backend {
	case BackendMemory, BackendSQLite, BackendPebble:
	default:
		return fmt.Errorf("unknown store backend %q", m.Store.Backend)
	}
	if m.Network.Size < 1 {
		return fmt.Errorf("network size must be positive, got %d", m.Network.Size)
	}
	if m.Network.NATAddress >= 0 && m.Network.NATAddress < int64(m.Network.Size) {
		return fmt.Errorf("nat-address %d collides with a machine address", m.Network.NATAddress)
	}
	if m.VM.MemoryLimit < 0 {
		return fmt.Errorf("memory-limit must not be negative, got %d", m.VM.MemoryLimit)
	}
	if m.Server.MemoryLimit < 0 {
		return fmt.Errorf("server memory-limit must not be negative, got %d", m.Server.MemoryLimit)
	}
	return nil
}

// Load parses an intcode.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Save writes the manifest to dir/intcode.toml.
func (m *Manifest) Save(dir string) error {
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return f.Close()
}

// resolve makes p absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ProgramPath returns the configured program file, or "" if none.
func (m *Manifest) ProgramPath() string {
	return m.resolve(m.Program.Path)
}

// StorePath returns the path of the snapshot store.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// SessionMemoryLimit returns the memory limit for server sessions: the
// smaller of the [vm] and [server] limits that are set.
func (m *Manifest) SessionMemoryLimit() int {
	limit := m.Server.MemoryLimit
	if limit <= 0 || (m.VM.MemoryLimit > 0 && m.VM.MemoryLimit < limit) {
		limit = m.VM.MemoryLimit
	}
	return limit
}

// LogFile returns the log file path, or nil to log to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.resolve(m.Log.File)
	return &p
}
