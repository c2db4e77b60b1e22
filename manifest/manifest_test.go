package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[program]
path = "day23.txt"

[vm]
memory-limit = 65536
trace = true

[network]
size = 10
nat-address = 100
max-rounds = 5000

[server]
addr = ":9000"
max-sessions = 8

[store]
backend = "sqlite"
path = "state/snap.db"

[log]
verbosity = 2
file = "intcode.log"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.ProgramPath() != filepath.Join(m.Dir, "day23.txt") {
		t.Errorf("program path = %q", m.ProgramPath())
	}
	if m.VM.MemoryLimit != 65536 || !m.VM.Trace {
		t.Errorf("vm = %+v, want memory-limit 65536 and trace", m.VM)
	}
	if m.Network.Size != 10 || m.Network.NATAddress != 100 || m.Network.MaxRounds != 5000 {
		t.Errorf("network = %+v", m.Network)
	}
	if m.Server.Addr != ":9000" || m.Server.MaxSessions != 8 {
		t.Errorf("server = %+v", m.Server)
	}
	if m.Store.Backend != BackendSQLite {
		t.Errorf("store backend = %q, want sqlite", m.Store.Backend)
	}
	if m.StorePath() != filepath.Join(m.Dir, "state", "snap.db") {
		t.Errorf("store path = %q", m.StorePath())
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if lf := m.LogFile(); lf == nil || *lf != filepath.Join(m.Dir, "intcode.log") {
		t.Errorf("log file = %v", lf)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[store]
backend = "pebble"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Network.Size != 50 {
		t.Errorf("default network size = %d, want 50", m.Network.Size)
	}
	if m.Network.NATAddress != 255 {
		t.Errorf("default nat address = %d, want 255", m.Network.NATAddress)
	}
	if m.Server.Addr != "localhost:8547" {
		t.Errorf("default server addr = %q", m.Server.Addr)
	}
	if m.SessionMemoryLimit() != DefaultSessionMemoryLimit {
		t.Errorf("default session memory limit = %d, want %d", m.SessionMemoryLimit(), DefaultSessionMemoryLimit)
	}
	if m.StorePath() != filepath.Join(m.Dir, ".intcode", "snapshots") {
		t.Errorf("default pebble path = %q", m.StorePath())
	}
	if m.ProgramPath() != "" {
		t.Errorf("program path = %q, want empty", m.ProgramPath())
	}
	if m.LogFile() != nil {
		t.Errorf("log file = %v, want nil", *m.LogFile())
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[vm\n", "parse error"},
		{"backend", "[store]\nbackend = \"redis\"\n", "unknown store backend"},
		{"nat collision", "[network]\nsize = 10\nnat-address = 3\n", "collides"},
		{"memory limit", "[vm]\nmemory-limit = -1\n", "memory-limit"},
		{"server memory limit", "[server]\nmemory-limit = -4\n", "server memory-limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[program]
path = "found.txt"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Program.Path != "found.txt" {
		t.Errorf("program path = %q, want found.txt", m.Program.Path)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no intcode.toml exists")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Default()
	m.Program.Path = "prog.txt"
	m.Store = StoreConfig{Backend: BackendSQLite, Path: "s.db"}
	m.VM.MemoryLimit = 4096

	if err := m.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Program.Path != "prog.txt" || loaded.Store.Path != "s.db" || loaded.VM.MemoryLimit != 4096 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Dir == "" {
		t.Error("Dir not set after load")
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestSessionMemoryLimit(t *testing.T) {
	tests := []struct {
		name   string
		vm     int
		server int
		want   int
	}{
		{"server only", 0, 4096, 4096},
		{"vm smaller", 100, 4096, 100},
		{"server smaller", 1 << 24, 4096, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Default()
			m.VM.MemoryLimit = tt.vm
			m.Server.MemoryLimit = tt.server
			if got := m.SessionMemoryLimit(); got != tt.want {
				t.Errorf("SessionMemoryLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
