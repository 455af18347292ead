package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
whitelist_path = "/etc/judgecore/default.whitelist"
verbose = true

[cgroup]
memory_root = "/sys/fs/cgroup"
pids_root = "/sys/fs/cgroup"
cpu_root = "/sys/fs/cgroup"

[defaults]
memory_bytes = 268435456
task_count = 32
cpu_time_ms = 2000
wall_time_ms = 5000
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judgecore.toml")
	if err := os.WriteFile(path, []byte(sample), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadParsesSampleConfig(t *testing.T) {
	cfg, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if cfg.WhitelistPath != "/etc/judgecore/default.whitelist" {
		t.Errorf("WhitelistPath = %q", cfg.WhitelistPath)
	}

	locs := cfg.CgroupLocs()
	if locs.MemoryRoot != "/sys/fs/cgroup" {
		t.Errorf("CgroupLocs().MemoryRoot = %q", locs.MemoryRoot)
	}

	rl := cfg.DefaultLimits()
	if rl.MemoryBytes != 268435456 {
		t.Errorf("MemoryBytes = %d", rl.MemoryBytes)
	}
	if rl.TaskCount != 32 {
		t.Errorf("TaskCount = %d", rl.TaskCount)
	}
	if rl.CPUTime != 2*time.Second {
		t.Errorf("CPUTime = %v, want 2s", rl.CPUTime)
	}
	if rl.WallTime != 5*time.Second {
		t.Errorf("WallTime = %v, want 5s", rl.WallTime)
	}
}

func TestLoadErrorsOnMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error loading a nonexistent config file")
	}
}
