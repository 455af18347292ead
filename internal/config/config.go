// Package config loads the judge-facing configuration: cgroup
// controller roots, default resource bounds, and the default whitelist
// path. TOML via github.com/BurntSushi/toml, the teacher's own config
// format.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/judgecore/sandbox-core/internal/limits"
)

// Config is the on-disk shape of judgecore.toml.
type Config struct {
	Cgroup struct {
		MemoryRoot string `toml:"memory_root"`
		PidsRoot   string `toml:"pids_root"`
		CPURoot    string `toml:"cpu_root"`
	} `toml:"cgroup"`

	Defaults struct {
		MemoryBytes int64 `toml:"memory_bytes"`
		TaskCount   int64 `toml:"task_count"`
		CPUTimeMS   int64 `toml:"cpu_time_ms"`
		WallTimeMS  int64 `toml:"wall_time_ms"`
	} `toml:"defaults"`

	WhitelistPath string `toml:"whitelist_path"`
	Verbose       bool   `toml:"verbose"`
}

// Load parses path as TOML into a Config.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	return &c, nil
}

// CgroupLocs converts the configured roots into the shared type the
// supervisor and controller exchange.
func (c *Config) CgroupLocs() limits.CgroupLocs {
	return limits.CgroupLocs{
		MemoryRoot: c.Cgroup.MemoryRoot,
		PidsRoot:   c.Cgroup.PidsRoot,
		CPURoot:    c.Cgroup.CPURoot,
	}
}

// DefaultLimits converts the configured defaults into ResourceLimits.
func (c *Config) DefaultLimits() limits.ResourceLimits {
	return limits.ResourceLimits{
		MemoryBytes: c.Defaults.MemoryBytes,
		TaskCount:   c.Defaults.TaskCount,
		CPUTime:     time.Duration(c.Defaults.CPUTimeMS) * time.Millisecond,
		WallTime:    time.Duration(c.Defaults.WallTimeMS) * time.Millisecond,
	}
}
