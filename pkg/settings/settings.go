// Package settings manages persistent configuration for the fwctl CLI and
// its library packages: directory layout, the external control program, and
// the optional distributed commit lock.
package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults mirror firewalld's own default directory layout and control program.
const (
	DefaultSystemDir    = "/usr/lib/firewalld/services"
	DefaultLocalDir     = "/etc/firewalld/services"
	DefaultFirewallCmd  = "/usr/bin/firewall-cmd"
	DefaultLockKeyTTLMS = 30000
)

// Settings holds persistent configuration read from, and written back to, a
// single YAML file via Load/LoadFrom and Save/SaveTo.
type Settings struct {
	// SystemDir overrides the system-supplied service directory.
	SystemDir string `yaml:"system_dir,omitempty"`

	// LocalDir overrides the local override/additional service directory.
	LocalDir string `yaml:"local_dir,omitempty"`

	// FirewallCmdPath overrides the path to the external control program.
	FirewallCmdPath string `yaml:"firewall_cmd_path,omitempty"`

	// Zones lists the zones synchronized by `fwctl sync commit` when no
	// --zone flag is given.
	Zones []string `yaml:"zones,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// JSONLogs enables structured JSON log output instead of text.
	JSONLogs bool `yaml:"json_logs,omitempty"`

	// RedisAddr, when non-empty, makes `fwctl sync commit` take a
	// Redis-backed lock in addition to the synchronizer's in-process mutex,
	// for coordinating multiple fwctl processes against the same fleet of
	// hosts.
	RedisAddr string `yaml:"redis_addr,omitempty"`

	// RedisLockTTLMS is the distributed lock's lease time in milliseconds.
	RedisLockTTLMS int `yaml:"redis_lock_ttl_ms,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/fwctl_settings.yaml"
	}
	return filepath.Join(home, ".fwctl", "settings.yaml")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// (default) settings rather than an error.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetSystemDir returns the system service directory with its default.
func (s *Settings) GetSystemDir() string {
	if s.SystemDir != "" {
		return s.SystemDir
	}
	return DefaultSystemDir
}

// GetLocalDir returns the local service directory with its default.
func (s *Settings) GetLocalDir() string {
	if s.LocalDir != "" {
		return s.LocalDir
	}
	return DefaultLocalDir
}

// GetFirewallCmdPath returns the control program path with its default.
func (s *Settings) GetFirewallCmdPath() string {
	if s.FirewallCmdPath != "" {
		return s.FirewallCmdPath
	}
	return DefaultFirewallCmd
}

// GetRedisLockTTLMS returns the distributed lock TTL with its default.
func (s *Settings) GetRedisLockTTLMS() int {
	if s.RedisLockTTLMS > 0 {
		return s.RedisLockTTLMS
	}
	return DefaultLockKeyTTLMS
}

// UsesDistributedLock reports whether a Redis-backed commit lock is
// configured (see pkg/synclock).
func (s *Settings) UsesDistributedLock() bool {
	return s.RedisAddr != ""
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
