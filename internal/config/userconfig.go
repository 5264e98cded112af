package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

const configFileName = "vtmux/config.toml"

// UserConfig represents the user's custom configuration
type UserConfig struct {
	General  GeneralConfig   `toml:"general"`
	Sessions []SessionConfig `toml:"session"`
}

// GeneralConfig holds top-level settings
type GeneralConfig struct {
	PreferredShell string `toml:"preferred_shell"` // Shell for sessions without an explicit command; if empty, auto-detect
	LeaderKey      string `toml:"leader_key"`      // Leader key for multiplexer commands (default: ctrl+b)
}

// SessionConfig describes one session started at launch
type SessionConfig struct {
	Name    string   `toml:"name"`    // Display name; defaults to the command
	Command string   `toml:"command"` // Executable; empty means the preferred shell
	Args    []string `toml:"args"`    // Arguments passed to the command
}

// DefaultConfig returns the default configuration
func DefaultConfig() *UserConfig {
	return &UserConfig{
		General: GeneralConfig{
			PreferredShell: "",
			LeaderKey:      "ctrl+b",
		},
		Sessions: []SessionConfig{
			{Name: "shell"},
		},
	}
}

// LoadUserConfig loads the user's config file, creating a commented
// default one on first run.
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile(configFileName)
	if err != nil {
		// Config doesn't exist, create default
		return createDefaultConfig()
	}

	// #nosec G304 - configPath is from XDG search, reading user config is intentional
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ParseConfig parses TOML config data and fills missing fields with
// defaults.
func ParseConfig(data []byte) (*UserConfig, error) {
	var cfg UserConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if cfg.General.LeaderKey == "" {
		cfg.General.LeaderKey = defaults.General.LeaderKey
	}
	if len(cfg.Sessions) == 0 {
		cfg.Sessions = defaults.Sessions
	}
	for i := range cfg.Sessions {
		if cfg.Sessions[i].Name == "" {
			if cfg.Sessions[i].Command != "" {
				cfg.Sessions[i].Name = cfg.Sessions[i].Command
			} else {
				cfg.Sessions[i].Name = fmt.Sprintf("session %d", i+1)
			}
		}
	}

	if _, err := ParseLeaderKey(cfg.General.LeaderKey); err != nil {
		return nil, fmt.Errorf("invalid leader_key %q: %w", cfg.General.LeaderKey, err)
	}
	return &cfg, nil
}

// LeaderKey is a parsed leader chord.
type LeaderKey struct {
	Ch   rune
	Ctrl bool
	Alt  bool
}

// ParseLeaderKey parses chord strings like "ctrl+b" or "alt+a".
func ParseLeaderKey(s string) (LeaderKey, error) {
	var key LeaderKey
	parts := strings.Split(strings.ToLower(s), "+")
	for i, part := range parts {
		last := i == len(parts)-1
		switch {
		case !last && part == "ctrl":
			key.Ctrl = true
		case !last && part == "alt":
			key.Alt = true
		case last && len([]rune(part)) == 1:
			key.Ch = []rune(part)[0]
		default:
			return LeaderKey{}, fmt.Errorf("unrecognized chord element %q", part)
		}
	}
	if key.Ch == 0 {
		return LeaderKey{}, fmt.Errorf("chord %q has no key", s)
	}
	return key, nil
}

// createDefaultConfig creates a default config file in the user's config directory
func createDefaultConfig() (*UserConfig, error) {
	cfg := DefaultConfig()

	configPath, err := xdg.ConfigFile(configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# vtmux Configuration File\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n")
	sb.WriteString("#\n")
	sb.WriteString("# leader_key: chord that prefixes multiplexer commands\n")
	sb.WriteString("#   Default: ctrl+b\n")
	sb.WriteString("#\n")
	sb.WriteString("# preferred_shell: shell for sessions without an explicit command\n")
	sb.WriteString("#   Leave empty to auto-detect from $SHELL.\n")
	sb.WriteString("#\n")
	sb.WriteString("# Each [[session]] entry starts one session at launch:\n")
	sb.WriteString("#   [[session]]\n")
	sb.WriteString("#   name = \"editor\"\n")
	sb.WriteString("#   command = \"vim\"\n")
	sb.WriteString("#   args = [\".\"]\n\n")
	sb.Write(data)

	if err := os.WriteFile(configPath, []byte(sb.String()), 0600); err != nil {
		return nil, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file location, creating the path if
// it does not yet exist.
func GetConfigPath() (string, error) {
	path, err := xdg.SearchConfigFile(configFileName)
	if err != nil {
		return xdg.ConfigFile(configFileName)
	}
	return path, nil
}
