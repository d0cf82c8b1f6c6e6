// Package config handles TOML-based configuration loading and validation.
// The file is parsed as data only; nothing in it is executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Player       string    `toml:"player"`
	DownloadDir  string    `toml:"download_dir"`
	Debug        bool      `toml:"debug"`
	UserAgent    string    `toml:"user_agent"`
	Timeout      int       `toml:"timeout"`
	MaxRedirects int       `toml:"max_redirects"`
	PageSize     int       `toml:"page_size"`
	SearchRate   float64   `toml:"search_rate"`
	SelectLimit  int       `toml:"select_limit"`
	CiscoLive    CiscoLive `toml:"ciscolive"`
}

// CiscoLive holds the Rainfocus API settings. Leaving the credential
// empty makes the tool read it from the public catalog script.
type CiscoLive struct {
	ProfileID string `toml:"profile_id"`
	WidgetID  string `toml:"widget_id"`
	TokensURL string `toml:"tokens_url"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Player:       "mpv",
		DownloadDir:  "~/Videos/sitegrab",
		Debug:        false,
		Timeout:      30,
		MaxRedirects: 5,
		PageSize:     50,
		SearchRate:   2,
		SelectLimit:  200,
		CiscoLive: CiscoLive{
			TokensURL: "https://cdn-events.rainfocus.com/pages/cisco/clondemand/catalog.js",
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitegrab"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sitegrab"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.Timeout < 1 || c.Timeout > 300 {
		return fmt.Errorf("timeout must be between 1 and 300 seconds, got %d", c.Timeout)
	}
	if c.MaxRedirects < 1 || c.MaxRedirects > 10 {
		return fmt.Errorf("max_redirects must be between 1 and 10, got %d", c.MaxRedirects)
	}
	if c.PageSize < 1 || c.PageSize > 500 {
		return fmt.Errorf("page_size must be between 1 and 500, got %d", c.PageSize)
	}
	if c.SearchRate <= 0 {
		return fmt.Errorf("search_rate must be positive, got %g", c.SearchRate)
	}
	if c.SelectLimit < 0 {
		return fmt.Errorf("select_limit cannot be negative")
	}

	if (c.CiscoLive.ProfileID == "") != (c.CiscoLive.WidgetID == "") {
		return fmt.Errorf("ciscolive profile_id and widget_id must be set together")
	}
	if !strings.HasPrefix(c.CiscoLive.TokensURL, "https://") {
		return fmt.Errorf("ciscolive tokens_url must be an https URL, got %q", c.CiscoLive.TokensURL)
	}

	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
