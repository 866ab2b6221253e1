package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Source    SourceConfig    `toml:"source"`
	Archive   ArchiveConfig   `toml:"archive"`
	Property  PropertyConfig  `toml:"property"`
	Messaging MessagingConfig `toml:"messaging"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Web       WebConfig       `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath string `toml:"database_path"`
}

// SourceConfig holds case export source settings
type SourceConfig struct {
	URL string `toml:"url"`
}

// ArchiveConfig holds long-term archive sink settings
type ArchiveConfig struct {
	URL string `toml:"url"`
	// PublicURL is the archive's public search frontend, used to build the
	// archive links stored on completed attempts.
	PublicURL string `toml:"public_url"`
}

// PropertyConfig holds property register settings
type PropertyConfig struct {
	URL string `toml:"url"`
}

// MessagingConfig holds email notification settings. An empty URL disables
// notifications entirely.
type MessagingConfig struct {
	URL                     string `toml:"url"`
	SenderName              string `toml:"sender_name"`
	SenderAddress           string `toml:"sender_address"`
	GeoRecipient            string `toml:"geo_recipient"`
	ManualHandlingRecipient string `toml:"manual_handling_recipient"`
}

// SchedulerConfig holds the batch schedule
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// WebConfig holds web API settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".case-archiver", "history.db"),
		},
		Messaging: MessagingConfig{
			SenderName: "Case Archiver",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Cron:    "0 2 * * *",
		},
		Web: WebConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "case-archiver", "config.toml")
}
