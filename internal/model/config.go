package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// BackendConfig holds the connection settings for the storage and mail
// relay backend.
type BackendConfig struct {
	// BaseURL is the root URL of the backend service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP exchange.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MailConfig holds settings for outgoing email.
type MailConfig struct {
	// From is the fixed sender address placed on every submission.
	From string `mapstructure:"from" yaml:"from"`
}

// ArchiveConfig controls filing a copy of each sent email in an IMAP
// folder. The password lives in the credential store.
type ArchiveConfig struct {
	Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
	Host               string `mapstructure:"host" yaml:"host"`
	Port               int    `mapstructure:"port" yaml:"port"`
	Username           string `mapstructure:"username" yaml:"username"`
	UseTLS             bool   `mapstructure:"use_tls" yaml:"use_tls"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Folder             string `mapstructure:"folder" yaml:"folder"`
}

// ListingConfig holds file listing settings.
type ListingConfig struct {
	// DebounceMS is the quiescence window coalescing listing requests.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// StorageConfig holds local paths.
type StorageConfig struct {
	// DBPath is the SQLite database holding the dispatch history.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// DocumentDir is where preview handles are materialized.
	DocumentDir string `mapstructure:"document_dir" yaml:"document_dir"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Mail    MailConfig    `mapstructure:"mail" yaml:"mail"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Listing ListingConfig `mapstructure:"listing" yaml:"listing"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/epaper, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "epaper")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/epaper/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:3010",
			TimeoutSec: 60,
		},
		Mail: MailConfig{
			From: "dmrinfo@dinamalar.in",
		},
		Archive: ArchiveConfig{
			Port:   993,
			UseTLS: true,
			Folder: "Sent",
		},
		Listing: ListingConfig{
			DebounceMS: 300,
		},
		Storage: StorageConfig{
			DBPath:      filepath.Join(dir, "epaper.db"),
			DocumentDir: filepath.Join(os.TempDir(), "epaper"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "epaper.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden by EPAPER_* environment variables (for example
// EPAPER_BACKEND_BASE_URL). If the file does not exist, the defaults plus
// environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EPAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows which keys exist.
	v.SetDefault("backend.base_url", def.Backend.BaseURL)
	v.SetDefault("backend.timeout_sec", def.Backend.TimeoutSec)
	v.SetDefault("mail.from", def.Mail.From)
	v.SetDefault("archive.enabled", def.Archive.Enabled)
	v.SetDefault("archive.host", def.Archive.Host)
	v.SetDefault("archive.port", def.Archive.Port)
	v.SetDefault("archive.username", def.Archive.Username)
	v.SetDefault("archive.use_tls", def.Archive.UseTLS)
	v.SetDefault("archive.insecure_skip_verify", def.Archive.InsecureSkipVerify)
	v.SetDefault("archive.folder", def.Archive.Folder)
	v.SetDefault("listing.debounce_ms", def.Listing.DebounceMS)
	v.SetDefault("storage.db_path", def.Storage.DBPath)
	v.SetDefault("storage.document_dir", def.Storage.DocumentDir)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Listing.DebounceMS < 0 {
		cfg.Listing.DebounceMS = def.Listing.DebounceMS
	}
	if cfg.Backend.TimeoutSec <= 0 {
		cfg.Backend.TimeoutSec = def.Backend.TimeoutSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("mail", cfg.Mail)
	v.Set("archive", cfg.Archive)
	v.Set("listing", cfg.Listing)
	v.Set("storage", cfg.Storage)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
