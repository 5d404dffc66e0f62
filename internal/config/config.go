package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ExportsDir  string `toml:"exports_dir"`
	DBPath      string `toml:"db_path"`
	Listen      string `toml:"listen"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
	LogLevel    string `toml:"log_level"`
}

// DefaultPath is where Load looks for the config file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "trainlog", "config.toml"), nil
}

// Load reads cfgPath on top of the defaults. An empty cfgPath means
// DefaultPath; a missing file is not an error.
func Load(cfgPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ExportsDir:  filepath.Join(home, "Documents", "WhatsApp"),
		DBPath:      filepath.Join(home, ".config", "trainlog", "trainlog.db"),
		Listen:      "127.0.0.1:8501",
		MaxUploadMB: 32,
		LogLevel:    "info",
	}

	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "trainlog", "config.toml")
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	cfg.applyEnv()

	// expand ~ in paths
	cfg.ExportsDir = expandHome(cfg.ExportsDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max_upload_mb must be positive, got %d", cfg.MaxUploadMB)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRAINLOG_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("TRAINLOG_DB_PATH"); v != "" {
		c.DBPath = v
	}
}

// MaxUploadBytes is the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
