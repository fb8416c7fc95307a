package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TN5250")
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("ccsid", cfg.CCSID)
	v.SetDefault("device_name", cfg.DeviceName)
	v.SetDefault("user", cfg.User)
	v.SetDefault("keyboard_type", cfg.KeyboardType)
	v.SetDefault("character_set", cfg.CharacterSet)
	v.SetDefault("terminal_type", cfg.TerminalType)
	v.SetDefault("wide", cfg.Wide)
	v.SetDefault("timeouts.connect_ms", cfg.Timeouts.ConnectMS)
	v.SetDefault("timeouts.negotiation_ms", cfg.Timeouts.NegotiationMS)
	v.SetDefault("timeouts.read_ms", cfg.Timeouts.ReadMS)
	v.SetDefault("timeouts.shutdown_ms", cfg.Timeouts.ShutdownMS)
	v.SetDefault("queue_size", cfg.QueueSize)
	v.SetDefault("codepages_dir", cfg.CodePagesDir)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.telnet", cfg.Log.Telnet)
	for _, key := range []string{"host", "port", "ccsid", "device_name", "user"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.CodePagesDir = expandEnv(cfg.CodePagesDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if key == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		return "$" + key
	})
}

// Write renders cfg as YAML at path and returns the path written. If path
// is empty, uses DefaultConfigPath.
func Write(path string, cfg Config, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	return Write(path, DefaultConfig(), overwrite)
}
