// Package appconfig loads the YAML configuration of the tn5250 command.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"pkt.systems/pslog"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/session"
	"github.com/moodclient/tn5250/utils"
)

// Config is the top-level application configuration.
type Config struct {
	Host         string         `mapstructure:"host" yaml:"host"`
	Port         int            `mapstructure:"port" yaml:"port"`
	CCSID        int            `mapstructure:"ccsid" yaml:"ccsid"`
	DeviceName   string         `mapstructure:"device_name" yaml:"device_name"`
	User         string         `mapstructure:"user" yaml:"user"`
	KeyboardType string         `mapstructure:"keyboard_type" yaml:"keyboard_type"`
	CharacterSet string         `mapstructure:"character_set" yaml:"character_set"`
	TerminalType string         `mapstructure:"terminal_type" yaml:"terminal_type"`
	Wide         bool           `mapstructure:"wide" yaml:"wide"`
	Timeouts     TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
	QueueSize    int            `mapstructure:"queue_size" yaml:"queue_size"`
	CodePagesDir string         `mapstructure:"codepages_dir" yaml:"codepages_dir"`
	Log          LogConfig      `mapstructure:"log" yaml:"log"`
}

// TimeoutsConfig holds the session timeouts in milliseconds.
type TimeoutsConfig struct {
	ConnectMS     int `mapstructure:"connect_ms" yaml:"connect_ms"`
	NegotiationMS int `mapstructure:"negotiation_ms" yaml:"negotiation_ms"`
	ReadMS        int `mapstructure:"read_ms" yaml:"read_ms"`
	ShutdownMS    int `mapstructure:"shutdown_ms" yaml:"shutdown_ms"`
}

// LogConfig controls logging. Telnet turns on the telnet traffic log.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Telnet bool   `mapstructure:"telnet" yaml:"telnet"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "",
		Port:         session.DefaultPort,
		CCSID:        session.DefaultCCSID,
		KeyboardType: session.DefaultKeyboardType,
		Timeouts: TimeoutsConfig{
			ConnectMS:     int(session.DefaultConnectTimeout / time.Millisecond),
			NegotiationMS: int(session.DefaultNegotiationTimeout / time.Millisecond),
			ReadMS:        1000,
			ShutdownMS:    int(session.DefaultShutdownTimeout / time.Millisecond),
		},
		QueueSize: 64,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tn5250", "config.yaml"), nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Port < 0 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port %d is out of range", c.Port))
	}
	if c.CCSID < 0 {
		result = multierror.Append(result, fmt.Errorf("ccsid %d is invalid", c.CCSID))
	}
	if c.QueueSize < 0 {
		result = multierror.Append(result, fmt.Errorf("queue_size must not be negative"))
	}
	timeouts := map[string]int{
		"timeouts.connect_ms":     c.Timeouts.ConnectMS,
		"timeouts.negotiation_ms": c.Timeouts.NegotiationMS,
		"timeouts.read_ms":        c.Timeouts.ReadMS,
		"timeouts.shutdown_ms":    c.Timeouts.ShutdownMS,
	}
	for _, key := range []string{"timeouts.connect_ms", "timeouts.negotiation_ms", "timeouts.read_ms", "timeouts.shutdown_ms"} {
		if timeouts[key] < 0 {
			result = multierror.Append(result, fmt.Errorf("%s must not be negative", key))
		}
	}
	if _, err := utils.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}

	return result.ErrorOrNil()
}

// Registry returns the built-in code pages plus any JSON code pages found
// in CodePagesDir.
func (c Config) Registry() (*ebcdic.Registry, error) {
	registry := ebcdic.NewRegistry()
	dir := strings.TrimSpace(c.CodePagesDir)
	if dir == "" {
		return registry, nil
	}
	if _, err := registry.LoadDir(expandEnv(dir)); err != nil {
		return nil, fmt.Errorf("codepages_dir: %w", err)
	}
	return registry, nil
}

// Session converts the configuration into a session.Config that logs to
// logger.
func (c Config) Session(logger pslog.Logger) (session.Config, error) {
	if err := c.Validate(); err != nil {
		return session.Config{}, err
	}

	registry, err := c.Registry()
	if err != nil {
		return session.Config{}, err
	}

	config := session.Config{
		Host:               c.Host,
		Port:               c.Port,
		CCSID:              c.CCSID,
		Registry:           registry,
		DeviceName:         c.DeviceName,
		User:               c.User,
		KeyboardType:       c.KeyboardType,
		CharacterSet:       c.CharacterSet,
		TerminalType:       c.TerminalType,
		Wide:               c.Wide,
		ConnectTimeout:     milliseconds(c.Timeouts.ConnectMS),
		NegotiationTimeout: milliseconds(c.Timeouts.NegotiationMS),
		ReadTimeout:        milliseconds(c.Timeouts.ReadMS),
		ShutdownTimeout:    milliseconds(c.Timeouts.ShutdownMS),
		QueueSize:          c.QueueSize,
		Logger:             logger,
	}

	if c.Log.Telnet {
		debug := utils.DefaultDebugLogConfig()
		config.DebugLog = &debug
	}

	return config, nil
}

func milliseconds(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
