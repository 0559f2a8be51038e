package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the host configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Security  SecurityConfig  `json:"security" yaml:"security" envPrefix:"SECURITY_"`
	Subsystem SubsystemConfig `json:"subsystem" yaml:"subsystem" envPrefix:"SUBSYSTEM_"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" envPrefix:"LOG_"`
	Twitch    TwitchConfig    `json:"twitch" yaml:"twitch" envPrefix:"TWITCH_"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string   `json:"host" yaml:"host" env:"HOST" envDefault:"127.0.0.1"`
	Port            int      `json:"port" yaml:"port" env:"PORT" envDefault:"7373"`
	ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIKey string `json:"api_key" yaml:"api_key" env:"API_KEY"`
}

// SubsystemConfig contains settings of the native subsystem
type SubsystemConfig struct {
	WorkDir        string   `json:"work_dir" yaml:"work_dir" env:"WORK_DIR"`
	RescanInterval Duration `json:"rescan_interval" yaml:"rescan_interval" env:"RESCAN_INTERVAL" envDefault:"5m"`
	PlayerCommand  string   `json:"player_command" yaml:"player_command" env:"PLAYER_COMMAND"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" env:"FORMAT" envDefault:"json"`
	Level  string `json:"level" yaml:"level" env:"LEVEL" envDefault:"info"`
}

// TwitchConfig contains chat gateway settings
type TwitchConfig struct {
	URL string `json:"url" yaml:"url" env:"URL" envDefault:"wss://irc-ws.chat.twitch.tv:443"`
}

// Duration is a time.Duration written as text ("10s", "5m") in files and environment
type Duration time.Duration

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a Go duration string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            7373,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Subsystem: SubsystemConfig{
			RescanInterval: Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Format: "json",
			Level:  "info",
		},
		Twitch: TwitchConfig{
			URL: "wss://irc-ws.chat.twitch.tv:443",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Security.APIKey == "" && !isLoopback(c.Server.Host) {
		return fmt.Errorf("%w: API key is required when listening beyond localhost", ErrInvalidConfig)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}

	if c.Subsystem.RescanInterval < 0 {
		return fmt.Errorf("%w: rescan interval cannot be negative", ErrInvalidConfig)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("%w: log format must be json or text", ErrInvalidConfig)
	}

	if c.Twitch.URL == "" {
		return fmt.Errorf("%w: twitch url is required", ErrInvalidConfig)
	}

	if c.Subsystem.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%w: cannot determine working directory: %v", ErrInvalidConfig, err)
		}
		c.Subsystem.WorkDir = wd // default
	}

	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load loads configuration from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromEnv loads configuration from CHATNOTIFIER_* environment variables
func LoadFromEnv() (*Config, error) {
	config, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "CHATNOTIFIER_"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
