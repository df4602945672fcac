package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

// EnvConfig names the environment variable holding the config file path
const EnvConfig = "MANEBOT_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General   GeneralConfig   `toml:"general" yaml:"general"`
	Bot       BotConfig       `toml:"bot" yaml:"bot"`
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Websocket WebsocketConfig `toml:"websocket" yaml:"websocket"`
	GRPC      GRPCConfig      `toml:"grpc" yaml:"grpc"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
}

// BotConfig holds command handling settings
type BotConfig struct {
	CommandPrefix string   `toml:"command_prefix" yaml:"command_prefix"`
	PageSize      int      `toml:"page_size" yaml:"page_size"`
	Plugins       []string `toml:"plugins" yaml:"plugins"`
	ConsoleUser   string   `toml:"console_user" yaml:"console_user"`
	Admins        []string `toml:"admins" yaml:"admins"`
}

// DatabaseConfig holds the SQLite store settings
type DatabaseConfig struct {
	Path        string   `toml:"path" yaml:"path"`
	BusyTimeout Duration `toml:"busy_timeout" yaml:"busy_timeout"`

	// PermissionCacheTTL bounds how long permission decisions are reused;
	// a negative value disables the cache
	PermissionCacheTTL Duration `toml:"permission_cache_ttl" yaml:"permission_cache_ttl"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Format     string `toml:"format" yaml:"format"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// WebsocketConfig holds the websocket chat platform settings
type WebsocketConfig struct {
	Enabled     bool     `toml:"enabled" yaml:"enabled"`
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	Path        string   `toml:"path" yaml:"path"`
	ReadTimeout Duration `toml:"read_timeout" yaml:"read_timeout"`
}

// GRPCConfig holds the health endpoint settings
type GRPCConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Host    string `toml:"host" yaml:"host"`
	Port    int    `toml:"port" yaml:"port"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return &cfg
}

// Load loads configuration from a TOML or YAML file. The format is picked
// by extension; anything other than .yaml or .yml is read as TOML.
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the MANEBOT_CONFIG environment
// variable or the first default location that exists. Without any file the
// defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		defaultPaths := []string{
			"./configs/manebot.toml",
			"./configs/manebot.yaml",
			"./manebot.toml",
			filepath.Join(os.Getenv("HOME"), ".config/manebot/manebot.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		cfg := Default()
		cfg.applyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "manebot"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}

	// Bot
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = "!"
	}
	if c.Bot.PageSize == 0 {
		c.Bot.PageSize = 10
	}
	if c.Bot.ConsoleUser == "" {
		c.Bot.ConsoleUser = "console"
	}

	// Database
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.General.DataDir, "manebot.db")
	}
	if c.Database.BusyTimeout.Duration == 0 {
		c.Database.BusyTimeout.Duration = 5 * time.Second
	}
	if c.Database.PermissionCacheTTL.Duration == 0 {
		c.Database.PermissionCacheTTL.Duration = 30 * time.Second
	}

	// Logging
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 50
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}

	// Websocket
	if c.Websocket.Host == "" {
		c.Websocket.Host = "0.0.0.0"
	}
	if c.Websocket.Port == 0 {
		c.Websocket.Port = 8480
	}
	if c.Websocket.Path == "" {
		c.Websocket.Path = "/ws"
	}
	if c.Websocket.ReadTimeout.Duration == 0 {
		c.Websocket.ReadTimeout.Duration = 60 * time.Second
	}

	// gRPC
	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9480
	}
}

// applyEnvOverrides lets MANEBOT_* variables override file values
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MANEBOT_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := os.Getenv("MANEBOT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("MANEBOT_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MANEBOT_COMMAND_PREFIX"); v != "" {
		c.Bot.CommandPrefix = v
	}
	if v := os.Getenv("MANEBOT_WEBSOCKET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Websocket.Port = port
		}
	}
	if v := os.Getenv("MANEBOT_GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.GRPC.Port = port
		}
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Logging.File = os.ExpandEnv(c.Logging.File)
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	invalid := func(field string, value interface{}, reason string) error {
		return mberror.Newf("invalid config %s: %s", field, reason).
			WithCode(mberror.CodeConfig).
			WithOperation("config.Validate").
			WithDetail("field", field).
			WithDetail("value", value)
	}

	if strings.ContainsAny(c.Bot.CommandPrefix, " \t\r\n") {
		return invalid("bot.command_prefix", c.Bot.CommandPrefix, "must not contain whitespace")
	}
	if c.Bot.PageSize < 1 {
		return invalid("bot.page_size", c.Bot.PageSize, "must be at least 1")
	}
	if c.Websocket.Port < 1 || c.Websocket.Port > 65535 {
		return invalid("websocket.port", c.Websocket.Port, "out of range")
	}
	if !strings.HasPrefix(c.Websocket.Path, "/") {
		return invalid("websocket.path", c.Websocket.Path, "must start with /")
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return invalid("grpc.port", c.GRPC.Port, "out of range")
	}
	if c.Websocket.Enabled && c.GRPC.Enabled && c.Websocket.Port == c.GRPC.Port {
		return invalid("grpc.port", c.GRPC.Port, "collides with websocket.port")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return invalid("logging", c.Logging, "rotation limits must not be negative")
	}
	return nil
}

// GetServiceAddress returns the listen address of a network endpoint
func (c *Config) GetServiceAddress(service string) string {
	switch service {
	case "websocket":
		return fmt.Sprintf("%s:%d", c.Websocket.Host, c.Websocket.Port)
	case "grpc":
		return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
	default:
		return ""
	}
}
