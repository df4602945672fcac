package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{5 * time.Minute}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "5m0s" {
		t.Errorf("MarshalText() = %s, want 5m0s", result)
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.General.Name != "manebot" {
		t.Errorf("General.Name = %s, want manebot", cfg.General.Name)
	}
	if cfg.Bot.CommandPrefix != "!" {
		t.Errorf("Bot.CommandPrefix = %s, want !", cfg.Bot.CommandPrefix)
	}
	if cfg.Bot.PageSize != 10 {
		t.Errorf("Bot.PageSize = %d, want 10", cfg.Bot.PageSize)
	}
	if cfg.Database.Path != filepath.Join("./data", "manebot.db") {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Websocket.Path != "/ws" {
		t.Errorf("Websocket.Path = %s, want /ws", cfg.Websocket.Path)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging.MaxBackups = %d, want 3", cfg.Logging.MaxBackups)
	}

	// Existing values are kept
	cfg = &Config{Bot: BotConfig{CommandPrefix: "/", PageSize: 25}}
	cfg.applyDefaults()
	if cfg.Bot.CommandPrefix != "/" || cfg.Bot.PageSize != 25 {
		t.Errorf("defaults overwrote explicit values: %+v", cfg.Bot)
	}
}

func TestConfig_GetServiceAddress(t *testing.T) {
	cfg := Default()

	tests := []struct {
		service  string
		expected string
	}{
		{"websocket", "0.0.0.0:8480"},
		{"grpc", "0.0.0.0:9480"},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			if got := cfg.GetServiceAddress(tt.service); got != tt.expected {
				t.Errorf("GetServiceAddress(%s) = %s, want %s", tt.service, got, tt.expected)
			}
		})
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manebot.toml")
	content := `
[bot]
command_prefix = "/"
plugins = ["core"]

[database]
path = "$MANEBOT_TEST_DIR/bot.db"
busy_timeout = "2s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANEBOT_TEST_DIR", dir)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bot.CommandPrefix != "/" {
		t.Errorf("Bot.CommandPrefix = %s, want /", cfg.Bot.CommandPrefix)
	}
	if len(cfg.Bot.Plugins) != 1 || cfg.Bot.Plugins[0] != "core" {
		t.Errorf("Bot.Plugins = %v", cfg.Bot.Plugins)
	}
	if cfg.Database.Path != filepath.Join(dir, "bot.db") {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Database.BusyTimeout.Duration != 2*time.Second {
		t.Errorf("Database.BusyTimeout = %v", cfg.Database.BusyTimeout)
	}
	if cfg.Bot.PageSize != 10 {
		t.Errorf("defaults not applied: PageSize = %d", cfg.Bot.PageSize)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manebot.yaml")
	content := `
bot:
  page_size: 5
websocket:
  enabled: true
  read_timeout: 90s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.PageSize != 5 {
		t.Errorf("Bot.PageSize = %d, want 5", cfg.Bot.PageSize)
	}
	if !cfg.Websocket.Enabled {
		t.Error("Websocket.Enabled = false, want true")
	}
	if cfg.Websocket.ReadTimeout.Duration != 90*time.Second {
		t.Errorf("Websocket.ReadTimeout = %v", cfg.Websocket.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manebot.toml")
	if err := os.WriteFile(path, []byte("[bot]\ncommand_prefix = \"/\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANEBOT_COMMAND_PREFIX", ".")
	t.Setenv("MANEBOT_GRPC_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.CommandPrefix != "." {
		t.Errorf("Bot.CommandPrefix = %s, want .", cfg.Bot.CommandPrefix)
	}
	if cfg.GRPC.Port != 9999 {
		t.Errorf("GRPC.Port = %d, want 9999", cfg.GRPC.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[bot]\npage_size = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !mberror.HasCode(err, mberror.CodeConfig) {
		t.Errorf("expected CodeConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"prefix whitespace", func(c *Config) { c.Bot.CommandPrefix = "! " }, "bot.command_prefix"},
		{"websocket path", func(c *Config) { c.Websocket.Path = "ws" }, "websocket.path"},
		{"port range", func(c *Config) { c.GRPC.Port = 70000 }, "grpc.port"},
		{"port collision", func(c *Config) {
			c.Websocket.Enabled, c.GRPC.Enabled = true, true
			c.GRPC.Port = c.Websocket.Port
		}, "grpc.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var mbErr *mberror.Error
			if !errors.As(err, &mbErr) {
				t.Fatalf("Validate() = %v, want *mberror.Error", err)
			}
			if field, _ := mbErr.Detail("field"); field != tt.field {
				t.Errorf("field = %v, want %s", field, tt.field)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manebot.toml")
	if err := os.WriteFile(path, []byte("[bot]\npage_size = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	err := Watch(ctx, path, func(cfg *Config, err error) {
		if err == nil {
			select {
			case reloaded <- cfg:
			default:
			}
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("[bot]\npage_size = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Bot.PageSize == 7 {
				return
			}
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
}
