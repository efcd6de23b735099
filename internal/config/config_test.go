package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.Width != 1024 {
		t.Errorf("expected width 1024, got %d", cfg.Render.Width)
	}
	if cfg.Render.Height != 768 {
		t.Errorf("expected height 768, got %d", cfg.Render.Height)
	}
	if cfg.Render.Visible {
		t.Error("expected visible to be false by default")
	}
	if cfg.Render.Backend != BackendOpenGL {
		t.Errorf("expected backend %q, got %q", BackendOpenGL, cfg.Render.Backend)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Metrics.Textfile != "" {
		t.Errorf("expected metrics disabled, got %s", cfg.Metrics.Textfile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"software backend", func(c *Config) { c.Render.Backend = BackendSoftware }, false},
		{"zero width", func(c *Config) { c.Render.Width = 0 }, true},
		{"negative height", func(c *Config) { c.Render.Height = -5 }, true},
		{"unknown backend", func(c *Config) { c.Render.Backend = "vulkan" }, true},
		{"unknown level", func(c *Config) { c.Logging.Level = "chatty" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
render:
  width: 256
  height: 256
  visible: true
  backend: software

logging:
  level: "debug"
  log_file: "stlthumb.log"

metrics:
  textfile: "/var/lib/node_exporter/stlthumb.prom"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Render.Width != 256 || cfg.Render.Height != 256 {
		t.Errorf("expected 256x256, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if !cfg.Render.Visible {
		t.Error("expected visible to be true")
	}
	if cfg.Render.Backend != BackendSoftware {
		t.Errorf("expected backend software, got %s", cfg.Render.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "stlthumb.log" {
		t.Errorf("expected log file 'stlthumb.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/stlthumb.prom" {
		t.Errorf("unexpected metrics textfile %s", cfg.Metrics.Textfile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  width: 300\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Render.Width != 300 {
		t.Errorf("expected width 300, got %d", cfg.Render.Width)
	}
	// Untouched keys keep their defaults
	if cfg.Render.Height != 768 || cfg.Render.Backend != BackendOpenGL {
		t.Errorf("defaults lost: %+v", cfg.Render)
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should keep defaults, got %v", err)
	}
	if cfg.Render.Width != 1024 {
		t.Errorf("expected default width, got %d", cfg.Render.Width)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "render:\n  width: not a number\n  invalid syntax here\n"},
		{"unknown key", "render:\n  widht: 300\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("stlthumb.yaml", []byte("render:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != "./stlthumb.yaml" {
		t.Errorf("expected ./stlthumb.yaml, got %q", path)
	}
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags %v: %v", args, err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		base   func(*Config)
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "size sets both dimensions",
			args: []string{"-s", "128"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Width != 128 || cfg.Render.Height != 128 {
					t.Errorf("expected 128x128, got %dx%d", cfg.Render.Width, cfg.Render.Height)
				}
			},
		},
		{
			name: "width wins over size",
			args: []string{"--size", "128", "-W", "200"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Width != 200 || cfg.Render.Height != 128 {
					t.Errorf("expected 200x128, got %dx%d", cfg.Render.Width, cfg.Render.Height)
				}
			},
		},
		{
			name: "explicit zero width is applied",
			args: []string{"--width", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Width != 0 {
					t.Errorf("expected width 0 to reach validation, got %d", cfg.Render.Width)
				}
			},
		},
		{
			name: "visible flag",
			args: []string{"-x"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Render.Visible {
					t.Error("expected visible to be true")
				}
			},
		},
		{
			name: "explicit visible false overrides file",
			args: []string{"--visible=false"},
			base: func(c *Config) { c.Render.Visible = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Visible {
					t.Error("expected visible to be false")
				}
			},
		},
		{
			name: "unset visible keeps file value",
			args: nil,
			base: func(c *Config) { c.Render.Visible = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Render.Visible {
					t.Error("expected visible to stay true")
				}
			},
		},
		{
			name: "backend and outputs",
			args: []string{"--backend", "software", "--log-file", "a.log", "--metrics-file", "m.prom"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Backend != BackendSoftware {
					t.Errorf("expected software backend, got %s", cfg.Render.Backend)
				}
				if cfg.Logging.LogFile != "a.log" {
					t.Errorf("expected log file a.log, got %s", cfg.Logging.LogFile)
				}
				if cfg.Metrics.Textfile != "m.prom" {
					t.Errorf("expected metrics file m.prom, got %s", cfg.Metrics.Textfile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.base != nil {
				tt.base(cfg)
			}
			parseFlags(t, tt.args...).apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
render:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	f := parseFlags(t, "--config", configPath, "--width", "1920")
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height from file
	if cfg.Render.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Render.Width)
	}
	if cfg.Render.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Render.Height)
	}
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := Load(parseFlags(t, "--backend", "directx"))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestLoadRejectsNonPositiveSizeFlags(t *testing.T) {
	tests := [][]string{
		{"--width", "-5"},
		{"--height", "0"},
		{"--size", "0"},
		{"-s", "-1"},
		{"--size", "64", "--width", "0"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Chdir(t.TempDir())

			_, err := Load(parseFlags(t, args...))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load(%v) error = %v, want ErrInvalid", args, err)
			}
		})
	}
}

func TestLoadWithoutFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) error: %v", err)
	}
	if cfg.Render.Width != 1024 {
		t.Errorf("expected default width, got %d", cfg.Render.Width)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Render.Width = 333
	cfg.Metrics.Textfile = "out.prom"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("reloaded config = %+v, want %+v", loaded, cfg)
	}
}
