package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Timeout != 15*time.Second {
		t.Errorf("timeout = %s", cfg.Timeout)
	}
	if cfg.MaxPages != 10 {
		t.Errorf("maxPages = %d", cfg.MaxPages)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("concurrency = %d", cfg.Concurrency)
	}
	if cfg.RegressionThreshold != 5.0 {
		t.Errorf("threshold = %v", cfg.RegressionThreshold)
	}
	if cfg.Format != "text" {
		t.Errorf("format = %q", cfg.Format)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("backend = %q", cfg.History.Backend)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "timeout: 30s\nmax_pages: 25\nformat: json\nbots:\n  - GPTBot\n  - ClaudeBot\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.Timeout)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("maxPages = %d", cfg.MaxPages)
	}
	if len(cfg.Bots) != 2 {
		t.Errorf("bots = %v", cfg.Bots)
	}
	// Untouched keys keep their defaults.
	if cfg.Concurrency != 3 {
		t.Errorf("concurrency = %d, want default", cfg.Concurrency)
	}
}

func TestLoadBareIntegerTimeoutIsSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("timeout: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %s, want 30s", cfg.Timeout)
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"30", 30 * time.Second, false},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeout(%q) err = %v, wantErr = %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeout(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("explicitly named missing file must fail")
	}
}

func TestLoadProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RCFileName), []byte("max_pages: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPages != 4 {
		t.Errorf("maxPages = %d, want project rc value", cfg.MaxPages)
	}
}

func TestLoadMalformedProjectFileDegrades(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RCFileName), []byte("{{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("malformed rc file must degrade, got %v", err)
	}
	if cfg.MaxPages != 10 {
		t.Errorf("maxPages = %d, want default", cfg.MaxPages)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero pages", func(c *Config) { c.MaxPages = 0 }, true},
		{"negative threshold", func(c *Config) { c.RegressionThreshold = -1 }, true},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"json format", func(c *Config) { c.Format = "json" }, false},
		{"bad backend", func(c *Config) { c.History.Backend = "redis" }, true},
		{"mongo without uri", func(c *Config) { c.History.Backend = "mongo" }, true},
		{
			"mongo with uri",
			func(c *Config) {
				c.History.Backend = "mongo"
				c.History.URI = "mongodb://localhost:27017"
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
