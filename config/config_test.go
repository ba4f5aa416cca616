package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cache.yaml", `
duration: 90s
duration_until_cold: 1m
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{Duration: 90 * time.Second, DurationUntilCold: time.Minute, LogLevel: hclog.Debug}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cache.toml", `
duration = "2m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{Duration: 2 * time.Minute, LogLevel: hclog.Info}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"empty.yml", "empty.toml"} {
		cfg, err := Load(writeConfig(t, name, ""))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.Duration != 0 || cfg.DurationUntilCold != 0 || cfg.LogLevel != hclog.Info {
			t.Fatalf("%s: unexpected config %+v", name, cfg)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		contents string
		wantIs   error
		wantText string
	}{
		{name: "unsupported", file: "cache.json", contents: "{}", wantIs: ErrUnsupportedFormat},
		{name: "cold exceeds duration", file: "c.yaml", contents: "duration: 1s\nduration_until_cold: 2s", wantIs: cache.ErrInvalidOptions},
		{name: "negative", file: "c.toml", contents: `duration = "-5s"`, wantIs: cache.ErrInvalidOptions},
		{name: "bad duration", file: "c.yaml", contents: "duration: soon", wantText: "duration:"},
		{name: "unknown yaml key", file: "c.yaml", contents: "ttl: 1s", wantText: "ttl"},
		{name: "unknown toml key", file: "c.toml", contents: `ttl = "1s"`},
		{name: "bad level", file: "c.yaml", contents: "log_level: loud", wantText: "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, tt.file, tt.contents)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("want errors.Is %v, got %v", tt.wantIs, err)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Fatalf("want error mentioning %q, got %v", tt.wantText, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := Config{Duration: time.Minute, LogLevel: hclog.Warn}
	logger := cfg.Logger("test")
	if !logger.IsWarn() || logger.IsInfo() {
		t.Fatal("logger must be at warn level")
	}
	opt := Options[string](cfg, logger)
	if opt.Duration != time.Minute || opt.Logger != logger {
		t.Fatalf("unexpected options %+v", opt)
	}
	if err := opt.Validate(); err != nil {
		t.Fatalf("options must validate: %v", err)
	}
}
