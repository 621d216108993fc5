package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rwyengine/relmap/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DBPath != "story.db" {
		t.Errorf("DBPath = %q, want story.db", cfg.DBPath)
	}
	if cfg.Mode != "tree" {
		t.Errorf("Mode = %q, want tree", cfg.Mode)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Layout.MaxIterations == 0 {
		t.Error("layout defaults not populated")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relmap.toml")
	content := `
db_path = "campaign.db"
mode = "force"

[layout]
max_iterations = 500

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "campaign.db" {
		t.Errorf("DBPath = %q, want campaign.db", cfg.DBPath)
	}
	if cfg.Mode != "force" {
		t.Errorf("Mode = %q, want force", cfg.Mode)
	}
	if cfg.Layout.MaxIterations != 500 {
		t.Errorf("Layout.MaxIterations = %d, want 500", cfg.Layout.MaxIterations)
	}
	// Fields missing from the file keep their defaults.
	if cfg.Layout.LevelSpacing != Default().Layout.LevelSpacing {
		t.Errorf("LevelSpacing = %v, want default %v", cfg.Layout.LevelSpacing, Default().Layout.LevelSpacing)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("cache config = %+v, want redis backend", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("db_path = [not valid"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(invalid) error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoad_EmptyPathFallsBackToDefaults(t *testing.T) {
	// Run from a directory with no relmap.toml so locate() finds nothing in
	// the working directory.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.DBPath != Default().DBPath {
		t.Errorf("DBPath = %q, want default %q", cfg.DBPath, Default().DBPath)
	}
}
