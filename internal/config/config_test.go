package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad_Defaults tests that loading with no file and no env yields the
// documented defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}
	if cfg.Registry != DefaultRegistry {
		t.Errorf("Expected default registry, got: %s", cfg.Registry)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
}

// TestLoad_File tests yaml file loading
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runeforge.yaml")
	content := `
league_dir: /opt/league
registry: https://registry.example.com
sources:
  - op
  - u.gg
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}
	if cfg.LeagueDir != "/opt/league" {
		t.Errorf("Expected league_dir from file, got: %s", cfg.LeagueDir)
	}
	if cfg.Registry != "https://registry.example.com" {
		t.Errorf("Expected registry from file, got: %s", cfg.Registry)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "op" {
		t.Errorf("Expected sources from file, got: %v", cfg.Sources)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level from file, got: %s", cfg.Log.Level)
	}
}

// TestLoad_EnvOverride tests that RUNEFORGE_ env vars win over the file
func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runeforge.yaml")
	if err := os.WriteFile(path, []byte("league_dir: /opt/league\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("RUNEFORGE_LEAGUE_DIR", "/mnt/games/league")
	t.Setenv("RUNEFORGE_LOG__LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}
	if cfg.LeagueDir != "/mnt/games/league" {
		t.Errorf("Expected env override for league_dir, got: %s", cfg.LeagueDir)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env override for log level, got: %s", cfg.Log.Level)
	}
}

// TestLoad_MissingFileIsFine tests that an absent config file is not fatal
func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("Expected missing file to be skipped, got: %v", err)
	}
}

// TestChampionsDirs tests both candidate directory flavors
func TestChampionsDirs(t *testing.T) {
	cfg := &Config{LeagueDir: "/opt/league"}
	dirs := cfg.ChampionsDirs()
	if len(dirs) != 2 {
		t.Fatalf("Expected 2 candidate dirs, got %d", len(dirs))
	}
	want := []string{
		filepath.Join("/opt/league", "Game", "Config", "Champions"),
		filepath.Join("/opt/league", "Config", "Champions"),
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("Dir %d: expected %s, got %s", i, want[i], dirs[i])
		}
	}
}

// TestChampionsDir_PicksExistingFlavor tests install-flavor detection
func TestChampionsDir_PicksExistingFlavor(t *testing.T) {
	league := t.TempDir()
	if err := os.MkdirAll(filepath.Join(league, "Config"), 0o755); err != nil {
		t.Fatalf("Failed to create Config dir: %v", err)
	}

	cfg := &Config{LeagueDir: league}
	if got := cfg.ChampionsDir(""); got != filepath.Join(league, "Config", "Champions") {
		t.Errorf("Expected the existing Config flavor, got: %s", got)
	}
}

// TestChampionsDir_RegionPinsFlavor tests that the client's reported region
// overrides existence probing when picking the directory flavor.
func TestChampionsDir_RegionPinsFlavor(t *testing.T) {
	league := t.TempDir()
	// The Riot-flavor parent exists, but the region must still decide.
	if err := os.MkdirAll(filepath.Join(league, "Config"), 0o755); err != nil {
		t.Fatalf("Failed to create Config dir: %v", err)
	}

	cfg := &Config{LeagueDir: league}
	if got := cfg.ChampionsDir("TENCENT"); got != filepath.Join(league, "Game", "Config", "Champions") {
		t.Errorf("Expected the Game/Config flavor for a Tencent region, got: %s", got)
	}
	if got := cfg.ChampionsDir("EUW"); got != filepath.Join(league, "Config", "Champions") {
		t.Errorf("Expected the Config flavor for a Riot region, got: %s", got)
	}
}
