// Package config loads runeforge settings from an optional yaml file with
// RUNEFORGE_ environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultRegistry is the package registry build sources are published to.
const DefaultRegistry = "https://registry.npmmirror.com"

// Config holds runtime settings for the daemon and CLI.
type Config struct {
	// LeagueDir is the root of the League of Legends installation.
	LeagueDir string `koanf:"league_dir"`
	// Registry is the base URL of the build-source package registry.
	Registry string `koanf:"registry"`
	// Sources are the build sources selected for ingestion.
	Sources []string `koanf:"sources"`
	Log     Log      `koanf:"log"`
}

// Log holds logger settings.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads the config file at path (skipped when empty or absent) and
// applies environment overrides. RUNEFORGE_LOG__LEVEL=debug maps to
// log.level, following the double-underscore nesting convention.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("RUNEFORGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RUNEFORGE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := &Config{
		Registry: DefaultRegistry,
		Log:      Log{Level: "info", Format: "console"},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// ChampionsDirs returns both candidate item-set directories under the
// League install; which one the client reads depends on the install flavor.
func (c *Config) ChampionsDirs() []string {
	return []string{
		filepath.Join(c.LeagueDir, "Game", "Config", "Champions"),
		filepath.Join(c.LeagueDir, "Config", "Champions"),
	}
}

// regionTencent is the region string the Tencent-operated client reports.
const regionTencent = "TENCENT"

// ChampionsDir picks the directory builds are written to. A known region
// pins the flavor: Tencent installs read Game/Config/Champions, Riot
// installs read Config/Champions. With no region, the flavor whose parent
// Config directory already exists wins, falling back to the Game/Config
// layout.
func (c *Config) ChampionsDir(region string) string {
	dirs := c.ChampionsDirs()
	if region == regionTencent {
		return dirs[0]
	}
	if region != "" {
		return dirs[1]
	}
	for _, dir := range dirs {
		if fi, err := os.Stat(filepath.Dir(dir)); err == nil && fi.IsDir() {
			return dir
		}
	}
	return dirs[0]
}
