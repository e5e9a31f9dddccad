// Package app wires the watcher, rune applier, and ingestion pipelines
// behind the surface the presentation shell binds to.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"runeforge/internal/config"
	"runeforge/internal/lcu"
	"runeforge/internal/source"
	"runeforge/internal/watcher"
)

// App owns the long-lived session against the local client and the
// ingestion machinery. One instance per process; its lifecycle is explicit
// via Run and context cancellation.
type App struct {
	cfg       *config.Config
	log       zerolog.Logger
	client    *lcu.Client
	watcher   *watcher.Watcher
	applier   *lcu.Applier
	pipeline  *source.Pipeline
	champions *source.ChampionRegistry

	mu    sync.RWMutex
	runes map[string]map[string][]source.RuneBuild // source -> alias -> runes
}

// New builds the component graph from config.
func New(cfg *config.Config, log zerolog.Logger) *App {
	var clientOpts []lcu.Option
	if cfg.LeagueDir != "" {
		paths := append([]string{filepath.Join(cfg.LeagueDir, "lockfile")}, lcu.DefaultLockfilePaths()...)
		clientOpts = append(clientOpts, lcu.WithLockfilePaths(paths...))
	}
	client := lcu.NewClient(log, clientOpts...)
	a := &App{
		cfg:       cfg,
		log:       log.With().Str("component", "app").Logger(),
		client:    client,
		watcher:   watcher.New(client, log),
		applier:   lcu.NewApplier(client, log),
		champions: source.NewChampionRegistry(),
		runes:     make(map[string]map[string][]source.RuneBuild),
	}

	fetcher := source.NewFetcher(cfg.Registry, log)
	a.pipeline = source.NewPipeline(fetcher, cfg.ChampionsDir(""), log)
	a.pipeline.RuneSink = a.storeRunes
	return a
}

// Run drives the watcher loop until ctx is cancelled. Champion data loads
// in the background; the watcher does not depend on it.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.champions.Load(ctx); err != nil {
			a.log.Warn().Err(err).Msg("champion data unavailable")
		}
	}()
	return a.watcher.Run(ctx)
}

// OnChampionSelected registers a shell callback for champion picks.
func (a *App) OnChampionSelected(fn func(championID int)) {
	a.watcher.OnChampionSelected(fn)
}

// OnMatchEnded registers a shell callback for end-of-match signals.
func (a *App) OnMatchEnded(fn func()) {
	a.watcher.OnMatchEnded(fn)
}

// ResetChampionCache clears the watcher's dedup memory, forcing the next
// pick to re-emit.
func (a *App) ResetChampionCache() {
	a.watcher.ResetDedup()
}

// ApplyRunePage forwards to the rune applier. lcu.ErrBusy means a prior
// apply is still settling; the result is surfaced verbatim either way.
func (a *App) ApplyRunePage(ctx context.Context, page lcu.RunePage) error {
	return a.applier.Apply(ctx, page)
}

// ChampionAlias resolves a champion id to the alias build sources use.
func (a *App) ChampionAlias(championID int) (string, bool) {
	return a.champions.Alias(championID)
}

// IngestSource runs the ingestion pipeline for one named source and streams
// progress back to the caller. With a live client session the reported
// region pins the Champions directory flavor; otherwise the configured
// install layout decides.
func (a *App) IngestSource(ctx context.Context, name string) <-chan source.Progress {
	if rl, err := a.client.RegionLocale(ctx); err == nil {
		a.pipeline.SetTarget(a.cfg.ChampionsDir(rl.Region))
	}
	return a.pipeline.Ingest(ctx, name)
}

// ChampionRunes returns the rune suggestions the named source shipped for a
// champion in its most recent ingestion run.
func (a *App) ChampionRunes(src, alias string) []source.RuneBuild {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runes[src][alias]
}

func (a *App) storeRunes(src string, runes map[string][]source.RuneBuild) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runes[src] = runes
}

// EmptyBuildsFolder clears both candidate Champions directories. Missing
// directories are fine; anything else aborts with the first error.
func (a *App) EmptyBuildsFolder() error {
	for _, dir := range a.cfg.ChampionsDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read builds dir: %w", err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("clear builds dir: %w", err)
			}
		}
		a.log.Info().Str("dir", dir).Int("entries", len(entries)).Msg("builds folder emptied")
	}
	return nil
}
