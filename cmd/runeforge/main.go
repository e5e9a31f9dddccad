// Package main provides the runeforge CLI entrypoint.
//
// Usage:
//
//	runeforge watch              watch the league client and react to matches
//	runeforge import [source]..  ingest build sources into the item-set dir
//	runeforge clean              empty the item-set directories
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"runeforge/internal/app"
	"runeforge/internal/config"
	"runeforge/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "runeforge",
		Usage: "League build and rune companion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "runeforge.yaml",
				Usage:   "path to the config file",
			},
		},
		Commands: []*cli.Command{
			watchCommand(),
			importCommand(),
			cleanCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the application graph.
func setup(c *cli.Context) (*app.App, *config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return app.New(cfg, log), cfg, log, nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "run the client watcher until interrupted",
		Action: func(c *cli.Context) error {
			a, _, log, err := setup(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.OnChampionSelected(func(championID int) {
				alias, _ := a.ChampionAlias(championID)
				log.Info().Int("id", championID).Str("alias", alias).Msg("champion locked in")
			})
			a.OnMatchEnded(func() {
				log.Info().Msg("match ended")
			})

			err = a.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "ingest one or more build sources",
		ArgsUsage: "[source]...",
		Action: func(c *cli.Context) error {
			a, cfg, log, err := setup(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			// Named sources on the command line win over the configured list.
			sources := c.Args().Slice()
			if len(sources) == 0 {
				sources = cfg.Sources
			}
			if len(sources) == 0 {
				return cli.Exit("no sources named and none configured", 1)
			}

			failed := false
			for _, name := range sources {
				for pr := range a.IngestSource(c.Context, name) {
					ev := log.Info()
					if pr.Err != nil {
						ev = log.Warn().Err(pr.Err)
					}
					if pr.Champion != "" {
						ev = ev.Str("champion", pr.Champion)
					}
					if pr.Position != "" {
						ev = ev.Str("position", pr.Position)
					}
					ev.Str("source", pr.Source).Msg(pr.Message)

					if pr.Done && (pr.Aborted || !pr.OK) {
						failed = true
					}
				}
			}
			if failed {
				return cli.Exit("one or more sources failed to import", 1)
			}
			return nil
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "empty the item-set directories",
		Action: func(c *cli.Context) error {
			a, _, _, err := setup(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := a.EmptyBuildsFolder(); err != nil {
				return cli.Exit(fmt.Sprintf("clean failed: %v", err), 1)
			}
			return nil
		},
	}
}
