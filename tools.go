package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/merge2048/game/autoplay"
	"github.com/wricardo/mcp-training/merge2048/game/config"
)

// runValidate checks every preset in a directory, printing a concise report
// and failing if any are invalid.
func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = cmd.String("config-dir")
	}

	results, err := config.ValidateDir(dir)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	invalid := 0
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintf(w, "✅ VALID (%s)\n", result.Name)
			for _, note := range result.Notes {
				fmt.Fprintln(w, "  "+note)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			invalid++
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if len(results) == 0 {
		fmt.Fprintf(w, "No presets found in %s\n", dir)
		return nil
	}
	if invalid > 0 {
		fmt.Fprintln(w, "❌ Some configurations have errors")
		return errors.Errorf("%d of %d presets are invalid", invalid, len(results))
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Let a built-in strategy play many games and summarize the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Value: config.DefaultConfigName,
				Usage: "Rule preset to play",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "corner",
				Usage: "Strategy: " + strings.Join(autoplay.Strategies(), ", "),
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 100,
				Usage: "Number of games",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent games (default: number of CPUs)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "Seed of the first game; game i uses seed+i",
			},
			&cli.IntFlag{
				Name:  "max-moves",
				Usage: "Stop each game after this many moves (0 = play to the end)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "Output format: text, json or yaml",
			},
		},
		Action: runSimulate,
	}
}

func runSimulate(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "text", "json", "yaml":
	default:
		return errors.Errorf("unknown format %q, use text, json or yaml", format)
	}

	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync()

	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return errors.WithMessage(err, "failed to create config manager")
	}
	preset, err := configs.LoadConfig(cmd.String("preset"))
	if err != nil {
		return err
	}

	logger.Debug("simulation starting",
		zap.String("preset", preset.Name),
		zap.String("strategy", cmd.String("strategy")),
		zap.Int("games", int(cmd.Int("games"))))

	report, err := autoplay.Simulate(ctx, autoplay.Options{
		Config:   preset,
		Strategy: cmd.String("strategy"),
		Games:    int(cmd.Int("games")),
		Workers:  int(cmd.Int("workers")),
		MaxMoves: int(cmd.Int("max-moves")),
		Seed:     uint64(cmd.Int("seed")),
		Logger:   logger.Named("autoplay"),
	})
	if err != nil {
		return err
	}

	return writeReport(cmd.Root().Writer, report, format)
}

// writeReport prints a simulation report in the requested format
func writeReport(w io.Writer, report *autoplay.Report, format string) error {
	switch format {
	case "json":
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Preset:     %s\n", report.Config)
	fmt.Fprintf(w, "Strategy:   %s\n", report.Strategy)
	fmt.Fprintf(w, "Games:      %d (won %d, lost %d, unfinished %d)\n",
		report.Games, report.Won, report.Lost, report.Unfinished)
	fmt.Fprintf(w, "Win rate:   %.1f%%\n", report.WinRate*100)
	fmt.Fprintf(w, "Best score: %d\n", report.BestScore)
	fmt.Fprintf(w, "Mean score: %.1f\n", report.MeanScore)
	fmt.Fprintf(w, "Best tile:  %d\n", report.BestTile)
	fmt.Fprintf(w, "Moves:      %d\n", report.TotalMoves)
	fmt.Fprintf(w, "Duration:   %s\n", report.Duration)
	fmt.Fprintln(w, "\nBest tile reached:")
	for _, tc := range report.Tiles {
		fmt.Fprintf(w, "  %6d  %d\n", tc.Tile, tc.Games)
	}
	return nil
}
