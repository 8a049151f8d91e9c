package autoplay

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// strategySeedSalt keeps a random strategy's draws independent of the board's spawns
const strategySeedSalt = 0x9e3779b97f4a7c15

// Options configures a simulation run
type Options struct {
	Config   *engine.GameConfig
	Strategy string
	Games    int
	Workers  int
	MaxMoves int
	// Seed of the first game; game i uses Seed+i so runs are reproducible
	Seed   uint64
	Logger *zap.Logger
	// Progress, when set, is called after each finished game
	Progress func(done, total int)
}

// TileCount is one histogram bucket: how many games ended with Tile as their best tile
type TileCount struct {
	Tile  int `json:"tile" yaml:"tile"`
	Games int `json:"games" yaml:"games"`
}

// Report aggregates a simulation run
type Report struct {
	Config     string        `json:"config" yaml:"config"`
	Strategy   string        `json:"strategy" yaml:"strategy"`
	Games      int           `json:"games" yaml:"games"`
	Won        int           `json:"won" yaml:"won"`
	Lost       int           `json:"lost" yaml:"lost"`
	Unfinished int           `json:"unfinished" yaml:"unfinished"`
	WinRate    float64       `json:"win_rate" yaml:"win_rate"`
	BestScore  int           `json:"best_score" yaml:"best_score"`
	MeanScore  float64       `json:"mean_score" yaml:"mean_score"`
	BestTile   int           `json:"best_tile" yaml:"best_tile"`
	TotalMoves int           `json:"total_moves" yaml:"total_moves"`
	Tiles      []TileCount   `json:"tiles" yaml:"tiles"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	Results    []*GameResult `json:"-" yaml:"-"`
}

// Simulate plays opts.Games independent games on a bounded worker pool.
// The first failing game cancels the rest.
func Simulate(ctx context.Context, opts Options) (*Report, error) {
	if opts.Games <= 0 {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "games must be positive, got %d", opts.Games)
	}
	if opts.Config == nil {
		opts.Config = engine.DefaultConfig()
	}
	if err := engine.ValidateGameConfig(opts.Config); err != nil {
		return nil, err
	}
	if opts.Strategy == "" {
		opts.Strategy = "corner"
	}
	if _, err := NewStrategy(opts.Strategy, nil); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	started := time.Now()
	results := make([]*GameResult, opts.Games)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := 0; i < opts.Games; i++ {
		i := i
		g.Go(func() error {
			seed := opts.Seed + uint64(i)
			eng, err := engine.NewEngine(opts.Config, engine.WithRandSource(engine.NewSeededRandSource(seed)))
			if err != nil {
				return err
			}
			strategy, err := NewStrategy(opts.Strategy, engine.NewSeededRandSource(seed^strategySeedSalt))
			if err != nil {
				return err
			}

			res, err := Play(gctx, eng, strategy, opts.MaxMoves)
			if err != nil {
				return errors.WithMessagef(err, "game %d (seed %d)", i, seed)
			}
			results[i] = res

			n := int(done.Inc())
			opts.Logger.Debug("game finished",
				zap.Int("game", i),
				zap.Uint64("seed", seed),
				zap.String("status", string(res.Status)),
				zap.Int("score", res.Score),
				zap.Int("max_tile", res.MaxTile),
				zap.Int("moves", res.Moves))
			if opts.Progress != nil {
				opts.Progress(n, opts.Games)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := summarize(opts.Config.Name, opts.Strategy, results)
	report.Duration = time.Since(started)
	return report, nil
}

func summarize(configName, strategy string, results []*GameResult) *Report {
	report := &Report{
		Config:   configName,
		Strategy: strategy,
		Games:    len(results),
		Results:  results,
	}

	histogram := make(map[int]int)
	totalScore := 0
	for _, res := range results {
		switch res.Status {
		case engine.Won:
			report.Won++
		case engine.Lost:
			report.Lost++
		default:
			report.Unfinished++
		}
		totalScore += res.Score
		report.TotalMoves += res.Moves
		if res.Score > report.BestScore {
			report.BestScore = res.Score
		}
		if res.MaxTile > report.BestTile {
			report.BestTile = res.MaxTile
		}
		histogram[res.MaxTile]++
	}

	if report.Games > 0 {
		report.MeanScore = float64(totalScore) / float64(report.Games)
		report.WinRate = float64(report.Won) / float64(report.Games)
	}

	for tile, games := range histogram {
		report.Tiles = append(report.Tiles, TileCount{Tile: tile, Games: games})
	}
	sort.Slice(report.Tiles, func(i, j int) bool { return report.Tiles[i].Tile > report.Tiles[j].Tile })
	return report
}
