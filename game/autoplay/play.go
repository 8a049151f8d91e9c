package autoplay

import (
	"context"

	"github.com/pkg/errors"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// Reasons a game stopped
const (
	StopFinished  = "finished"   // won or lost
	StopMoveLimit = "move_limit" // maxMoves reached
	StopGaveUp    = "gave_up"    // strategy had nothing to play
	StopStuck     = "stuck"      // strategy picked a move that changed nothing
)

// GameResult describes one played game
type GameResult struct {
	Strategy   string        `json:"strategy" yaml:"strategy"`
	Status     engine.Status `json:"status" yaml:"status"`
	Score      int           `json:"score" yaml:"score"`
	MaxTile    int           `json:"max_tile" yaml:"max_tile"`
	Moves      int           `json:"moves" yaml:"moves"`
	StopReason string        `json:"stop_reason" yaml:"stop_reason"`
}

// Play lets strategy drive eng until the game ends, the strategy stops,
// or maxMoves moves were made. maxMoves <= 0 means no limit.
func Play(ctx context.Context, eng engine.Engine, strategy Strategy, maxMoves int) (*GameResult, error) {
	result := &GameResult{Strategy: strategy.Name()}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if eng.IsGameOver() {
			result.StopReason = StopFinished
			break
		}
		if maxMoves > 0 && result.Moves >= maxMoves {
			result.StopReason = StopMoveLimit
			break
		}

		dir, ok := strategy.Next(eng.GetState(), eng)
		if !ok {
			result.StopReason = StopGaveUp
			break
		}

		res, err := eng.Move(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "%s strategy move %d", strategy.Name(), result.Moves+1)
		}
		if !res.Changed {
			result.StopReason = StopStuck
			break
		}
		result.Moves++
	}

	state := eng.GetState()
	result.Status = state.Status
	result.Score = state.Score
	result.MaxTile = state.MaxTile
	return result, nil
}
