package engine

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	IsVictory() bool
	GetStatus() Status
	GetScore() int

	// Movement operations
	Move(direction Direction) (*MoveResult, error)
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize moves.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    RandSource
}

// Option customizes a GameEngine at construction
type Option func(*GameEngine)

// WithRandSource injects the random source used for spawning
func WithRandSource(rng RandSource) Option {
	return func(e *GameEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// NewEngine validates config and starts a fresh game with two spawned tiles
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{config: copyConfig(config)}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.rng == nil {
		engine.rng = NewRandSource()
	}
	engine.state = InitGameStateFromConfig(engine.config, engine.rng)

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	engine, err := NewEngine(DefaultConfig(), opts...)
	if err != nil {
		panic(err) // the default config is valid by construction
	}
	return engine
}

// GetState returns a deep copy of the current game state
func (e *GameEngine) GetState() *GameState {
	state := *e.state
	state.Grid = e.state.Grid.Clone()
	state.MoveHistory = append([]MoveHistoryEntry{}, e.state.MoveHistory...)
	return &state
}

// SetState replaces the game state after validating its grid against the configured dimension
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return errors.Wrap(ErrInvalidArgument, "state cannot be nil")
	}
	if err := ValidateGrid(state.Grid, e.config.Dimension); err != nil {
		return err
	}
	if state.Score < 0 {
		return errors.Wrapf(ErrInvalidArgument, "score cannot be negative, got %d", state.Score)
	}

	next := *state
	next.Grid = state.Grid.Clone()
	next.MoveHistory = append([]MoveHistoryEntry{}, state.MoveHistory...)
	next.Dimension = e.config.Dimension
	next.WinningValue = e.config.WinningValue
	next.ConfigName = e.config.Name
	next.MaxTile = next.Grid.MaxTile()
	switch next.Status {
	case InProgress, Won, Lost:
	case "":
		next.Status = InProgress
	default:
		return errors.Wrapf(ErrInvalidArgument, "unknown status %q", state.Status)
	}

	e.state = &next
	return nil
}

// Reset discards the current game and starts over from the configuration
func (e *GameEngine) Reset() *GameState {
	e.state = InitGameStateFromConfig(e.config, e.rng)
	return e.GetState()
}

// IsGameOver returns whether the game reached a terminal status
func (e *GameEngine) IsGameOver() bool {
	return e.state.Status.Terminal()
}

// IsVictory returns whether the winning tile was reached
func (e *GameEngine) IsVictory() bool {
	return e.state.Status == Won
}

// GetStatus returns the current status
func (e *GameEngine) GetStatus() Status {
	return e.state.Status
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// Move slides every line toward direction. Moves on a finished game and moves
// that change nothing leave grid, score and status untouched and spawn nothing.
func (e *GameEngine) Move(direction Direction) (*MoveResult, error) {
	if !direction.Valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown direction %q", direction)
	}

	if e.state.Status.Terminal() {
		return e.result(direction, slideResult{}, nil), nil
	}

	res := slide(e.state.Grid, direction)
	var spawned *Tile
	if res.changed {
		spawned = spawnTile(res.grid, e.rng)
		e.state.Grid = res.grid
		e.state.Score += res.gained
		e.state.MaxTile = res.grid.MaxTile()
		e.state.Status = DetectStatus(res.grid, e.state.WinningValue)
		e.state.Message = e.statusMessage()
	} else {
		e.state.Message = e.config.Messages.NoChange
	}

	result := e.result(direction, res, spawned)
	e.state.AddMoveToHistory(result)
	return result, nil
}

// CanMove reports whether moving in direction would change the board
func (e *GameEngine) CanMove(direction Direction) bool {
	if e.state.Status.Terminal() || !direction.Valid() {
		return false
	}
	return slide(e.state.Grid, direction).changed
}

// GetPossibleMoves returns all directions that would change the board
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetConfig returns a copy of the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return copyConfig(e.config)
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = copyConfig(config)
	e.state = InitGameStateFromConfig(e.config, e.rng)
	return nil
}

// GetMoveHistory returns the move log of the current game
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry{}, e.state.MoveHistory...)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := e.state.MoveHistory[len(e.state.MoveHistory)-1]
	return &last
}

// BulkMove executes moves in sequence until the game ends. Unchanged moves do
// not stop the sequence. An invalid direction aborts before anything is applied.
func (e *GameEngine) BulkMove(moves []Direction) ([]*MoveResult, error) {
	for _, dir := range moves {
		if !dir.Valid() {
			return nil, errors.Wrapf(ErrInvalidArgument, "unknown direction %q", dir)
		}
	}

	results := make([]*MoveResult, 0, len(moves))
	for _, dir := range moves {
		if e.IsGameOver() {
			break
		}
		result, err := e.Move(dir)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// AddMoveToHistory appends a move to the game log
func (gs *GameState) AddMoveToHistory(result *MoveResult) {
	gs.MoveHistory = append(gs.MoveHistory, MoveHistoryEntry{
		Action:      result.Direction,
		Changed:     result.Changed,
		ScoreGained: result.ScoreGained,
		Spawned:     result.Spawned,
		Score:       result.Score,
		Status:      result.Status,
		Timestamp:   time.Now().Unix(),
		MoveNumber:  gs.TotalMoves + 1,
	})
	gs.TotalMoves++
}

func (e *GameEngine) result(direction Direction, res slideResult, spawned *Tile) *MoveResult {
	return &MoveResult{
		Direction:   direction,
		Changed:     res.changed,
		ScoreGained: res.gained,
		Merges:      res.merges,
		Spawned:     spawned,
		Score:       e.state.Score,
		Status:      e.state.Status,
		Grid:        e.state.Grid.Clone(),
		Message:     e.state.Message,
	}
}

func (e *GameEngine) statusMessage() string {
	switch e.state.Status {
	case Won:
		return e.config.Messages.Won
	case Lost:
		return e.config.Messages.Lost
	}
	return fmt.Sprintf("Score: %d", e.state.Score)
}

func copyConfig(config *GameConfig) *GameConfig {
	c := *config
	return withDefaultMessages(&c)
}
