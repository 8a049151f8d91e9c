package engine

import "github.com/pkg/errors"

// ValidateGameConfig validates a rule preset. Every failure wraps ErrInvalidArgument.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return errors.Wrap(ErrInvalidArgument, "config validation: config is nil")
	}

	if config.Name == "" {
		return errors.Wrap(ErrInvalidArgument, "config validation: name is required")
	}

	if config.Dimension < MinDimension || config.Dimension > MaxDimension {
		return errors.Wrapf(ErrInvalidArgument, "config validation: dimension must be between %d and %d, got %d",
			MinDimension, MaxDimension, config.Dimension)
	}

	if config.WinningValue < MinWinningValue || !isPowerOfTwo(config.WinningValue) {
		return errors.Wrapf(ErrInvalidArgument, "config validation: winning_value must be a power of two >= %d, got %d",
			MinWinningValue, config.WinningValue)
	}

	return nil
}

// DefaultConfig returns the classic 4x4 board played to 2048
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:         "2048",
		Description:  "Classic 4x4 board, reach the 2048 tile",
		Dimension:    DefaultDimension,
		WinningValue: DefaultWinningValue,
	}
	return withDefaultMessages(config)
}

// withDefaultMessages fills any message the preset left blank
func withDefaultMessages(config *GameConfig) *GameConfig {
	if config.Messages.Welcome == "" {
		config.Messages.Welcome = "Join the tiles, get to the winning tile!"
	}
	if config.Messages.Won == "" {
		config.Messages.Won = "You win!"
	}
	if config.Messages.Lost == "" {
		config.Messages.Lost = "Game over! No moves left."
	}
	if config.Messages.NoChange == "" {
		config.Messages.NoChange = "Nothing moved."
	}
	return config
}

// InitGameStateFromConfig creates an empty board for config and spawns the opening tiles
func InitGameStateFromConfig(config *GameConfig, rng RandSource) *GameState {
	grid := NewGrid(config.Dimension)
	for i := 0; i < InitialTiles; i++ {
		spawnTile(grid, rng)
	}

	return &GameState{
		Grid:         grid,
		Score:        0,
		Status:       InProgress,
		Dimension:    config.Dimension,
		WinningValue: config.WinningValue,
		MaxTile:      grid.MaxTile(),
		Message:      config.Messages.Welcome,
		ConfigName:   config.Name,
		MoveHistory:  []MoveHistoryEntry{},
		TotalMoves:   0,
	}
}
