package engine

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction is the only valid input to a move
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Valid reports whether d is one of the four move directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// ParseDirection converts user input into a Direction.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", errors.Wrapf(ErrInvalidArgument, "unknown direction %q", s)
	}
	return d, nil
}

// Status represents the lifecycle of one game
type Status string

const (
	InProgress Status = "in_progress"
	Won        Status = "won"
	Lost       Status = "lost"
)

// Terminal reports whether the status is absorbing
func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

const (
	// Empty marks a cell without a tile
	Empty = 0

	DefaultDimension    = 4
	DefaultWinningValue = 2048
	MinDimension        = 2
	MaxDimension        = 16
	MinWinningValue     = 4
	InitialTiles        = 2
	MaxBulkMoves        = 50

	// Spawned tiles are 2 unless the random draw lands in the top tenth
	SpawnTwoProbability = 0.9
)

// Position addresses a cell by row and column, both zero based
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is a placed value, used to report spawns
type Tile struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// GameConfig represents the rule preset loaded from JSON or YAML
type GameConfig struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Dimension    int    `json:"dimension" yaml:"dimension"`
	WinningValue int    `json:"winning_value" yaml:"winning_value"`
	Messages     struct {
		Welcome  string `json:"welcome" yaml:"welcome"`
		Won      string `json:"won" yaml:"won"`
		Lost     string `json:"lost" yaml:"lost"`
		NoChange string `json:"no_change" yaml:"no_change"`
	} `json:"messages" yaml:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	Grid         Grid               `json:"grid"`
	Score        int                `json:"score"`
	Status       Status             `json:"status"`
	Dimension    int                `json:"dimension"`
	WinningValue int                `json:"winning_value"`
	MaxTile      int                `json:"max_tile"`
	Message      string             `json:"message"`
	ConfigName   string             `json:"config_name"`
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`
}

// MoveResult is what a single call to Move reports back
type MoveResult struct {
	Direction   Direction `json:"direction"`
	Changed     bool      `json:"changed"`
	ScoreGained int       `json:"score_gained"`
	Merges      int       `json:"merges"`
	Spawned     *Tile     `json:"spawned,omitempty"`
	Score       int       `json:"score"`
	Status      Status    `json:"status"`
	Grid        Grid      `json:"grid"`
	Message     string    `json:"message,omitempty"`
}

// MoveHistoryEntry represents a single move in the game log
type MoveHistoryEntry struct {
	Action      Direction `json:"action"`
	Changed     bool      `json:"changed"`
	ScoreGained int       `json:"score_gained"`
	Spawned     *Tile     `json:"spawned,omitempty"`
	Score       int       `json:"score"`
	Status      Status    `json:"status"`
	Timestamp   int64     `json:"timestamp"`
	MoveNumber  int       `json:"move_number"`
}
