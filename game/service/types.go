package service

import (
	"time"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Changed       bool               `json:"changed"`
	GameState     *engine.GameState  `json:"game_state"`
	Message       string             `json:"message"`
	Events        []GameEvent        `json:"events,omitempty"`
	Move          *engine.MoveResult `json:"move,omitempty"`
	PossibleMoves []string           `json:"possible_moves"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	ChangedMoves   int               `json:"changed_moves"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // Machine-friendly code: won|lost
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that ended the game
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx         int          `json:"idx"`
	Dir         string       `json:"dir"`
	Changed     bool         `json:"changed"`
	ScoreGained int          `json:"score_gained,omitempty"`
	Merges      int          `json:"merges,omitempty"`
	Spawned     *engine.Tile `json:"spawned,omitempty"`
	ScoreAfter  int          `json:"score_after"`
	Status      string       `json:"status"`
}

// Event types reported in GameEvent.Type
const (
	EventReset    = "reset"
	EventMove     = "move"
	EventMerge    = "merge"
	EventSpawn    = "spawn"
	EventNoChange = "no_change"
	EventWon      = "won"
	EventLost     = "lost"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Tile      *engine.Tile `json:"tile,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a rule preset
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	Dimension    int    `json:"dimension"`
	WinningValue int    `json:"winning_value"`
}

// ShareInfo is the score card handed to the share collaborator once a game ends
type ShareInfo struct {
	SessionID string        `json:"session_id"`
	Score     int           `json:"score"`
	Status    engine.Status `json:"status"`
	MaxTile   int           `json:"max_tile"`
	URL       string        `json:"url"`
	Text      string        `json:"text"`
}

// Stats summarizes service activity since start
type Stats struct {
	Sessions    int           `json:"sessions"`
	MovesServed int64         `json:"moves_served"`
	GamesWon    int64         `json:"games_won"`
	GamesLost   int64         `json:"games_lost"`
	Uptime      time.Duration `json:"uptime_ns"`
}
