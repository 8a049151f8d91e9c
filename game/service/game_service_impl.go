package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// DefaultGameName is the title used in share texts
const DefaultGameName = "2048"

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	logger    *zap.Logger
	publicURL string
	gameName  string
	started   time.Time

	movesServed atomic.Int64
	gamesWon    atomic.Int64
	gamesLost   atomic.Int64

	mu sync.RWMutex
}

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublicURL sets the base URL used to build share links
func WithPublicURL(url string) Option {
	return func(s *gameServiceImpl) {
		s.publicURL = strings.TrimRight(url, "/")
	}
}

// WithGameName sets the title used in share texts
func WithGameName(name string) Option {
	return func(s *gameServiceImpl) {
		if name != "" {
			s.gameName = name
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		logger:    zap.NewNop(),
		publicURL: "http://localhost:8080",
		gameName:  DefaultGameName,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt.Load(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Engine.GetConfig(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// List the available presets to help the caller
			if availableConfigs, listErr := s.configs.ListConfigs(); listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, errors.WithMessagef(err, "config '%s' unavailable, available configs: %v", configName, configIDs)
			}
			return nil, errors.WithMessagef(err, "failed to load config %s", configName)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create session")
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("config", configID),
		zap.Int("dimension", config.Dimension))

	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// Move executes a single move for a session. The direction is validated
// before anything, including the optional reset, is applied.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, newEvent(EventReset, "Game reset to initial state", nil))
	}

	prevStatus := sess.Engine.GetStatus()
	res, err := sess.Engine.Move(dir)
	if err != nil {
		return nil, err
	}
	s.recordMove(sess, res, prevStatus)

	state := sess.Engine.GetState()
	events = append(events, moveEvents(res, prevStatus, state.Message)...)

	return &MoveResult{
		Changed:       res.Changed,
		GameState:     state,
		Message:       state.Message,
		Events:        events,
		Move:          res,
		PossibleMoves: possibleMoves(sess.Engine),
	}, nil
}

// BulkMove executes up to engine.MaxBulkMoves moves in sequence. Every
// direction is validated first; execution stops as soon as the game ends.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "no moves given")
	}

	requested := len(moves)
	truncated := false
	if len(moves) > engine.MaxBulkMoves {
		moves = moves[:engine.MaxBulkMoves]
		truncated = true
	}

	dirs := make([]engine.Direction, 0, len(moves))
	for i, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, errors.WithMessagef(err, "move %d", i+1)
		}
		dirs = append(dirs, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: requested,
		Events:         []GameEvent{},
		Truncated:      truncated,
	}
	if truncated {
		result.Limit = engine.MaxBulkMoves
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, newEvent(EventReset, "Game reset to initial state", nil))
	}
	result.StartScore = sess.Engine.GetScore()

	prevStatus := sess.Engine.GetStatus()
	if prevStatus.Terminal() {
		result.StoppedReason = fmt.Sprintf("game already %s", prevStatus)
		result.StopReasonCode = string(prevStatus)
	}

	results, err := sess.Engine.BulkMove(dirs)
	for i, res := range results {
		s.recordMove(sess, res, prevStatus)

		result.Events = append(result.Events, moveEvents(res, prevStatus, res.Message)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:         i + 1,
			Dir:         string(res.Direction),
			Changed:     res.Changed,
			ScoreGained: res.ScoreGained,
			Merges:      res.Merges,
			Spawned:     res.Spawned,
			ScoreAfter:  res.Score,
			Status:      string(res.Status),
		})
		result.MovesExecuted++
		if res.Changed {
			result.ChangedMoves++
		}

		if res.Status.Terminal() && !prevStatus.Terminal() {
			result.StoppedReason = res.Message
			result.StopReasonCode = string(res.Status)
			result.StoppedOnMove = i + 1
		}
		prevStatus = res.Status
	}
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.EndScore = state.Score
	result.ScoreDelta = result.EndScore - result.StartScore
	result.GameOver = state.Status.Terminal()
	result.Message = state.Message
	result.PossibleMoves = possibleMoves(sess.Engine)

	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	state := sess.Engine.Reset()
	s.logger.Debug("game reset", zap.String("session_id", sess.ID))
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	switch opts.Order {
	case "asc", "desc":
	case "":
		opts.Order = "desc"
	default:
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "order must be asc or desc, got %q", opts.Order)
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	moves := []engine.MoveHistoryEntry{}
	// Pages past the end are empty; checking first keeps the offset from overflowing
	if opts.Page <= totalPages {
		start := (opts.Page - 1) * opts.Limit
		end := start + opts.Limit
		if end > total {
			end = total
		}

		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available rule presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific rule preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rule preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", zap.String("config", configName))
	return nil
}

// Share builds the score card for a finished game
func (s *gameServiceImpl) Share(ctx context.Context, sessionID string) (*ShareInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	if !state.Status.Terminal() {
		return nil, errors.Wrapf(ErrGameNotFinished, "session %s is %s", sess.ID, state.Status)
	}

	url := fmt.Sprintf("%s/?session=%s", s.publicURL, sess.ID)
	return &ShareInfo{
		SessionID: sess.ID,
		Score:     state.Score,
		Status:    state.Status,
		MaxTile:   state.MaxTile,
		URL:       url,
		Text:      fmt.Sprintf("I scored %d in %s! %s", state.Score, s.gameName, url),
	}, nil
}

// Stats summarizes service activity
func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{
		Sessions:    s.sessions.Count(),
		MovesServed: s.movesServed.Load(),
		GamesWon:    s.gamesWon.Load(),
		GamesLost:   s.gamesLost.Load(),
		Uptime:      time.Since(s.started),
	}, nil
}

// recordMove updates counters and logs the end of a game
func (s *gameServiceImpl) recordMove(sess *Session, res *engine.MoveResult, prevStatus engine.Status) {
	s.movesServed.Inc()

	if prevStatus.Terminal() || !res.Status.Terminal() {
		return
	}
	switch res.Status {
	case engine.Won:
		s.gamesWon.Inc()
	case engine.Lost:
		s.gamesLost.Inc()
	}
	s.logger.Info("game finished",
		zap.String("session_id", sess.ID),
		zap.String("status", string(res.Status)),
		zap.Int("score", res.Score))
}

// moveEvents generates events from a move
func moveEvents(res *engine.MoveResult, prevStatus engine.Status, message string) []GameEvent {
	if !res.Changed {
		if prevStatus.Terminal() {
			message = fmt.Sprintf("Game is over (%s), move ignored", prevStatus)
		}
		return []GameEvent{newEvent(EventNoChange, message, nil)}
	}

	events := []GameEvent{newEvent(EventMove, fmt.Sprintf("Moved %s", res.Direction), nil)}
	if res.Merges > 0 {
		events = append(events, newEvent(EventMerge,
			fmt.Sprintf("%d merge(s), +%d points", res.Merges, res.ScoreGained), nil))
	}
	if res.Spawned != nil {
		events = append(events, newEvent(EventSpawn,
			fmt.Sprintf("New %d tile at row %d, col %d", res.Spawned.Value, res.Spawned.Row, res.Spawned.Col), res.Spawned))
	}
	switch res.Status {
	case engine.Won:
		events = append(events, newEvent(EventWon, message, nil))
	case engine.Lost:
		events = append(events, newEvent(EventLost, message, nil))
	}
	return events
}

func newEvent(eventType, message string, tile *engine.Tile) GameEvent {
	return GameEvent{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Tile:      tile,
	}
}

func possibleMoves(eng engine.Engine) []string {
	moves := []string{}
	for _, dir := range eng.GetPossibleMoves() {
		moves = append(moves, string(dir))
	}
	return moves
}
