package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
	"github.com/wricardo/mcp-training/merge2048/game/service"
	"github.com/wricardo/mcp-training/merge2048/game/session"
)

var errConfigNotFound = errors.New("configuration not found")

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": {Name: "classic", Description: "4x4 to 2048", Dimension: 4, WinningValue: 2048},
			"mini":    {Name: "mini", Description: "3x3 to 64", Dimension: 3, WinningValue: 64},
		},
		saved: map[string]*engine.GameConfig{},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	if config, ok := m.configs[name]; ok {
		return config, nil
	}
	return nil, errConfigNotFound
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var infos []*service.ConfigInfo
	for _, id := range []string{"classic", "mini"} {
		c := m.configs[id]
		infos = append(infos, &service.ConfigInfo{
			Filename: id + ".json", ConfigID: id, Name: c.Name,
			Dimension: c.Dimension, WinningValue: c.WinningValue,
		})
	}
	return infos, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.saved[name] = config
	return nil
}

// zeroRand always picks the first empty cell and spawns a 2
type zeroRand struct{}

func (zeroRand) IntN(int) int      { return 0 }
func (zeroRand) Float64() float64 { return 0 }

type fixture struct {
	svc      service.GameService
	sessions *session.Manager
	configs  *MockConfigManager
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	sessions := session.NewManager(
		session.WithLogger(zaptest.NewLogger(t)),
		session.WithRandSourceFactory(func() engine.RandSource { return zeroRand{} }),
	)
	configs := NewMockConfigManager()
	opts = append([]service.Option{service.WithLogger(zaptest.NewLogger(t))}, opts...)

	return &fixture{
		svc:      service.NewGameService(sessions, configs, opts...),
		sessions: sessions,
		configs:  configs,
	}
}

// newGame creates a session and replaces its board with grid
func (f *fixture) newGame(t *testing.T, grid engine.Grid) string {
	t.Helper()

	configName := "classic"
	if len(grid) == 3 {
		configName = "mini"
	}
	info, err := f.svc.CreateSession(context.Background(), configName)
	require.NoError(t, err)

	sess, err := f.sessions.Get(info.ID)
	require.NoError(t, err)
	require.NoError(t, sess.Engine.SetState(&engine.GameState{Grid: grid}))
	return info.ID
}

func eventTypes(events []service.GameEvent) []string {
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestGameService_CreateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		info, err := f.svc.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "classic", info.ConfigName)
		assert.Equal(t, 2, info.GameState.Grid.TileCount())
		assert.Equal(t, engine.InProgress, info.GameState.Status)
		assert.NotEmpty(t, info.GameConfig.Messages.Won)
	})

	t.Run("named config", func(t *testing.T) {
		info, err := f.svc.CreateSession(ctx, "mini")
		require.NoError(t, err)
		assert.Equal(t, "mini", info.ConfigName)
		assert.Len(t, info.GameState.Grid, 3)
	})

	t.Run("unknown config lists the alternatives", func(t *testing.T) {
		_, err := f.svc.CreateSession(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errConfigNotFound))
		assert.Contains(t, err.Error(), "classic")
		assert.Contains(t, err.Error(), "mini")
	})
}

func TestGameService_GetAndDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.svc.CreateSession(ctx, "mini")
	require.NoError(t, err)

	got, err := f.svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
	assert.Equal(t, "mini", got.ConfigName)

	require.NoError(t, f.svc.DeleteSession(ctx, info.ID))

	_, err = f.svc.GetSession(ctx, info.ID)
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))

	err = f.svc.DeleteSession(ctx, info.ID)
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("merge and spawn", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 2, 4, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.Move(ctx, id, "LEFT", false)
		require.NoError(t, err)

		assert.True(t, result.Changed)
		assert.Equal(t, 4, result.GameState.Score)
		assert.Equal(t, []int{4, 4, 2, 0}, result.GameState.Grid[0])
		assert.Equal(t, []string{service.EventMove, service.EventMerge, service.EventSpawn}, eventTypes(result.Events))
		require.NotNil(t, result.Move)
		assert.Equal(t, engine.Left, result.Move.Direction)
		assert.Contains(t, result.PossibleMoves, "down")
	})

	t.Run("no change", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.Move(ctx, id, "up", false)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, []string{service.EventNoChange}, eventTypes(result.Events))
		assert.Equal(t, 1, result.GameState.Grid.TileCount())
	})

	t.Run("invalid direction", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.NewGrid(4))

		_, err := f.svc.Move(ctx, id, "sideways", true)
		assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

		history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{})
		require.NoError(t, err)
		assert.Zero(t, history.TotalMoves)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Move(ctx, "missing", "up", false)
		assert.True(t, errors.Is(err, session.ErrSessionNotFound))
	})

	t.Run("win reports the event", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{1024, 1024, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.Move(ctx, id, "left", false)
		require.NoError(t, err)
		assert.Equal(t, engine.Won, result.GameState.Status)
		assert.Contains(t, eventTypes(result.Events), service.EventWon)
		assert.Empty(t, result.PossibleMoves)

		again, err := f.svc.Move(ctx, id, "right", false)
		require.NoError(t, err)
		assert.False(t, again.Changed)
		assert.Equal(t, engine.Won, again.GameState.Status)
	})

	t.Run("reset before moving", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{1024, 1024, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.Move(ctx, id, "left", true)
		require.NoError(t, err)
		assert.Equal(t, service.EventReset, result.Events[0].Type)
		assert.NotEqual(t, engine.Won, result.GameState.Status)
		assert.Less(t, result.GameState.MaxTile, 1024)
	})
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("executes in order", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.BulkMove(ctx, id, []string{"left", "right", "left"}, false)
		require.NoError(t, err)
		assert.Equal(t, 3, result.RequestedMoves)
		assert.Equal(t, 3, result.MovesExecuted)
		assert.Equal(t, 2, result.ChangedMoves)
		require.Len(t, result.Steps, 3)
		assert.False(t, result.Steps[0].Changed)
		assert.True(t, result.Steps[1].Changed)
		assert.Equal(t, 3, result.Steps[2].Idx)
		assert.False(t, result.GameOver)
		assert.Equal(t, result.EndScore-result.StartScore, result.ScoreDelta)
	})

	t.Run("invalid direction aborts before any move", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 2, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		_, err := f.svc.BulkMove(ctx, id, []string{"left", "diagonal"}, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
		assert.Contains(t, err.Error(), "move 2")

		state, err := f.svc.GetGameState(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, state.Score)
		assert.Zero(t, state.TotalMoves)
	})

	t.Run("stops when the game is won", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{1024, 1024, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		result, err := f.svc.BulkMove(ctx, id, []string{"left", "right", "up"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MovesExecuted)
		assert.Equal(t, 1, result.StoppedOnMove)
		assert.Equal(t, "won", result.StopReasonCode)
		assert.Equal(t, result.GameState.Message, result.StoppedReason)
		assert.NotEmpty(t, result.StoppedReason)
		assert.True(t, result.GameOver)
		assert.Equal(t, 2048, result.ScoreDelta)
		assert.Equal(t, []string{"move", "merge", "spawn", "won"}, eventTypes(result.Events))

		stats, err := f.svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.GamesWon)
	})

	t.Run("already finished game", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 4, 2, 4},
			{4, 2, 4, 2},
			{2, 4, 2, 4},
			{4, 2, 4, 2},
		})
		sess, err := f.sessions.Get(id)
		require.NoError(t, err)
		state := sess.Engine.GetState()
		state.Status = engine.Lost
		require.NoError(t, sess.Engine.SetState(state))

		result, err := f.svc.BulkMove(ctx, id, []string{"up", "down"}, false)
		require.NoError(t, err)
		assert.Zero(t, result.MovesExecuted)
		assert.Equal(t, "lost", result.StopReasonCode)
		assert.True(t, result.GameOver)
	})

	t.Run("truncates long sequences", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.Grid{
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		})

		moves := make([]string, engine.MaxBulkMoves+10)
		for i := range moves {
			moves[i] = "left"
		}

		result, err := f.svc.BulkMove(ctx, id, moves, false)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.Equal(t, engine.MaxBulkMoves, result.Limit)
		assert.Equal(t, engine.MaxBulkMoves+10, result.RequestedMoves)
		assert.Equal(t, engine.MaxBulkMoves, result.MovesExecuted)
	})

	t.Run("empty sequence", func(t *testing.T) {
		f := newFixture(t)
		id := f.newGame(t, engine.NewGrid(4))

		_, err := f.svc.BulkMove(ctx, id, nil, false)
		assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
	})
}

func TestGameService_GetMoveHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newGame(t, engine.Grid{
		{2, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	for i := 0; i < 25; i++ {
		dir := []string{"left", "right"}[i%2]
		_, err := f.svc.Move(ctx, id, dir, false)
		require.NoError(t, err)
	}

	t.Run("defaults to newest first", func(t *testing.T) {
		history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{})
		require.NoError(t, err)
		assert.Equal(t, 25, history.TotalMoves)
		assert.Equal(t, 20, history.PageSize)
		assert.Equal(t, 2, history.TotalPages)
		assert.True(t, history.HasNext)
		assert.False(t, history.HasPrevious)
		require.Len(t, history.Moves, 20)
		assert.Equal(t, 25, history.Moves[0].MoveNumber)
	})

	t.Run("ascending second page", func(t *testing.T) {
		history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 2, Limit: 10, Order: "asc"})
		require.NoError(t, err)
		require.Len(t, history.Moves, 10)
		assert.Equal(t, 11, history.Moves[0].MoveNumber)
		assert.True(t, history.HasPrevious)
	})

	t.Run("limit capped", func(t *testing.T) {
		history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, 100, history.PageSize)
		assert.Len(t, history.Moves, 25)
	})

	t.Run("page past the end", func(t *testing.T) {
		history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 9})
		require.NoError(t, err)
		assert.NotNil(t, history.Moves)
		assert.Empty(t, history.Moves)
	})

	t.Run("huge page does not overflow the offset", func(t *testing.T) {
		for _, order := range []string{"asc", "desc"} {
			history, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 1e17, Limit: 100, Order: order})
			require.NoError(t, err, order)
			assert.Empty(t, history.Moves, order)
			assert.Equal(t, 1, history.TotalPages, order)
			assert.False(t, history.HasNext, order)
			assert.True(t, history.HasPrevious, order)
		}
	})

	t.Run("bad order", func(t *testing.T) {
		_, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Order: "random"})
		assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
	})
}

func TestGameService_ConcurrentReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, err := f.svc.GetSession(ctx, info.ID)
				if !assert.NoError(t, err) {
					return
				}
				assert.False(t, got.LastAccessedAt.Before(info.LastAccessedAt))

				_, err = f.svc.GetGameState(ctx, info.ID)
				assert.NoError(t, err)
				_, err = f.svc.ListSessions(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestGameService_ListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateSession(ctx, "")
		require.NoError(t, err)
	}

	sessions, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Equal(t, "classic", s.ConfigName)
	}
}

func TestGameService_Reset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newGame(t, engine.Grid{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	_, err := f.svc.Move(ctx, id, "left", false)
	require.NoError(t, err)

	state, err := f.svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, state.Score)
	assert.Equal(t, 2, state.Grid.TileCount())
	assert.Empty(t, state.MoveHistory)

	_, err = f.svc.Reset(ctx, "missing")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestGameService_Share(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, service.WithPublicURL("https://play.example.com/"))

	id := f.newGame(t, engine.Grid{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	_, err := f.svc.Share(ctx, id)
	assert.True(t, errors.Is(err, service.ErrGameNotFinished))

	_, err = f.svc.Move(ctx, id, "left", false)
	require.NoError(t, err)

	share, err := f.svc.Share(ctx, id)
	require.NoError(t, err)
	expectedURL := fmt.Sprintf("https://play.example.com/?session=%s", id)
	assert.Equal(t, expectedURL, share.URL)
	assert.Equal(t, fmt.Sprintf("I scored 2048 in 2048! %s", expectedURL), share.Text)
	assert.Equal(t, engine.Won, share.Status)
	assert.Equal(t, 2048, share.MaxTile)

	_, err = f.svc.Share(ctx, "missing")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestGameService_ShareCustomGameName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, service.WithGameName("Mini Merge"))

	id := f.newGame(t, engine.Grid{
		{2, 4, 2},
		{4, 2, 4},
		{0, 8, 16},
	})

	result, err := f.svc.Move(ctx, id, "left", false)
	require.NoError(t, err)
	require.Equal(t, engine.Lost, result.GameState.Status)
	assert.Contains(t, eventTypes(result.Events), service.EventLost)

	share, err := f.svc.Share(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, share.Text, "in Mini Merge!")
	assert.Equal(t, engine.Lost, share.Status)
}

func TestGameService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newGame(t, engine.Grid{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	_, err := f.svc.Move(ctx, id, "up", false)
	require.NoError(t, err)
	_, err = f.svc.Move(ctx, id, "left", false)
	require.NoError(t, err)
	_, err = f.svc.Move(ctx, id, "left", false)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, int64(3), stats.MovesServed)
	assert.Equal(t, int64(1), stats.GamesWon)
	assert.Zero(t, stats.GamesLost)
}

func TestGameService_Configs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	configs, err := f.svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	config, err := f.svc.LoadConfig(ctx, "mini")
	require.NoError(t, err)
	assert.Equal(t, 3, config.Dimension)

	require.NoError(t, f.svc.SaveConfig(ctx, "huge", &engine.GameConfig{Name: "huge", Dimension: 8, WinningValue: 65536}))
	assert.Contains(t, f.configs.saved, "huge")

	err = f.svc.SaveConfig(ctx, "bad", &engine.GameConfig{Name: "bad", Dimension: 0, WinningValue: 2048})
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
}
