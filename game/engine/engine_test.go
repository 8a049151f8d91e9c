package engine

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed draws and falls back to zero once exhausted,
// which means "first empty cell, value 2".
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (s *scriptedRand) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func newTestEngine(t *testing.T, grid Grid, rng RandSource) *GameEngine {
	t.Helper()

	if rng == nil {
		rng = &scriptedRand{}
	}
	config := DefaultConfig()
	config.Dimension = len(grid)
	eng, err := NewEngine(config, WithRandSource(rng))
	require.NoError(t, err)
	require.NoError(t, eng.SetState(&GameState{Grid: grid}))
	return eng
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(DefaultConfig(), WithRandSource(NewSeededRandSource(1)))
	require.NoError(t, err)

	state := eng.GetState()
	assert.Equal(t, InitialTiles, state.Grid.TileCount())
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, InProgress, state.Status)
	assert.Equal(t, DefaultDimension, state.Dimension)
	assert.Equal(t, DefaultWinningValue, state.WinningValue)
	assert.Empty(t, state.MoveHistory)
	for _, row := range state.Grid {
		for _, v := range row {
			assert.Contains(t, []int{Empty, 2, 4}, v)
		}
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *GameConfig
	}{
		{"nil config", nil},
		{"dimension zero", &GameConfig{Name: "x", Dimension: 0, WinningValue: 2048}},
		{"dimension one", &GameConfig{Name: "x", Dimension: 1, WinningValue: 2048}},
		{"negative dimension", &GameConfig{Name: "x", Dimension: -3, WinningValue: 2048}},
		{"dimension too large", &GameConfig{Name: "x", Dimension: MaxDimension + 1, WinningValue: 2048}},
		{"winning value not power of two", &GameConfig{Name: "x", Dimension: 4, WinningValue: 3000}},
		{"winning value too small", &GameConfig{Name: "x", Dimension: 4, WinningValue: 2}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			eng, err := NewEngine(test.config)
			assert.Nil(t, eng)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	eng := NewEngineWithDefaults()
	assert.Equal(t, "2048", eng.GetConfig().Name)
	assert.Equal(t, InProgress, eng.GetStatus())
}

func TestMove_InvalidDirection(t *testing.T) {
	eng := NewEngineWithDefaults()
	before := eng.GetState()

	result, err := eng.Move(Direction("diagonal"))
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, before.Grid, eng.GetState().Grid)
	assert.Empty(t, eng.GetMoveHistory())
}

func TestMove_MergesAndSpawns(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{2, 2, 4, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, nil)

	result, err := eng.Move(Left)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, 4, result.ScoreGained)
	assert.Equal(t, 1, result.Merges)
	assert.Equal(t, 4, result.Score)
	require.NotNil(t, result.Spawned)
	assert.Equal(t, Tile{Row: 0, Col: 2, Value: 2}, *result.Spawned)
	assert.Equal(t, []int{4, 4, 2, 0}, result.Grid[0])
	assert.Equal(t, InProgress, result.Status)

	state := eng.GetState()
	assert.Equal(t, 4, state.Score)
	assert.Equal(t, "Score: 4", state.Message)
	assert.Equal(t, 1, state.TotalMoves)
}

func TestMove_SpawnsFour(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{0, 2},
		{0, 0},
	}, &scriptedRand{ints: []int{2}, floats: []float64{0.95}})

	result, err := eng.Move(Left)
	require.NoError(t, err)
	require.NotNil(t, result.Spawned)
	assert.Equal(t, Tile{Row: 1, Col: 1, Value: 4}, *result.Spawned)
	assert.Equal(t, Grid{{2, 0}, {0, 4}}, result.Grid)
}

func TestMove_NoChange(t *testing.T) {
	grid := Grid{
		{2, 4, 0, 0},
		{8, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	eng := newTestEngine(t, grid, nil)

	result, err := eng.Move(Left)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Nil(t, result.Spawned)
	assert.Zero(t, result.ScoreGained)
	assert.Equal(t, grid, result.Grid)

	state := eng.GetState()
	assert.Equal(t, grid, state.Grid)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, InProgress, state.Status)
	assert.Equal(t, eng.GetConfig().Messages.NoChange, state.Message)

	last := eng.GetLastMove()
	require.NotNil(t, last)
	assert.False(t, last.Changed)
	assert.Equal(t, Left, last.Action)
}

func TestMove_Lost(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{0, 8, 16, 8},
	}, nil)

	result, err := eng.Move(Left)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, Lost, result.Status)
	assert.Equal(t, []int{8, 16, 8, 2}, result.Grid[3])
	assert.True(t, eng.IsGameOver())
	assert.False(t, eng.IsVictory())
	assert.Equal(t, eng.GetConfig().Messages.Lost, eng.GetState().Message)
}

func TestMove_Won(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, nil)

	result, err := eng.Move(Left)
	require.NoError(t, err)

	assert.Equal(t, Won, result.Status)
	assert.Equal(t, 2048, result.ScoreGained)
	assert.True(t, eng.IsVictory())
	assert.Equal(t, 2048, eng.GetState().MaxTile)
}

func TestMove_WonTakesPriorityOverLost(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{1024, 1024, 8, 16},
	}, nil)

	result, err := eng.Move(Left)
	require.NoError(t, err)

	assert.Equal(t, []int{2048, 8, 16, 2}, result.Grid[3])
	assert.Empty(t, result.Grid.EmptyCells())
	assert.Equal(t, Won, result.Status)
}

func TestMove_TerminalIsAbsorbing(t *testing.T) {
	for _, status := range []Status{Won, Lost} {
		t.Run(string(status), func(t *testing.T) {
			eng := newTestEngine(t, Grid{
				{2, 2, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			}, nil)
			state := eng.GetState()
			state.Status = status
			state.Score = 100
			require.NoError(t, eng.SetState(state))
			before := eng.GetState()

			for _, dir := range Directions {
				result, err := eng.Move(dir)
				require.NoError(t, err)
				assert.False(t, result.Changed)
				assert.Nil(t, result.Spawned)
				assert.Equal(t, status, result.Status)
			}

			after := eng.GetState()
			assert.Equal(t, before.Grid, after.Grid)
			assert.Equal(t, 100, after.Score)
			assert.Equal(t, status, after.Status)
			assert.Empty(t, eng.GetMoveHistory())
			assert.Empty(t, eng.GetPossibleMoves())
		})
	}
}

func TestCanMoveAndPossibleMoves(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{2, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}, nil)

	assert.False(t, eng.CanMove(Left))
	assert.False(t, eng.CanMove(Up))
	assert.True(t, eng.CanMove(Right))
	assert.True(t, eng.CanMove(Down))
	assert.False(t, eng.CanMove(Direction("sideways")))
	assert.ElementsMatch(t, []Direction{Down, Right}, eng.GetPossibleMoves())
}

func TestGetState_ReturnsCopy(t *testing.T) {
	eng := NewEngineWithDefaults()

	state := eng.GetState()
	state.Grid[0][0] = 4096
	state.Score = 999

	fresh := eng.GetState()
	assert.NotEqual(t, 4096, fresh.Grid[0][0])
	assert.Equal(t, 0, fresh.Score)
}

func TestSetState_Validation(t *testing.T) {
	eng := NewEngineWithDefaults()

	tests := []struct {
		name  string
		state *GameState
	}{
		{"nil state", nil},
		{"wrong size", &GameState{Grid: NewGrid(3)}},
		{"not a power of two", &GameState{Grid: Grid{{3, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}}},
		{"tile of one", &GameState{Grid: Grid{{1, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}}},
		{"negative score", &GameState{Grid: NewGrid(4), Score: -1}},
		{"unknown status", &GameState{Grid: NewGrid(4), Status: Status("paused")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := eng.SetState(test.state)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestReset(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, nil)
	_, err := eng.Move(Left)
	require.NoError(t, err)
	require.True(t, eng.IsVictory())

	state := eng.Reset()
	assert.Equal(t, InProgress, state.Status)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, InitialTiles, state.Grid.TileCount())
	assert.Empty(t, state.MoveHistory)
	assert.Equal(t, eng.GetConfig().Messages.Welcome, state.Message)
}

func TestSetConfig(t *testing.T) {
	eng := NewEngineWithDefaults()

	err := eng.SetConfig(&GameConfig{Name: "tiny", Dimension: 3, WinningValue: 64})
	require.NoError(t, err)

	state := eng.GetState()
	assert.Len(t, state.Grid, 3)
	assert.Equal(t, 64, state.WinningValue)
	assert.Equal(t, "tiny", state.ConfigName)
	assert.NotEmpty(t, eng.GetConfig().Messages.Won)

	err = eng.SetConfig(&GameConfig{Name: "bad", Dimension: 1, WinningValue: 64})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Len(t, eng.GetState().Grid, 3)
}

func TestMoveHistory(t *testing.T) {
	eng := newTestEngine(t, Grid{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, nil)

	assert.Nil(t, eng.GetLastMove())

	_, err := eng.Move(Left)
	require.NoError(t, err)
	_, err = eng.Move(Left)
	require.NoError(t, err)

	history := eng.GetMoveHistory()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].MoveNumber)
	assert.Equal(t, 4, history[0].ScoreGained)
	assert.Equal(t, 2, history[1].MoveNumber)

	history[0].Score = 12345
	assert.NotEqual(t, 12345, eng.GetMoveHistory()[0].Score)
}

func TestBulkMove(t *testing.T) {
	t.Run("invalid direction aborts before applying", func(t *testing.T) {
		eng := newTestEngine(t, Grid{
			{2, 2, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, nil)

		results, err := eng.BulkMove([]Direction{Left, Direction("nope"), Right})
		assert.Nil(t, results)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Equal(t, 0, eng.GetScore())
		assert.Empty(t, eng.GetMoveHistory())
	})

	t.Run("stops once the game is won", func(t *testing.T) {
		eng := newTestEngine(t, Grid{
			{1024, 1024, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, nil)

		results, err := eng.BulkMove([]Direction{Left, Right, Down})
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, Won, eng.GetStatus())
	})

	t.Run("unchanged moves do not stop the sequence", func(t *testing.T) {
		eng := newTestEngine(t, Grid{
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, nil)

		results, err := eng.BulkMove([]Direction{Left, Up, Right})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.False(t, results[0].Changed)
		assert.False(t, results[1].Changed)
		assert.True(t, results[2].Changed)
	})
}
