package autoplay

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// ErrUnknownStrategy is returned when a strategy name is not registered
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy picks the next direction for a game in progress
type Strategy interface {
	Name() string
	// Next returns the direction to play, or false when the strategy gives up
	Next(state *engine.GameState, eng engine.Engine) (engine.Direction, bool)
}

// CornerStrategy keeps the big tiles in the bottom-left corner by always
// trying down, left, right and up in that order.
type CornerStrategy struct{}

var cornerPreference = []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}

// Name implements Strategy
func (CornerStrategy) Name() string { return "corner" }

// Next implements Strategy
func (CornerStrategy) Next(state *engine.GameState, eng engine.Engine) (engine.Direction, bool) {
	for _, dir := range cornerPreference {
		if eng.CanMove(dir) {
			return dir, true
		}
	}
	return "", false
}

// RandomStrategy plays a uniformly random direction among those that change the board
type RandomStrategy struct {
	rng engine.RandSource
}

// NewRandomStrategy creates a random player drawing from rng
func NewRandomStrategy(rng engine.RandSource) *RandomStrategy {
	if rng == nil {
		rng = engine.NewRandSource()
	}
	return &RandomStrategy{rng: rng}
}

// Name implements Strategy
func (*RandomStrategy) Name() string { return "random" }

// Next implements Strategy
func (s *RandomStrategy) Next(state *engine.GameState, eng engine.Engine) (engine.Direction, bool) {
	moves := eng.GetPossibleMoves()
	if len(moves) == 0 {
		return "", false
	}
	return moves[s.rng.IntN(len(moves))], true
}

var strategies = map[string]func(rng engine.RandSource) Strategy{
	"corner": func(engine.RandSource) Strategy { return CornerStrategy{} },
	"random": func(rng engine.RandSource) Strategy { return NewRandomStrategy(rng) },
}

// Strategies lists the registered strategy names
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewStrategy builds a registered strategy. rng is only used by strategies
// that need randomness.
func NewStrategy(name string, rng engine.RandSource) (Strategy, error) {
	factory, ok := strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStrategy, "%q, available: %s", name, strings.Join(Strategies(), ", "))
	}
	return factory(rng), nil
}
