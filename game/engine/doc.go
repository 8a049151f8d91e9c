// Package engine provides the rule engine for the merge2048 sliding-tile puzzle.
//
// The engine package implements the game mechanics including:
//   - Directional slides with greedy pairwise merging
//   - Random tile spawning through an injected random source
//   - Win and no-moves-left detection
//   - Rule validation for board dimension and winning tile
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the snapshot handed to callers,
// while GameConfig defines the rules loaded from preset files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameEngine.Move(engine.Left)
//	if err != nil {
//		log.Fatal(err)
//	}
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Every accepted move slides all tiles toward one wall. Two equal tiles that
// meet merge into one tile of double value, adding that value to the score.
// A merged tile never merges again in the same move. After every move that
// changes the board one new tile (2, or 4 one time in ten) appears on a random
// empty cell. The game is won when a tile reaches the winning value and lost
// when the board is full with no equal neighbours left.
package engine
