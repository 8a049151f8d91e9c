// Package autoplay lets simple strategies play the merge puzzle on their own.
//
// A Strategy looks at the engine and names the next direction. Two are
// built in: "corner" always tries down, left, right and up in that order,
// and "random" picks uniformly among the directions that change the board.
//
// Play drives one engine to the end of its game. Simulate plays many seeded
// games on a worker pool and summarizes them in a Report: wins, losses,
// best and mean score, and a histogram of the best tile each game reached.
// Game i of a run uses seed Seed+i, so a report is reproducible regardless
// of the number of workers.
//
//	report, err := autoplay.Simulate(ctx, autoplay.Options{
//		Strategy: "corner",
//		Games:    1000,
//		Seed:     1,
//	})
package autoplay
