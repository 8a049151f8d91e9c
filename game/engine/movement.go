package engine

// lineCell maps the k-th cell of line i, counted from the wall the move points
// at, to its grid position on an n x n board
type lineCell func(i, k, n int) Position

// lineTraversals holds one explicit strategy per direction. Index k = 0 is
// always the target wall, so merged tiles pile up against it.
var lineTraversals = map[Direction]lineCell{
	Left: func(i, k, n int) Position {
		return Position{Row: i, Col: k}
	},
	Right: func(i, k, n int) Position {
		return Position{Row: i, Col: n - 1 - k}
	},
	Up: func(i, k, n int) Position {
		return Position{Row: k, Col: i}
	},
	Down: func(i, k, n int) Position {
		return Position{Row: n - 1 - k, Col: i}
	},
}

// slideResult is the outcome of sliding a whole grid without spawning
type slideResult struct {
	grid    Grid
	gained  int
	merges  int
	changed bool
}

// slide applies direction d to a copy of g. The input grid is never modified.
func slide(g Grid, d Direction) slideResult {
	cell := lineTraversals[d]
	n := len(g)
	next := g.Clone()
	res := slideResult{grid: next}

	for i := 0; i < n; i++ {
		line := make([]int, 0, n)
		for k := 0; k < n; k++ {
			p := cell(i, k, n)
			if v := g[p.Row][p.Col]; v != Empty {
				line = append(line, v)
			}
		}

		merged, gained, merges := mergeLine(line)
		res.gained += gained
		res.merges += merges

		for k := 0; k < n; k++ {
			v := Empty
			if k < len(merged) {
				v = merged[k]
			}
			p := cell(i, k, n)
			if next[p.Row][p.Col] != v {
				res.changed = true
			}
			next[p.Row][p.Col] = v
		}
	}

	return res
}

// mergeLine collapses a compacted line in one greedy pass. A pair of equal
// neighbours becomes one tile of double value and the scan skips past both, so
// [2 2 2] yields [4 2] and a fresh tile never merges twice in one move.
func mergeLine(line []int) (merged []int, gained, merges int) {
	merged = make([]int, 0, len(line))
	for i := 0; i < len(line); i++ {
		if i+1 < len(line) && line[i] == line[i+1] {
			v := line[i] * 2
			merged = append(merged, v)
			gained += v
			merges++
			i++
			continue
		}
		merged = append(merged, line[i])
	}
	return merged, gained, merges
}
