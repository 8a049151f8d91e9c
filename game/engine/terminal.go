package engine

// DetectStatus classifies a grid after a spawn. A tile equal to winningValue
// wins even when no moves remain. Otherwise a full grid without equal right or
// lower neighbours is lost. Whether some move could actually reach such a pair
// is not checked.
func DetectStatus(g Grid, winningValue int) Status {
	if hasTile(g, winningValue) {
		return Won
	}
	if hasEmptyCell(g) || hasAdjacentPair(g) {
		return InProgress
	}
	return Lost
}

func hasTile(g Grid, value int) bool {
	for _, row := range g {
		for _, v := range row {
			if v == value {
				return true
			}
		}
	}
	return false
}

func hasEmptyCell(g Grid) bool {
	for _, row := range g {
		for _, v := range row {
			if v == Empty {
				return true
			}
		}
	}
	return false
}

// hasAdjacentPair compares every cell with its right neighbour and the one below
func hasAdjacentPair(g Grid) bool {
	n := len(g)
	for r := 0; r < n; r++ {
		for c := 0; c < len(g[r]); c++ {
			v := g[r][c]
			if c+1 < len(g[r]) && v == g[r][c+1] {
				return true
			}
			if r+1 < n && c < len(g[r+1]) && v == g[r+1][c] {
				return true
			}
		}
	}
	return false
}
