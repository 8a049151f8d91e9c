package engine

import "github.com/pkg/errors"

// Grid is a square matrix of tile values indexed [row][col]; Empty marks a free cell
type Grid [][]int

// NewGrid returns an all-empty n x n grid
func NewGrid(n int) Grid {
	g := make(Grid, n)
	for i := range g {
		g[i] = make([]int, n)
	}
	return g
}

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for i, row := range g {
		c[i] = append([]int(nil), row...)
	}
	return c
}

// Equal reports whether both grids hold the same values cell by cell
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for r := range g {
		if len(g[r]) != len(other[r]) {
			return false
		}
		for c := range g[r] {
			if g[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// EmptyCells lists free cells in row-major order
func (g Grid) EmptyCells() []Position {
	var cells []Position
	for r, row := range g {
		for c, v := range row {
			if v == Empty {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// TileCount counts the non-empty cells
func (g Grid) TileCount() int {
	count := 0
	for _, row := range g {
		for _, v := range row {
			if v != Empty {
				count++
			}
		}
	}
	return count
}

// Sum adds up every tile value
func (g Grid) Sum() int {
	total := 0
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// MaxTile returns the largest tile on the board, 0 for an empty board
func (g Grid) MaxTile() int {
	best := 0
	for _, row := range g {
		for _, v := range row {
			if v > best {
				best = v
			}
		}
	}
	return best
}

// ValidateGrid checks that g is square with side n and holds only Empty or powers of two >= 2
func ValidateGrid(g Grid, n int) error {
	if len(g) != n {
		return errors.Wrapf(ErrInvalidArgument, "grid must have %d rows, got %d", n, len(g))
	}
	for r, row := range g {
		if len(row) != n {
			return errors.Wrapf(ErrInvalidArgument, "grid row %d must have %d cells, got %d", r, n, len(row))
		}
		for c, v := range row {
			if v != Empty && !isPowerOfTwo(v) {
				return errors.Wrapf(ErrInvalidArgument, "cell (%d,%d) holds %d, not a power of two >= 2", r, c, v)
			}
		}
	}
	return nil
}

// isPowerOfTwo reports whether v is 2, 4, 8, ...
func isPowerOfTwo(v int) bool {
	return v >= 2 && v&(v-1) == 0
}
