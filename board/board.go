// Package board implements the immutable grid the game is played on:
// parsing and validating a text layout, walkability and adjacency
// queries, and the blast-radius geometry attacks use.
//
// Grounded on the text-grid convention of
// niceyeti-tabular/models/grid_world.go (one row per line, runes
// mapped to cell kinds), adapted to this game's two-symbol alphabet
// and top-left coordinate origin.
package board

import (
	"fmt"
	"math/rand"
	"strings"
)

// Cell is the content of one grid square.
type Cell int

const (
	Floor Cell = iota
	Wall
)

func (c Cell) String() string {
	if c == Wall {
		return "Wall"
	}
	return "Floor"
}

// Coordinate is a (row, col) position, top-left origin, non-negative.
type Coordinate struct {
	Row, Col int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// ValidationError reports why a text layout was rejected.
type ValidationError struct {
	Kind string // "non_rectangular" | "not_enclosed" | "unwalkable"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("board: %s", e.Kind)
}

// Board is an immutable rectangular grid of walls and floors.
type Board struct {
	cells [][]Cell
	lookup map[Coordinate]Cell
	rows, cols int
}

// Parse splits text into lines (discarding leading/trailing empty
// lines), maps '#' to Wall and every other rune (including space) to
// Floor, then validates the result. Validation fails, in order, with
// non_rectangular, not_enclosed, or unwalkable.
func Parse(text string) (*Board, error) {
	lines := strings.Split(text, "\n")
	// Trim leading/trailing empty lines, not interior ones: an empty
	// interior line is kept as a zero-width row, which then fails the
	// rectangularity check.
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}
	lines = lines[start:end]

	if len(lines) == 0 {
		return nil, &ValidationError{Kind: "unwalkable"}
	}

	cells := make([][]Cell, len(lines))
	width := len([]rune(lines[0]))
	for r, line := range lines {
		runes := []rune(line)
		if len(runes) != width {
			return nil, &ValidationError{Kind: "non_rectangular"}
		}
		row := make([]Cell, width)
		for c, ch := range runes {
			if ch == '#' {
				row[c] = Wall
			} else {
				row[c] = Floor
			}
		}
		cells[r] = row
	}

	b := &Board{cells: cells, rows: len(cells), cols: width}
	b.buildLookup()

	if err := b.validateEnclosed(); err != nil {
		return nil, err
	}
	if !b.hasFloor() {
		return nil, &ValidationError{Kind: "unwalkable"}
	}

	return b, nil
}

func (b *Board) buildLookup() {
	b.lookup = make(map[Coordinate]Cell, b.rows*b.cols)
	for r, row := range b.cells {
		for c, cell := range row {
			b.lookup[Coordinate{Row: r, Col: c}] = cell
		}
	}
}

func (b *Board) validateEnclosed() error {
	for c := 0; c < b.cols; c++ {
		if b.cells[0][c] != Wall || b.cells[b.rows-1][c] != Wall {
			return &ValidationError{Kind: "not_enclosed"}
		}
	}
	for r := 0; r < b.rows; r++ {
		if b.cells[r][0] != Wall || b.cells[r][b.cols-1] != Wall {
			return &ValidationError{Kind: "not_enclosed"}
		}
	}
	return nil
}

func (b *Board) hasFloor() bool {
	for _, row := range b.cells {
		for _, cell := range row {
			if cell == Floor {
				return true
			}
		}
	}
	return false
}

// DefaultText is a 10x10 enclosure with an interior wall fragment,
// used whenever no board is supplied.
const DefaultText = `##########
#        #
#        #
#   ##   #
#   ##   #
#        #
#        #
#        #
#        #
##########`

// Default returns the canonical 10x10 board. It panics if the
// embedded text is somehow invalid, which would indicate a bug in
// this package, not a caller error.
func Default() *Board {
	b, err := Parse(DefaultText)
	if err != nil {
		panic(fmt.Sprintf("board: default board text is invalid: %v", err))
	}
	return b
}

// Dimensions returns the board's row and column counts.
func (b *Board) Dimensions() (rows, cols int) { return b.rows, b.cols }

// Cells returns the underlying cell matrix. The board is immutable,
// so callers must not mutate the returned slices.
func (b *Board) Cells() [][]Cell { return b.cells }

// CellMap returns the coordinate -> cell lookup. The board is
// immutable, so callers must not mutate the returned map.
func (b *Board) CellMap() map[Coordinate]Cell { return b.lookup }

// Walkable reports whether coord is in bounds and a Floor cell.
// Out-of-bounds coordinates are never walkable.
func (b *Board) Walkable(coord Coordinate) bool {
	cell, ok := b.lookup[coord]
	return ok && cell == Floor
}

// Neighbors reports whether a and b are 4-connected: equal, or
// differing by exactly 1 on exactly one axis. A cell is its own
// neighbor.
func Neighbors(a, c Coordinate) bool {
	if a == c {
		return true
	}
	dr := a.Row - c.Row
	dc := a.Col - c.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return (dr == 1 && dc == 0) || (dr == 0 && dc == 1)
}

// Neighbors is also exposed as a method for callers that already hold
// a *Board and prefer method-call syntax; the board itself plays no
// role in 4-connectivity.
func (b *Board) Neighbors(a, c Coordinate) bool { return Neighbors(a, c) }

// RandomWalkable picks a uniformly random Floor cell using rng. rng
// must be non-nil: this package never reaches for a package-global
// random source, so tests can make the choice deterministic.
func (b *Board) RandomWalkable(rng *rand.Rand) (Coordinate, error) {
	floors := make([]Coordinate, 0, b.rows*b.cols)
	for r, row := range b.cells {
		for c, cell := range row {
			if cell == Floor {
				floors = append(floors, Coordinate{Row: r, Col: c})
			}
		}
	}
	if len(floors) == 0 {
		return Coordinate{}, &ValidationError{Kind: "unwalkable"}
	}
	// Candidates are collected in row-major order, so for a given
	// board the same rng state always picks the same cell.
	return floors[rng.Intn(len(floors))], nil
}

// BlastRadius returns every in-bounds coordinate in the 3x3 Moore
// neighborhood centered on center (8-connected, includes center).
// Out-of-bounds coordinates are omitted. Walls inside the radius are
// included in this coordinate set; filtering who is actually affected
// is the caller's concern (walls never host players).
func (b *Board) BlastRadius(center Coordinate) []Coordinate {
	coords := make([]Coordinate, 0, 9)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			c := Coordinate{Row: center.Row + dr, Col: center.Col + dc}
			if _, inBounds := b.lookup[c]; inBounds {
				coords = append(coords, c)
			}
		}
	}
	return coords
}

// String renders the board back to its text form: '#' for Wall,
// space for Floor, one row per line with a trailing newline each.
func (b *Board) String() string {
	var sb strings.Builder
	for _, row := range b.cells {
		for _, cell := range row {
			if cell == Wall {
				sb.WriteByte('#')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
