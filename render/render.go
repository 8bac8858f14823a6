// Package render turns a coalesced board into the single-viewer
// ASCII picture a client displays: one rune per cell, walls and
// floors distinguished from occupied cells, and the viewer's own cell
// called out specially.
//
// Grounded on lguibr-pongo's render/ascii.go, a pure function
// standing entirely outside the actor system, consuming only
// the engine's already-computed output: here that's a
// gamestate.CoalescedBoard instead of a pixel buffer, so the rendering
// alphabet is wall/floor/occupant runes instead of grayscale ANSI.
package render

import (
	"strings"

	"github.com/davidsulc/nightwatch-mmo/board"
	"github.com/davidsulc/nightwatch-mmo/gamestate"
)

// Picture renders board from the point of view of viewer: rows are
// emitted highest row index first, row 0 printed last (display origin
// bottom-left, even though the coordinate origin is top-left), each
// row terminated with '\n'.
//
// Per cell:
//   - '#' a wall
//   - ' ' a walkable cell with no players
//   - '@' the viewer's cell, viewer alive (other occupants hidden)
//   - '&' the viewer's cell, viewer dead
//   - 'x' a cell with at least one player, all dead, viewer absent
//   - '1'-'9' a cell with that many alive players, viewer absent
//     (dead players sharing the cell aren't counted)
//   - '*' a cell with more than 9 alive players, viewer absent
func Picture(coalesced gamestate.CoalescedBoard, rows, cols int, viewer string) string {
	var sb strings.Builder
	for r := rows - 1; r >= 0; r-- {
		for c := 0; c < cols; c++ {
			sb.WriteByte(cellRune(coalesced[board.Coordinate{Row: r, Col: c}], viewer))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellRune(cell gamestate.CoalescedCell, viewer string) byte {
	if cell.Kind == board.Wall {
		return '#'
	}
	if len(cell.Occupants) == 0 {
		return ' '
	}

	if status, present := cell.Occupants[viewer]; present {
		if status == gamestate.Alive {
			return '@'
		}
		return '&'
	}

	alive := 0
	for _, status := range cell.Occupants {
		if status == gamestate.Alive {
			alive++
		}
	}
	if alive == 0 {
		return 'x'
	}
	if alive > 9 {
		return '*'
	}
	return byte('0' + alive)
}
