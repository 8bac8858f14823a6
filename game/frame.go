package game

import "github.com/davidsulc/nightwatch-mmo/gamestate"

// Frame is one broadcast snapshot of a game's board. Sequence is
// strictly increasing across every broadcast a single GameActor ever
// emits, so subscribers can drop stale, out-of-order deliveries by
// comparing sequence numbers.
type Frame struct {
	Sequence int64
	Board    gamestate.CoalescedBoard
	Rows     int
	Cols     int
}
