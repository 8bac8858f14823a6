package game

import (
	"github.com/davidsulc/nightwatch-mmo/actor"
	"github.com/davidsulc/nightwatch-mmo/board"
)

// --- GameActor request messages (sent via Engine.Ask) ---

// JoinRequest asks a GameActor to spawn (or reconnect) a player and
// subscribe clientRef to that player's frame broadcasts.
type JoinRequest struct {
	PlayerID  string
	ClientRef *actor.PID
}

// MoveRequest asks a GameActor to move a player to destination.
type MoveRequest struct {
	PlayerID    string
	Destination board.Coordinate
	ClientRef   *actor.PID
}

// AttackRequest asks a GameActor to resolve an attack from a player.
type AttackRequest struct {
	PlayerID  string
	ClientRef *actor.PID
}

// JoinReply/MoveReply/AttackReply all reply with the GameActor's
// current Frame. Errors are sent as the Ask's error return instead of
// as an ok-value, so callers use the usual (value, err) convention.
type JoinReply struct {
	Frame Frame
}

type MoveReply struct {
	Frame Frame
}

type AttackReply struct {
	Frame Frame
}

// --- GameActor self/engine-delivered messages ---

// respawnTick is the deferred self-message a GameActor schedules
// after a successful attack: first purge any player whose subscriber
// set is empty, then attempt to respawn everyone else in ids.
type respawnTick struct {
	IDs []string
}

// --- PlaySession command messages (sent via Engine.Ask) ---

// Direction names a 4-connected move.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// MoveCmd asks a session to move its player one step in dir.
type MoveCmd struct {
	Dir Direction
}

// AttackCmd asks a session to attack on its player's behalf.
type AttackCmd struct{}

// PlayerStateCmd asks a session for its cached view of its own
// player's position and status.
type PlayerStateCmd struct{}

// PlayerStateReply is the PlayerStateCmd reply.
type PlayerStateReply struct {
	Position board.Coordinate
	Status   string
}

// GameInfoCmd asks a session for its cached board snapshot.
type GameInfoCmd struct{}

// GameInfoReply is the GameInfoCmd reply.
type GameInfoReply struct {
	Frame Frame
}

// RenderCmd asks a session to render its cached frame from its
// player's point of view.
type RenderCmd struct{}

// RenderReply is the RenderCmd reply.
type RenderReply struct {
	Picture string
}

// frameMsg is how a GameActor delivers a broadcast frame to a
// subscribed session. Not exported: sessions only ever receive it
// from the GameActor they joined.
type frameMsg struct {
	Frame Frame
}

// reconnectTick is a PlaySession's own self-message, scheduled after
// its GameActor dies, driving one reconnect attempt.
type reconnectTick struct{}
