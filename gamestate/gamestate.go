// Package gamestate implements the pure state-transition functions a
// GameActor drives: spawning, moving, attacking, respawning, and
// coalescing players onto a board for rendering or broadcast. Every
// operation takes a State and returns a new State (or an error) and
// never mutates its input.
//
// Grounded on lguibr-pongo's game state handling
// (game_actor_handlers.go, game_actor_state.go), translated from
// actor-mailbox side effects into pure functions: all the
// actor-specific concerns (client refs, timers, broadcasting) stay in
// the game package, which is the only caller of this one.
package gamestate

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/davidsulc/nightwatch-mmo/board"
)

// Sentinel action errors. State is unchanged whenever one of these is
// returned.
var (
	ErrMaxPlayers                = errors.New("gamestate: max players reached")
	ErrAlreadySpawned            = errors.New("gamestate: player already spawned")
	ErrInvalidPlayer             = errors.New("gamestate: invalid player")
	ErrDeadPlayer                = errors.New("gamestate: player is dead")
	ErrUnwalkableDestination     = errors.New("gamestate: destination is not walkable")
	ErrUnreachableDestination    = errors.New("gamestate: destination is not reachable")
	ErrMaxBoardDimensionExceeded = errors.New("gamestate: board exceeds max dimension")
)

// OptionError reports an unrecognized or invalid construction option.
type OptionError struct {
	Name string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("gamestate: invalid option %q", e.Name)
}

// PlayerStatus is whether a player is currently alive or dead.
type PlayerStatus int

const (
	Alive PlayerStatus = iota
	Dead
)

func (s PlayerStatus) String() string {
	if s == Dead {
		return "dead"
	}
	return "alive"
}

// PlayerRecord is one player's position and status.
type PlayerRecord struct {
	Position board.Coordinate
	Status   PlayerStatus
}

// Effects describes side effects carried by the most recent
// transition only, never accumulated across transitions.
type Effects struct {
	Killed []string
}

// State is the authoritative state of one game: its board and every
// player's position and status. Owned exclusively by one GameActor.
type State struct {
	Board       *board.Board
	Players     map[string]PlayerRecord
	MaxPlayers  int // 0 means unset/unbounded
	LastEffects Effects
}

// Options configures New. Board defaults to board.Default() when nil.
// MaxPlayers of 0 means unbounded. MaxBoardDimension of 0 means no
// limit is enforced.
type Options struct {
	Board             *board.Board
	MaxPlayers        int
	MaxBoardDimension int
}

// New constructs an empty game state. Fails with *OptionError if
// MaxPlayers is set but not greater than 1, or with
// ErrMaxBoardDimensionExceeded if the board (or default board)
// exceeds MaxBoardDimension on either axis.
func New(opts Options) (*State, error) {
	b := opts.Board
	if b == nil {
		b = board.Default()
	}

	if opts.MaxPlayers != 0 && opts.MaxPlayers <= 1 {
		return nil, &OptionError{Name: "max_players"}
	}

	if opts.MaxBoardDimension != 0 {
		rows, cols := b.Dimensions()
		if rows > opts.MaxBoardDimension || cols > opts.MaxBoardDimension {
			return nil, ErrMaxBoardDimensionExceeded
		}
	}

	return &State{
		Board:      b,
		Players:    make(map[string]PlayerRecord),
		MaxPlayers: opts.MaxPlayers,
	}, nil
}

// clonePlayers returns a shallow copy of a player map, so transitions
// never mutate the map backing an earlier State.
func clonePlayers(players map[string]PlayerRecord) map[string]PlayerRecord {
	out := make(map[string]PlayerRecord, len(players))
	for id, rec := range players {
		out[id] = rec
	}
	return out
}

// withPlayers returns a new State identical to state except for its
// Players map and LastEffects, which are replaced.
func (s *State) withPlayers(players map[string]PlayerRecord, effects Effects) *State {
	return &State{
		Board:       s.Board,
		Players:     players,
		MaxPlayers:  s.MaxPlayers,
		LastEffects: effects,
	}
}

// SpawnPlayer places a new player on a random walkable cell. Fails
// with ErrMaxPlayers if state is already at capacity, or
// ErrAlreadySpawned if playerID is already present.
func SpawnPlayer(state *State, playerID string, rng *rand.Rand) (*State, error) {
	if _, exists := state.Players[playerID]; exists {
		return nil, ErrAlreadySpawned
	}
	if state.MaxPlayers != 0 && len(state.Players) >= state.MaxPlayers {
		return nil, ErrMaxPlayers
	}

	pos, err := state.Board.RandomWalkable(rng)
	if err != nil {
		return nil, err
	}

	players := clonePlayers(state.Players)
	players[playerID] = PlayerRecord{Position: pos, Status: Alive}
	return state.withPlayers(players, Effects{}), nil
}

// RespawnPlayer moves an existing player to a new random walkable
// cell and marks them alive. Fails with ErrInvalidPlayer if playerID
// is not present.
func RespawnPlayer(state *State, playerID string, rng *rand.Rand) (*State, error) {
	if _, exists := state.Players[playerID]; !exists {
		return nil, ErrInvalidPlayer
	}

	pos, err := state.Board.RandomWalkable(rng)
	if err != nil {
		return nil, err
	}

	players := clonePlayers(state.Players)
	players[playerID] = PlayerRecord{Position: pos, Status: Alive}
	return state.withPlayers(players, Effects{}), nil
}

// MovePlayer checks, in order: the player exists, the player is
// alive, the destination is walkable, and the destination is
// reachable (a 4-connected neighbor, or the player's current cell,
// which is accepted as a no-op). Multiple players may share a cell.
func MovePlayer(state *State, playerID string, destination board.Coordinate) (*State, error) {
	rec, exists := state.Players[playerID]
	if !exists {
		return nil, ErrInvalidPlayer
	}
	if rec.Status == Dead {
		return nil, ErrDeadPlayer
	}
	if !state.Board.Walkable(destination) {
		return nil, ErrUnwalkableDestination
	}
	if !board.Neighbors(rec.Position, destination) {
		return nil, ErrUnreachableDestination
	}

	players := clonePlayers(state.Players)
	rec.Position = destination
	players[playerID] = rec
	return state.withPlayers(players, Effects{}), nil
}

// PlayerAttack kills every other player within the 8-connected 3x3
// blast radius of the attacker's cell. The attacker is never
// self-affected, and already-dead victims stay dead (and are not
// reported as newly killed). Fails with ErrInvalidPlayer or
// ErrDeadPlayer before any effect is computed.
func PlayerAttack(state *State, playerID string) (*State, error) {
	attacker, exists := state.Players[playerID]
	if !exists {
		return nil, ErrInvalidPlayer
	}
	if attacker.Status == Dead {
		return nil, ErrDeadPlayer
	}

	radius := make(map[board.Coordinate]bool, 9)
	for _, c := range state.Board.BlastRadius(attacker.Position) {
		radius[c] = true
	}

	players := clonePlayers(state.Players)
	var killed []string
	for id, rec := range players {
		if id == playerID {
			continue
		}
		if rec.Status == Dead {
			continue
		}
		if radius[rec.Position] {
			rec.Status = Dead
			players[id] = rec
			killed = append(killed, id)
		}
	}

	return state.withPlayers(players, Effects{Killed: killed}), nil
}

// DropPlayers removes the listed player ids unconditionally. IDs that
// aren't present are silently ignored.
func DropPlayers(state *State, ids []string) *State {
	players := clonePlayers(state.Players)
	for _, id := range ids {
		delete(players, id)
	}
	return state.withPlayers(players, Effects{})
}

// CoalescedCell is one board cell folded together with whichever
// players currently occupy it.
type CoalescedCell struct {
	Kind      board.Cell
	Occupants map[string]PlayerStatus
}

// CoalescedBoard is a board's cell map with every player folded into
// their occupied cell, ready for rendering or broadcast.
type CoalescedBoard map[board.Coordinate]CoalescedCell

// Coalesce folds state's players onto its board's cell map. Every
// walkable cell gets an entry (occupied or not), walls keep a bare
// Wall entry. A player standing on a Wall cell is an invariant
// failure: it should be impossible to reach through MovePlayer or
// SpawnPlayer, and indicates a bug in the caller or this package, not
// a recoverable condition.
func Coalesce(state *State) (CoalescedBoard, error) {
	cellMap := state.Board.CellMap()
	out := make(CoalescedBoard, len(cellMap))
	for coord, cell := range cellMap {
		out[coord] = CoalescedCell{Kind: cell}
	}

	for id, rec := range state.Players {
		cell, ok := out[rec.Position]
		if !ok || cell.Kind == board.Wall {
			return nil, fmt.Errorf("gamestate: invariant violated: player %q occupies non-walkable cell %s", id, rec.Position)
		}
		if cell.Occupants == nil {
			cell.Occupants = make(map[string]PlayerStatus, 1)
		}
		cell.Occupants[id] = rec.Status
		out[rec.Position] = cell
	}

	return out, nil
}
