package game

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/davidsulc/nightwatch-mmo/actor"
	"github.com/davidsulc/nightwatch-mmo/gamestate"
)

// subscriberSet is the set of client refs (PlaySession PIDs)
// currently subscribed to one player's frame broadcasts, keyed by
// PID.ID for set semantics, and the live monitor handle watching each
// one.
type subscriberSet map[string]*subscriber

type subscriber struct {
	clientRef *actor.PID
	handle    *actor.MonitorHandle
}

// GameActor is the single authoritative writer of one game's state.
// Grounded on lguibr-pongo's GameActor (game_actor.go,
// game_actor_handlers.go, game_actor_lifecycle.go): request handling,
// subscriber bookkeeping, and deferred respawn scheduling follow the
// same shape as that actor's player-connect/ball-expiry handling,
// generalized from continuous physics to turn-based spawn/move/attack.
type GameActor struct {
	name   string
	config Config
	rng    *rand.Rand

	state *gamestate.State

	// subscribers maps a player id to the set of client refs currently
	// receiving that player's broadcasts.
	subscribers map[string]subscriberSet
	// monitors maps a live monitor handle back to the player id and
	// client ref it watches, so a MonitorDown can be resolved to the
	// subscriber entry it should remove.
	monitors map[*actor.MonitorHandle]monitoredClient

	seqCounter int64
	lastFrame  Frame

	stopped atomic.Bool
}

type monitoredClient struct {
	playerID  string
	clientRef *actor.PID
}

// NewGameActor spawns a GameActor over state and returns its PID, or
// nil if the engine is shutting down.
func NewGameActor(engine *actor.Engine, name string, state *gamestate.State, cfg Config, seed int64) *actor.PID {
	producer := func() actor.Actor {
		return &GameActor{
			name:        name,
			config:      cfg,
			rng:         rand.New(rand.NewSource(seed)),
			state:       state,
			subscribers: make(map[string]subscriberSet),
			monitors:    make(map[*actor.MonitorHandle]monitoredClient),
		}
	}
	return engine.Spawn(actor.NewProps(producer))
}

func (g *GameActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		// nothing to do: state arrives fully constructed from the producer
	case actor.Stopping:
		g.stopped.Store(true)
	case actor.Stopped:
		// fleet unregistration is driven by Engine.OnStop, not by this actor
	case JoinRequest:
		g.handleJoin(ctx, msg)
	case MoveRequest:
		g.handleMove(ctx, msg)
	case AttackRequest:
		g.handleAttack(ctx, msg)
	case respawnTick:
		g.handleRespawnTick(ctx, msg)
	case actor.MonitorDown:
		g.handleMonitorDown(msg.Handle)
	default:
		fmt.Printf("WARN: game %q actor received unrecognized message %T\n", g.name, msg)
	}
}

func (g *GameActor) handleJoin(ctx actor.Context, req JoinRequest) {
	newState, err := gamestate.SpawnPlayer(g.state, req.PlayerID, g.rng)
	switch {
	case err == gamestate.ErrMaxPlayers:
		ctx.Reply(gamestate.ErrMaxPlayers)
		return
	case err == gamestate.ErrAlreadySpawned:
		// soft reconnect: the caller never sees already_spawned.
	case err != nil:
		fmt.Printf("ERROR: game %q: unexpected join failure for %q: %v\n", g.name, req.PlayerID, err)
		ctx.Reply(err)
		return
	default:
		g.state = newState
	}

	g.registerSubscriber(ctx, req.PlayerID, req.ClientRef)
	frame := g.broadcast(ctx)
	ctx.Reply(JoinReply{Frame: frame})
}

func (g *GameActor) handleMove(ctx actor.Context, req MoveRequest) {
	newState, err := gamestate.MovePlayer(g.state, req.PlayerID, req.Destination)
	if err == nil {
		g.state = newState
	}

	g.registerSubscriber(ctx, req.PlayerID, req.ClientRef)
	frame := g.broadcast(ctx)

	if err != nil {
		ctx.Reply(err)
		return
	}
	ctx.Reply(MoveReply{Frame: frame})
}

func (g *GameActor) handleAttack(ctx actor.Context, req AttackRequest) {
	newState, err := gamestate.PlayerAttack(g.state, req.PlayerID)
	if err == nil {
		g.state = newState
	}

	g.registerSubscriber(ctx, req.PlayerID, req.ClientRef)
	frame := g.broadcast(ctx)

	if err != nil {
		ctx.Reply(err)
		return
	}

	if killed := newState.LastEffects.Killed; len(killed) > 0 {
		g.scheduleRespawn(ctx, killed)
	}

	ctx.Reply(AttackReply{Frame: frame})
}

func (g *GameActor) scheduleRespawn(ctx actor.Context, killed []string) {
	self := ctx.Self()
	engine := ctx.Engine()
	ids := append([]string(nil), killed...)
	time.AfterFunc(g.config.RespawnDelay, func() {
		engine.Send(self, respawnTick{IDs: ids}, nil)
	})
}

func (g *GameActor) handleRespawnTick(ctx actor.Context, msg respawnTick) {
	dropped := make(map[string]bool)
	var toDrop []string
	for id, set := range g.subscribers {
		if len(set) == 0 {
			dropped[id] = true
			toDrop = append(toDrop, id)
		}
	}
	var toRespawn []string
	for _, id := range msg.IDs {
		if dropped[id] {
			continue
		}
		if len(g.subscribers[id]) == 0 {
			dropped[id] = true
			toDrop = append(toDrop, id)
		} else {
			toRespawn = append(toRespawn, id)
		}
	}

	if len(toDrop) > 0 {
		g.state = gamestate.DropPlayers(g.state, toDrop)
		for _, id := range toDrop {
			delete(g.subscribers, id)
		}
	}

	for _, id := range toRespawn {
		newState, err := gamestate.RespawnPlayer(g.state, id, g.rng)
		if err != nil {
			continue // invalid_player: already gone, ignore
		}
		g.state = newState
	}

	g.broadcast(ctx)
}

func (g *GameActor) handleMonitorDown(handle *actor.MonitorHandle) {
	// The delivered handle carries the same id as the one Monitor
	// returned but is not necessarily the same pointer, so match on id.
	var key *actor.MonitorHandle
	for h := range g.monitors {
		if h.String() == handle.String() {
			key = h
			break
		}
	}
	info, ok := g.monitors[key]
	if !ok {
		return
	}
	delete(g.monitors, key)

	set := g.subscribers[info.playerID]
	if set != nil {
		delete(set, info.clientRef.String())
	}
	// The set may now be empty; it stays in g.subscribers until the
	// next respawn tick evicts the player, per the lazy-eviction design.
}

// registerSubscriber adds clientRef to playerID's subscriber set if
// it isn't already there, installing a monitor so the GameActor is
// told if that client ever goes away.
func (g *GameActor) registerSubscriber(ctx actor.Context, playerID string, clientRef *actor.PID) {
	if clientRef == nil {
		return
	}
	set := g.subscribers[playerID]
	if set == nil {
		set = make(subscriberSet)
		g.subscribers[playerID] = set
	}
	if _, already := set[clientRef.String()]; already {
		return
	}

	handle := ctx.Engine().Monitor(ctx.Self(), clientRef)
	set[clientRef.String()] = &subscriber{clientRef: clientRef, handle: handle}
	g.monitors[handle] = monitoredClient{playerID: playerID, clientRef: clientRef}
}

// broadcast coalesces the current state into a fresh Frame and
// delivers it to every distinct subscribed client, non-blocking.
func (g *GameActor) broadcast(ctx actor.Context) Frame {
	frame := g.nextFrame()
	g.deliver(ctx.Engine(), ctx.Self(), frame)
	return frame
}

func (g *GameActor) nextFrame() Frame {
	seq := time.Now().UnixNano()
	if seq <= g.seqCounter {
		seq = g.seqCounter + 1
	}
	g.seqCounter = seq

	coalesced, err := gamestate.Coalesce(g.state)
	if err != nil {
		// A corrupt invariant (player on a wall) is fatal to this actor:
		// the fleet won't auto-restart it, and subscribers see the
		// actor die and reconnect.
		panic(fmt.Sprintf("game %q: %v", g.name, err))
	}

	rows, cols := g.state.Board.Dimensions()
	frame := Frame{Sequence: seq, Board: coalesced, Rows: rows, Cols: cols}
	g.lastFrame = frame
	return frame
}

func (g *GameActor) deliver(engine *actor.Engine, self *actor.PID, frame Frame) {
	delivered := make(map[string]bool)
	for _, set := range g.subscribers {
		for id, sub := range set {
			if delivered[id] {
				continue
			}
			delivered[id] = true
			engine.Send(sub.clientRef, frameMsg{Frame: frame}, self)
		}
	}
}
