// Package actor is a small single-writer actor runtime: one goroutine
// and one mailbox per actor, request/reply via Ask, and liveness
// notification via Monitor/OnStop.
//
// This is the adapted descendant of lguibr-pongo's bollywood
// package. That repo's own code (room_manager.go,
// game_actor_physics.go, and its tests) already calls
// engine.Ask(pid, msg, timeout) and ctx.RequestID()/ctx.Reply(...)
// against an engine whose checked-in source never implements them.
// This package is that missing implementation, generalized for a
// request/reply-heavy protocol instead of a fire-and-forget one.
package actor

// Actor processes messages sequentially from its mailbox.
type Actor interface {
	// Receive handles one message. Called from the actor's own
	// goroutine; never concurrently with itself.
	Receive(ctx Context)
}

// Producer creates a fresh Actor instance for a newly spawned process.
type Producer func() Actor

// Props configures how an actor is produced.
type Props struct {
	producer Producer
}

// NewProps wraps a Producer for use with Engine.Spawn.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("actor: producer cannot be nil")
	}
	return &Props{producer: producer}
}

func (p *Props) produce() Actor { return p.producer() }
