package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidsulc/nightwatch-mmo/actor"
	"github.com/davidsulc/nightwatch-mmo/board"
	"github.com/davidsulc/nightwatch-mmo/gamestate"
)

// S6: Frame ordering. A frame delivered with a sequence no greater
// than the one already applied is dropped, leaving viewer position
// and the cached frame untouched.
func TestSession_S6_FrameOrdering_Internal(t *testing.T) {
	engine := actor.NewEngine()
	defer engine.Shutdown(time.Second)
	cfg := FastConfig()

	fleet := NewFleet(0)
	_, err := fleet.New(engine, "arena", gamestate.Options{}, cfg)
	require.NoError(t, err)

	session, err := Start(engine, fleet, "arena", "me", cfg)
	require.NoError(t, err)

	before, err := engine.Ask(session, GameInfoCmd{}, time.Second)
	require.NoError(t, err)
	beforeFrame := before.(GameInfoReply).Frame

	stalePosition, err := engine.Ask(session, PlayerStateCmd{}, time.Second)
	require.NoError(t, err)
	stalePos := stalePosition.(PlayerStateReply).Position

	stale := Frame{
		Sequence: beforeFrame.Sequence - 1,
		Board:    beforeFrame.Board,
		Rows:     beforeFrame.Rows,
		Cols:     beforeFrame.Cols,
	}
	engine.Send(session, frameMsg{Frame: stale}, nil)

	time.Sleep(20 * time.Millisecond)

	after, err := engine.Ask(session, GameInfoCmd{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, beforeFrame.Sequence, after.(GameInfoReply).Frame.Sequence)

	afterPos, err := engine.Ask(session, PlayerStateCmd{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, stalePos, afterPos.(PlayerStateReply).Position)
}

// Broadcast fan-out: every subscriber receives exactly one new frame
// per request, before the next request is processed.
func TestGameActor_BroadcastFanOut(t *testing.T) {
	engine := actor.NewEngine()
	defer engine.Shutdown(time.Second)
	cfg := FastConfig()

	state, err := gamestate.New(gamestate.Options{})
	require.NoError(t, err)
	gamePID := NewGameActor(engine, "fanout", state, cfg, 99)

	type watcher struct {
		pid    *actor.PID
		frames chan Frame
	}
	newWatcher := func() watcher {
		frames := make(chan Frame, 32)
		stub := &frameCollector{frames: frames}
		pid := engine.Spawn(actor.NewProps(func() actor.Actor { return stub }))
		return watcher{pid: pid, frames: frames}
	}

	w1 := newWatcher()
	w2 := newWatcher()

	joinA, err := engine.Ask(gamePID, JoinRequest{PlayerID: "a", ClientRef: w1.pid}, time.Second)
	require.NoError(t, err)
	_, err = engine.Ask(gamePID, JoinRequest{PlayerID: "b", ClientRef: w2.pid}, time.Second)
	require.NoError(t, err)

	var posA board.Coordinate
	for coord, cell := range joinA.(JoinReply).Frame.Board {
		if _, present := cell.Occupants["a"]; present {
			posA = coord
		}
	}

	drain := func(ch chan Frame) {
		for {
			select {
			case <-ch:
			default:
				return
			}
		}
	}
	drain(w1.frames)
	drain(w2.frames)

	_, err = engine.Ask(gamePID, MoveRequest{PlayerID: "a", Destination: posA, ClientRef: w1.pid}, time.Second)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(w1.frames) >= 1 && len(w2.frames) >= 1
	}, time.Second, 5*time.Millisecond)

	f1 := <-w1.frames
	f2 := <-w2.frames
	assert.Equal(t, f1.Sequence, f2.Sequence)
}

type frameCollector struct {
	frames chan Frame
}

func (f *frameCollector) Receive(ctx actor.Context) {
	if msg, ok := ctx.Message().(frameMsg); ok {
		f.frames <- msg.Frame
	}
}
