package game

import (
	"fmt"
	"time"

	"github.com/davidsulc/nightwatch-mmo/actor"
	"github.com/davidsulc/nightwatch-mmo/board"
	"github.com/davidsulc/nightwatch-mmo/gamestate"
	"github.com/davidsulc/nightwatch-mmo/render"
)

// PlaySession is one external caller's view onto a single player in
// one game: it joins on start, tracks the latest frame it has seen,
// and reconnects on the game actor's behalf if that actor dies.
//
// Grounded on the lifecycle bookkeeping of game_actor_lifecycle.go
// (ticker/timer setup and sync.Once-guarded cleanup), generalized
// from a continuously-ticking physics actor to a session that mostly
// waits, on frames pushed by its GameActor, and on its own reconnect
// timer after a monitor-down.
type PlaySession struct {
	engine   *actor.Engine
	fleet    *Fleet
	gameName string
	playerID string
	config   Config

	gameRef       *actor.PID
	monitorHandle *actor.MonitorHandle

	latestSequence int64
	latestFrame    Frame
	viewerPosition board.Coordinate
	viewerStatus   gamestate.PlayerStatus

	reconnectAttempt int
	reconnectTimer   *time.Timer

	startResult chan error
}

// Start resolves gameName via fleet, spawns a session actor, and
// blocks until that session has either completed its initial join or
// failed to. A failed join never leaves a half-started session
// behind: the session actor stops itself and Start returns the error.
func Start(engine *actor.Engine, fleet *Fleet, gameName, playerID string, cfg Config) (*actor.PID, error) {
	session := &PlaySession{
		engine:      engine,
		fleet:       fleet,
		gameName:    gameName,
		playerID:    playerID,
		config:      cfg,
		startResult: make(chan error, 1),
	}

	pid := engine.Spawn(actor.NewProps(func() actor.Actor { return session }))
	if pid == nil {
		return nil, actor.ErrEngineStopping
	}

	if err := <-session.startResult; err != nil {
		return nil, err
	}
	return pid, nil
}

func (s *PlaySession) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		s.handleStart(ctx)
	case actor.Stopping:
		s.cleanup(ctx)
	case actor.Stopped:
		// nothing further to do; cleanup already ran in Stopping
	case frameMsg:
		s.handleFrame(msg.Frame)
	case actor.MonitorDown:
		s.handleGameDown(ctx)
	case reconnectTick:
		s.attemptReconnect(ctx)
	case MoveCmd:
		s.handleMove(ctx, msg)
	case AttackCmd:
		s.handleAttack(ctx)
	case PlayerStateCmd:
		ctx.Reply(PlayerStateReply{Position: s.viewerPosition, Status: s.viewerStatus.String()})
	case GameInfoCmd:
		ctx.Reply(GameInfoReply{Frame: s.latestFrame})
	case RenderCmd:
		pic := render.Picture(s.latestFrame.Board, s.latestFrame.Rows, s.latestFrame.Cols, s.playerID)
		ctx.Reply(RenderReply{Picture: pic})
	default:
		fmt.Printf("WARN: session %s received unrecognized message %T\n", ctx.Self(), msg)
	}
}

func (s *PlaySession) handleStart(ctx actor.Context) {
	gameRef, ok := s.fleet.Whereis(s.gameName)
	if !ok {
		s.fail(ctx, ErrInvalidGame)
		return
	}
	s.gameRef = gameRef

	reply, err := s.engine.Ask(gameRef, JoinRequest{PlayerID: s.playerID, ClientRef: ctx.Self()}, s.config.AskTimeout)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	joinReply := reply.(JoinReply)
	s.applyFrame(joinReply.Frame)
	s.monitorHandle = s.engine.Monitor(ctx.Self(), gameRef)

	s.startResult <- nil
}

func (s *PlaySession) fail(ctx actor.Context, err error) {
	select {
	case s.startResult <- err:
	default:
	}
	ctx.Engine().Stop(ctx.Self())
}

func (s *PlaySession) handleFrame(frame Frame) {
	if frame.Sequence <= s.latestSequence {
		return // stale/out-of-order delivery: silently dropped
	}
	s.applyFrame(frame)
}

// applyFrame stores frame and derives the viewer's position/status by
// scanning it for the session's own player id. If the player isn't
// present in the frame (e.g. evicted), the last known position/status
// is kept rather than cleared.
func (s *PlaySession) applyFrame(frame Frame) {
	s.latestFrame = frame
	s.latestSequence = frame.Sequence

	for coord, cell := range frame.Board {
		if status, present := cell.Occupants[s.playerID]; present {
			s.viewerPosition = coord
			s.viewerStatus = status
			return
		}
	}
}

func (s *PlaySession) handleGameDown(ctx actor.Context) {
	s.monitorHandle = nil
	s.reconnectAttempt = 0
	s.scheduleReconnect(ctx)
}

func (s *PlaySession) scheduleReconnect(ctx actor.Context) {
	self := ctx.Self()
	engine := ctx.Engine()
	s.reconnectTimer = time.AfterFunc(s.config.ReconnectDelay, func() {
		engine.Send(self, reconnectTick{}, nil)
	})
}

func (s *PlaySession) attemptReconnect(ctx actor.Context) {
	s.reconnectAttempt++

	gameRef, ok := s.fleet.Whereis(s.gameName)
	if ok {
		reply, err := s.engine.Ask(gameRef, JoinRequest{PlayerID: s.playerID, ClientRef: ctx.Self()}, s.config.AskTimeout)
		if err == nil {
			s.gameRef = gameRef
			s.applyFrame(reply.(JoinReply).Frame)
			s.monitorHandle = s.engine.Monitor(ctx.Self(), gameRef)
			s.reconnectAttempt = 0
			return
		}
	}

	if s.reconnectAttempt >= s.config.ReconnectAttempts {
		fmt.Printf("ERROR: session %s: exhausted reconnect attempts for game %q, terminating\n", ctx.Self(), s.gameName)
		ctx.Engine().Stop(ctx.Self())
		return
	}

	s.scheduleReconnect(ctx)
}

func (s *PlaySession) handleMove(ctx actor.Context, cmd MoveCmd) {
	dest, err := s.destination(cmd.Dir)
	if err != nil {
		ctx.Reply(err)
		return
	}

	reply, err := s.engine.Ask(s.gameRef, MoveRequest{PlayerID: s.playerID, Destination: dest, ClientRef: ctx.Self()}, s.config.AskTimeout)
	if err != nil {
		ctx.Reply(err)
		return
	}
	ctx.Reply(reply.(MoveReply))
}

func (s *PlaySession) destination(dir Direction) (board.Coordinate, error) {
	pos := s.viewerPosition
	switch dir {
	case Up:
		return board.Coordinate{Row: pos.Row - 1, Col: pos.Col}, nil
	case Down:
		return board.Coordinate{Row: pos.Row + 1, Col: pos.Col}, nil
	case Left:
		return board.Coordinate{Row: pos.Row, Col: pos.Col - 1}, nil
	case Right:
		return board.Coordinate{Row: pos.Row, Col: pos.Col + 1}, nil
	default:
		return board.Coordinate{}, ErrUnknownDirection
	}
}

func (s *PlaySession) handleAttack(ctx actor.Context) {
	reply, err := s.engine.Ask(s.gameRef, AttackRequest{PlayerID: s.playerID, ClientRef: ctx.Self()}, s.config.AskTimeout)
	if err != nil {
		ctx.Reply(err)
		return
	}
	ctx.Reply(reply.(AttackReply))
}

func (s *PlaySession) cleanup(ctx actor.Context) {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	if s.monitorHandle != nil && s.gameRef != nil {
		ctx.Engine().Demonitor(s.gameRef, s.monitorHandle)
	}
}
