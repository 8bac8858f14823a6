package actor

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// process is the running instance of an actor: its state, mailbox,
// and stop signal.
type process struct {
	engine  *Engine
	pid     *PID
	props   *Props
	actor   Actor
	mailbox chan *messageEnvelope
	stopCh  chan struct{}
	stopped atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, defaultMailboxSize),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) sendMessage(message interface{}, sender *PID, requestID string) {
	_, isStopping := message.(Stopping)
	if p.stopped.Load() && !isStopping {
		return
	}
	envelope := &messageEnvelope{Sender: sender, Message: message, RequestID: requestID}
	select {
	case p.mailbox <- envelope:
	default:
		fmt.Printf("WARN: actor %s mailbox full, dropping message %T\n", p.pid, message)
	}
}

func (p *process) requestStop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopCh)
	}
}

// run is the actor's private goroutine: construct, process Started,
// loop over the mailbox until stopped, then tear down.
func (p *process) run() {
	var stoppingInvoked bool

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("ERROR: actor %s panicked during shutdown: %v\n", p.pid, r)
		}
		p.engine.remove(p.pid)
	}()

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("ERROR: actor %s panicked: %v\nStack trace:\n%s\n", p.pid, r, string(debug.Stack()))
			p.stopped.Store(true)
			if p.actor != nil && !stoppingInvoked {
				p.invokeReceive(Stopping{}, nil, "")
				stoppingInvoked = true
			}
		}
		if p.actor != nil {
			p.invokeReceive(Stopped{}, nil, "")
		}
	}()

	p.actor = p.props.produce()
	if p.actor == nil {
		panic(fmt.Sprintf("actor %s: producer returned nil actor", p.pid))
	}
	p.invokeReceive(Started{}, nil, "")

	for {
		select {
		case <-p.stopCh:
			if !stoppingInvoked {
				p.invokeReceive(Stopping{}, nil, "")
				stoppingInvoked = true
			}
			return

		case envelope := <-p.mailbox:
			if _, ok := envelope.Message.(Stopping); ok {
				p.stopped.Store(true)
				if !stoppingInvoked {
					p.invokeReceive(envelope.Message, envelope.Sender, envelope.RequestID)
					stoppingInvoked = true
				}
				return
			}
			if p.stopped.Load() {
				continue
			}
			p.invokeReceive(envelope.Message, envelope.Sender, envelope.RequestID)
		}
	}
}

func (p *process) invokeReceive(msg interface{}, sender *PID, requestID string) {
	ctx := &context{engine: p.engine, self: p.pid, sender: sender, message: msg, requestID: requestID}
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("ERROR: actor %s panicked handling %T: %v\nStack trace:\n%s\n", p.pid, msg, r, string(debug.Stack()))
			p.requestStop()
		}
	}()
	p.actor.Receive(ctx)
}
