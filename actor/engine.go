package actor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAskTimeout is returned by Ask when no Reply arrives before the
// deadline.
var ErrAskTimeout = errors.New("actor: ask timed out waiting for reply")

// ErrEngineStopping is returned by callers of Spawn when it yields no
// PID because Shutdown has begun.
var ErrEngineStopping = errors.New("actor: engine is shutting down")

// Engine owns every running actor process and routes messages,
// requests, and liveness notifications between them.
type Engine struct {
	pidCounter uint64
	reqCounter uint64
	monCounter uint64

	mu     sync.RWMutex
	actors map[string]*process

	pendingMu sync.Mutex
	pending   map[string]chan interface{}

	monitorsMu sync.Mutex
	monitors   map[string]map[string]*PID // target PID.ID -> handle id -> watcher
	onStop     map[string][]func()        // target PID.ID -> callbacks

	stopping atomic.Bool
}

// NewEngine creates an empty Engine ready to Spawn actors on.
func NewEngine() *Engine {
	return &Engine{
		actors:   make(map[string]*process),
		pending:  make(map[string]chan interface{}),
		monitors: make(map[string]map[string]*PID),
		onStop:   make(map[string][]func()),
	}
}

func (e *Engine) nextPID(prefix string) *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("%s-%d", prefix, id)}
}

// Spawn starts a new actor from Props and returns its PID. Returns
// nil if the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	return e.spawnNamed("actor", props)
}

// spawnNamed is like Spawn but lets callers pick a PID prefix for
// readability in logs (e.g. "game", "session").
func (e *Engine) spawnNamed(prefix string, props *Props) *PID {
	if e.stopping.Load() {
		return nil
	}

	pid := e.nextPID(prefix)
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()

	return pid
}

// Send delivers message to pid's mailbox without blocking and without
// waiting for a reply. Dropped with a WARN log line if the mailbox is
// full, and silently if the actor no longer exists. A slow or dead
// subscriber must never stall
// the sender.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	e.sendEnvelope(pid, message, sender, "")
}

func (e *Engine) sendEnvelope(pid *PID, message interface{}, sender *PID, requestID string) bool {
	if pid == nil {
		return false
	}
	_, isStopping := message.(Stopping)
	isSystemMsg := isStopping
	if e.stopping.Load() && !isSystemMsg {
		return false
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	proc.sendMessage(message, sender, requestID)
	return true
}

// Ask sends message to pid and blocks the caller until the actor's
// Receive calls ctx.Reply, or timeout elapses. The target actor
// itself is never blocked: Ask is purely a caller-side suspension
// point, per the engine's single-writer-per-actor design.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	id := fmt.Sprintf("ask-%d", atomic.AddUint64(&e.reqCounter, 1))
	ch := make(chan interface{}, 1)

	e.pendingMu.Lock()
	e.pending[id] = ch
	e.pendingMu.Unlock()
	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, id)
		e.pendingMu.Unlock()
	}()

	if !e.sendEnvelope(pid, message, nil, id) {
		return nil, fmt.Errorf("actor: %s not found", pid)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		if err, ok := v.(error); ok {
			return nil, err
		}
		return v, nil
	case <-timer.C:
		return nil, ErrAskTimeout
	}
}

func (e *Engine) reply(requestID string, value interface{}) {
	e.pendingMu.Lock()
	ch, ok := e.pending[requestID]
	e.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- value:
	default:
	}
}

// Monitor arranges for watcher to receive exactly one MonitorDown
// when target's process exits, whatever the cause (graceful Stop,
// panic, or a fatal invariant failure recovered by the process loop).
func (e *Engine) Monitor(watcher, target *PID) *MonitorHandle {
	handle := &MonitorHandle{id: fmt.Sprintf("mon-%d", atomic.AddUint64(&e.monCounter, 1))}

	e.monitorsMu.Lock()
	if e.monitors[target.ID] == nil {
		e.monitors[target.ID] = make(map[string]*PID)
	}
	e.monitors[target.ID][handle.id] = watcher
	e.monitorsMu.Unlock()

	// If the target is already gone, fire immediately instead of
	// leaking a monitor nobody will ever clear.
	e.mu.RLock()
	_, alive := e.actors[target.ID]
	e.mu.RUnlock()
	if !alive {
		e.monitorsMu.Lock()
		// If remove already collected this entry it has sent (or will
		// send) the MonitorDown itself; only fire here if it did not.
		_, pending := e.monitors[target.ID][handle.id]
		delete(e.monitors[target.ID], handle.id)
		if len(e.monitors[target.ID]) == 0 {
			delete(e.monitors, target.ID)
		}
		e.monitorsMu.Unlock()
		if pending {
			e.Send(watcher, MonitorDown{Handle: handle, Who: target}, nil)
		}
	}

	return handle
}

// Demonitor cancels a Monitor before it fires. A no-op if it already
// fired or was never installed.
func (e *Engine) Demonitor(target *PID, handle *MonitorHandle) {
	if target == nil || handle == nil {
		return
	}
	e.monitorsMu.Lock()
	delete(e.monitors[target.ID], handle.id)
	e.monitorsMu.Unlock()
}

// OnStop registers cb to run once, synchronously, when target's
// process terminates. Unlike Monitor this needs no watcher PID/
// mailbox, so it suits non-actor observers like the Fleet registry.
func (e *Engine) OnStop(target *PID, cb func()) {
	e.monitorsMu.Lock()
	e.onStop[target.ID] = append(e.onStop[target.ID], cb)
	e.monitorsMu.Unlock()
}

// Stop requests an orderly shutdown of one actor: it will process its
// Stopping message, run its final cleanup, then Stopped.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return
	}
	proc.requestStop()
}

// remove deregisters pid and fires its monitors/OnStop callbacks. It
// is called by a process's own goroutine as it exits.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()

	e.monitorsMu.Lock()
	watchers := e.monitors[pid.ID]
	delete(e.monitors, pid.ID)
	callbacks := e.onStop[pid.ID]
	delete(e.onStop, pid.ID)
	e.monitorsMu.Unlock()

	for handleID, watcher := range watchers {
		e.Send(watcher, MonitorDown{Handle: &MonitorHandle{id: handleID}, Who: pid}, nil)
	}
	for _, cb := range callbacks {
		cb()
	}
}

// Shutdown stops every live actor and waits up to timeout for them to
// finish terminating.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pids := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()

	for _, pid := range pids {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	e.actors = make(map[string]*process)
	e.mu.Unlock()
}
