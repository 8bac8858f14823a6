package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/davidsulc/nightwatch-mmo/actor"
	"github.com/davidsulc/nightwatch-mmo/gamestate"
)

// Fleet is the process-wide registry of running games, keyed by a
// unique name. It mediates only creation and name lookup; once a
// GameActor is running, the Fleet never touches its state again.
//
// Grounded on RoomManagerActor (room_manager.go) for the
// duplicate-name/cap-check/spawn sequence, and on
// astrosteveo-fleetforge's DefaultCellManager (mutex-guarded map,
// not-found/already-exists errors) for the plain-struct shape: no
// dedicated process is needed for an index this simple.
type Fleet struct {
	mu       sync.RWMutex
	games    map[string]*actor.PID
	maxGames int
}

// NewFleet creates an empty Fleet. maxGames of 0 means unbounded.
func NewFleet(maxGames int) *Fleet {
	return &Fleet{
		games:    make(map[string]*actor.PID),
		maxGames: maxGames,
	}
}

// New starts a new GameActor and registers it under name. Fails with
// ErrMaxGames if the fleet is at capacity, ErrNameTaken if name is
// already registered, or whatever construction error gamestate.New
// returns for opts. The GameActor is automatically unregistered when
// it terminates, for any reason.
func (f *Fleet) New(engine *actor.Engine, name string, opts gamestate.Options, cfg Config) (*actor.PID, error) {
	f.mu.Lock()
	if f.maxGames != 0 && len(f.games) >= f.maxGames {
		f.mu.Unlock()
		return nil, ErrMaxGames
	}
	if _, exists := f.games[name]; exists {
		f.mu.Unlock()
		return nil, ErrNameTaken
	}
	f.games[name] = nil // reserve the name while construction proceeds
	f.mu.Unlock()

	release := func() {
		f.mu.Lock()
		delete(f.games, name)
		f.mu.Unlock()
	}

	state, err := gamestate.New(opts)
	if err != nil {
		release()
		return nil, err
	}

	pid := NewGameActor(engine, name, state, cfg, time.Now().UnixNano()^int64(rand.Int()))
	if pid == nil {
		release()
		return nil, actor.ErrEngineStopping
	}

	f.mu.Lock()
	f.games[name] = pid
	f.mu.Unlock()

	engine.OnStop(pid, func() {
		f.mu.Lock()
		if f.games[name] == pid {
			delete(f.games, name)
		}
		f.mu.Unlock()
	})

	return pid, nil
}

// Whereis returns the PID registered under name, or false if no game
// is registered under it (either never created, or already
// terminated).
func (f *Fleet) Whereis(name string) (*actor.PID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	pid, ok := f.games[name]
	if !ok || pid == nil {
		return nil, false
	}
	return pid, true
}
