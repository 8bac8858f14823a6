package game

import "time"

// Config holds the tunables of the fleet/game/session layer. This
// package reads the delay, attempt and timeout fields; MaxGames,
// MaxPlayers and MaxBoardDimension are not read here, and the caps
// that take effect are the ones passed to NewFleet and in
// gamestate.Options. Grounded on lguibr-pongo's utils.Config/DefaultConfig/FastGameConfig
// split between a production-shaped default and a short-delay variant
// for tests.
type Config struct {
	MaxGames          int
	MaxPlayers        int
	MaxBoardDimension int

	RespawnDelay      time.Duration
	ReconnectDelay    time.Duration
	ReconnectAttempts int

	AskTimeout time.Duration
}

// DefaultConfig returns production defaults: a 5s respawn delay, a
// 100ms reconnect delay, 3 reconnect attempts, no caps on games,
// players, or board dimension.
func DefaultConfig() Config {
	return Config{
		RespawnDelay:      5 * time.Second,
		ReconnectDelay:    100 * time.Millisecond,
		ReconnectAttempts: 3,
		AskTimeout:        5 * time.Second,
	}
}

// FastConfig returns a Config with a 100ms respawn delay and
// millisecond-scale reconnect timing, for tests that can't afford to
// wait on production-sized timers.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.RespawnDelay = 100 * time.Millisecond
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.AskTimeout = time.Second
	return cfg
}
