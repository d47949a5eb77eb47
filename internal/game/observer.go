package game

import "time"

// Observer receives simulation measurements. The API layer implements it with
// prometheus collectors; the simulation itself never imports a metrics library.
type Observer interface {
	ObserveTick(d time.Duration)
	ObserveSpawn(mode Mode, category Category)
	ObserveKill(mode Mode)
	ObservePoolExhausted(pool string)
	ObserveAnswer(mode Mode, correct bool)
	ObserveFinish(mode Mode, outcome string)
	ObserveSessions(n int)
}

// NoopObserver discards every measurement
type NoopObserver struct{}

func (NoopObserver) ObserveTick(time.Duration)        {}
func (NoopObserver) ObserveSpawn(Mode, Category)      {}
func (NoopObserver) ObserveKill(Mode)                 {}
func (NoopObserver) ObservePoolExhausted(string)      {}
func (NoopObserver) ObserveAnswer(Mode, bool)         {}
func (NoopObserver) ObserveFinish(Mode, string)       {}
func (NoopObserver) ObserveSessions(int)              {}
