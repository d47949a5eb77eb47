package game

import "time"

// Backend is the rendering capability the simulation needs. Any 2D engine that
// can create sprites and report animation lengths satisfies it; the simulation
// never depends on a backend for correctness.
type Backend interface {
	// Sprite creates a hidden sprite with the given texture key at (x, y).
	Sprite(texture string, x, y float64) RenderHandle

	// AnimationDuration returns how long a named animation plays.
	// ok is false for unknown animations.
	AnimationDuration(name string) (d time.Duration, ok bool)
}

// RenderHandle is a backend-owned sprite attached to an actor.
type RenderHandle interface {
	Move(x, y float64)
	SetVisible(visible bool)
	Play(animation string)
	Destroy()
}

// NoopBackend renders nothing. Every animation is unknown, so animation-gated
// transitions complete on the next timer step.
type NoopBackend struct{}

// Sprite returns an inert handle
func (NoopBackend) Sprite(string, float64, float64) RenderHandle { return noopHandle{} }

// AnimationDuration always reports a missing animation
func (NoopBackend) AnimationDuration(string) (time.Duration, bool) { return 0, false }

type noopHandle struct{}

func (noopHandle) Move(float64, float64) {}
func (noopHandle) SetVisible(bool)       {}
func (noopHandle) Play(string)           {}
func (noopHandle) Destroy()              {}

// HostListener receives the two lifecycle notifications the host cares about.
type HostListener interface {
	SceneReady(ev SceneReady)
	GameOver(ev GameOver)
}

// SceneReady is sent once the scene has entered Playing.
type SceneReady struct {
	ContainerID string  `json:"containerId" msgpack:"containerId"`
	Mode        string  `json:"mode" msgpack:"mode"`
	Width       float64 `json:"width" msgpack:"width"`
	Height      float64 `json:"height" msgpack:"height"`
	Breakpoint  string  `json:"breakpoint" msgpack:"breakpoint"`
}

// GameOver is sent exactly once per round when the scene reaches a terminal state.
type GameOver struct {
	ContainerID string    `json:"containerId" msgpack:"containerId"`
	Outcome     string    `json:"outcome" msgpack:"outcome"` // "game_over" or "level_complete"
	FinalScore  int       `json:"finalScore" msgpack:"finalScore"`
	Kills       int       `json:"kills" msgpack:"kills"`
	Mistakes    []Mistake `json:"mistakes,omitempty" msgpack:"mistakes,omitempty"`
}

// ListenerFuncs adapts plain functions to HostListener. Nil fields are skipped.
type ListenerFuncs struct {
	OnReady    func(SceneReady)
	OnGameOver func(GameOver)
}

// SceneReady calls OnReady
func (l ListenerFuncs) SceneReady(ev SceneReady) {
	if l.OnReady != nil {
		l.OnReady(ev)
	}
}

// GameOver calls OnGameOver
func (l ListenerFuncs) GameOver(ev GameOver) {
	if l.OnGameOver != nil {
		l.OnGameOver(ev)
	}
}
