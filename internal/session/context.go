// Package session owns the record/replay state machine. A Controller holds
// the session Context that capture and the actor registry consult, and
// guarantees that recording and replay never run at the same time.
package session

import (
	"github.com/banshee-data/vrtelemetry/internal/actor"
)

// Context is the state shared by everything that runs on the tick thread:
// whether a replay is driving the scene, and the custom actor arena.
type Context struct {
	replaying bool
	actors    *actor.Registry
}

// NewContext returns a live (not replaying) context whose actors are
// spawned with spawner.
func NewContext(spawner actor.Spawner) *Context {
	return &Context{actors: actor.NewRegistry(spawner)}
}

// Replaying reports whether recorded data is authoritative.
func (c *Context) Replaying() bool { return c.replaying }

// Actors returns the custom actor registry.
func (c *Context) Actors() *actor.Registry { return c.actors }

// State is the controller state.
type State int

const (
	Idle State = iota
	Recording
	ReplayingSync
	ReplayingInterp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case ReplayingSync:
		return "replaying(sync)"
	case ReplayingInterp:
		return "replaying(interp)"
	default:
		return "unknown"
	}
}

// Replaying reports whether s is one of the replay states.
func (s State) Replaying() bool { return s == ReplayingSync || s == ReplayingInterp }
