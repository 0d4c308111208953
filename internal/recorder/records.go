package recorder

import (
	"fmt"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/packet"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// frameStart opens a frame group. Times are in seconds.
type frameStart struct {
	ID       uint64
	Duration float64
	Elapsed  float64
}

func (f *frameStart) Encode(e *packet.Encoder) {
	e.Uint64(f.ID)
	e.Float64(f.Duration)
	e.Float64(f.Elapsed)
}

func (f *frameStart) Decode(d *packet.Decoder) {
	f.ID = d.Uint64()
	f.Duration = d.Float64()
	f.Elapsed = d.Float64()
}

// frameEnd closes a frame group. Its packet carries no records.
type frameEnd struct{}

func (*frameEnd) Encode(*packet.Encoder) {}
func (*frameEnd) Decode(*packet.Decoder) {}

// ConfigSnapshot is an opaque configuration blob captured during recording
// and handed back to the config loader on replay.
type ConfigSnapshot struct {
	Blob []byte
}

func (c *ConfigSnapshot) Encode(e *packet.Encoder) { e.Blob(c.Blob) }
func (c *ConfigSnapshot) Decode(d *packet.Decoder) { c.Blob = d.Blob() }

// Frame is one decoded frame group.
type Frame struct {
	ID       uint64
	Elapsed  float64
	Duration float64
	Data     *telemetry.AggregateData
	Actors   []actor.Snapshot
	Configs  [][]byte
}

// Timestamp returns the simulation timestamp of the frame in milliseconds
// and whether the frame carries telemetry. Use Log.Timestamps for a
// sequence that covers frames whose telemetry was lost.
func (f *Frame) Timestamp() (int64, bool) {
	if f.Data != nil {
		return f.Data.Timestamp, true
	}
	return 0, false
}

// Actor returns the snapshot for the named custom actor.
func (f *Frame) Actor(name string) (*actor.Snapshot, bool) {
	for i := range f.Actors {
		if f.Actors[i].Name == name {
			return &f.Actors[i], true
		}
	}
	return nil, false
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame %d: elapsed=%.3fs dt=%.4fs actors=%d configs=%d",
		f.ID, f.Elapsed, f.Duration, len(f.Actors), len(f.Configs))
}

// PacketError reports a packet the reader had to skip. Offset is the file
// offset of the packet header.
type PacketError struct {
	Offset int64
	Tag    packet.Tag
	Err    error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("packet %s at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *PacketError) Unwrap() error { return e.Err }
