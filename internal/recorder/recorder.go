package recorder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/packet"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
	"github.com/banshee-data/vrtelemetry/internal/version"
)

// Recorder writes frame groups to a log file.
type Recorder struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	header Header

	starts    *packet.Stream[frameStart, *frameStart]
	aggregate *packet.Stream[telemetry.AggregateData, *telemetry.AggregateData]
	actors    *packet.Stream[actor.Snapshot, *actor.Snapshot]
	configs   *packet.Stream[ConfigSnapshot, *ConfigSnapshot]
	ends      *packet.Stream[frameEnd, *frameEnd]

	frameCount uint64
	elapsed    float64

	mu     sync.Mutex
	closed bool
}

// NewRecorder creates the log at path and writes its header. Missing parent
// directories are created. info is free text stored in the header, such as
// the map name.
func NewRecorder(path, info string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	r := &Recorder{
		path: path,
		file: f,
		w:    bufio.NewWriter(f),
		header: Header{
			Version:       FormatVersion,
			SessionID:     uuid.New(),
			WriterVersion: version.String(),
			CreatedMs:     time.Now().UnixMilli(),
			Info:          info,
		},
		starts:    packet.NewStream[frameStart](packet.TagFrameStart),
		aggregate: packet.NewStream[telemetry.AggregateData](packet.TagAggregate),
		actors:    packet.NewStream[actor.Snapshot](packet.TagCustomActor),
		configs:   packet.NewStream[ConfigSnapshot](packet.TagConfig),
		ends:      packet.NewStream[frameEnd](packet.TagFrameEnd),
	}

	var e packet.Encoder
	r.header.encode(&e)
	if err := e.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	if _, err := r.w.Write(e.Bytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	monitoring.Logf("[Recorder] recording %s to %s", r.header.SessionID, path)
	return r, nil
}

// RecordConfig queues a configuration blob for the next frame group.
func (r *Recorder) RecordConfig(blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}
	r.configs.Add(ConfigSnapshot{Blob: append([]byte(nil), blob...)})
	return nil
}

// RecordTick writes one frame group: the tick duration dt in seconds, the
// telemetry frame and the snapshots of every active custom actor.
func (r *Recorder) RecordTick(dt float64, frame *telemetry.AggregateData, actors []actor.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}

	r.elapsed += dt
	r.starts.Add(frameStart{ID: r.frameCount, Duration: dt, Elapsed: r.elapsed})
	if frame != nil {
		r.aggregate.Add(*frame)
	}
	for _, s := range actors {
		r.actors.Add(s)
	}

	// Payload streams with nothing pending are left out of the group; the
	// start and end markers are always written.
	if _, err := r.starts.WriteTo(r.w); err != nil {
		return r.abandon(err)
	}
	if r.aggregate.Len() > 0 {
		if _, err := r.aggregate.WriteTo(r.w); err != nil {
			return r.abandon(err)
		}
	}
	if r.actors.Len() > 0 {
		if _, err := r.actors.WriteTo(r.w); err != nil {
			return r.abandon(err)
		}
	}
	if r.configs.Len() > 0 {
		if _, err := r.configs.WriteTo(r.w); err != nil {
			return r.abandon(err)
		}
	}
	if _, err := r.ends.WriteTo(r.w); err != nil {
		return r.abandon(err)
	}

	r.frameCount++
	monitoring.Metrics().FrameRecorded()
	return nil
}

// abandon drops whatever was queued for the failed group so the next tick
// starts clean.
func (r *Recorder) abandon(err error) error {
	r.starts.Clear()
	r.aggregate.Clear()
	r.actors.Clear()
	r.configs.Clear()
	return fmt.Errorf("failed to write frame %d: %w", r.frameCount, err)
}

// Close flushes buffered packets and syncs the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush log: %w", err)
	}
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to sync log: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close log: %w", err)
	}
	monitoring.Logf("[Recorder] closed %s after %d frames", r.path, r.frameCount)
	return nil
}

// Path returns the log file path.
func (r *Recorder) Path() string {
	return r.path
}

// Header returns the header written at the top of the log.
func (r *Recorder) Header() Header {
	return r.header
}

// FrameCount returns the number of frame groups recorded.
func (r *Recorder) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

// Elapsed returns the recorded duration in seconds.
func (r *Recorder) Elapsed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}
