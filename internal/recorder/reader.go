package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/packet"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

var (
	// ErrUnknownTag is reported for packets this reader has no decoder for.
	ErrUnknownTag = errors.New("unknown packet tag")
	// ErrUnterminated is reported when a frame group ends without FrameEnd.
	ErrUnterminated = errors.New("frame group not terminated")
)

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Reader decodes frame groups from a log. Packets that fail to decode are
// reported through the OnPacketError callback and skipped.
type Reader struct {
	closer io.Closer
	r      *countingReader
	header Header

	onErr   func(*PacketError)
	skipped int

	pending *Frame
	nextID  uint64
	done    bool
}

// Open opens the log at path and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader reads a log header from src and returns a reader positioned at
// the first frame group.
func NewReader(src io.Reader) (*Reader, error) {
	cr := &countingReader{r: bufio.NewReader(src)}
	h, n, err := readHeader(cr.r)
	if err != nil {
		return nil, err
	}
	cr.n = n
	return &Reader{r: cr, header: h}, nil
}

// Header returns the log header.
func (r *Reader) Header() Header { return r.header }

// OnPacketError installs a callback for skipped packets.
func (r *Reader) OnPacketError(fn func(*PacketError)) { r.onErr = fn }

// Skipped returns how many packets have been skipped so far.
func (r *Reader) Skipped() int { return r.skipped }

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) report(off int64, tag packet.Tag, err error) {
	r.skipped++
	pe := &PacketError{Offset: off, Tag: tag, Err: err}
	monitoring.Metrics().PacketSkipped(tag.String())
	monitoring.Logf("[Reader] skipping %v", pe)
	if r.onErr != nil {
		r.onErr(pe)
	}
}

func (r *Reader) newFrame(id uint64) *Frame {
	r.nextID = id + 1
	return &Frame{ID: id}
}

// ReadFrame returns the next frame group. It returns io.EOF when the log is
// exhausted. A trailing group cut short by a crash is still returned if it
// carries telemetry.
func (r *Reader) ReadFrame() (*Frame, error) {
	cur := r.pending
	r.pending = nil
	if r.done {
		return r.finish(cur)
	}

	for {
		off := r.r.n
		h, err := packet.ReadHeader(r.r)
		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				r.report(off, packet.TagInvalid, err)
			}
			return r.finish(cur)
		}

		body, err := packet.ReadBody(r.r, h)
		if err != nil {
			r.report(off, h.Tag, err)
			if !errors.Is(err, packet.ErrPacketTooLarge) || packet.Skip(r.r, h) != nil {
				r.done = true
				return r.finish(cur)
			}
			continue
		}

		switch h.Tag {
		case packet.TagFrameStart:
			next := r.newFrame(r.nextID)
			starts, err := packet.Decode[frameStart](h.Tag, body)
			if err == nil && len(starts) != 1 {
				err = fmt.Errorf("%w: %d frame start records", packet.ErrLengthMismatch, len(starts))
			}
			if err != nil {
				r.report(off, h.Tag, err)
			} else {
				next = r.newFrame(starts[0].ID)
				next.Duration = starts[0].Duration
				next.Elapsed = starts[0].Elapsed
			}
			if cur != nil {
				r.report(off, packet.TagFrameEnd, fmt.Errorf("frame %d: %w", cur.ID, ErrUnterminated))
				r.pending = next
				return cur, nil
			}
			cur = next

		case packet.TagAggregate:
			recs, err := packet.Decode[telemetry.AggregateData](h.Tag, body)
			if err != nil {
				r.report(off, h.Tag, err)
				continue
			}
			if cur == nil {
				cur = r.newFrame(r.nextID)
			}
			if len(recs) > 0 {
				cur.Data = &recs[len(recs)-1]
			}

		case packet.TagCustomActor:
			recs, err := packet.Decode[actor.Snapshot](h.Tag, body)
			if err != nil {
				r.report(off, h.Tag, err)
				continue
			}
			if cur == nil {
				cur = r.newFrame(r.nextID)
			}
			cur.Actors = append(cur.Actors, recs...)

		case packet.TagConfig:
			recs, err := packet.Decode[ConfigSnapshot](h.Tag, body)
			if err != nil {
				r.report(off, h.Tag, err)
				continue
			}
			if cur == nil {
				cur = r.newFrame(r.nextID)
			}
			for _, c := range recs {
				cur.Configs = append(cur.Configs, c.Blob)
			}

		case packet.TagFrameEnd:
			if cur != nil {
				return cur, nil
			}

		default:
			r.report(off, h.Tag, ErrUnknownTag)
		}
	}
}

func (r *Reader) finish(cur *Frame) (*Frame, error) {
	if cur != nil && cur.Data != nil {
		r.report(r.r.n, packet.TagFrameEnd, fmt.Errorf("frame %d: %w", cur.ID, ErrUnterminated))
		return cur, nil
	}
	return nil, io.EOF
}

// Log is a fully loaded log.
type Log struct {
	Path    string
	Header  Header
	Frames  []*Frame
	Skipped []*PacketError
}

// Timestamps returns one simulation timestamp per frame, never decreasing.
// A frame without telemetry takes the timestamp of the nearest earlier frame
// that has it, or of the first such frame when none precedes it. A log with
// no telemetry at all falls back to the recorder's elapsed time.
func (l *Log) Timestamps() []int64 {
	out := make([]int64, len(l.Frames))
	first := -1
	var last int64
	for i, f := range l.Frames {
		if ts, ok := f.Timestamp(); ok {
			if first < 0 {
				first = i
			}
			last = ts
		}
		out[i] = last
	}
	if first < 0 {
		for i, f := range l.Frames {
			out[i] = int64(f.Elapsed * 1000)
		}
		return out
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}

// ReadAll loads every frame group of the log at path.
func ReadAll(path string) (*Log, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	l := &Log{Path: path, Header: r.Header()}
	r.OnPacketError(func(pe *PacketError) { l.Skipped = append(l.Skipped, pe) })
	for {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return l, nil
		}
		if err != nil {
			return nil, err
		}
		l.Frames = append(l.Frames, f)
	}
}

// Summary describes a log without its frames.
type Summary struct {
	Path           string
	Header         Header
	Frames         int
	Duration       float64
	FirstTimestamp int64
	LastTimestamp  int64
	Actors         []string
	Configs        int
	Corrupt        int
}

// Summarize builds the summary of a loaded log.
func Summarize(l *Log) *Summary {
	s := &Summary{Path: l.Path, Header: l.Header, Frames: len(l.Frames), Corrupt: len(l.Skipped)}
	names := make(map[string]bool)
	if ts := l.Timestamps(); len(ts) > 0 {
		s.FirstTimestamp, s.LastTimestamp = ts[0], ts[len(ts)-1]
	}
	for _, f := range l.Frames {
		s.Duration = f.Elapsed
		s.Configs += len(f.Configs)
		for _, a := range f.Actors {
			names[a.Name] = true
		}
	}
	for n := range names {
		s.Actors = append(s.Actors, n)
	}
	sort.Strings(s.Actors)
	return s
}

// Info loads the log at path and summarises it.
func Info(path string) (*Summary, error) {
	l, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	return Summarize(l), nil
}

func (s *Summary) String() string {
	return fmt.Sprintf("%s\n  session:  %s\n  writer:   %s\n  info:     %q\n  frames:   %d\n  duration: %.3fs\n  sim time: %d..%d ms\n  actors:   %v\n  configs:  %d\n  corrupt:  %d",
		s.Path, s.Header.SessionID, s.Header.WriterVersion, s.Header.Info, s.Frames,
		s.Duration, s.FirstTimestamp, s.LastTimestamp, s.Actors, s.Configs, s.Corrupt)
}
