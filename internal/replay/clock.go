// Package replay turns a recorded sequence of frame timestamps and transport
// commands into the position that should be presented on each tick.
package replay

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/vrtelemetry/internal/config"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
)

var (
	// ErrSpeedLocked is returned for speed changes in sync mode, where one
	// log frame is presented per tick and there is no time axis to rescale.
	ErrSpeedLocked = errors.New("speed is fixed in sync replay")
	// ErrSeekOutOfRange is returned when a seek would leave the log.
	ErrSeekOutOfRange = errors.New("seek outside log bounds")
	// ErrNoFrames is returned for a log with no frames.
	ErrNoFrames = errors.New("log has no frames")
)

// Mode selects how frames are presented.
type Mode int

const (
	// Sync presents exactly one log frame per tick.
	Sync Mode = iota
	// Interp advances a continuous log time and interpolates between the
	// frames either side of it.
	Interp
)

func (m Mode) String() string {
	if m == Interp {
		return "interp"
	}
	return "sync"
}

// Options configures a Clock. It is fixed for the life of one replay.
type Options struct {
	Mode      Mode
	MinSpeed  float64
	MaxSpeed  float64
	SpeedStep float64
	SeekStep  time.Duration
}

// OptionsFromConfig reads the replay settings from cfg.
func OptionsFromConfig(cfg *config.ReplayConfig) Options {
	mode := Sync
	if cfg.GetInterpolation() {
		mode = Interp
	}
	return Options{
		Mode:      mode,
		MinSpeed:  cfg.GetMinSpeed(),
		MaxSpeed:  cfg.GetMaxSpeed(),
		SpeedStep: cfg.GetSpeedStep(),
		SeekStep:  cfg.GetSeekStep(),
	}
}

// Position selects what to present: frame Old interpolated towards frame New
// by Fraction. In sync mode Old and New are the same frame.
type Position struct {
	Old      int
	New      int
	Fraction float64
}

// Clock is the replay transport. It is driven from the tick thread only.
type Clock struct {
	opts  Options
	times []float64 // frame times in seconds

	now      float64
	index    int
	factor   float64
	paused   bool
	finished bool

	// hold presents the current position once without advancing, after
	// a start, seek or restart.
	hold    bool
	pending *Position
}

// NewClock returns a clock over frames stamped with timestamps in
// milliseconds. Timestamps must not decrease.
func NewClock(timestamps []int64, opts Options) (*Clock, error) {
	if len(timestamps) == 0 {
		return nil, ErrNoFrames
	}
	times := make([]float64, len(timestamps))
	for i, ts := range timestamps {
		times[i] = float64(ts) / 1000
		if i > 0 && times[i] < times[i-1] {
			return nil, fmt.Errorf("frame %d timestamp %dms precedes frame %d", i, ts, i-1)
		}
	}
	if opts.MaxSpeed < opts.MinSpeed {
		return nil, fmt.Errorf("max speed %g below min speed %g", opts.MaxSpeed, opts.MinSpeed)
	}

	c := &Clock{opts: opts, times: times, now: times[0], factor: 1, hold: true}
	c.factor = c.clamp(1)
	monitoring.Metrics().SetTimeFactor(c.factor)
	return c, nil
}

func (c *Clock) Mode() Mode          { return c.opts.Mode }
func (c *Clock) Paused() bool        { return c.paused }
func (c *Clock) Finished() bool      { return c.finished }
func (c *Clock) TimeFactor() float64 { return c.factor }
func (c *Clock) Frames() int         { return len(c.times) }

// Time returns the current log time in seconds since the first frame.
func (c *Clock) Time() float64 { return c.now - c.times[0] }

// Duration returns the log length in seconds.
func (c *Clock) Duration() float64 { return c.times[len(c.times)-1] - c.times[0] }

func (c *Clock) last() int { return len(c.times) - 1 }

// Advance moves the clock forward by one tick of dt seconds and returns the
// position to present. Sync mode ignores dt and steps one frame.
func (c *Clock) Advance(dt float64) Position {
	if c.pending != nil {
		p := *c.pending
		c.pending = nil
		c.hold = false
		return p
	}
	if c.hold || c.paused || c.finished {
		c.hold = false
		return c.Position()
	}

	switch c.opts.Mode {
	case Sync:
		if c.index < c.last() {
			c.index++
			c.now = c.times[c.index]
		}
	case Interp:
		c.now = math.Min(c.now+dt*c.factor, c.times[c.last()])
		c.index = c.bracket(c.now)
	}
	if c.atEnd() {
		c.finish()
	}
	return c.Position()
}

func (c *Clock) atEnd() bool {
	if c.opts.Mode == Sync {
		return c.index == c.last()
	}
	return c.now >= c.times[c.last()]
}

func (c *Clock) finish() {
	if !c.finished {
		monitoring.Logf("[Replay] reached end of log at %.3fs", c.Time())
	}
	c.finished = true
	c.paused = true
}

// bracket returns the index of the last frame at or before t.
func (c *Clock) bracket(t float64) int {
	i := sort.Search(len(c.times), func(i int) bool { return c.times[i] > t })
	if i == 0 {
		return 0
	}
	return i - 1
}

// Position returns the current position without advancing.
func (c *Clock) Position() Position {
	if c.opts.Mode == Sync || c.index >= c.last() {
		return Position{Old: c.index, New: c.index}
	}
	old, next := c.index, c.index+1
	span := c.times[next] - c.times[old]
	if span <= 0 || c.now <= c.times[old] {
		return Position{Old: old, New: next}
	}
	return Position{Old: old, New: next, Fraction: math.Min((c.now-c.times[old])/span, 1)}
}

// TogglePause flips the paused flag and returns the new value. Resuming a
// finished replay keeps it parked on the last frame.
func (c *Clock) TogglePause() bool {
	c.paused = !c.paused
	if c.finished {
		c.paused = true
	}
	return c.paused
}

// SpeedUp raises the time factor by one step.
func (c *Clock) SpeedUp() (float64, error) {
	return c.changeSpeed("speed_up", c.factor+c.opts.SpeedStep)
}

// SpeedDown lowers the time factor by one step.
func (c *Clock) SpeedDown() (float64, error) {
	return c.changeSpeed("speed_down", c.factor-c.opts.SpeedStep)
}

// SetTimeFactor sets the time factor directly, clamped to the configured
// range.
func (c *Clock) SetTimeFactor(f float64) (float64, error) {
	return c.changeSpeed("set_speed", f)
}

func (c *Clock) changeSpeed(cmd string, f float64) (float64, error) {
	if c.opts.Mode == Sync {
		monitoring.Logf("[Replay] %s rejected: %v", cmd, ErrSpeedLocked)
		monitoring.Metrics().CommandRejected(cmd)
		return c.factor, ErrSpeedLocked
	}
	c.factor = c.clamp(f)
	monitoring.Metrics().SetTimeFactor(c.factor)
	return c.factor, nil
}

// clamp bounds f to the speed range and drops step rounding noise.
func (c *Clock) clamp(f float64) float64 {
	f = math.Round(f*1e6) / 1e6
	return math.Max(c.opts.MinSpeed, math.Min(c.opts.MaxSpeed, f))
}

// Seek moves the log time by delta. A target outside the log is rejected
// and the clock is left where it was.
func (c *Clock) Seek(delta time.Duration) error {
	target := c.now + delta.Seconds()
	first, end := c.times[0], c.times[c.last()]
	if target < first-1e-9 || target > end+1e-9 {
		monitoring.Logf("[Replay] seek %s rejected: %.3fs is outside [0, %.3fs]", delta, target-first, end-first)
		monitoring.Metrics().CommandRejected("seek")
		return fmt.Errorf("%w: %s from %.3fs", ErrSeekOutOfRange, delta, c.Time())
	}
	target = math.Max(first, math.Min(end, target))

	if c.opts.Mode == Sync {
		// Land on the first frame at or after the target.
		c.index = sort.Search(len(c.times), func(i int) bool { return c.times[i] >= target-1e-9 })
		if c.index > c.last() {
			c.index = c.last()
		}
		c.now = c.times[c.index]
	} else {
		c.now = target
		c.index = c.bracket(target)
	}
	c.unfinish()
	return nil
}

// SeekForward and SeekBackward seek by the configured step.
func (c *Clock) SeekForward() error  { return c.Seek(c.opts.SeekStep) }
func (c *Clock) SeekBackward() error { return c.Seek(-c.opts.SeekStep) }

// Restart rewinds to the first frame and resumes playback.
func (c *Clock) Restart() {
	c.index = 0
	c.now = c.times[0]
	c.paused = false
	c.finished = false
	c.hold = true
	c.pending = nil
}

// SetPosition makes the next Advance present frame index interpolated
// towards the following frame by fraction, exactly. Playback continues from
// there.
func (c *Clock) SetPosition(index int, fraction float64) error {
	if index < 0 || index > c.last() {
		return fmt.Errorf("%w: frame %d of %d", ErrSeekOutOfRange, index, len(c.times))
	}
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return fmt.Errorf("%w: fraction %g", ErrSeekOutOfRange, fraction)
	}
	next := min(index+1, c.last())
	p := Position{Old: index, New: next, Fraction: fraction}
	if next == index {
		p.Fraction = 0
	}

	c.index = index
	c.now = c.times[index] + (c.times[next]-c.times[index])*p.Fraction
	if c.opts.Mode == Sync {
		p = Position{Old: index, New: index}
		c.now = c.times[index]
	}
	c.unfinish()
	c.pending = &p
	return nil
}

func (c *Clock) unfinish() {
	if c.finished {
		c.finished = false
		c.paused = false
	}
	c.hold = true
}
