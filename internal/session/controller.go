package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/capture"
	"github.com/banshee-data/vrtelemetry/internal/config"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
	"github.com/banshee-data/vrtelemetry/internal/replay"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
	"github.com/banshee-data/vrtelemetry/internal/timeutil"
)

var (
	// ErrBusy is returned when a session is started while another is active.
	ErrBusy = errors.New("another session is active")
	// ErrNotActive is returned for commands that need a session which is
	// not running, such as seeking while idle.
	ErrNotActive = errors.New("no matching session is active")
)

// ConfigLoader applies a configuration blob recorded in the log.
type ConfigLoader func(blob []byte) error

// Observer receives every frame the controller presents or captures.
type Observer interface {
	Publish(frame *telemetry.AggregateData)
}

// Cataloguer registers finished recordings.
type Cataloguer interface {
	Register(ctx context.Context, s *recorder.Summary) error
}

// Options configures a Controller. Only Spawner is required.
type Options struct {
	Config       *config.ReplayConfig
	Sources      capture.Sources
	Spawner      actor.Spawner
	ConfigLoader ConfigLoader
	Catalog      Cataloguer
}

// Controller drives capture, recording and replay from the tick thread.
type Controller struct {
	ctx     *Context
	sensor  *capture.Sensor
	cfg     *config.ReplayConfig
	loader  ConfigLoader
	catalog Cataloguer

	observers []Observer

	state     State
	simMillis float64

	rec *recorder.Recorder

	log          *recorder.Log
	clock        *replay.Clock
	replayActors map[string]bool
	configCursor int
}

// NewController returns an idle controller.
func NewController(opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyReplayConfig()
	}
	spawner := opts.Spawner
	if spawner == nil {
		spawner = actor.NewHeadlessSpawner()
	}
	return &Controller{
		ctx:     NewContext(spawner),
		sensor:  capture.NewSensor(opts.Sources),
		cfg:     cfg,
		loader:  opts.ConfigLoader,
		catalog: opts.Catalog,
	}
}

func (c *Controller) State() State                 { return c.state }
func (c *Controller) Context() *Context            { return c.ctx }
func (c *Controller) Sensor() *capture.Sensor      { return c.sensor }
func (c *Controller) Clock() *replay.Clock         { return c.clock }
func (c *Controller) Recorder() *recorder.Recorder { return c.rec }

// Log returns the log being replayed, or nil.
func (c *Controller) Log() *recorder.Log { return c.log }

// AddObserver registers o for every presented frame.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Finished reports whether the replay has reached the end of its log.
func (c *Controller) Finished() bool {
	return c.clock != nil && c.clock.Finished()
}

func (c *Controller) reject(cmd string, err error) error {
	monitoring.Logf("[Session] %s rejected in state %s: %v", cmd, c.state, err)
	monitoring.Metrics().CommandRejected(cmd)
	return fmt.Errorf("%s: %w", cmd, err)
}

// StartRecording opens a new log at path. The current configuration is
// stored as the first config snapshot.
func (c *Controller) StartRecording(path, info string) error {
	if c.state != Idle {
		return c.reject("start_recording", ErrBusy)
	}
	rec, err := recorder.NewRecorder(path, info)
	if err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	blob, err := c.cfg.Marshal()
	if err == nil {
		err = rec.RecordConfig(blob)
	}
	if err != nil {
		rec.Close()
		return fmt.Errorf("start recording: %w", err)
	}

	c.rec = rec
	c.state = Recording
	monitoring.Logf("[Session] recording to %s", path)
	return nil
}

// StopRecording flushes and closes the log, then registers it with the
// catalogue if one is configured.
func (c *Controller) StopRecording(ctx context.Context) error {
	if c.state != Recording {
		return c.reject("stop_recording", ErrNotActive)
	}
	rec := c.rec
	c.rec = nil
	c.state = Idle

	if err := rec.Close(); err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	if c.catalog == nil {
		return nil
	}
	summary, err := recorder.Info(rec.Path())
	if err != nil {
		return fmt.Errorf("summarise %s: %w", rec.Path(), err)
	}
	if err := c.catalog.Register(ctx, summary); err != nil {
		return fmt.Errorf("catalogue %s: %w", rec.Path(), err)
	}
	return nil
}

// StartReplay loads the log at path and starts presenting it. A missing or
// unreadable log fails the whole replay and leaves the controller idle.
func (c *Controller) StartReplay(path string) error {
	if c.state != Idle {
		return c.reject("start_replay", ErrBusy)
	}
	log, err := recorder.ReadAll(path)
	if err != nil {
		return fmt.Errorf("start replay: %w", err)
	}
	clock, err := replay.NewClock(log.Timestamps(), replay.OptionsFromConfig(c.cfg))
	if err != nil {
		return fmt.Errorf("start replay %s: %w", path, err)
	}

	c.log = log
	c.clock = clock
	c.replayActors = make(map[string]bool)
	c.configCursor = 0
	c.ctx.replaying = true
	c.state = ReplayingSync
	if clock.Mode() == replay.Interp {
		c.state = ReplayingInterp
	}
	monitoring.Logf("[Session] replaying %s (%d frames, %d skipped packets, %s)",
		path, len(log.Frames), len(log.Skipped), clock.Mode())
	return nil
}

// StopReplay hides every actor the replay brought in and returns to live
// capture.
func (c *Controller) StopReplay() error {
	if !c.state.Replaying() {
		return c.reject("stop_replay", ErrNotActive)
	}
	for name := range c.replayActors {
		if a, ok := c.ctx.actors.Lookup(name); ok {
			a.Deactivate()
		}
	}
	c.replayActors = nil
	c.log = nil
	c.clock = nil
	c.ctx.replaying = false
	c.state = Idle
	monitoring.Logf("[Session] replay stopped")
	return nil
}

// Tick runs one simulation tick of dt seconds.
func (c *Controller) Tick(dt float64) error {
	c.simMillis += dt * 1000
	now := int64(math.Round(c.simMillis))

	// Capture is refused by the sensor itself while replaying.
	c.sensor.Tick(c.ctx, now)

	if c.state.Replaying() {
		c.present(c.clock.Advance(dt))
		c.ctx.actors.Tick(true)
		monitoring.Metrics().FrameReplayed()
		c.publish()
		return nil
	}

	c.ctx.actors.Tick(false)
	if c.state == Recording {
		if err := c.rec.RecordTick(dt, c.sensor.Data(), c.ctx.actors.Snapshots()); err != nil {
			return fmt.Errorf("record tick: %w", err)
		}
	}
	c.publish()
	return nil
}

func (c *Controller) publish() {
	for _, o := range c.observers {
		o.Publish(c.sensor.Data())
	}
}

// present installs the frame selected by pos: telemetry, custom actors and
// any config snapshots not yet applied.
func (c *Controller) present(pos replay.Position) {
	older, newer := c.log.Frames[pos.Old], c.log.Frames[pos.New]
	interp := c.state == ReplayingInterp && pos.Old != pos.New

	switch {
	case newer.Data == nil:
	case interp && older.Data != nil:
		c.sensor.Present(telemetry.Interpolate(older.Data, newer.Data, pos.Fraction))
	default:
		c.sensor.Present(*newer.Data)
	}

	seen := make(map[string]bool, len(newer.Actors))
	for _, s := range newer.Actors {
		var prev *actor.Snapshot
		if interp {
			prev, _ = older.Actor(s.Name)
		}
		if _, err := c.ctx.actors.Replay(prev, s, pos.Fraction); err != nil {
			monitoring.Logf("[Session] replay actor %q: %v", s.Name, err)
			continue
		}
		seen[s.Name] = true
		c.replayActors[s.Name] = true
	}
	for name := range c.replayActors {
		if seen[name] {
			continue
		}
		if a, ok := c.ctx.actors.Lookup(name); ok {
			a.Deactivate()
		}
		delete(c.replayActors, name)
	}

	// While interpolating the newer frame is only partly presented, so its
	// snapshots wait until the clock reaches it.
	upto := pos.New
	if interp && pos.Fraction < 1 {
		upto = pos.Old
	}
	for ; c.configCursor <= upto; c.configCursor++ {
		for _, blob := range c.log.Frames[c.configCursor].Configs {
			c.applyConfig(blob)
		}
	}
}

func (c *Controller) applyConfig(blob []byte) {
	if c.loader == nil {
		return
	}
	if err := c.loader(blob); err != nil {
		monitoring.Logf("[Session] config snapshot rejected: %v", err)
	}
}

func (c *Controller) requireReplay(cmd string) error {
	if !c.state.Replaying() {
		return c.reject(cmd, ErrNotActive)
	}
	return nil
}

// TogglePause pauses or resumes the replay and returns the new paused flag.
func (c *Controller) TogglePause() (bool, error) {
	if err := c.requireReplay("toggle_pause"); err != nil {
		return false, err
	}
	return c.clock.TogglePause(), nil
}

// Seek moves the replay by delta.
func (c *Controller) Seek(delta time.Duration) error {
	if err := c.requireReplay("seek"); err != nil {
		return err
	}
	return c.clock.Seek(delta)
}

// SeekForward and SeekBackward seek by the configured step.
func (c *Controller) SeekForward() error  { return c.Seek(c.cfg.GetSeekStep()) }
func (c *Controller) SeekBackward() error { return c.Seek(-c.cfg.GetSeekStep()) }

// SpeedUp raises the replay time factor by one step.
func (c *Controller) SpeedUp() (float64, error) {
	if err := c.requireReplay("speed_up"); err != nil {
		return 0, err
	}
	return c.clock.SpeedUp()
}

// SpeedDown lowers the replay time factor by one step.
func (c *Controller) SpeedDown() (float64, error) {
	if err := c.requireReplay("speed_down"); err != nil {
		return 0, err
	}
	return c.clock.SpeedDown()
}

// SetTimeFactor sets the replay time factor, clamped to the configured
// range. Sync replays refuse with replay.ErrSpeedLocked.
func (c *Controller) SetTimeFactor(f float64) (float64, error) {
	if err := c.requireReplay("set_time_factor"); err != nil {
		return 0, err
	}
	return c.clock.SetTimeFactor(f)
}

// Restart rewinds the replay to its first frame.
func (c *Controller) Restart() error {
	if err := c.requireReplay("restart"); err != nil {
		return err
	}
	c.clock.Restart()
	return nil
}

// SetPosition makes the next tick present frame index interpolated towards
// the following frame by fraction.
func (c *Controller) SetPosition(index int, fraction float64) error {
	if err := c.requireReplay("set_position"); err != nil {
		return err
	}
	return c.clock.SetPosition(index, fraction)
}

// Run ticks the controller at the configured rate until ctx is cancelled,
// a tick fails, or stop returns true after a tick.
func (c *Controller) Run(ctx context.Context, clk timeutil.Clock, stop func(*Controller) bool) error {
	last := clk.Now()
	ticker := clk.NewTicker(c.cfg.GetTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			dt := now.Sub(last).Seconds()
			last = now
			if err := c.Tick(dt); err != nil {
				return err
			}
			if stop != nil && stop(c) {
				return nil
			}
		}
	}
}
