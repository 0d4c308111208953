package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/config"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/replay"
	"github.com/banshee-data/vrtelemetry/internal/session"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
	"github.com/banshee-data/vrtelemetry/internal/timeutil"
)

type replayOptions struct {
	name  string
	sync  bool
	speed float64
	fast  bool
}

// frameCounter counts presented frames and remembers the last one.
type frameCounter struct {
	n    int
	last telemetry.AggregateData
}

func (c *frameCounter) Publish(d *telemetry.AggregateData) {
	c.n++
	c.last = *d
}

// loadRecordedConfig reports the settings a log was recorded with. The
// replay keeps its own transport settings.
func loadRecordedConfig(blob []byte) error {
	cfg, err := config.LoadReplayConfigBytes(blob)
	if err != nil {
		return err
	}
	monitoring.Logf("[drtelemetry] log recorded at %.0f Hz with interpolation=%v",
		cfg.GetTickRateHz(), cfg.GetInterpolation())
	return nil
}

func (a *app) replay(ctx context.Context, opts replayOptions) error {
	if opts.name == "" {
		return errors.New("replay needs -log")
	}
	path, err := a.logDir.Resolve(opts.name)
	if err != nil {
		return err
	}
	if opts.sync {
		a.cfg.Interpolation = config.Ptr(false)
	}

	cat, err := a.openCatalog()
	if err != nil {
		return err
	}
	if cat != nil {
		defer cat.Close()
	}

	ctrl := session.NewController(session.Options{
		Config:       a.cfg,
		Spawner:      actor.NewHeadlessSpawner(),
		ConfigLoader: loadRecordedConfig,
	})
	counter := &frameCounter{}
	ctrl.AddObserver(counter)
	if hub := a.serve(ctx, cat); hub != nil {
		defer hub.Close()
		ctrl.AddObserver(hub)
	}

	if err := ctrl.StartReplay(path); err != nil {
		return err
	}
	defer ctrl.StopReplay()

	if opts.speed != 1 {
		f, err := ctrl.SetTimeFactor(opts.speed)
		switch {
		case errors.Is(err, replay.ErrSpeedLocked):
			fmt.Fprintf(a.out, "warning: -speed ignored: %v\n", err)
		case err != nil:
			return err
		default:
			fmt.Fprintf(a.out, "time factor %.2f\n", f)
		}
	}

	dt := a.cfg.GetTickInterval().Seconds()
	if opts.fast {
		for !ctrl.Finished() && ctx.Err() == nil {
			if err := ctrl.Tick(dt); err != nil {
				return err
			}
		}
	} else {
		err := ctrl.Run(ctx, timeutil.RealClock{}, (*session.Controller).Finished)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	l := ctrl.Log()
	fmt.Fprintf(a.out, "replayed %s: %d ticks over %d frames (%s, %d corrupt packets skipped)\n",
		path, counter.n, len(l.Frames), ctrl.State(), len(l.Skipped))
	fmt.Fprintf(a.out, "final vehicle location: %s\n", counter.last.VehicleLocation())
	return nil
}
