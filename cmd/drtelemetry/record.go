package main

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/capture"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
	"github.com/banshee-data/vrtelemetry/internal/session"
	"github.com/banshee-data/vrtelemetry/internal/timeutil"
)

type recordOptions struct {
	name     string
	frames   int
	info     string
	realtime bool
	keep     int
}

func (a *app) record(ctx context.Context, opts recordOptions) error {
	if opts.frames <= 0 {
		return fmt.Errorf("-n must be positive, got %d", opts.frames)
	}
	if err := a.logDir.Ensure(); err != nil {
		return err
	}
	path := a.logDir.NextPath("drive", time.Now())
	if opts.name != "" {
		var err error
		if path, err = a.logDir.Resolve(opts.name); err != nil {
			return err
		}
	}

	var cat session.Cataloguer
	c, err := a.openCatalog()
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
		cat = c
	}

	dt := a.cfg.GetTickInterval().Seconds()
	var eyes capture.EyeTracker
	if a.cfg.GetSyntheticEyeTracker() {
		eyes = capture.NewSyntheticEyeTracker(float32(a.cfg.GetSyntheticIPD()), float32(a.cfg.GetSyntheticFixation()))
	}

	vehicle := capture.NewSyntheticVehicle(driveSpeed)
	ctrl := session.NewController(session.Options{
		Config: a.cfg,
		Sources: capture.Sources{
			Eyes:    eyes,
			Vehicle: vehicle,
			Focus:   signs(driveSpeed * dt * float64(opts.frames+1) * 1.5),
			Inputs:  vehicle,
		},
		Spawner: actor.NewHeadlessSpawner(),
		Catalog: cat,
	})
	sc, err := newScene(vehicle, ctrl.Context().Actors())
	if err != nil {
		return err
	}

	if hub := a.serve(ctx, c); hub != nil {
		defer hub.Close()
		ctrl.AddObserver(hub)
	}

	if err := ctrl.StartRecording(path, opts.info); err != nil {
		return err
	}
	ticks := 0
	if opts.realtime {
		err = ctrl.Run(ctx, timeutil.RealClock{}, func(*session.Controller) bool {
			ticks++
			sc.step(dt)
			return ticks >= opts.frames
		})
	} else {
		for ; ticks < opts.frames && ctx.Err() == nil; ticks++ {
			if err = ctrl.Tick(dt); err != nil {
				break
			}
			sc.step(dt)
		}
	}
	if stopErr := ctrl.StopRecording(context.Background()); err == nil {
		err = stopErr
	}
	if err != nil && ctx.Err() == nil {
		return err
	}

	summary, err := recorder.Info(path)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, summary)

	if opts.keep > 0 {
		removed, err := a.logDir.Prune(opts.keep)
		if err != nil {
			return err
		}
		for _, p := range removed {
			fmt.Fprintf(a.out, "pruned %s\n", p)
		}
	}
	return nil
}
