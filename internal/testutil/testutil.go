// Package testutil provides shared test fixtures: recorded logs and
// telemetry frames.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// Frame returns a frame stamped ts with the vehicle at x along the road and
// both eyes looking straight ahead.
func Frame(ts int64, x float32) telemetry.AggregateData {
	d := telemetry.AggregateData{Timestamp: ts, Focus: telemetry.NoHit()}
	d.Ego.VehicleLocation = geom.Vector3{X: x}
	d.Ego.CameraLocationAbs = geom.Vector3{X: x, Z: 120}
	d.Ego.VehicleVelocity = 1000
	for _, e := range []*telemetry.EyeData{&d.EyeTracker.Left.EyeData, &d.EyeTracker.Right.EyeData, &d.EyeTracker.Combined.EyeData} {
		e.GazeDir = geom.Vector3{X: 1}
		e.GazeValid = true
	}
	d.EyeTracker.Left.PupilDiameter = 3
	d.EyeTracker.Right.PupilDiameter = 3
	return d
}

// Tick is one recorded tick: a frame plus the custom actors live on it.
type Tick struct {
	Dt     float64
	Frame  telemetry.AggregateData
	Actors []actor.Snapshot
}

// WriteLog records ticks to name inside dir and returns the log path.
func WriteLog(t testing.TB, dir, name string, ticks ...Tick) string {
	t.Helper()
	path := filepath.Join(dir, name+recorder.FileExtension)
	rec, err := recorder.NewRecorder(path, name)
	require.NoError(t, err)
	for _, tk := range ticks {
		frame := tk.Frame
		require.NoError(t, rec.RecordTick(tk.Dt, &frame, tk.Actors))
	}
	require.NoError(t, rec.Close())
	return path
}

// StraightDrive returns n ticks of dtMs milliseconds with the vehicle moving
// stepX per tick.
func StraightDrive(n int, dtMs int64, stepX float32) []Tick {
	ticks := make([]Tick, n)
	for i := range ticks {
		ticks[i] = Tick{
			Dt:    float64(dtMs) / 1000,
			Frame: Frame(int64(i)*dtMs, float32(i)*stepX),
		}
	}
	return ticks
}
