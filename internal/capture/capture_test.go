package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

type modeFlag bool

func (m modeFlag) Replaying() bool { return bool(m) }

type fixedVehicle telemetry.EgoVariables

func (v fixedVehicle) Ego() telemetry.EgoVariables { return telemetry.EgoVariables(v) }

type fixedInputs telemetry.UserInputs

func (i fixedInputs) Inputs() telemetry.UserInputs { return telemetry.UserInputs(i) }

type flakyEyes struct {
	inner *SyntheticEyeTracker
	drop  bool
}

func (f *flakyEyes) Sample(ms int64) (telemetry.EyeTracker, bool) {
	if f.drop {
		return telemetry.EyeTracker{}, false
	}
	return f.inner.Sample(ms)
}

func TestSyntheticEyeTracker(t *testing.T) {
	eyes := NewSyntheticEyeTracker(6.4, 500)
	s1, ok := eyes.Sample(33)
	require.True(t, ok)
	s2, _ := eyes.Sample(66)

	assert.Equal(t, int64(1), s1.FrameSequence)
	assert.Equal(t, int64(2), s2.FrameSequence)
	assert.Equal(t, int64(66000), s2.TimestampDevice)
	assert.Equal(t, geom.Vector3{Y: -3.2}, s1.Left.GazeOrigin)
	assert.Equal(t, geom.Vector3{Y: 3.2}, s1.Right.GazeOrigin)
	assert.True(t, s1.Left.GazeValid)

	a := geom.ClosestApproach(s1.Left.Ray(), s1.Right.Ray())
	assert.False(t, a.Degenerate)
	assert.InDelta(t, 500, a.Offset.X, 0.01)
	assert.InDelta(t, 0, a.Gap, 0.01)
}

func TestSensorCapture(t *testing.T) {
	ego := telemetry.EgoVariables{
		CameraLocationAbs: geom.Vector3{X: 100, Z: 120},
		VehicleLocation:   geom.Vector3{X: 100},
		VehicleVelocity:   500,
	}
	s := NewSensor(Sources{
		Eyes:    NewSyntheticEyeTracker(6.4, 500),
		Vehicle: fixedVehicle(ego),
		Focus:   Targets{{Name: "cone", Center: geom.Vector3{X: 1100, Z: 120}, Radius: 50}},
		Inputs:  fixedInputs(telemetry.UserInputs{Throttle: 0.5}),
	})

	require.True(t, s.Tick(modeFlag(false), 1000))
	d := s.Data()
	assert.Equal(t, int64(1000), d.Timestamp)
	assert.Equal(t, ego, d.Ego)
	assert.Equal(t, float32(0.5), d.Inputs.Throttle)
	assert.InDelta(t, 0, d.Vergence(), 0.01)
	assert.Equal(t, "cone", d.Focus.ActorName)
	assert.True(t, d.Focus.HitValid)
	assert.InDelta(t, 950, d.Focus.HitDistance, 1e-3)
	assert.InDelta(t, 1050, d.Focus.HitPoint.X, 1e-3)
	assert.InDelta(t, -1, d.Focus.HitNormal.X, 1e-6)
}

func TestSensorHoldsEyeSampleWhenDeviceIsIdle(t *testing.T) {
	eyes := &flakyEyes{inner: NewSyntheticEyeTracker(6.4, 500)}
	s := NewSensor(Sources{Eyes: eyes})

	s.Tick(nil, 10)
	first := s.Data().EyeTracker
	eyes.drop = true
	s.Tick(nil, 20)

	assert.Equal(t, first.FrameSequence, s.Data().EyeTracker.FrameSequence)
	assert.Equal(t, int64(20), s.Data().Timestamp)
}

func TestSensorReplayingSkipsCapture(t *testing.T) {
	s := NewSensor(Sources{Vehicle: fixedVehicle(telemetry.EgoVariables{VehicleLocation: geom.Vector3{X: 1}})})

	replayed := telemetry.AggregateData{Timestamp: 33, Ego: telemetry.EgoVariables{VehicleLocation: geom.Vector3{X: 100}}}
	s.Present(replayed)

	assert.False(t, s.Tick(modeFlag(true), 99))
	assert.Equal(t, replayed, *s.Data())

	assert.True(t, s.Tick(modeFlag(false), 99))
	assert.Equal(t, geom.Vector3{X: 1}, s.Data().VehicleLocation())
}

func TestSensorWithoutSources(t *testing.T) {
	s := NewSensor(Sources{})
	require.True(t, s.Tick(nil, 5))
	assert.Equal(t, telemetry.NoFocus, s.Data().Focus.ActorName)
	assert.False(t, s.Data().GazeValid(telemetry.Combined))
}

func TestTargetsTrace(t *testing.T) {
	ts := Targets{
		{Name: "near", Center: geom.Vector3{X: 100}, Radius: 10},
		{Name: "far", Center: geom.Vector3{X: 300}, Radius: 10},
		{Name: "aside", Center: geom.Vector3{Y: 100}, Radius: 10},
	}

	tests := []struct {
		name string
		ray  geom.Ray
		max  float32
		want string
		dist float32
	}{
		{"nearest wins", geom.Ray{Direction: geom.Vector3{X: 1}}, 1000, "near", 90},
		{"unnormalised direction", geom.Ray{Direction: geom.Vector3{X: 5}}, 1000, "near", 90},
		{"out of range", geom.Ray{Direction: geom.Vector3{X: 1}}, 50, telemetry.NoFocus, 0},
		{"behind", geom.Ray{Direction: geom.Vector3{X: -1}}, 1000, telemetry.NoFocus, 0},
		{"sideways", geom.Ray{Direction: geom.Vector3{Y: 1}}, 1000, "aside", 90},
		{"inside sphere", geom.Ray{Origin: geom.Vector3{X: 300}, Direction: geom.Vector3{X: 1}}, 1000, "far", 10},
		{"zero direction", geom.Ray{}, 1000, telemetry.NoFocus, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ts.Trace(tt.ray, tt.max)
			assert.Equal(t, tt.want, got.ActorName)
			assert.InDelta(t, tt.dist, got.HitDistance, 1e-3)
			assert.Equal(t, tt.want != telemetry.NoFocus, got.HitValid)
		})
	}
}

func TestWorldGaze(t *testing.T) {
	d := telemetry.AggregateData{
		Ego: telemetry.EgoVariables{
			CameraLocationAbs: geom.Vector3{X: 10, Y: 20, Z: 30},
			CameraRotationAbs: geom.Rotator{Yaw: 90},
		},
	}
	d.EyeTracker.Combined.GazeDir = geom.Vector3{X: 1}
	d.EyeTracker.Combined.GazeOrigin = geom.Vector3{X: 2}

	r := WorldGaze(&d)
	assert.InDelta(t, 10, r.Origin.X, 1e-4)
	assert.InDelta(t, 22, r.Origin.Y, 1e-4)
	assert.InDelta(t, 0, r.Direction.X, 1e-6)
	assert.InDelta(t, 1, r.Direction.Y, 1e-6)
}

func TestSyntheticVehicle(t *testing.T) {
	v := NewSyntheticVehicle(1000)
	v.Step(0.5)
	ego := v.Ego()
	assert.InDelta(t, 500, ego.VehicleLocation.X, 1e-3)
	assert.InDelta(t, 0, ego.VehicleLocation.Y, 1e-3)
	assert.InDelta(t, DriverEyeHeight, ego.CameraLocationAbs.Z, 1e-3)
	assert.Equal(t, float32(1000), ego.VehicleVelocity)

	v.Heading = 90
	v.Step(1)
	ego = v.Ego()
	assert.InDelta(t, 500, ego.VehicleLocation.X, 1e-2)
	assert.InDelta(t, 1000, ego.VehicleLocation.Y, 1e-2)
	assert.InDelta(t, 500, ego.CameraLocationAbs.X, 1e-2)

	assert.Equal(t, float32(0.4), v.Inputs().Throttle)
	assert.False(t, v.Inputs().TurnSignalLeft)
}
