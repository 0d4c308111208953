package capture

import (
	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// MaxFocusDistance bounds the gaze trace, in centimetres.
const MaxFocusDistance = 10000

// Sources are the collaborators a Sensor samples. Any of them may be nil;
// the matching part of the frame is then left zero (or NoHit for focus).
type Sources struct {
	Eyes    EyeTracker
	Vehicle VehicleState
	Focus   FocusTracer
	Inputs  InputSource
}

// Sensor holds the current telemetry frame. It captures from its sources
// while live and is overwritten from the log while replaying.
type Sensor struct {
	src  Sources
	data telemetry.AggregateData
	eyes telemetry.EyeTracker
}

func NewSensor(src Sources) *Sensor {
	return &Sensor{src: src, data: telemetry.AggregateData{Focus: telemetry.NoHit()}}
}

// Tick captures a new frame stamped simMillis. It does nothing and returns
// false while mode is replaying.
func (s *Sensor) Tick(mode Mode, simMillis int64) bool {
	if mode != nil && mode.Replaying() {
		return false
	}

	d := telemetry.AggregateData{Timestamp: simMillis}
	if s.src.Vehicle != nil {
		d.Ego = s.src.Vehicle.Ego()
	}

	// Hold the previous sample when the device has nothing new.
	if s.src.Eyes != nil {
		if sample, ok := s.src.Eyes.Sample(simMillis); ok {
			s.eyes = sample
		}
	}
	d.EyeTracker = s.eyes
	left, right := d.EyeTracker.Left, d.EyeTracker.Right
	if left.GazeValid && right.GazeValid {
		d.EyeTracker.Combined.Vergence = geom.Vergence(left.Ray(), right.Ray())
	}

	d.Focus = telemetry.NoHit()
	if s.src.Focus != nil && d.EyeTracker.Combined.GazeValid {
		d.Focus = s.src.Focus.Trace(WorldGaze(&d), MaxFocusDistance)
	}

	if s.src.Inputs != nil {
		d.Inputs = s.src.Inputs.Inputs()
	}

	s.data = d
	return true
}

// Present installs a frame read from a log.
func (s *Sensor) Present(frame telemetry.AggregateData) {
	s.data = frame
}

// Data returns the current frame.
func (s *Sensor) Data() *telemetry.AggregateData {
	return &s.data
}

// WorldGaze converts the combined gaze ray from camera space into world
// space using the absolute camera pose.
func WorldGaze(d *telemetry.AggregateData) geom.Ray {
	rot := d.Ego.CameraRotationAbs
	return geom.Ray{
		Origin:    d.Ego.CameraLocationAbs.Add(rot.RotateVector(d.EyeTracker.Combined.GazeOrigin)),
		Direction: rot.RotateVector(d.EyeTracker.Combined.GazeDir),
	}
}
