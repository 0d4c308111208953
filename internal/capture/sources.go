// Package capture builds the live telemetry frame each tick from the
// simulator's collaborators: eye tracker, ego vehicle, gaze tracer and
// driver inputs.
package capture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// Mode reports whether the session is replaying. While it is, the sensor
// is fed from the log instead of its sources.
type Mode interface {
	Replaying() bool
}

// EyeTracker produces one eye-tracker sample per tick. ok is false when the
// device has no sample ready.
type EyeTracker interface {
	Sample(simMillis int64) (sample telemetry.EyeTracker, ok bool)
}

// VehicleState reports the ego vehicle and camera pose.
type VehicleState interface {
	Ego() telemetry.EgoVariables
}

// FocusTracer traces a world-space gaze ray into the scene.
type FocusTracer interface {
	Trace(ray geom.Ray, maxDistance float32) telemetry.FocusInfo
}

// InputSource reports the driver's control inputs.
type InputSource interface {
	Inputs() telemetry.UserInputs
}

// SyntheticEyeTracker stands in for hardware. Both eyes look straight ahead
// and converge on a point FixationDistance in front of the head. Distances
// are in centimetres, the scene unit.
type SyntheticEyeTracker struct {
	IPD              float32
	FixationDistance float32
	Openness         float32
	PupilDiameter    float32

	seq int64
}

// NewSyntheticEyeTracker returns a tracker with open eyes and 3mm pupils.
func NewSyntheticEyeTracker(ipd, fixation float32) *SyntheticEyeTracker {
	return &SyntheticEyeTracker{IPD: ipd, FixationDistance: fixation, Openness: 1, PupilDiameter: 3}
}

func (s *SyntheticEyeTracker) Sample(simMillis int64) (telemetry.EyeTracker, bool) {
	s.seq++
	half := s.IPD / 2
	target := geom.Vector3{X: s.FixationDistance}

	eye := func(y float32) telemetry.SingleEyeData {
		origin := geom.Vector3{Y: y}
		return telemetry.SingleEyeData{
			EyeData: telemetry.EyeData{
				GazeOrigin: origin,
				GazeDir:    target.Sub(origin).Normal(),
				GazeValid:  true,
			},
			EyeOpenness:        s.Openness,
			EyeOpennessValid:   true,
			PupilDiameter:      s.PupilDiameter,
			PupilPositionValid: true,
		}
	}

	return telemetry.EyeTracker{
		TimestampDevice: simMillis * 1000,
		FrameSequence:   s.seq,
		Combined: telemetry.CombinedEyeData{
			EyeData: telemetry.EyeData{GazeDir: geom.Vector3{X: 1}, GazeValid: true},
		},
		Left:  eye(-half),
		Right: eye(half),
	}, true
}

// Target is a named sphere a Targets tracer can hit.
type Target struct {
	Name   string
	Center geom.Vector3
	Radius float32
}

// Targets is a FocusTracer over a set of spheres. It stands in for the
// engine's line trace in headless runs.
type Targets []Target

// Trace returns the nearest sphere hit by ray within maxDistance.
func (ts Targets) Trace(ray geom.Ray, maxDistance float32) telemetry.FocusInfo {
	dir := ray.Direction.Normal()
	if dir.IsZero() {
		return telemetry.NoHit()
	}
	o, d := ray.Origin.Vec(), dir.Vec()

	best := math.Inf(1)
	hit := -1
	for i, t := range ts {
		oc := r3.Sub(o, t.Center.Vec())
		b := r3.Dot(oc, d)
		c := r3.Dot(oc, oc) - float64(t.Radius)*float64(t.Radius)
		disc := b*b - c
		if disc < 0 {
			continue
		}
		dist := -b - math.Sqrt(disc)
		if dist < 0 {
			dist = -b + math.Sqrt(disc)
		}
		if dist < 0 || dist > float64(maxDistance) || dist >= best {
			continue
		}
		best, hit = dist, i
	}
	if hit < 0 {
		return telemetry.NoHit()
	}

	t := ts[hit]
	point := geom.FromVec(r3.Add(o, r3.Scale(best, d)))
	return telemetry.FocusInfo{
		ActorName:        t.Name,
		HitValid:         true,
		HitPoint:         point,
		HitPointRelative: point.Sub(ray.Origin),
		HitNormal:        point.Sub(t.Center).Normal(),
		HitDistance:      float32(best),
	}
}
