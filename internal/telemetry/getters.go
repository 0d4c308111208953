package telemetry

import "github.com/banshee-data/vrtelemetry/internal/geom"

// eyeData picks the sample for e, falling back to the combined sample for
// any selector it does not recognise.
func (a *AggregateData) eyeData(e Eye) EyeData {
	switch e {
	case Left:
		return a.EyeTracker.Left.EyeData
	case Right:
		return a.EyeTracker.Right.EyeData
	default:
		return a.EyeTracker.Combined.EyeData
	}
}

func (a *AggregateData) GazeDir(e Eye) geom.Vector3    { return a.eyeData(e).GazeDir }
func (a *AggregateData) GazeOrigin(e Eye) geom.Vector3 { return a.eyeData(e).GazeOrigin }
func (a *AggregateData) GazeValid(e Eye) bool          { return a.eyeData(e).GazeValid }

func (a *AggregateData) Vergence() float32 { return a.EyeTracker.Combined.Vergence }

// The per-eye getters below only know Left and Right. For any other
// selector they report the combined equivalent: the mean of both eyes for
// measurements, and the conjunction of both eyes for validity flags.

func (a *AggregateData) EyeOpenness(e Eye) float32 {
	l, r := a.EyeTracker.Left, a.EyeTracker.Right
	switch e {
	case Left:
		return l.EyeOpenness
	case Right:
		return r.EyeOpenness
	default:
		return (l.EyeOpenness + r.EyeOpenness) / 2
	}
}

func (a *AggregateData) EyeOpennessValid(e Eye) bool {
	l, r := a.EyeTracker.Left, a.EyeTracker.Right
	switch e {
	case Left:
		return l.EyeOpennessValid
	case Right:
		return r.EyeOpennessValid
	default:
		return l.EyeOpennessValid && r.EyeOpennessValid
	}
}

func (a *AggregateData) PupilDiameter(e Eye) float32 {
	l, r := a.EyeTracker.Left, a.EyeTracker.Right
	switch e {
	case Left:
		return l.PupilDiameter
	case Right:
		return r.PupilDiameter
	default:
		return (l.PupilDiameter + r.PupilDiameter) / 2
	}
}

func (a *AggregateData) PupilPosition(e Eye) geom.Vector2 {
	l, r := a.EyeTracker.Left, a.EyeTracker.Right
	switch e {
	case Left:
		return l.PupilPosition
	case Right:
		return r.PupilPosition
	default:
		return geom.Vector2{
			X: (l.PupilPosition.X + r.PupilPosition.X) / 2,
			Y: (l.PupilPosition.Y + r.PupilPosition.Y) / 2,
		}
	}
}

func (a *AggregateData) PupilPositionValid(e Eye) bool {
	l, r := a.EyeTracker.Left, a.EyeTracker.Right
	switch e {
	case Left:
		return l.PupilPositionValid
	case Right:
		return r.PupilPositionValid
	default:
		return l.PupilPositionValid && r.PupilPositionValid
	}
}

func (a *AggregateData) CameraLocation() geom.Vector3    { return a.Ego.CameraLocation }
func (a *AggregateData) CameraRotation() geom.Rotator    { return a.Ego.CameraRotation }
func (a *AggregateData) CameraLocationAbs() geom.Vector3 { return a.Ego.CameraLocationAbs }
func (a *AggregateData) CameraRotationAbs() geom.Rotator { return a.Ego.CameraRotationAbs }
func (a *AggregateData) VehicleLocation() geom.Vector3   { return a.Ego.VehicleLocation }
func (a *AggregateData) VehicleRotation() geom.Rotator   { return a.Ego.VehicleRotation }
func (a *AggregateData) VehicleVelocity() float32        { return a.Ego.VehicleVelocity }

// Flat is a flattened, JSON-friendly view of a frame for external clients.
type Flat struct {
	Timestamp       int64      `json:"timestamp_ms"`
	TimestampDevice int64      `json:"timestamp_device"`
	FrameSequence   int64      `json:"frame_sequence"`
	GazeDir         [3]float32 `json:"gaze_dir"`
	GazeOrigin      [3]float32 `json:"gaze_origin"`
	GazeValid       bool       `json:"gaze_valid"`
	Vergence        float32    `json:"vergence"`
	LeftOpenness    float32    `json:"left_eye_openness"`
	RightOpenness   float32    `json:"right_eye_openness"`
	LeftPupilDiam   float32    `json:"left_pupil_diameter"`
	RightPupilDiam  float32    `json:"right_pupil_diameter"`
	CameraLocation  [3]float32 `json:"camera_location"`
	CameraRotation  [3]float32 `json:"camera_rotation"`
	VehicleLocation [3]float32 `json:"vehicle_location"`
	VehicleRotation [3]float32 `json:"vehicle_rotation"`
	VehicleVelocity float32    `json:"vehicle_velocity"`
	FocusActor      string     `json:"focus_actor"`
	FocusHit        bool       `json:"focus_hit"`
	FocusPoint      [3]float32 `json:"focus_point"`
	FocusDistance   float32    `json:"focus_distance"`
	Throttle        float32    `json:"throttle"`
	Steering        float32    `json:"steering"`
	Brake           float32    `json:"brake"`
	Reverse         bool       `json:"reverse"`
	TurnLeft        bool       `json:"turn_signal_left"`
	TurnRight       bool       `json:"turn_signal_right"`
	Handbrake       bool       `json:"handbrake"`
}

func vec(v geom.Vector3) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }
func rot(r geom.Rotator) [3]float32 { return [3]float32{r.Pitch, r.Yaw, r.Roll} }

// Flatten builds the flat view of a.
func (a *AggregateData) Flatten() Flat {
	return Flat{
		Timestamp:       a.Timestamp,
		TimestampDevice: a.EyeTracker.TimestampDevice,
		FrameSequence:   a.EyeTracker.FrameSequence,
		GazeDir:         vec(a.GazeDir(Combined)),
		GazeOrigin:      vec(a.GazeOrigin(Combined)),
		GazeValid:       a.GazeValid(Combined),
		Vergence:        a.Vergence(),
		LeftOpenness:    a.EyeOpenness(Left),
		RightOpenness:   a.EyeOpenness(Right),
		LeftPupilDiam:   a.PupilDiameter(Left),
		RightPupilDiam:  a.PupilDiameter(Right),
		CameraLocation:  vec(a.CameraLocationAbs()),
		CameraRotation:  rot(a.CameraRotationAbs()),
		VehicleLocation: vec(a.VehicleLocation()),
		VehicleRotation: rot(a.VehicleRotation()),
		VehicleVelocity: a.VehicleVelocity(),
		FocusActor:      a.Focus.ActorName,
		FocusHit:        a.Focus.HitValid,
		FocusPoint:      vec(a.Focus.HitPoint),
		FocusDistance:   a.Focus.HitDistance,
		Throttle:        a.Inputs.Throttle,
		Steering:        a.Inputs.Steering,
		Brake:           a.Inputs.Brake,
		Reverse:         a.Inputs.ToggledReverse,
		TurnLeft:        a.Inputs.TurnSignalLeft,
		TurnRight:       a.Inputs.TurnSignalRight,
		Handbrake:       a.Inputs.HoldHandbrake,
	}
}
