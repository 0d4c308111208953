package telemetry

import (
	"fmt"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/packet"
)

// Eye selects which eye sample a getter reads from.
type Eye int

const (
	Combined Eye = iota
	Left
	Right
)

func (e Eye) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "combined"
	}
}

// EyeData is the gaze state shared by the combined and per-eye samples.
// GazeDir is nominally a unit vector but may be zero when tracking is lost.
type EyeData struct {
	GazeDir    geom.Vector3
	GazeOrigin geom.Vector3
	GazeValid  bool
}

// Ray returns the gaze ray.
func (e EyeData) Ray() geom.Ray {
	return geom.Ray{Origin: e.GazeOrigin, Direction: e.GazeDir}
}

func (e *EyeData) Encode(enc *packet.Encoder) {
	enc.Vector3(e.GazeDir)
	enc.Vector3(e.GazeOrigin)
	enc.Bool(e.GazeValid)
}

func (e *EyeData) Decode(d *packet.Decoder) {
	e.GazeDir = d.Vector3()
	e.GazeOrigin = d.Vector3()
	e.GazeValid = d.Bool()
}

func (e EyeData) String() string {
	return fmt.Sprintf("GazeDir:{%s}, GazeOrigin:{%s}, GazeValid:%t", e.GazeDir, e.GazeOrigin, e.GazeValid)
}

// CombinedEyeData is the cyclopean sample with the vergence estimate.
type CombinedEyeData struct {
	EyeData
	Vergence float32
}

func (c *CombinedEyeData) Encode(enc *packet.Encoder) {
	c.EyeData.Encode(enc)
	enc.Float32(c.Vergence)
}

func (c *CombinedEyeData) Decode(d *packet.Decoder) {
	c.EyeData.Decode(d)
	c.Vergence = d.Float32()
}

func (c CombinedEyeData) String() string {
	return fmt.Sprintf("%s, Vergence:%g", c.EyeData, c.Vergence)
}

// SingleEyeData is one eye's sample. EyeOpenness is in [0,1]; PupilDiameter
// is in millimetres as reported by the device.
type SingleEyeData struct {
	EyeData
	EyeOpenness        float32
	EyeOpennessValid   bool
	PupilDiameter      float32
	PupilPosition      geom.Vector2
	PupilPositionValid bool
}

func (s *SingleEyeData) Encode(enc *packet.Encoder) {
	s.EyeData.Encode(enc)
	enc.Float32(s.EyeOpenness)
	enc.Bool(s.EyeOpennessValid)
	enc.Float32(s.PupilDiameter)
	enc.Vector2(s.PupilPosition)
	enc.Bool(s.PupilPositionValid)
}

func (s *SingleEyeData) Decode(d *packet.Decoder) {
	s.EyeData.Decode(d)
	s.EyeOpenness = d.Float32()
	s.EyeOpennessValid = d.Bool()
	s.PupilDiameter = d.Float32()
	s.PupilPosition = d.Vector2()
	s.PupilPositionValid = d.Bool()
}

func (s SingleEyeData) String() string {
	return fmt.Sprintf("%s, EyeOpenness:%g, EyeOpennessValid:%t, PupilDiameter:%g, PupilPosition:{%s}, PupilPositionValid:%t",
		s.EyeData, s.EyeOpenness, s.EyeOpennessValid, s.PupilDiameter, s.PupilPosition, s.PupilPositionValid)
}

// EyeTracker is one device sample. TimestampDevice is on the device clock.
type EyeTracker struct {
	TimestampDevice int64
	FrameSequence   int64
	Combined        CombinedEyeData
	Left            SingleEyeData
	Right           SingleEyeData
}

func (t *EyeTracker) Encode(enc *packet.Encoder) {
	enc.Int64(t.TimestampDevice)
	enc.Int64(t.FrameSequence)
	t.Combined.Encode(enc)
	t.Left.Encode(enc)
	t.Right.Encode(enc)
}

func (t *EyeTracker) Decode(d *packet.Decoder) {
	t.TimestampDevice = d.Int64()
	t.FrameSequence = d.Int64()
	t.Combined.Decode(d)
	t.Left.Decode(d)
	t.Right.Decode(d)
}

func (t EyeTracker) String() string {
	return fmt.Sprintf("TimestampDevice:%d, FrameSequence:%d, COMBINED:{%s}, LEFT:{%s}, RIGHT:{%s}",
		t.TimestampDevice, t.FrameSequence, t.Combined, t.Left, t.Right)
}
