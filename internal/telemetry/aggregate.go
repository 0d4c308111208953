// Package telemetry defines the per-tick telemetry frame recorded by the
// simulator: eye tracker, ego vehicle, gaze focus and driver inputs.
//
// Every type has an Encode/Decode pair. The field order they visit is the
// wire format; reordering fields breaks every log already on disk.
package telemetry

import (
	"fmt"
	"strings"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/packet"
)

// NoFocus is the actor name recorded when the gaze ray hits nothing.
const NoFocus = "None"

// EgoVariables is the ego vehicle and camera pose. CameraLocation and
// CameraRotation are relative to the vehicle; the Abs variants are world
// space. VehicleVelocity is forward speed in scene units per second.
type EgoVariables struct {
	CameraLocation    geom.Vector3
	CameraRotation    geom.Rotator
	CameraLocationAbs geom.Vector3
	CameraRotationAbs geom.Rotator
	VehicleLocation   geom.Vector3
	VehicleRotation   geom.Rotator
	VehicleVelocity   float32
}

func (v *EgoVariables) Encode(e *packet.Encoder) {
	e.Vector3(v.CameraLocation)
	e.Rotator(v.CameraRotation)
	e.Vector3(v.CameraLocationAbs)
	e.Rotator(v.CameraRotationAbs)
	e.Vector3(v.VehicleLocation)
	e.Rotator(v.VehicleRotation)
	e.Float32(v.VehicleVelocity)
}

func (v *EgoVariables) Decode(d *packet.Decoder) {
	v.CameraLocation = d.Vector3()
	v.CameraRotation = d.Rotator()
	v.CameraLocationAbs = d.Vector3()
	v.CameraRotationAbs = d.Rotator()
	v.VehicleLocation = d.Vector3()
	v.VehicleRotation = d.Rotator()
	v.VehicleVelocity = d.Float32()
}

func (v EgoVariables) String() string {
	return fmt.Sprintf("CameraLoc:{%s}, CameraRot:{%s}, CameraLocAbs:{%s}, CameraRotAbs:{%s}, VehicleLoc:{%s}, VehicleRot:{%s}, VehicleVel:%g",
		v.CameraLocation, v.CameraRotation, v.CameraLocationAbs, v.CameraRotationAbs,
		v.VehicleLocation, v.VehicleRotation, v.VehicleVelocity)
}

// FocusInfo is the result of tracing the gaze ray into the scene.
type FocusInfo struct {
	ActorName        string
	HitValid         bool
	HitPoint         geom.Vector3
	HitPointRelative geom.Vector3
	HitNormal        geom.Vector3
	HitDistance      float32
}

// NoHit returns the focus recorded when nothing was hit.
func NoHit() FocusInfo {
	return FocusInfo{ActorName: NoFocus}
}

func (f *FocusInfo) Encode(e *packet.Encoder) {
	e.String(f.ActorName)
	e.Bool(f.HitValid)
	e.Vector3(f.HitPoint)
	e.Vector3(f.HitPointRelative)
	e.Vector3(f.HitNormal)
	e.Float32(f.HitDistance)
}

func (f *FocusInfo) Decode(d *packet.Decoder) {
	f.ActorName = d.String()
	f.HitValid = d.Bool()
	f.HitPoint = d.Vector3()
	f.HitPointRelative = d.Vector3()
	f.HitNormal = d.Vector3()
	f.HitDistance = d.Float32()
}

func (f FocusInfo) String() string {
	return fmt.Sprintf("Hit:%t, Actor:%q, Point:{%s}, RelPoint:{%s}, Normal:{%s}, Dist:%g",
		f.HitValid, f.ActorName, f.HitPoint, f.HitPointRelative, f.HitNormal, f.HitDistance)
}

// UserInputs is the driver's control state for one tick.
type UserInputs struct {
	Throttle        float32
	Steering        float32
	Brake           float32
	ToggledReverse  bool
	TurnSignalLeft  bool
	TurnSignalRight bool
	HoldHandbrake   bool
}

func (u *UserInputs) Encode(e *packet.Encoder) {
	e.Float32(u.Throttle)
	e.Float32(u.Steering)
	e.Float32(u.Brake)
	e.Bool(u.ToggledReverse)
	e.Bool(u.TurnSignalLeft)
	e.Bool(u.TurnSignalRight)
	e.Bool(u.HoldHandbrake)
}

func (u *UserInputs) Decode(d *packet.Decoder) {
	u.Throttle = d.Float32()
	u.Steering = d.Float32()
	u.Brake = d.Float32()
	u.ToggledReverse = d.Bool()
	u.TurnSignalLeft = d.Bool()
	u.TurnSignalRight = d.Bool()
	u.HoldHandbrake = d.Bool()
}

func (u UserInputs) String() string {
	return fmt.Sprintf("Throttle:%g, Steering:%g, Brake:%g, ToggledReverse:%t, TurnSignalLeft:%t, TurnSignalRight:%t, HoldHandbrake:%t",
		u.Throttle, u.Steering, u.Brake, u.ToggledReverse, u.TurnSignalLeft, u.TurnSignalRight, u.HoldHandbrake)
}

// AggregateData is one telemetry frame. Timestamp is simulation time in
// milliseconds and never decreases within a recording.
type AggregateData struct {
	Timestamp  int64
	Ego        EgoVariables
	EyeTracker EyeTracker
	Focus      FocusInfo
	Inputs     UserInputs
}

// Encode writes timestamp, ego, eye tracker, focus and inputs, in that order.
func (a *AggregateData) Encode(e *packet.Encoder) {
	e.Int64(a.Timestamp)
	a.Ego.Encode(e)
	a.EyeTracker.Encode(e)
	a.Focus.Encode(e)
	a.Inputs.Encode(e)
}

func (a *AggregateData) Decode(d *packet.Decoder) {
	a.Timestamp = d.Int64()
	a.Ego.Decode(d)
	a.EyeTracker.Decode(d)
	a.Focus.Decode(d)
	a.Inputs.Decode(d)
}

// String renders the frame for diagnostics. It is not a serialisation.
func (a AggregateData) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[DReyeVR]TimestampCarla:%d,\n", a.Timestamp)
	fmt.Fprintf(&sb, "[DReyeVR]EyeTracker:{%s},\n", a.EyeTracker)
	fmt.Fprintf(&sb, "[DReyeVR]EgoVariables:{%s},\n", a.Ego)
	fmt.Fprintf(&sb, "[DReyeVR]FocusInfo:{%s},\n", a.Focus)
	fmt.Fprintf(&sb, "[DReyeVR]UserInputs:{%s},\n", a.Inputs)
	return sb.String()
}
