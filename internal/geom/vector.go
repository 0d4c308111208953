// Package geom holds the small set of spatial types shared by the telemetry
// log: vectors, Euler rotators, linear colours and 9-DOF transforms.
//
// Components are float32 because that is the width they have on the wire.
// Arithmetic that needs precision (vergence, rotation) is carried out in
// float64 through gonum's r3 package and converted back.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 is a 3D vector in scene units (centimetres).
type Vector3 struct {
	X, Y, Z float32
}

// Vector2 is a 2D vector, used for pupil positions.
type Vector2 struct {
	X, Y float32
}

// Rotator is an Euler rotation in degrees.
type Rotator struct {
	Pitch, Yaw, Roll float32
}

// LinearColor is an RGBA colour with linear float components.
// On the wire it is stored A, B, G, R.
type LinearColor struct {
	R, G, B, A float32
}

// Transform is a 9-DOF pose: location, rotation and non-uniform scale.
type Transform struct {
	Location Vector3
	Rotation Rotator
	Scale    Vector3
}

// Identity returns a transform at the origin with unit scale.
func Identity() Transform {
	return Transform{Scale: Vector3{X: 1, Y: 1, Z: 1}}
}

// Vec returns v as a gonum r3 vector.
func (v Vector3) Vec() r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// FromVec converts an r3 vector back to wire precision.
func FromVec(v r3.Vec) Vector3 {
	return Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Add returns v+o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by f.
func (v Vector3) Scale(f float32) Vector3 {
	return Vector3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Size returns the Euclidean length of v.
func (v Vector3) Size() float32 {
	return float32(r3.Norm(v.Vec()))
}

// Normal returns v scaled to unit length, or the zero vector when v is
// too short to normalise.
func (v Vector3) Normal() Vector3 {
	n := r3.Norm(v.Vec())
	if n < 1e-8 {
		return Vector3{}
	}
	return FromVec(r3.Scale(1/n, v.Vec()))
}

// IsZero reports whether every component is exactly zero.
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func (v Vector3) String() string {
	return fmt.Sprintf("X=%g Y=%g Z=%g", v.X, v.Y, v.Z)
}

func (v Vector2) String() string {
	return fmt.Sprintf("X=%g Y=%g", v.X, v.Y)
}

func (r Rotator) String() string {
	return fmt.Sprintf("P=%g Y=%g R=%g", r.Pitch, r.Yaw, r.Roll)
}

func (c LinearColor) String() string {
	return fmt.Sprintf("(R=%g,G=%g,B=%g,A=%g)", c.R, c.G, c.B, c.A)
}

func (t Transform) String() string {
	return fmt.Sprintf("Loc:{%s} Rot:{%s} Scale:{%s}", t.Location, t.Rotation, t.Scale)
}

// RotateVector rotates v by r. Pitch turns about Y, yaw about Z and roll
// about X, composed roll then pitch then yaw.
func (r Rotator) RotateVector(v Vector3) Vector3 {
	sp, cp := math.Sincos(radians(r.Pitch))
	sy, cy := math.Sincos(radians(r.Yaw))
	sr, cr := math.Sincos(radians(r.Roll))

	xAxis := r3.Vec{X: cp * cy, Y: cp * sy, Z: sp}
	yAxis := r3.Vec{X: sr*sp*cy - cr*sy, Y: sr*sp*sy + cr*cy, Z: -sr * cp}
	zAxis := r3.Vec{X: -(cr*sp*cy + sr*sy), Y: cy*sr - cr*sp*sy, Z: cr * cp}

	in := v.Vec()
	out := r3.Add(r3.Add(r3.Scale(in.X, xAxis), r3.Scale(in.Y, yAxis)), r3.Scale(in.Z, zAxis))
	return FromVec(out)
}

func radians(deg float32) float64 {
	return float64(deg) * math.Pi / 180
}
