package geom

import "gonum.org/v1/gonum/spatial/r3"

// parallelEpsilon bounds the closest-approach denominator below which two
// rays are treated as parallel.
const parallelEpsilon = 1e-9

// Ray is a parametric line Origin + t*Direction.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// Approach describes where two rays come closest to each other.
type Approach struct {
	// Offset points from the midpoint of the two ray origins to the midpoint
	// of the two closest points. Reticle placement uses it.
	Offset Vector3
	// Gap is the distance between the two closest points.
	Gap float32
	// Degenerate is set when the rays are parallel, share an origin or have
	// a zero direction; Offset and Gap are zero in that case.
	Degenerate bool
}

// ClosestApproach solves the two-line least-distance problem for a and b.
func ClosestApproach(a, b Ray) Approach {
	p0, u := a.Origin.Vec(), a.Direction.Vec()
	q0, v := b.Origin.Vec(), b.Direction.Vec()

	w0 := r3.Sub(p0, q0)
	if r3.Dot(w0, w0) == 0 {
		return Approach{Degenerate: true}
	}

	uu := r3.Dot(u, u)
	uv := r3.Dot(u, v)
	vv := r3.Dot(v, v)
	uw := r3.Dot(u, w0)
	vw := r3.Dot(v, w0)

	denom := uu*vv - uv*uv
	if uu == 0 || vv == 0 || denom < parallelEpsilon*uu*vv {
		return Approach{Degenerate: true}
	}

	s := (uv*vw - vv*uw) / denom
	t := (uu*vw - uv*uw) / denom

	onA := r3.Add(p0, r3.Scale(s, u))
	onB := r3.Add(q0, r3.Scale(t, v))

	mid := r3.Scale(0.5, r3.Add(onA, onB))
	originMid := r3.Scale(0.5, r3.Add(p0, q0))

	return Approach{
		Offset: FromVec(r3.Sub(mid, originMid)),
		Gap:    float32(r3.Norm(r3.Sub(onA, onB))),
	}
}

// GazeOffset returns the vector from the midpoint between the eyes to the
// point where the two gaze rays most nearly meet.
func GazeOffset(left, right Ray) Vector3 {
	return ClosestApproach(left, right).Offset
}

// Vergence returns the residual gap between the two gaze rays at their
// closest approach, in scene units.
func Vergence(left, right Ray) float32 {
	return ClosestApproach(left, right).Gap
}
