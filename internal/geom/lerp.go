package geom

// Lerp returns a + (b-a)*p. The end points are returned untouched so that
// p == 0 and p == 1 reproduce a and b bit for bit.
func Lerp(a, b float32, p float64) float32 {
	switch p {
	case 0:
		return a
	case 1:
		return b
	}
	fa := float64(a)
	return float32(fa + (float64(b)-fa)*p)
}

// LerpVector interpolates each component of a towards b.
func LerpVector(a, b Vector3, p float64) Vector3 {
	if p == 0 {
		return a
	}
	return Vector3{
		X: Lerp(a.X, b.X, p),
		Y: Lerp(a.Y, b.Y, p),
		Z: Lerp(a.Z, b.Z, p),
	}
}

// LerpRotator interpolates each Euler angle of a towards b. Angles are not
// wrapped, so the result always lies between the two inputs.
func LerpRotator(a, b Rotator, p float64) Rotator {
	if p == 0 {
		return a
	}
	return Rotator{
		Pitch: Lerp(a.Pitch, b.Pitch, p),
		Yaw:   Lerp(a.Yaw, b.Yaw, p),
		Roll:  Lerp(a.Roll, b.Roll, p),
	}
}

// LerpTransform interpolates location, rotation and scale.
func LerpTransform(a, b Transform, p float64) Transform {
	if p == 0 {
		return a
	}
	return Transform{
		Location: LerpVector(a.Location, b.Location, p),
		Rotation: LerpRotator(a.Rotation, b.Rotation, p),
		Scale:    LerpVector(a.Scale, b.Scale, p),
	}
}
