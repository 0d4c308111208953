package telemetry

import "github.com/banshee-data/vrtelemetry/internal/geom"

// Interpolate returns the frame presented at fraction p between older and
// newer. Only spatial pose (camera and vehicle location/rotation) is
// interpolated; every other field is taken from newer. At p == 0 the pose
// is older's, copied without arithmetic.
func Interpolate(older, newer *AggregateData, p float64) AggregateData {
	out := *newer
	oe, ne := &older.Ego, &newer.Ego
	if p == 0 {
		out.Ego.CameraLocation = oe.CameraLocation
		out.Ego.CameraRotation = oe.CameraRotation
		out.Ego.CameraLocationAbs = oe.CameraLocationAbs
		out.Ego.CameraRotationAbs = oe.CameraRotationAbs
		out.Ego.VehicleLocation = oe.VehicleLocation
		out.Ego.VehicleRotation = oe.VehicleRotation
		return out
	}
	out.Ego.CameraLocation = geom.LerpVector(oe.CameraLocation, ne.CameraLocation, p)
	out.Ego.CameraRotation = geom.LerpRotator(oe.CameraRotation, ne.CameraRotation, p)
	out.Ego.CameraLocationAbs = geom.LerpVector(oe.CameraLocationAbs, ne.CameraLocationAbs, p)
	out.Ego.CameraRotationAbs = geom.LerpRotator(oe.CameraRotationAbs, ne.CameraRotationAbs, p)
	out.Ego.VehicleLocation = geom.LerpVector(oe.VehicleLocation, ne.VehicleLocation, p)
	out.Ego.VehicleRotation = geom.LerpRotator(oe.VehicleRotation, ne.VehicleRotation, p)
	return out
}
