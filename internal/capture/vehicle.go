package capture

import (
	"math"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// DriverEyeHeight is the synthetic camera height above the vehicle origin.
const DriverEyeHeight = 120

// SyntheticVehicle drives in a straight line along its heading at a fixed
// speed, with the camera at the driver's eye point. It serves both the
// vehicle state and the driver inputs when no simulator is attached.
type SyntheticVehicle struct {
	Location geom.Vector3
	Heading  float32 // yaw in degrees
	Speed    float32 // cm/s
	Throttle float32

	ticks int
}

// NewSyntheticVehicle returns a vehicle at the origin heading along +X.
func NewSyntheticVehicle(speed float32) *SyntheticVehicle {
	return &SyntheticVehicle{Speed: speed, Throttle: 0.4}
}

// Step moves the vehicle forward by dt seconds.
func (v *SyntheticVehicle) Step(dt float64) {
	yaw := float64(v.Heading) * math.Pi / 180
	dist := float64(v.Speed) * dt
	v.Location = v.Location.Add(geom.Vector3{
		X: float32(math.Cos(yaw) * dist),
		Y: float32(math.Sin(yaw) * dist),
	})
	v.ticks++
}

func (v *SyntheticVehicle) Ego() telemetry.EgoVariables {
	rot := geom.Rotator{Yaw: v.Heading}
	cam := geom.Vector3{Z: DriverEyeHeight}
	return telemetry.EgoVariables{
		CameraLocation:    cam,
		CameraLocationAbs: v.Location.Add(rot.RotateVector(cam)),
		CameraRotationAbs: rot,
		VehicleLocation:   v.Location,
		VehicleRotation:   rot,
		VehicleVelocity:   v.Speed,
	}
}

// Inputs holds the throttle and signals left every 150 ticks.
func (v *SyntheticVehicle) Inputs() telemetry.UserInputs {
	return telemetry.UserInputs{
		Throttle:       v.Throttle,
		TurnSignalLeft: (v.ticks/150)%2 == 1,
	}
}
