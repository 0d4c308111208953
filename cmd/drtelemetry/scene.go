package main

import (
	"fmt"
	"math"

	"github.com/banshee-data/vrtelemetry/internal/actor"
	"github.com/banshee-data/vrtelemetry/internal/capture"
	"github.com/banshee-data/vrtelemetry/internal/geom"
)

const (
	driveSpeed    = 1389 // cm/s, 50 km/h
	orbitRadius   = 600  // cm
	orbitPeriod   = 4.0  // seconds per revolution
	signSpacing   = 2500 // cm between road signs
	signRadius    = 60
	orbiterName   = "orbiter"
	orbiterMesh   = "/Game/Props/Sphere.Sphere"
	orbiterShader = "/Game/Materials/Translucent_Glow.Translucent_Glow"
)

// scene is the synthetic drive: a vehicle on a straight road lined with
// signs, and one translucent custom actor circling it.
type scene struct {
	vehicle *capture.SyntheticVehicle
	orbiter *actor.Actor
	elapsed float64
}

func newScene(vehicle *capture.SyntheticVehicle, actors *actor.Registry) (*scene, error) {
	orbiter, err := actors.Create(orbiterMesh, orbiterShader, orbiterName)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", orbiterName, err)
	}
	if err := orbiter.Activate(); err != nil {
		return nil, err
	}
	s := &scene{vehicle: vehicle, orbiter: orbiter}
	s.place()
	return s, nil
}

// signs returns road signs at eye height up to length cm down the road.
func signs(length float64) capture.Targets {
	var out capture.Targets
	for x := float32(signSpacing); float64(x) <= length; x += signSpacing {
		out = append(out, capture.Target{
			Name:   fmt.Sprintf("sign_%03d", int(x/signSpacing)),
			Center: geom.Vector3{X: x, Z: capture.DriverEyeHeight},
			Radius: signRadius,
		})
	}
	return out
}

// step advances the scene by dt seconds ahead of the next tick.
func (s *scene) step(dt float64) {
	s.vehicle.Step(dt)
	s.elapsed += dt
	s.place()
}

func (s *scene) place() {
	angle := 2 * math.Pi * s.elapsed / orbitPeriod
	pose := geom.Identity()
	pose.Location = s.vehicle.Location.Add(geom.Vector3{
		X: float32(orbitRadius * math.Cos(angle)),
		Y: float32(orbitRadius * math.Sin(angle)),
		Z: 150,
	})
	pose.Rotation.Yaw = float32(math.Mod(angle*180/math.Pi, 360))
	s.orbiter.SetTransform(pose)

	p := s.orbiter.Material().Params()
	p.Opacity = float32(0.5 + 0.4*math.Sin(angle))
	p.EmissiveColor = geom.LinearColor{R: 0.2, G: 0.8, B: 1, A: 1}
	s.orbiter.Material().Apply(p)
}
