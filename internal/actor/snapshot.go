// Package actor tracks custom actors: named, dynamically spawned props and
// avatars whose pose and material are recorded and replayed independently
// of the ego vehicle.
package actor

import (
	"fmt"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/packet"
)

// MaterialParams are the dynamic material parameters applied to every mesh
// slot of a custom actor. Opacity only applies to translucent materials.
type MaterialParams struct {
	Metallic      float32
	Specular      float32
	Roughness     float32
	Anisotropy    float32
	Opacity       float32
	BaseColor     geom.LinearColor
	EmissiveColor geom.LinearColor
	MaterialPath  string
}

// DefaultMaterialParams returns the parameters a freshly created material
// instance starts with.
func DefaultMaterialParams(path string) MaterialParams {
	return MaterialParams{
		Metallic:      0,
		Specular:      0.5,
		Roughness:     0.5,
		Anisotropy:    0,
		Opacity:       1,
		BaseColor:     geom.LinearColor{R: 1, G: 1, B: 1, A: 1},
		EmissiveColor: geom.LinearColor{A: 1},
		MaterialPath:  path,
	}
}

func (m *MaterialParams) Encode(e *packet.Encoder) {
	e.Float32(m.Metallic)
	e.Float32(m.Specular)
	e.Float32(m.Roughness)
	e.Float32(m.Anisotropy)
	e.Float32(m.Opacity)
	e.Color(m.BaseColor)
	e.Color(m.EmissiveColor)
	e.String(m.MaterialPath)
}

func (m *MaterialParams) Decode(d *packet.Decoder) {
	m.Metallic = d.Float32()
	m.Specular = d.Float32()
	m.Roughness = d.Float32()
	m.Anisotropy = d.Float32()
	m.Opacity = d.Float32()
	m.BaseColor = d.Color()
	m.EmissiveColor = d.Color()
	m.MaterialPath = d.String()
}

func (m MaterialParams) String() string {
	return fmt.Sprintf("Metallic:%g, Specular:%g, Roughness:%g, Anisotropy:%g, Opacity:%g, BaseColor:%s, Emissive:%s, Path:%q",
		m.Metallic, m.Specular, m.Roughness, m.Anisotropy, m.Opacity, m.BaseColor, m.EmissiveColor, m.MaterialPath)
}

// Snapshot is the recorded state of one custom actor. Name is the identity
// key that joins recorded snapshots to live actors across the whole log.
type Snapshot struct {
	Transform geom.Transform
	MeshPath  string
	Materials MaterialParams
	Other     string
	Name      string
}

func (s *Snapshot) Encode(e *packet.Encoder) {
	e.Transform(s.Transform)
	e.String(s.MeshPath)
	s.Materials.Encode(e)
	e.String(s.Other)
	e.String(s.Name)
}

func (s *Snapshot) Decode(d *packet.Decoder) {
	s.Transform = d.Transform()
	s.MeshPath = d.String()
	s.Materials.Decode(d)
	s.Other = d.String()
	s.Name = d.String()
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Name:%q, %s, Mesh:%q, Materials:{%s}, Other:%q",
		s.Name, s.Transform, s.MeshPath, s.Materials, s.Other)
}

// Interpolate returns next with its transform interpolated from prev at
// fraction p. Material and payload fields come from next.
func Interpolate(prev, next Snapshot, p float64) Snapshot {
	out := next
	out.Transform = geom.LerpTransform(prev.Transform, next.Transform, p)
	return out
}
