package actor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/vrtelemetry/internal/geom"
)

// MaxMaterialSlots is how many mesh slots a dynamic material is pinned to.
// The engine only grows its slot list through explicit per-index
// assignment, so the instance is broadcast to every index up to this bound.
const MaxMaterialSlots = 10

// ErrAssetLoad is returned when a mesh or material asset cannot be loaded.
var ErrAssetLoad = errors.New("asset load failed")

// Body is the engine-side object a custom actor drives.
type Body interface {
	SetMesh(path string) error
	SetMaterial(slot int, m *Material)
	SetVisible(visible bool)
	SetCollision(enabled bool)
	SetTicking(enabled bool)
	Transform() geom.Transform
	SetTransform(t geom.Transform)
	// Destroy releases the body. It is not used again afterwards.
	Destroy()
}

// MaterialTemplate is a loaded material asset that instances derive from.
type MaterialTemplate struct {
	Path        string
	Translucent bool
}

// Spawner creates engine bodies and resolves material assets.
type Spawner interface {
	Spawn(name string) (Body, error)
	LoadMaterial(path string) (MaterialTemplate, error)
}

// Material is a dynamic material instance shared by every slot of one actor.
type Material struct {
	template MaterialTemplate
	params   MaterialParams
}

func newMaterial(t MaterialTemplate) *Material {
	return &Material{template: t, params: DefaultMaterialParams(t.Path)}
}

// Template returns the asset the instance was created from.
func (m *Material) Template() MaterialTemplate { return m.template }

// Params returns the current parameter values.
func (m *Material) Params() MaterialParams { return m.params }

// Apply sets every parameter from p. Opacity is ignored for opaque
// materials and the asset path always stays the template's.
func (m *Material) Apply(p MaterialParams) {
	opacity := m.params.Opacity
	m.params = p
	m.params.MaterialPath = m.template.Path
	if !m.template.Translucent {
		m.params.Opacity = opacity
	}
}

// HeadlessSpawner spawns in-memory bodies for running without an engine.
// Paths listed in Missing fail to load; so does any empty path.
type HeadlessSpawner struct {
	Missing map[string]bool
	spawned int
}

// NewHeadlessSpawner returns a spawner that accepts every non-empty path.
func NewHeadlessSpawner() *HeadlessSpawner {
	return &HeadlessSpawner{Missing: make(map[string]bool)}
}

// Spawned returns how many bodies are alive.
func (s *HeadlessSpawner) Spawned() int { return s.spawned }

func (s *HeadlessSpawner) exists(path string) bool {
	return path != "" && !s.Missing[path]
}

func (s *HeadlessSpawner) Spawn(name string) (Body, error) {
	s.spawned++
	return &HeadlessBody{name: name, transform: geom.Identity(), ticking: true, spawner: s}, nil
}

// LoadMaterial treats any path containing "Translucent" as translucent.
func (s *HeadlessSpawner) LoadMaterial(path string) (MaterialTemplate, error) {
	if !s.exists(path) {
		return MaterialTemplate{}, fmt.Errorf("%w: material %q", ErrAssetLoad, path)
	}
	return MaterialTemplate{Path: path, Translucent: strings.Contains(path, "Translucent")}, nil
}

// HeadlessBody is an in-memory Body.
type HeadlessBody struct {
	name      string
	mesh      string
	materials []*Material
	visible   bool
	collision bool
	ticking   bool
	transform geom.Transform
	spawner   *HeadlessSpawner
	destroyed bool
}

func (b *HeadlessBody) SetMesh(path string) error {
	if !b.spawner.exists(path) {
		return fmt.Errorf("%w: mesh %q", ErrAssetLoad, path)
	}
	b.mesh = path
	return nil
}

func (b *HeadlessBody) SetMaterial(slot int, m *Material) {
	for len(b.materials) <= slot {
		b.materials = append(b.materials, nil)
	}
	b.materials[slot] = m
}

func (b *HeadlessBody) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.spawner.spawned--
}

func (b *HeadlessBody) SetVisible(v bool)             { b.visible = v }
func (b *HeadlessBody) SetCollision(v bool)           { b.collision = v }
func (b *HeadlessBody) SetTicking(v bool)             { b.ticking = v }
func (b *HeadlessBody) Transform() geom.Transform     { return b.transform }
func (b *HeadlessBody) SetTransform(t geom.Transform) { b.transform = t }
func (b *HeadlessBody) Name() string                  { return b.name }
func (b *HeadlessBody) Mesh() string                  { return b.mesh }
func (b *HeadlessBody) Visible() bool                 { return b.visible }
func (b *HeadlessBody) Collision() bool               { return b.collision }
func (b *HeadlessBody) Ticking() bool                 { return b.ticking }
func (b *HeadlessBody) MaterialSlots() int            { return len(b.materials) }
func (b *HeadlessBody) MaterialAt(slot int) *Material { return b.materials[slot] }
func (b *HeadlessBody) Destroyed() bool               { return b.destroyed }
