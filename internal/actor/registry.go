package actor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
)

// ErrNameClaimed is returned when an actor tries to activate under a name
// that a different live actor already holds. The first owner keeps it.
var ErrNameClaimed = errors.New("custom actor name already claimed")

// Actor is one custom actor. Its snapshot is the authoritative state: while
// replaying the body is driven from the snapshot, otherwise the snapshot is
// refreshed from the body.
type Actor struct {
	id       uuid.UUID
	name     string
	body     Body
	material *Material
	snapshot Snapshot
	active   bool
	registry *Registry
}

func (a *Actor) ID() uuid.UUID       { return a.id }
func (a *Actor) Name() string        { return a.name }
func (a *Actor) Body() Body          { return a.body }
func (a *Actor) Material() *Material { return a.material }
func (a *Actor) Active() bool        { return a.active }
func (a *Actor) Snapshot() Snapshot  { return a.snapshot }

// ApplySnapshot overwrites the authoritative pose, material and payload.
// The identity fields (name, mesh) are left alone.
func (a *Actor) ApplySnapshot(s Snapshot) {
	a.snapshot.Transform = s.Transform
	a.snapshot.Materials = s.Materials
	a.snapshot.Other = s.Other
}

// SetTransform moves the live body. Scene controllers use it while
// capturing; the next tick copies the pose into the snapshot.
func (a *Actor) SetTransform(t geom.Transform) {
	a.body.SetTransform(t)
}

// Tick synchronises body and snapshot in the direction given by replaying.
// Inactive actors are left alone.
func (a *Actor) Tick(replaying bool) {
	if !a.active {
		return
	}
	if replaying {
		a.body.SetTransform(a.snapshot.Transform)
		a.material.Apply(a.snapshot.Materials)
		return
	}
	a.snapshot.Transform = a.body.Transform()
	a.snapshot.Materials = a.material.Params()
}

// Activate shows the actor and claims its name.
func (a *Actor) Activate() error { return a.registry.Activate(a) }

// Deactivate hides the actor and releases its name.
func (a *Actor) Deactivate() { a.registry.Deactivate(a) }

// Registry is an arena of custom actors keyed by generated id, with the
// unique name as a secondary index. All access happens on the tick thread.
type Registry struct {
	spawner Spawner
	actors  map[uuid.UUID]*Actor
	byName  map[string]uuid.UUID
	live    map[string]uuid.UUID
}

// NewRegistry returns an empty registry that creates bodies with spawner.
func NewRegistry(spawner Spawner) *Registry {
	return &Registry{
		spawner: spawner,
		actors:  make(map[uuid.UUID]*Actor),
		byName:  make(map[string]uuid.UUID),
		live:    make(map[string]uuid.UUID),
	}
}

// Create returns the actor named name, spawning it if the arena has none.
// A new actor gets meshPath, one dynamic material from materialPath pinned to
// every slot, and claims its name. An existing actor is returned as is and
// re-claims its name if it had been deactivated.
func (r *Registry) Create(meshPath, materialPath, name string) (*Actor, error) {
	if name == "" {
		return nil, fmt.Errorf("custom actor needs a name")
	}
	if id, ok := r.byName[name]; ok {
		a := r.actors[id]
		r.live[name] = a.id
		return a, nil
	}

	tmpl, err := r.spawner.LoadMaterial(materialPath)
	if err != nil {
		monitoring.Logf("[CustomActor] %s: unable to load material %q: %v", name, materialPath, err)
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	body, err := r.spawner.Spawn(name)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	if err := body.SetMesh(meshPath); err != nil {
		body.Destroy()
		monitoring.Logf("[CustomActor] %s: unable to load mesh %q: %v", name, meshPath, err)
		return nil, fmt.Errorf("create %q: %w", name, err)
	}

	mat := newMaterial(tmpl)
	for slot := 0; slot < MaxMaterialSlots; slot++ {
		body.SetMaterial(slot, mat)
	}
	body.SetVisible(false)
	body.SetCollision(false)
	body.SetTicking(false)

	a := &Actor{
		id:       uuid.New(),
		name:     name,
		body:     body,
		material: mat,
		registry: r,
		snapshot: Snapshot{
			Transform: body.Transform(),
			MeshPath:  meshPath,
			Materials: mat.Params(),
			Name:      name,
		},
	}
	r.actors[a.id] = a
	r.byName[name] = a.id
	r.live[name] = a.id
	monitoring.Metrics().ActorSpawned()
	return a, nil
}

// Activate makes a visible, collidable and ticking. Activating an actor that
// is already active is a no-op. If another live actor holds the name the
// claim is refused with ErrNameClaimed.
func (r *Registry) Activate(a *Actor) error {
	if a.registry != r {
		monitoring.Logf("[CustomActor] refusing to activate %q: owned by another registry", a.name)
		return fmt.Errorf("%w: %q", ErrNameClaimed, a.name)
	}
	if id, ok := r.live[a.name]; ok && id != a.id {
		monitoring.Logf("[CustomActor] refusing to activate %q (%s): name held by %s", a.name, a.id, id)
		return fmt.Errorf("%w: %q", ErrNameClaimed, a.name)
	}
	r.live[a.name] = a.id
	if a.active {
		return nil
	}
	a.active = true
	a.body.SetVisible(true)
	a.body.SetCollision(true)
	a.body.SetTicking(true)
	return nil
}

// Deactivate hides a and releases its name. The actor stays in the arena
// and can be activated again. Deactivating twice is a no-op.
func (r *Registry) Deactivate(a *Actor) {
	if id, ok := r.live[a.name]; ok && id == a.id {
		delete(r.live, a.name)
	}
	if !a.active {
		return
	}
	a.active = false
	a.body.SetVisible(false)
	a.body.SetCollision(false)
	a.body.SetTicking(false)
}

// Lookup returns the live actor holding name.
func (r *Registry) Lookup(name string) (*Actor, bool) {
	id, ok := r.live[name]
	if !ok {
		return nil, false
	}
	return r.actors[id], true
}

// Len returns the number of actors in the arena, live or not.
func (r *Registry) Len() int { return len(r.actors) }

// Active returns the active actors ordered by name.
func (r *Registry) Active() []*Actor {
	out := make([]*Actor, 0, len(r.live))
	for _, id := range r.live {
		if a := r.actors[id]; a.active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Snapshots returns the snapshots of every active actor, ordered by name.
func (r *Registry) Snapshots() []Snapshot {
	active := r.Active()
	out := make([]Snapshot, len(active))
	for i, a := range active {
		out[i] = a.snapshot
	}
	return out
}

// Tick advances every active actor.
func (r *Registry) Tick(replaying bool) {
	for _, a := range r.Active() {
		a.Tick(replaying)
	}
}

// DeactivateAll releases every live name.
func (r *Registry) DeactivateAll() {
	for _, a := range r.Active() {
		r.Deactivate(a)
	}
}

// Replay presents a recorded snapshot. The actor is looked up by name and
// created from the snapshot's mesh and material if absent. When prev is
// given its transform is interpolated towards next at fraction p. The actor
// is activated and ticked at once so its body reflects the snapshot without
// waiting for the next scheduled tick.
func (r *Registry) Replay(prev *Snapshot, next Snapshot, p float64) (*Actor, error) {
	a, ok := r.Lookup(next.Name)
	if !ok {
		var err error
		a, err = r.Create(next.MeshPath, next.Materials.MaterialPath, next.Name)
		if err != nil {
			return nil, err
		}
	}

	s := next
	if prev != nil {
		s = Interpolate(*prev, next, p)
	}
	a.ApplySnapshot(s)
	if err := r.Activate(a); err != nil {
		return nil, err
	}
	a.Tick(true)
	return a, nil
}
