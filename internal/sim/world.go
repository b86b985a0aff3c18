package sim

import "math"

// EntityID identifies anything a ray can strike: obstacles, agents, the
// player, props, projectiles. Zero means "nothing".
type EntityID int64

// NoEntity is the zero EntityID.
const NoEntity EntityID = 0

const worldGravity = 9.81 // m/s^2, scaled per projectile by GravityMultiplier

// Body is a dynamic sphere collider registered with the World. Positions are
// written by whoever owns the entity (agents own their own transform); the
// body exists so rays, blasts and impulses can find it.
type Body struct {
	id      EntityID
	Pos     Vec3
	vel     Vec3
	Radius  float64
	Dynamic bool // static bodies ignore impulses
	enabled bool
}

// ID returns the entity id assigned at registration.
func (b *Body) ID() EntityID { return b.id }

// Enabled reports whether the body participates in rays and blasts.
func (b *Body) Enabled() bool { return b.enabled }

// SetEnabled toggles participation. Death disables an agent's body.
func (b *Body) SetEnabled(on bool) { b.enabled = on }

// LinearVelocity returns the body's current velocity.
func (b *Body) LinearVelocity() Vec3 { return b.vel }

// SetLinearVelocity overwrites the body's velocity.
func (b *Body) SetLinearVelocity(v Vec3) { b.vel = v }

// ApplyImpulse adds an already-scaled impulse to a dynamic body's velocity.
// The application point is accepted for interface compatibility; bodies are
// spheres, so no torque results.
func (b *Body) ApplyImpulse(impulse Vec3, at Vec3) {
	if !b.Dynamic {
		return
	}
	b.vel = b.vel.Add(impulse)
}

// Obstacle is a static axis-aligned box: walls, crate stacks, the arena rim.
type Obstacle struct {
	ID       EntityID
	Min, Max Vec3
}

// RayHit is the result of a world raycast.
type RayHit struct {
	Hit    bool
	T      float64 // distance along the ray in meters
	Point  Vec3
	Normal Vec3
	Entity EntityID
}

// World holds the static geometry and the registered dynamic bodies, and
// answers the spatial queries the sim core needs: raycasts, radius queries,
// bounds clamping.
type World struct {
	minX, minZ float64
	maxX, maxZ float64

	obstacles []Obstacle
	bodies    []*Body
	nextID    EntityID
}

// NewWorld creates a world spanning (0,0)-(sizeX,sizeZ) on the ground plane.
func NewWorld(sizeX, sizeZ float64) *World {
	return &World{maxX: sizeX, maxZ: sizeZ, nextID: 1}
}

// Size returns the ground-plane extent.
func (w *World) Size() (float64, float64) { return w.maxX, w.maxZ }

// AddObstacle registers a static box and returns its entity id.
func (w *World) AddObstacle(min, max Vec3) EntityID {
	id := w.nextID
	w.nextID++
	w.obstacles = append(w.obstacles, Obstacle{ID: id, Min: min, Max: max})
	return id
}

// AddWall is a convenience for a full-height box on the ground plane.
func (w *World) AddWall(x, z, sizeX, sizeZ, height float64) EntityID {
	return w.AddObstacle(Vec3{X: x, Z: z}, Vec3{X: x + sizeX, Y: height, Z: z + sizeZ})
}

// Obstacles returns the static geometry (read-only by convention).
func (w *World) Obstacles() []Obstacle { return w.obstacles }

// NewBody registers a dynamic or static sphere body at pos.
func (w *World) NewBody(pos Vec3, radius float64, dynamic bool) *Body {
	id := w.nextID
	w.nextID++
	b := &Body{id: id, Pos: pos, Radius: radius, Dynamic: dynamic, enabled: true}
	w.bodies = append(w.bodies, b)
	return b
}

// Body returns the registered body with the given id, or nil.
func (w *World) Body(id EntityID) *Body {
	for _, b := range w.bodies {
		if b.id == id {
			return b
		}
	}
	return nil
}

// RemoveBody unregisters a body. Safe to call with a body that is gone.
func (w *World) RemoveBody(b *Body) {
	for i, o := range w.bodies {
		if o == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// Clamp keeps a point inside the arena with the given margin.
func (w *World) Clamp(p Vec3, margin float64) Vec3 {
	p.X = math.Max(w.minX+margin, math.Min(w.maxX-margin, p.X))
	p.Z = math.Max(w.minZ+margin, math.Min(w.maxZ-margin, p.Z))
	return p
}

// Raycast finds the nearest intersection along a ray, testing obstacle boxes
// and enabled bodies. The ignore entity (typically the firer, or the probing
// agent itself) is skipped. Direction need not be normalized.
func (w *World) Raycast(origin, dir Vec3, maxDist float64, ignore EntityID) RayHit {
	d := dir.Normalized()
	if d.LengthSq() < 1e-12 || maxDist <= 0 {
		return RayHit{}
	}

	best := RayHit{T: maxDist}
	for _, o := range w.obstacles {
		if o.ID == ignore {
			continue
		}
		if t, n, ok := rayBoxHit(origin, d, best.T, o.Min, o.Max); ok {
			best = RayHit{Hit: true, T: t, Normal: n, Entity: o.ID}
		}
	}
	for _, b := range w.bodies {
		if !b.enabled || b.id == ignore {
			continue
		}
		if t, ok := raySphereHit(origin, d, best.T, b.Pos, b.Radius); ok {
			p := origin.Add(d.Scale(t))
			best = RayHit{Hit: true, T: t, Normal: p.Sub(b.Pos).Normalized(), Entity: b.id}
		}
	}
	if best.Hit {
		best.Point = origin.Add(d.Scale(best.T))
	}
	return best
}

// LineOfSight reports whether the segment from a to b is unobstructed by
// static geometry. Bodies do not block general sightlines.
func (w *World) LineOfSight(a, b Vec3) bool {
	d := b.Sub(a)
	dist := d.Length()
	if dist < 1e-9 {
		return true
	}
	dir := d.Scale(1.0 / dist)
	for _, o := range w.obstacles {
		if _, _, ok := rayBoxHit(a, dir, dist, o.Min, o.Max); ok {
			return false
		}
	}
	return true
}

// BodiesWithin returns enabled bodies whose centers lie within radius of p.
func (w *World) BodiesWithin(p Vec3, radius float64) []*Body {
	var out []*Body
	for _, b := range w.bodies {
		if !b.enabled {
			continue
		}
		if b.Pos.DistanceTo(p) <= radius {
			out = append(out, b)
		}
	}
	return out
}

// Step integrates dynamic body drift from accumulated impulses with a flat
// damping factor. Agents and the player own their positions, so only loose
// props actually move here.
func (w *World) Step(dt float64, owned func(EntityID) bool) {
	const damping = 4.0
	for _, b := range w.bodies {
		if !b.Dynamic || !b.enabled || (owned != nil && owned(b.id)) {
			continue
		}
		if b.vel.LengthSq() < 1e-6 {
			b.vel = Vec3{}
			continue
		}
		b.Pos = b.Pos.Add(b.vel.Scale(dt))
		b.Pos = w.Clamp(b.Pos, b.Radius)
		if b.Pos.Y < b.Radius {
			b.Pos.Y = b.Radius
			if b.vel.Y < 0 {
				b.vel.Y = 0
			}
		}
		f := 1.0 - damping*dt
		if f < 0 {
			f = 0
		}
		b.vel = b.vel.Scale(f)
	}
}

// rayBoxHit returns the entry distance t in [0,tMaxLimit] where the ray from
// origin along unit dir enters the AABB, plus the surface normal at entry.
// The slab test runs per axis; a near-zero direction component degenerates
// to a containment check on that axis.
func rayBoxHit(origin, dir Vec3, tMaxLimit float64, bmin, bmax Vec3) (float64, Vec3, bool) {
	tMin := 0.0
	tMax := tMaxLimit
	axis := -1 // axis whose slab produced tMin
	sign := 0.0

	check := func(o, d, lo, hi float64, ax int) bool {
		if math.Abs(d) < 1e-12 {
			return o >= lo && o <= hi
		}
		invD := 1.0 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}
		if t1 > tMin {
			tMin = t1
			axis = ax
			sign = s
		}
		if t2 < tMax {
			tMax = t2
		}
		return tMin <= tMax
	}

	if !check(origin.X, dir.X, bmin.X, bmax.X, 0) {
		return 0, Vec3{}, false
	}
	if !check(origin.Y, dir.Y, bmin.Y, bmax.Y, 1) {
		return 0, Vec3{}, false
	}
	if !check(origin.Z, dir.Z, bmin.Z, bmax.Z, 2) {
		return 0, Vec3{}, false
	}
	if tMax < 0 || tMin > tMaxLimit {
		return 0, Vec3{}, false
	}
	if tMin < 0 {
		// Origin inside the box.
		tMin = 0
	}

	var n Vec3
	switch axis {
	case 0:
		n = Vec3{X: sign}
	case 1:
		n = Vec3{Y: sign}
	case 2:
		n = Vec3{Z: sign}
	}
	return tMin, n, true
}

// raySphereHit returns the entry distance t in [0,tMaxLimit] where the ray
// from origin along unit dir first meets the sphere.
func raySphereHit(origin, dir Vec3, tMaxLimit float64, center Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.LengthSq() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq // origin inside the sphere
	}
	if t < 0 || t > tMaxLimit {
		return 0, false
	}
	return t, true
}
