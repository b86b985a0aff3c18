package sim

import "fmt"

// Projectile is a live round in flight. It sweeps a ray over each tick's
// travel so fast shots cannot tunnel through thin walls, and detonates
// exactly once: on impact, on touching the ground, or when its lifetime
// runs out, with impact taking priority inside a tick.
type Projectile struct {
	cfg   WeaponConfig
	label string
	owner EntityID // excluded from the collision sweep

	pos      Vec3
	vel      Vec3
	age      float64
	exploded bool
}

// Position returns the projectile's current position.
func (p *Projectile) Position() Vec3 { return p.pos }

// Velocity returns the projectile's current velocity.
func (p *Projectile) Velocity() Vec3 { return p.vel }

// step integrates one tick and reports whether the projectile is still in
// flight.
func (p *Projectile) step(s *Simulation, dt float64) bool {
	p.age += dt
	p.vel.Y -= worldGravity * p.cfg.GravityMultiplier * dt

	move := p.vel.Scale(dt)
	if dist := move.Length(); dist > 1e-9 {
		hit := s.world.Raycast(p.pos, move, dist, p.owner)
		if hit.Hit {
			p.pos = hit.Point
			p.explode(s, "impact")
			return false
		}
		p.pos = p.pos.Add(move)
	}

	if p.pos.Y <= 0 {
		p.pos.Y = 0
		p.explode(s, "ground")
		return false
	}
	if p.age >= p.cfg.Lifetime {
		p.explode(s, "timeout")
		return false
	}
	return true
}

func (p *Projectile) explode(s *Simulation, cause string) {
	if p.exploded {
		return
	}
	p.exploded = true
	s.audio.PlaySound(CueSoundExplode)
	s.logEvent(p.label, "player", "proj", cause,
		fmt.Sprintf("at (%.1f, %.1f, %.1f)", p.pos.X, p.pos.Y, p.pos.Z), p.age)
	s.explodeAt(p.pos, p.cfg.ExplosionRadius, p.cfg.ExplosionForce,
		p.cfg.ExplosionDamage, p.label)
}

// ProjectileResolver resolves a shot by launching a Projectile along the
// spread-perturbed aim ray. Damage happens later, when the round detonates.
type ProjectileResolver struct {
	sim *Simulation
}

func (r *ProjectileResolver) Resolve(w *Weapon, origin, dir Vec3) {
	s := r.sim
	d := s.spreadDir(dir, w.spreadHalfAngle())
	p := &Projectile{
		cfg:   w.cfg,
		label: w.cfg.Name,
		owner: w.wielder.BodyID(),
		pos:   origin,
		vel:   d.Scale(w.cfg.ProjectileSpeed),
	}
	s.projectiles = append(s.projectiles, p)
	s.logEvent(w.cfg.Name, "player", "proj", "launch",
		fmt.Sprintf("speed %.0f m/s", w.cfg.ProjectileSpeed), w.cfg.ProjectileSpeed)
}
