package sim

import (
	"fmt"
	"math"
)

// penetrationStep is how far past a punched surface the follow-up ray
// starts, so the continuation cannot re-enter the same face.
const penetrationStep = 0.02 // meters

// HitscanResolver resolves a shot as an instantaneous ray: perturb the aim
// by the current spread cone, walk the ray through up to Penetration
// surfaces with damage falloff, apply impulses, and always leave a tracer
// from the muzzle to the deepest point reached.
type HitscanResolver struct {
	sim *Simulation
}

func (r *HitscanResolver) Resolve(w *Weapon, origin, dir Vec3) {
	s := r.sim
	d := s.spreadDir(dir, w.spreadHalfAngle())

	damage := float64(w.cfg.Damage)
	remaining := w.cfg.MaxRange
	from := origin
	ignore := w.wielder.BodyID()
	end := origin.Add(d.Scale(remaining))
	surfaces := 0

	for remaining > 0 {
		hit := s.world.Raycast(from, d, remaining, ignore)
		if !hit.Hit {
			break
		}
		end = hit.Point

		dmg := int(math.Round(damage))
		if b := s.world.Body(hit.Entity); b != nil && w.cfg.ImpactForce > 0 {
			b.ApplyImpulse(d.Scale(w.cfg.ImpactForce), hit.Point)
		}
		if s.damageEntity(hit.Entity, dmg, &origin) {
			s.logEvent(w.cfg.Name, "player", "weapon", "hit",
				fmt.Sprintf("entity %d for %d", hit.Entity, dmg), float64(dmg))
		} else {
			s.logEvent(w.cfg.Name, "player", "weapon", "impact",
				fmt.Sprintf("entity %d", hit.Entity), hit.T)
		}

		if surfaces >= w.cfg.Penetration {
			break
		}
		surfaces++
		damage *= w.cfg.PenetrationFalloff
		if damage < 1 {
			break
		}
		// Continue just past the surface, skipping the entity we punched.
		remaining -= hit.T + penetrationStep
		from = hit.Point.Add(d.Scale(penetrationStep))
		ignore = hit.Entity
	}

	s.addTracer(origin, end)
}
