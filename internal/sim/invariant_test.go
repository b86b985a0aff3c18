package sim

import (
	"fmt"
	"math"
	"testing"
)

// Randomized soak: several seeds, a few hundred ticks of player movement,
// gunfire and scripted damage, with the core invariants checked after every
// tick. Catches clamping and lifecycle regressions that the focused tests
// miss.
func TestInvariants_RandomizedRuns(t *testing.T) {
	for _, seed := range []int64{1, 7, 42} {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			runInvariantSoak(t, seed)
		})
	}
}

func runInvariantSoak(t *testing.T, seed int64) {
	t.Helper()

	cfg := DefaultGuardConfig()
	ts := NewTestSim(
		WithArena(40, 40),
		WithSeed(seed),
		WithWall(15, 5, 2, 10, 3),
		WithWall(24, 22, 8, 2, 3),
		WithPlayer(20, 20),
		WithGuard(cfg, 8, 8, 0),
		WithPatrolGuard(cfg, 32, 8, math.Pi,
			Waypoint{Pos: Vec3{X: 32, Z: 32}},
			Waypoint{Pos: Vec3{X: 8, Z: 32}, Wait: 0.5}),
		WithPatrolGuard(cfg, 20, 35, 0,
			Waypoint{Pos: Vec3{X: 20, Z: 5}},
			Waypoint{Pos: Vec3{X: 35, Z: 20}}),
		WithWeapon(DefaultRifleConfig()),
	)

	deadSeen := map[string]bool{}
	capacity := ts.Player.Weapon().Config().Capacity

	for tick := 1; tick <= 400; tick++ {
		// Wander the player on a lissajous-ish path and take potshots.
		fw := math.Sin(float64(tick) * 0.07)
		st := math.Cos(float64(tick) * 0.11)
		ts.Player.Move(fw, st, ts.Dt)

		if tick%7 == 0 && len(ts.Sim.Agents()) > 0 {
			g := ts.Sim.Agents()[0]
			if !g.Dead() {
				ts.Player.LookAt(g.Body().Pos)
				ts.Player.Weapon().Fire()
			}
		}
		if tick%60 == 0 {
			ts.Player.Weapon().Reload()
		}
		if tick%50 == 0 {
			for _, g := range ts.Sim.Agents() {
				if !g.Dead() {
					src := ts.Player.Position()
					g.TakeDamage(15, &src)
					break
				}
			}
		}

		ts.RunTicks(1)

		for _, g := range ts.Sim.Agents() {
			if al := g.Alertness(); al < 0 || al > 100 {
				t.Fatalf("tick %d: %s alertness %.2f out of [0,100]", tick, g.Label(), al)
			}
			if hp := g.Health(); hp < 0 || hp > cfg.MaxHealth {
				t.Fatalf("tick %d: %s health %d out of [0,%d]", tick, g.Label(), hp, cfg.MaxHealth)
			}
			pos := g.Position()
			if pos.X < 0 || pos.X > 40 || pos.Z < 0 || pos.Z > 40 {
				t.Fatalf("tick %d: %s escaped the arena at (%.2f,%.2f)", tick, g.Label(), pos.X, pos.Z)
			}
			if deadSeen[g.Label()] && !g.Dead() {
				t.Fatalf("tick %d: %s came back from the dead", tick, g.Label())
			}
			if g.Dead() {
				deadSeen[g.Label()] = true
				if g.Body().Enabled() {
					t.Fatalf("tick %d: dead %s still has an enabled collider", tick, g.Label())
				}
			}
		}

		cur, res := ts.Player.Weapon().Ammo()
		if cur < 0 || cur > capacity || res < 0 {
			t.Fatalf("tick %d: ammo %d+%d out of bounds", tick, cur, res)
		}
		if hp := ts.Player.Health(); hp < 0 || hp > 100 {
			t.Fatalf("tick %d: player health %d out of [0,100]", tick, hp)
		}
	}
}

// Two identical seeds produce identical runs tick for tick.
func TestInvariants_Deterministic(t *testing.T) {
	trace := func() []string {
		cfg := DefaultGuardConfig()
		ts := NewTestSim(
			WithArena(40, 40),
			WithSeed(99),
			WithPlayer(30, 30),
			WithPatrolGuard(cfg, 10, 10, 0,
				Waypoint{Pos: Vec3{X: 30, Z: 10}},
				Waypoint{Pos: Vec3{X: 10, Z: 30}}),
		)
		ts.RunTicks(300)
		var out []string
		for _, e := range ts.Log().Entries() {
			out = append(out, e.String())
		}
		g := ts.Guard(0)
		out = append(out, fmt.Sprintf("final %.6f,%.6f a=%.4f", g.Position().X, g.Position().Z, g.Alertness()))
		return out
	}

	a, b := trace(), trace()
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverge at entry %d:\n%s\n%s", i, a[i], b[i])
		}
	}
}
