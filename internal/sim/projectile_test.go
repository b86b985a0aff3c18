package sim

import (
	"math"
	"testing"
)

func testLauncher() WeaponConfig {
	cfg := DefaultLauncherConfig()
	cfg.SpreadDegrees = 0
	return cfg
}

func TestProjectile_FlatFlightWithoutGravity(t *testing.T) {
	cfg := testLauncher()
	cfg.ProjectileSpeed = 10
	cfg.GravityMultiplier = 0
	cfg.Lifetime = 10

	ts := NewTestSim(WithArena(40, 40), WithPlayer(5, 10), WithWeapon(cfg))
	ts.Player.Weapon().Fire() // yaw 0: straight down +X from the eye

	if !ts.Log().HasEntry("proj", "launch", "") {
		t.Fatal("launch not logged")
	}
	if len(ts.Sim.Projectiles()) != 1 {
		t.Fatalf("projectiles in flight = %d, want 1", len(ts.Sim.Projectiles()))
	}

	ts.RunTicks(5) // 0.5s at 10 m/s
	p := ts.Sim.Projectiles()[0]
	pos := p.Position()
	if math.Abs(pos.X-10) > 1e-9 || math.Abs(pos.Y-1.7) > 1e-9 || math.Abs(pos.Z-10) > 1e-9 {
		t.Fatalf("position after 0.5s = %v, want (10, 1.7, 10)", pos)
	}
}

func TestProjectile_WallImpactDetonatesOnce(t *testing.T) {
	cfg := testLauncher()
	cfg.ProjectileSpeed = 10
	cfg.GravityMultiplier = 0
	cfg.Lifetime = 10

	ts := NewTestSim(
		WithArena(40, 40),
		WithWall(9, 8, 1, 4, 3),
		WithPlayer(5, 10),
		WithWeapon(cfg),
	)
	ts.Player.Weapon().Fire()
	ts.RunTicks(10)

	if !ts.Log().HasEntry("proj", "impact", "") {
		t.Fatal("no impact detonation logged")
	}
	if n := len(ts.Sim.Projectiles()); n != 0 {
		t.Fatalf("projectiles still in flight after detonation: %d", n)
	}
	if n := ts.Sounds.CountSound(CueSoundExplode); n != 1 {
		t.Fatalf("explode cue played %d times, want exactly 1", n)
	}
	if n := ts.Log().CountCategory("proj", ""); n != 2 {
		t.Fatalf("proj log entries = %d, want launch + impact", n)
	}

	e, _ := ts.Log().LastOf("proj", "impact")
	if e.Actor != "launcher" {
		t.Fatalf("impact attributed to %q, want launcher", e.Actor)
	}
}

func TestProjectile_GravityDropsToGround(t *testing.T) {
	cfg := testLauncher()
	cfg.ProjectileSpeed = 10
	cfg.GravityMultiplier = 1.0
	cfg.Lifetime = 10

	ts := NewTestSim(WithArena(200, 200), WithPlayer(5, 10), WithWeapon(cfg))
	ts.Player.Weapon().Fire()
	// Launched level from 1.7m, the round grounds inside 0.6s; stop before
	// the 0.45s blast ring fades.
	ts.RunTicks(8)

	if !ts.Log().HasEntry("proj", "ground", "") {
		t.Fatal("no ground detonation logged")
	}
	if len(ts.Sim.Projectiles()) != 0 {
		t.Fatal("projectile survived hitting the ground")
	}
	if len(ts.Sim.Blasts()) == 0 {
		t.Fatal("no blast spawned by the ground detonation")
	}
}

func TestProjectile_LifetimeTimeout(t *testing.T) {
	cfg := testLauncher()
	cfg.ProjectileSpeed = 10
	cfg.GravityMultiplier = 0
	cfg.Lifetime = 0.3

	ts := NewTestSim(WithArena(40, 40), WithPlayer(5, 10), WithWeapon(cfg))
	ts.Player.Weapon().Fire()
	ts.RunTicks(3)

	if !ts.Log().HasEntry("proj", "timeout", "") {
		t.Fatal("no timeout detonation logged")
	}
	if len(ts.Sim.Projectiles()) != 0 {
		t.Fatal("projectile survived its lifetime")
	}

	// Detonated midair, well short of the ground or any wall.
	e, _ := ts.Log().LastOf("proj", "timeout")
	if e.NumVal < cfg.Lifetime {
		t.Fatalf("timed out at age %.2f, before the %.2fs lifetime", e.NumVal, cfg.Lifetime)
	}
}

// When a round would both cross a wall and age out in the same tick, the
// sweep runs first: it detonates on the wall.
func TestProjectile_CollisionBeatsTimeout(t *testing.T) {
	cfg := testLauncher()
	cfg.ProjectileSpeed = 10
	cfg.GravityMultiplier = 0
	cfg.Lifetime = 0.1

	ts := NewTestSim(
		WithArena(40, 40),
		WithWall(5.5, 8, 1, 4, 3),
		WithPlayer(5, 10),
		WithWeapon(cfg),
	)
	ts.Player.Weapon().Fire()
	ts.RunTicks(1)

	if !ts.Log().HasEntry("proj", "impact", "") {
		t.Fatal("no impact logged for the wall half a meter out")
	}
	if ts.Log().HasEntry("proj", "timeout", "") {
		t.Fatal("timeout fired in the same tick as the impact")
	}
}

func TestExplosion_FalloffDamageAndImpulse(t *testing.T) {
	ts := NewTestSim(
		WithArena(40, 40),
		WithProp(14, 10, 0.5),
		WithGuard(DefaultGuardConfig(), 10, 10, 0),
	)
	g := ts.Guard(0)

	// Guard collider center sits 2.5m from the blast: falloff factor 0.5.
	center := Vec3{X: g.Body().Pos.X + 2.5, Y: g.Body().Pos.Y, Z: g.Body().Pos.Z}
	ts.Sim.explodeAt(center, 5, 30, 80, "launcher")

	if g.Health() != 60 {
		t.Fatalf("guard health = %d, want 60 (80 damage at factor 0.5)", g.Health())
	}

	caughtAtHalf := false
	for _, e := range ts.Log().Filter("blast", "caught") {
		if math.Abs(e.NumVal-0.5) < 0.01 {
			caughtAtHalf = true
		}
	}
	if !caughtAtHalf {
		t.Fatalf("no blast/caught entry with factor 0.5:\n%s", ts.Log().Format())
	}

	props := ts.Sim.World().BodiesWithin(Vec3{X: 14, Y: 0.5, Z: 10}, 0.1)
	if len(props) != 1 {
		t.Fatalf("prop lookup found %d bodies", len(props))
	}
	if v := props[0].LinearVelocity(); v.X <= 0 {
		t.Fatalf("prop velocity = %v, want an outward +X shove", v)
	}
}

func TestExplosion_BeyondRadiusUntouched(t *testing.T) {
	ts := NewTestSim(
		WithArena(40, 40),
		WithGuard(DefaultGuardConfig(), 30, 30, 0),
	)
	g := ts.Guard(0)

	ts.Sim.explodeAt(Vec3{X: 10, Y: 1, Z: 10}, 5, 30, 80, "launcher")

	if g.Health() != 100 {
		t.Fatalf("guard 28m away took blast damage: %d hp", g.Health())
	}
	if n := ts.Log().CountCategory("blast", "caught"); n != 0 {
		t.Fatalf("blast caught %d bodies, want 0", n)
	}
}
