package sim

import (
	"math"
	"testing"
)

// testRifle is the rifle with spread and recoil noise removed so shot
// placement is exact where a test needs it.
func testRifle() WeaponConfig {
	cfg := DefaultRifleConfig()
	cfg.SpreadDegrees = 0
	return cfg
}

func TestReload_TransfersFromReserve(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 5
	cfg.StartReserve = 60
	cfg.ReloadTime = 0.5

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	if !w.Reload() {
		t.Fatal("Reload refused with a part-empty magazine")
	}
	if !w.Reloading() {
		t.Fatal("not reloading after Reload")
	}

	ts.RunTicks(4)
	if cur, _ := w.Ammo(); cur != 5 {
		t.Fatalf("transfer landed early: %d rounds", cur)
	}
	// The countdown expires inside these two ticks on either side of float
	// rounding.
	ts.RunTicks(2)

	cur, res := w.Ammo()
	if cur != 30 || res != 35 {
		t.Fatalf("after reload ammo = %d+%d, want 30+35", cur, res)
	}
	if w.Reloading() {
		t.Fatal("still reloading after the countdown")
	}
	if n := ts.Sounds.CountSound(CueSoundReload); n != 1 {
		t.Fatalf("reload cue played %d times, want 1", n)
	}
}

func TestReload_PartialMagTopsUp(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 28
	cfg.StartReserve = 3
	cfg.ReloadTime = 0.2

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	w.Reload()
	ts.RunTicks(3)
	if cur, res := w.Ammo(); cur != 30 || res != 1 {
		t.Fatalf("ammo = %d+%d, want 30+1", cur, res)
	}
}

func TestReload_ShortReserveMovesWhatThereIs(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 2
	cfg.StartReserve = 7
	cfg.ReloadTime = 0.2

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	w.Reload()
	ts.RunTicks(3)
	if cur, res := w.Ammo(); cur != 9 || res != 0 {
		t.Fatalf("ammo = %d+%d, want 9+0", cur, res)
	}
}

func TestReload_Refusals(t *testing.T) {
	cfg := testRifle()
	cfg.ReloadTime = 1.0

	t.Run("full magazine", func(t *testing.T) {
		ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
		if ts.Player.Weapon().Reload() {
			t.Fatal("Reload accepted with a full magazine")
		}
	})

	t.Run("empty reserve", func(t *testing.T) {
		c := cfg
		c.StartAmmo = 10
		c.StartReserve = 0
		ts := NewTestSim(WithPlayer(20, 20), WithWeapon(c))
		if ts.Player.Weapon().Reload() {
			t.Fatal("Reload accepted with nothing in reserve")
		}
	})

	t.Run("already reloading", func(t *testing.T) {
		c := cfg
		c.StartAmmo = 5
		ts := NewTestSim(WithPlayer(20, 20), WithWeapon(c))
		w := ts.Player.Weapon()
		w.Reload()
		ts.RunTicks(2)
		if w.Reload() {
			t.Fatal("second Reload accepted mid-countdown")
		}
		// The countdown must not have restarted; nine more ticks clear the
		// original 1.0s with a tick to spare.
		ts.RunTicks(9)
		if w.Reloading() {
			t.Fatal("countdown restarted by the rejected Reload")
		}
	})
}

func TestFire_RateGate(t *testing.T) {
	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(testRifle()))
	w := ts.Player.Weapon()

	if !w.Fire() {
		t.Fatal("first shot refused")
	}
	if w.Fire() {
		t.Fatal("second shot in the same instant accepted")
	}

	// 600 RPM is one shot per 0.1s, exactly one default tick.
	ts.RunTicks(1)
	if !w.Fire() {
		t.Fatal("shot refused after the fire interval elapsed")
	}

	if cur, _ := w.Ammo(); cur != 28 {
		t.Fatalf("ammo = %d, want 28 after two shots", cur)
	}
	if n := ts.Sounds.CountSound(CueSoundFire); n != 2 {
		t.Fatalf("fire cue played %d times, want 2", n)
	}
}

func TestFire_EmptyClicks(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 0
	cfg.StartReserve = 30

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	if w.Fire() {
		t.Fatal("fired from an empty magazine")
	}
	if n := ts.Sounds.CountSound(CueSoundEmpty); n != 1 {
		t.Fatalf("empty cue played %d times, want 1", n)
	}
	if n := ts.Sounds.CountSound(CueSoundFire); n != 0 {
		t.Fatal("fire cue played on an empty magazine")
	}
}

func TestFire_BlockedDuringReload(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 5
	cfg.ReloadTime = 0.5

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	w.Reload()
	ts.RunTicks(2)
	if w.Fire() {
		t.Fatal("fired mid-reload")
	}
	ts.RunTicks(4)
	if !w.Fire() {
		t.Fatal("shot refused after the reload finished")
	}
}

func TestFire_AimingNeverGates(t *testing.T) {
	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(testRifle()))
	w := ts.Player.Weapon()

	w.SetAiming(true)
	if !w.Fire() {
		t.Fatal("aiming blocked a shot")
	}
	ts.RunTicks(1)
	w.SetAiming(false)
	if !w.Fire() {
		t.Fatal("leaving the aim stance blocked a shot")
	}
}

func TestAmmo_ConservedAcrossFireAndReload(t *testing.T) {
	cfg := testRifle()
	cfg.StartAmmo = 30
	cfg.StartReserve = 35

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	for i := 0; i < 3; i++ {
		if !w.Fire() {
			t.Fatalf("shot %d refused", i)
		}
		ts.RunTicks(1)
	}
	w.Reload()
	ts.RunTicks(int(cfg.ReloadTime/ts.Dt) + 2)

	cur, res := w.Ammo()
	if cur+res != 62 {
		t.Fatalf("rounds not conserved: %d+%d = %d, want 62", cur, res, cur+res)
	}
	if cur != 30 {
		t.Fatalf("magazine = %d, want 30", cur)
	}
}

func TestAddAmmo_CreditsReserve(t *testing.T) {
	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(testRifle()))
	w := ts.Player.Weapon()

	if got := w.AddAmmo(30); got != 120 {
		t.Fatalf("reserve = %d, want 120", got)
	}
	if got := w.AddAmmo(0); got != 120 {
		t.Fatalf("AddAmmo(0) changed reserve to %d", got)
	}
	if got := w.AddAmmo(-5); got != 120 {
		t.Fatalf("AddAmmo(-5) changed reserve to %d", got)
	}
}

func TestWeaponState_Lifecycle(t *testing.T) {
	cfg := testRifle()
	cfg.FireRateRPM = 120 // 0.5s interval, several ticks of "firing"
	cfg.ReloadTime = 0.3

	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	if w.State() != WeaponIdle {
		t.Fatalf("fresh weapon state = %v, want idle", w.State())
	}
	w.Fire()
	if w.State() != WeaponFiring {
		t.Fatalf("state after Fire = %v, want firing", w.State())
	}
	ts.RunTicks(2)
	if w.State() != WeaponFiring {
		t.Fatalf("state inside fire interval = %v, want firing", w.State())
	}
	ts.RunTicks(4)
	if w.State() != WeaponIdle {
		t.Fatalf("state after interval = %v, want idle", w.State())
	}
	w.Reload()
	if w.State() != WeaponReloading {
		t.Fatalf("state after Reload = %v, want reloading", w.State())
	}
	ts.RunTicks(4)
	if w.State() != WeaponIdle {
		t.Fatalf("state after reload = %v, want idle", w.State())
	}
}

func TestSpread_AimFactorTightensCone(t *testing.T) {
	cfg := DefaultRifleConfig() // spread 3.0, aim factor 0.3
	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	if got := w.spreadHalfAngle(); math.Abs(got-3.0) > 1e-12 {
		t.Fatalf("hip spread = %v, want 3.0", got)
	}
	w.SetAiming(true)
	if got := w.spreadHalfAngle(); math.Abs(got-0.9) > 1e-12 {
		t.Fatalf("aim spread = %v, want 0.9", got)
	}
}

func TestViewOffset_BlendsTowardStance(t *testing.T) {
	cfg := testRifle()
	cfg.AimLerpRate = 3 // partial blend per tick
	ts := NewTestSim(WithPlayer(20, 20), WithWeapon(cfg))
	w := ts.Player.Weapon()

	if w.ViewOffset() != cfg.HipOffset {
		t.Fatalf("fresh view offset = %v, want hip %v", w.ViewOffset(), cfg.HipOffset)
	}

	w.SetAiming(true)
	start := w.ViewOffset().DistanceTo(cfg.AimOffset)
	ts.RunTicks(1)
	mid := w.ViewOffset().DistanceTo(cfg.AimOffset)
	if mid >= start {
		t.Fatalf("offset not moving toward aim stance: %v -> %v", start, mid)
	}

	ts.RunTicks(40)
	if d := w.ViewOffset().DistanceTo(cfg.AimOffset); d > 0.01 {
		t.Fatalf("offset never converged on aim stance, still %.4f away", d)
	}

	w.SetAiming(false)
	ts.RunTicks(40)
	if d := w.ViewOffset().DistanceTo(cfg.HipOffset); d > 0.01 {
		t.Fatalf("offset never returned to hip stance, still %.4f away", d)
	}
}

// Every hitscan shot leaves a tracer, hit or miss.
func TestFire_AlwaysTraces(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40), WithPlayer(20, 20), WithWeapon(testRifle()))
	w := ts.Player.Weapon()

	w.Fire()
	if len(ts.Sim.Tracers()) != 1 {
		t.Fatalf("tracers = %d, want 1", len(ts.Sim.Tracers()))
	}
}
