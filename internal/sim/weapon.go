package sim

import "fmt"

// WeaponKind selects the hit resolution strategy.
type WeaponKind int

const (
	KindHitscan WeaponKind = iota
	KindProjectile
)

// WeaponState is the weapon's own little machine. Aiming is orthogonal and
// never appears here.
type WeaponState int

const (
	WeaponIdle WeaponState = iota
	WeaponFiring
	WeaponReloading
)

func (ws WeaponState) String() string {
	switch ws {
	case WeaponIdle:
		return "idle"
	case WeaponFiring:
		return "firing"
	case WeaponReloading:
		return "reloading"
	default:
		return "unknown"
	}
}

// Wielder supplies the aim ray at the moment of firing and the collider to
// exclude from the weapon's own shots.
type Wielder interface {
	AimRay() (origin, dir Vec3)
	BodyID() EntityID
}

// HitResolver is the strategy a successful Fire invokes.
type HitResolver interface {
	Resolve(w *Weapon, origin, dir Vec3)
}

// WeaponConfig is the numeric definition of one weapon type.
type WeaponConfig struct {
	Name string
	Kind WeaponKind

	Capacity     int
	StartAmmo    int
	StartReserve int
	FireRateRPM  float64
	ReloadTime   float64 // seconds

	SpreadDegrees   float64 // cone half-angle from the hip
	AimSpreadFactor float64 // spread multiplier while aiming
	AimLerpRate     float64 // view-model blend speed, 1/s
	HipOffset       Vec3    // view-model stance positions, cosmetic
	AimOffset       Vec3

	// Hitscan strategy.
	MaxRange           float64
	Damage             int
	ImpactForce        float64
	Penetration        int     // extra surfaces a shot may punch through
	PenetrationFalloff float64 // damage multiplier per punched surface

	// Projectile strategy.
	ProjectileSpeed   float64
	GravityMultiplier float64 // 0 disables gravity entirely
	Lifetime          float64 // seconds until self-detonation
	ExplosionRadius   float64
	ExplosionForce    float64
	ExplosionDamage   int
}

// DefaultRifleConfig returns the hitscan service rifle.
func DefaultRifleConfig() WeaponConfig {
	return WeaponConfig{
		Name:            "rifle",
		Kind:            KindHitscan,
		Capacity:        30,
		StartAmmo:       30,
		StartReserve:    90,
		FireRateRPM:     600,
		ReloadTime:      2.2,
		SpreadDegrees:   3.0,
		AimSpreadFactor: 0.3,
		AimLerpRate:     10,
		HipOffset:       Vec3{X: 0.25, Y: -0.22, Z: 0.45},
		AimOffset:       Vec3{Y: -0.12, Z: 0.35},

		MaxRange:           80,
		Damage:             18,
		ImpactForce:        40,
		Penetration:        0,
		PenetrationFalloff: 0.5,
	}
}

// DefaultLauncherConfig returns the projectile grenade launcher.
func DefaultLauncherConfig() WeaponConfig {
	return WeaponConfig{
		Name:            "launcher",
		Kind:            KindProjectile,
		Capacity:        1,
		StartAmmo:       1,
		StartReserve:    5,
		FireRateRPM:     45,
		ReloadTime:      2.8,
		SpreadDegrees:   1.5,
		AimSpreadFactor: 0.3,
		AimLerpRate:     8,
		HipOffset:       Vec3{X: 0.3, Y: -0.25, Z: 0.5},
		AimOffset:       Vec3{Y: -0.15, Z: 0.4},

		ProjectileSpeed:   28,
		GravityMultiplier: 1.0,
		Lifetime:          3.0,
		ExplosionRadius:   5,
		ExplosionForce:    30,
		ExplosionDamage:   80,
	}
}

// Weapon holds the ammo, cooldown and stance state for one equipped weapon
// instance. All methods run on the sim goroutine.
type Weapon struct {
	cfg     WeaponConfig
	sim     *Simulation
	wielder Wielder

	ammo       int
	reserve    int
	reloading  bool
	reloadLeft float64
	aiming     bool

	lastFireAt float64 // sim clock seconds
	hasFired   bool

	viewOffset Vec3 // blended hip/aim position, cosmetic only
	resolver   HitResolver
	audio      AudioSink
}

// NewWeapon equips a weapon for the given wielder and registers it with the
// sim for ticking. The resolver strategy follows cfg.Kind.
func NewWeapon(s *Simulation, cfg WeaponConfig, wielder Wielder) *Weapon {
	if cfg.StartAmmo > cfg.Capacity {
		cfg.StartAmmo = cfg.Capacity
	}
	w := &Weapon{
		cfg:        cfg,
		sim:        s,
		wielder:    wielder,
		ammo:       cfg.StartAmmo,
		reserve:    cfg.StartReserve,
		viewOffset: cfg.HipOffset,
		audio:      s.audio,
	}
	switch cfg.Kind {
	case KindProjectile:
		w.resolver = &ProjectileResolver{sim: s}
	default:
		w.resolver = &HitscanResolver{sim: s}
	}
	s.addWeapon(w)
	return w
}

// --- State machine ---

// Fire attempts one shot. Silent false when empty (with an empty-chamber
// cue), mid-reload, or inside the fire-rate window; otherwise it spends one
// round, stamps the gate timestamp and hands the perturbed aim ray to the
// resolver.
func (w *Weapon) Fire() bool {
	if w.ammo == 0 {
		w.audio.PlaySound(CueSoundEmpty)
		return false
	}
	if w.reloading {
		return false
	}
	if w.hasFired && w.sim.clock-w.lastFireAt < w.fireInterval() {
		return false
	}

	w.ammo--
	w.lastFireAt = w.sim.clock
	w.hasFired = true
	w.audio.PlaySound(CueSoundFire)

	origin, dir := w.wielder.AimRay()
	w.resolver.Resolve(w, origin, dir)
	w.sim.logEvent(w.cfg.Name, "player", "weapon", "fire",
		fmt.Sprintf("%d+%d left", w.ammo, w.reserve), float64(w.ammo))
	return true
}

// Reload starts the reload countdown. Silent false when already reloading,
// magazine full, or reserve empty. The transfer happens when the countdown
// expires inside Tick.
func (w *Weapon) Reload() bool {
	if w.reloading || w.ammo == w.cfg.Capacity || w.reserve == 0 {
		return false
	}
	w.reloading = true
	w.reloadLeft = w.cfg.ReloadTime
	w.audio.PlaySound(CueSoundReload)
	w.sim.logEvent(w.cfg.Name, "player", "weapon", "reload_start",
		fmt.Sprintf("%d+%d", w.ammo, w.reserve), w.cfg.ReloadTime)
	return true
}

// AddAmmo credits the reserve and returns the new reserve total.
func (w *Weapon) AddAmmo(n int) int {
	if n > 0 {
		w.reserve += n
	}
	return w.reserve
}

// SetAiming toggles the aim stance. This only retargets the view-model
// blend and tightens spread; it never gates Fire.
func (w *Weapon) SetAiming(aiming bool) {
	w.aiming = aiming
}

// Tick advances the reload countdown and the view-model blend.
func (w *Weapon) Tick(dt float64) {
	if w.reloading {
		w.reloadLeft -= dt
		if w.reloadLeft <= 0 {
			moved := w.cfg.Capacity - w.ammo
			if moved > w.reserve {
				moved = w.reserve
			}
			w.ammo += moved
			w.reserve -= moved
			w.reloading = false
			w.sim.logEvent(w.cfg.Name, "player", "weapon", "reload_done",
				fmt.Sprintf("%d+%d", w.ammo, w.reserve), float64(moved))
		}
	}

	stance := w.cfg.HipOffset
	if w.aiming {
		stance = w.cfg.AimOffset
	}
	t := w.cfg.AimLerpRate * dt
	if t > 1 {
		t = 1
	}
	w.viewOffset = w.viewOffset.Lerp(stance, t)
}

// --- Accessors ---

// State reports the weapon machine state: reloading, inside the fire-rate
// window of the last shot, or idle.
func (w *Weapon) State() WeaponState {
	if w.reloading {
		return WeaponReloading
	}
	if w.hasFired && w.sim.clock-w.lastFireAt < w.fireInterval() {
		return WeaponFiring
	}
	return WeaponIdle
}

func (w *Weapon) Config() WeaponConfig { return w.cfg }

// Ammo returns the loaded and reserve counts.
func (w *Weapon) Ammo() (current, reserve int) { return w.ammo, w.reserve }

func (w *Weapon) Reloading() bool { return w.reloading }

func (w *Weapon) Aiming() bool { return w.aiming }

// ViewOffset returns the blended view-model offset for HUD rendering.
func (w *Weapon) ViewOffset() Vec3 { return w.viewOffset }

// spreadHalfAngle returns the current cone half-angle in degrees.
func (w *Weapon) spreadHalfAngle() float64 {
	if w.aiming {
		return w.cfg.SpreadDegrees * w.cfg.AimSpreadFactor
	}
	return w.cfg.SpreadDegrees
}

func (w *Weapon) fireInterval() float64 {
	if w.cfg.FireRateRPM <= 0 {
		return 0
	}
	return 60.0 / w.cfg.FireRateRPM
}
