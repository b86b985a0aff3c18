package sim

import "math"

// PlayerConfig sizes the player proxy.
type PlayerConfig struct {
	MaxHealth  int
	MoveSpeed  float64 // m/s
	EyeHeight  float64 // meters
	BodyRadius float64 // meters
}

// DefaultPlayerConfig returns the standard player proxy tuning.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		MaxHealth:  100,
		MoveSpeed:  5.0,
		EyeHeight:  1.7,
		BodyRadius: 0.4,
	}
}

// Player is the target the guards perceive and attack, and the wielder of
// the weapon systems. In the sandbox it is driven by keyboard input; in
// headless runs a script moves it. All methods run on the sim goroutine.
type Player struct {
	sim *Simulation
	cfg PlayerConfig

	pos   Vec3
	yaw   float64 // radians, 0 = +X
	pitch float64 // radians, positive looks up

	health int
	alive  bool

	body    *Body
	weapons []*Weapon
	active  int
}

func newPlayer(s *Simulation, cfg PlayerConfig, pos Vec3) *Player {
	p := &Player{
		sim:    s,
		cfg:    cfg,
		pos:    pos,
		health: cfg.MaxHealth,
		alive:  true,
	}
	collider := pos
	collider.Y += cfg.EyeHeight * 0.55
	p.body = s.world.NewBody(collider, cfg.BodyRadius, true)
	return p
}

// --- Target and wielder interfaces ---

// Position returns the player's feet position.
func (p *Player) Position() Vec3 { return p.pos }

// BodyID returns the player's collider id, excluded from the player's own
// shots and recognized by guard occlusion probes.
func (p *Player) BodyID() EntityID { return p.body.ID() }

// AimRay returns the eye origin and view direction at this instant.
func (p *Player) AimRay() (Vec3, Vec3) {
	return p.EyePos(), YawPitchDir(p.yaw, p.pitch)
}

// TakeDamage applies damage and returns the remaining health. Negative
// amounts are clamped to zero; a dead player ignores further damage.
func (p *Player) TakeDamage(amount int) int {
	if !p.alive {
		return p.health
	}
	if amount < 0 {
		amount = 0
	}
	p.health -= amount
	if p.health < 0 {
		p.health = 0
	}
	p.sim.logEvent("PL", "player", "damage", "taken",
		"", float64(amount))
	if p.health == 0 {
		p.alive = false
		p.body.SetEnabled(false)
		p.sim.audio.PlaySound(CueSoundDeath)
		p.sim.logEvent("PL", "player", "death", "killed", "", 0)
	}
	return p.health
}

// --- Movement and view ---

// EyePos returns the camera origin.
func (p *Player) EyePos() Vec3 {
	e := p.pos
	e.Y += p.cfg.EyeHeight
	return e
}

// Move translates the player by heading-relative input for one tick.
// forward is along the view yaw, strafe to its right; the input vector is
// normalized so diagonals are not faster.
func (p *Player) Move(forward, strafe, dt float64) {
	if !p.alive {
		return
	}
	f := YawForward(p.yaw)
	r := Vec3{X: -f.Z, Z: f.X}
	step := f.Scale(forward).Add(r.Scale(strafe))
	if l := step.Length(); l > 1 {
		step = step.Scale(1 / l)
	}
	p.pos = p.pos.Add(step.Scale(p.cfg.MoveSpeed * dt))
	p.pos = p.sim.world.Clamp(p.pos, p.cfg.BodyRadius)
	p.syncBody()
}

// SetPos teleports the player, used by scripts and scenario setup.
func (p *Player) SetPos(pos Vec3) {
	p.pos = pos
	p.syncBody()
}

// Turn adjusts the view by yaw/pitch deltas, clamping pitch short of
// vertical.
func (p *Player) Turn(dyaw, dpitch float64) {
	p.yaw = normalizeAngle(p.yaw + dyaw)
	p.pitch += dpitch
	limit := math.Pi/2 - 0.05
	if p.pitch > limit {
		p.pitch = limit
	}
	if p.pitch < -limit {
		p.pitch = -limit
	}
}

// LookAt aims the view at a world point.
func (p *Player) LookAt(target Vec3) {
	d := target.Sub(p.EyePos())
	p.yaw = YawTo(p.EyePos(), target)
	flat := math.Sqrt(d.X*d.X + d.Z*d.Z)
	p.pitch = math.Atan2(d.Y, flat)
}

func (p *Player) syncBody() {
	collider := p.pos
	collider.Y += p.cfg.EyeHeight * 0.55
	p.body.Pos = collider
}

// --- Loadout ---

// AddWeapon equips a weapon and returns it. The first equipped weapon
// becomes active.
func (p *Player) AddWeapon(cfg WeaponConfig) *Weapon {
	w := NewWeapon(p.sim, cfg, p)
	p.weapons = append(p.weapons, w)
	return w
}

// Weapon returns the active weapon, or nil when unarmed.
func (p *Player) Weapon() *Weapon {
	if len(p.weapons) == 0 {
		return nil
	}
	return p.weapons[p.active]
}

// Weapons returns the full loadout.
func (p *Player) Weapons() []*Weapon { return p.weapons }

// SelectWeapon switches the active slot; out-of-range indices are ignored.
func (p *Player) SelectWeapon(i int) {
	if i >= 0 && i < len(p.weapons) {
		p.active = i
	}
}

// --- Accessors ---

func (p *Player) Config() PlayerConfig { return p.cfg }

func (p *Player) Health() int { return p.health }

func (p *Player) Alive() bool { return p.alive }

func (p *Player) Yaw() float64 { return p.yaw }

func (p *Player) Pitch() float64 { return p.pitch }
