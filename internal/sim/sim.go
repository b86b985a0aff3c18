package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// SimConfig seeds a Simulation. Zero values fall back to a 40x40 arena,
// seed 1, silent cues and an instant in-memory asset catalog.
type SimConfig struct {
	WorldSizeX float64
	WorldSizeZ float64
	Seed       int64
	Verbose    bool // keep per-tick alertness detail in the log

	Audio   AudioSink
	Anims   func(agentID int) AnimationSink
	Catalog AssetCatalog
}

// DefaultSimConfig returns the standard sandbox arena setup.
func DefaultSimConfig() SimConfig {
	return SimConfig{WorldSizeX: 40, WorldSizeZ: 40, Seed: 1}
}

// Simulation owns the world, the guards, the player proxy and the weapon
// systems, and advances them all from a single Tick. Nothing in here is
// goroutine safe; the owner calls Tick from one goroutine and reads state
// between ticks. The only concurrency is at the edges: spawn asset loads
// deliver into a mutex-guarded inbox that Tick drains.
type Simulation struct {
	world *World
	log   *SimLog
	rng   *rand.Rand

	audio   AudioSink
	anims   func(agentID int) AnimationSink
	catalog AssetCatalog

	tick  int
	clock float64 // accumulated sim seconds

	player *Player
	target Target

	agents       []*Agent
	agentsByBody map[EntityID]*Agent
	nextAgentID  int

	weapons     []*Weapon
	projectiles []*Projectile
	tracers     []Tracer
	blasts      []Blast

	spawnMu sync.Mutex
	inbox   []*PendingAgent

	sinks []EventSink
}

// NewSimulation builds an empty arena. Guards, player and geometry are
// added by the caller before the first Tick.
func NewSimulation(cfg SimConfig) *Simulation {
	if cfg.WorldSizeX <= 0 {
		cfg.WorldSizeX = 40
	}
	if cfg.WorldSizeZ <= 0 {
		cfg.WorldSizeZ = 40
	}
	audio := cfg.Audio
	if audio == nil {
		audio = NopCues{}
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = &StaticCatalog{}
	}
	return &Simulation{
		world:        NewWorld(cfg.WorldSizeX, cfg.WorldSizeZ),
		log:          NewSimLog(cfg.Verbose),
		rng:          rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- deterministic sim, not crypto
		audio:        audio,
		anims:        cfg.Anims,
		catalog:      catalog,
		agentsByBody: map[EntityID]*Agent{},
	}
}

// Tick advances the whole sim by dt seconds: drain spawns, update every
// agent (perception, state machine, movement), tick weapons, fly
// projectiles, age effects, then let loose props drift.
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	s.tick++
	s.clock += dt

	s.FlushSpawns()

	for _, a := range s.agents {
		a.Tick(dt)
	}
	for _, w := range s.weapons {
		w.Tick(dt)
	}

	alive := s.projectiles[:0]
	for _, p := range s.projectiles {
		if p.step(s, dt) {
			alive = append(alive, p)
		}
	}
	s.projectiles = alive

	s.tracers = stepTracers(s.tracers, dt)
	s.blasts = stepBlasts(s.blasts, dt)

	s.world.Step(dt, s.ownsBody)
	s.reapAgents()
}

// --- Population ---

// AddPlayer creates the player proxy and makes it the guards' target.
// Call before spawning guards so they bind to it.
func (s *Simulation) AddPlayer(cfg PlayerConfig, pos Vec3) *Player {
	p := newPlayer(s, cfg, pos)
	s.player = p
	s.SetTarget(p)
	return p
}

// SetTarget redirects every current and future guard at a new target.
// Scenario scripts use this to stand in for the player.
func (s *Simulation) SetTarget(t Target) {
	s.target = t
	for _, a := range s.agents {
		a.target = t
	}
}

// AddAgent attaches a guard synchronously, skipping the asset pipeline.
// Tests and scripted scenarios use this; interactive spawns go through
// SpawnAgent.
func (s *Simulation) AddAgent(cfg AgentConfig, pose SpawnPose, route *PatrolRoute) *Agent {
	return s.attachAgent(cfg, pose, route)
}

func (s *Simulation) attachAgent(cfg AgentConfig, pose SpawnPose, route *PatrolRoute) *Agent {
	id := s.nextAgentID
	s.nextAgentID++
	a := newAgent(s, id, cfg, pose, route)
	s.agents = append(s.agents, a)
	s.agentsByBody[a.body.ID()] = a
	a.enable()
	return a
}

func (s *Simulation) addWeapon(w *Weapon) {
	s.weapons = append(s.weapons, w)
}

// reapAgents removes corpses whose grace period has run out.
func (s *Simulation) reapAgents() {
	keep := s.agents[:0]
	for _, a := range s.agents {
		if a.buried() {
			s.world.RemoveBody(a.body)
			delete(s.agentsByBody, a.body.ID())
			s.logEvent(a.label, "guard", "death", "removed", "", 0)
			continue
		}
		keep = append(keep, a)
	}
	s.agents = keep
}

// ownsBody reports whether an entity authors its own position, which
// excludes it from prop drift integration.
func (s *Simulation) ownsBody(id EntityID) bool {
	if _, ok := s.agentsByBody[id]; ok {
		return true
	}
	return s.player != nil && s.player.body.ID() == id
}

// --- Combat plumbing ---

// damageEntity routes damage to whatever owns the struck body. Returns
// false for entities that cannot take damage (walls, props).
func (s *Simulation) damageEntity(id EntityID, amount int, source *Vec3) bool {
	if amount <= 0 {
		return false
	}
	if a, ok := s.agentsByBody[id]; ok {
		a.TakeDamage(amount, source)
		return true
	}
	if s.player != nil && s.player.body.ID() == id {
		s.player.TakeDamage(amount)
		return true
	}
	return false
}

// explodeAt applies radial falloff damage and impulses to every body in
// range. The falloff factor is 1 at the center and 0 at the radius edge.
func (s *Simulation) explodeAt(center Vec3, radius, force float64, damage int, source string) {
	s.blasts = append(s.blasts, Blast{Center: center, Radius: radius, Life: blastLife})
	if radius <= 0 {
		return
	}
	for _, b := range s.world.BodiesWithin(center, radius) {
		factor := 1 - b.Pos.DistanceTo(center)/radius
		if factor <= 0 {
			continue
		}
		dir := b.Pos.Sub(center).Normalized()
		if dir.LengthSq() < 1e-12 {
			dir = Vec3{Y: 1}
		}
		b.ApplyImpulse(dir.Scale(force*factor), b.Pos)
		s.logEvent(source, "player", "blast", "caught",
			fmt.Sprintf("entity %d", b.ID()), factor)
		if dmg := int(math.Round(float64(damage) * factor)); dmg > 0 {
			s.damageEntity(b.ID(), dmg, &center)
		}
	}
}

// spreadDir perturbs a direction inside a cone of the given half-angle,
// sampling yaw and pitch offsets with a triangular distribution so shots
// cluster toward the aim point.
func (s *Simulation) spreadDir(dir Vec3, halfDeg float64) Vec3 {
	d := dir.Normalized()
	if halfDeg <= 0 {
		return d
	}
	yaw := math.Atan2(d.Z, d.X)
	pitch := math.Atan2(d.Y, math.Sqrt(d.X*d.X+d.Z*d.Z))
	half := halfDeg * math.Pi / 180
	yaw += s.triSpread() * half
	pitch += s.triSpread() * half
	return YawPitchDir(yaw, pitch)
}

// triSpread samples [-1, 1] peaked at zero.
func (s *Simulation) triSpread() float64 {
	return s.rng.Float64() - s.rng.Float64()
}

func (s *Simulation) addTracer(from, to Vec3) {
	s.tracers = append(s.tracers, Tracer{From: from, To: to, Life: tracerLife})
}

// randPointNear picks a uniform point in the disc around anchor, clamped
// inside the arena.
func (s *Simulation) randPointNear(anchor Vec3, radius, margin float64) Vec3 {
	r := radius * math.Sqrt(s.rng.Float64())
	theta := 2 * math.Pi * s.rng.Float64()
	p := Vec3{
		X: anchor.X + r*math.Cos(theta),
		Y: anchor.Y,
		Z: anchor.Z + r*math.Sin(theta),
	}
	return s.world.Clamp(p, margin)
}

func (s *Simulation) animFor(agentID int) AnimationSink {
	if s.anims == nil {
		return NopCues{}
	}
	return s.anims(agentID)
}

// --- Events ---

// AddSink subscribes an event sink to every log entry from now on. Sinks
// run inline on the sim goroutine and must not mutate sim state.
func (s *Simulation) AddSink(sink EventSink) {
	s.sinks = append(s.sinks, sink)
}

func (s *Simulation) logEvent(actor, side, category, key, value string, num float64) {
	e := SimLogEntry{
		Tick:     s.tick,
		Actor:    actor,
		Side:     side,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   num,
	}
	s.log.Append(e)
	for _, sink := range s.sinks {
		sink.HandleSimEvent(e)
	}
}

// --- Accessors ---

func (s *Simulation) World() *World { return s.world }

func (s *Simulation) Log() *SimLog { return s.log }

func (s *Simulation) Player() *Player { return s.player }

func (s *Simulation) Agents() []*Agent { return s.agents }

func (s *Simulation) Projectiles() []*Projectile { return s.projectiles }

func (s *Simulation) Tracers() []Tracer { return s.tracers }

func (s *Simulation) Blasts() []Blast { return s.blasts }

// TickCount returns the number of completed ticks.
func (s *Simulation) TickCount() int { return s.tick }

// Clock returns accumulated sim time in seconds.
func (s *Simulation) Clock() float64 { return s.clock }

// Summary renders the current one-screen situation report.
func (s *Simulation) Summary() string {
	return s.log.Summary(s.tick, s.agents, s.player)
}
