package sim

import (
	"fmt"
	"math"
)

// AgentState is the high-level behaviour state of a guard.
type AgentState int

const (
	StateIdle AgentState = iota
	StatePatrol
	StateAlert
	StateAttack
	StateSearch
	StateDead // terminal, reachable only through health 0
)

func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateAlert:
		return "alert"
	case StateAttack:
		return "attack"
	case StateSearch:
		return "search"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Target is what an agent hunts: anything with a position and a health pool.
type Target interface {
	Position() Vec3
	TakeDamage(amount int) int // returns remaining health
}

// bodyTarget lets perception identify the target's collider in ray results.
type bodyTarget interface {
	BodyID() EntityID
}

// AgentConfig is the numeric tuning for one guard. All fields are plain
// values so scenarios can override them wholesale.
type AgentConfig struct {
	MaxHealth  int
	WalkSpeed  float64 // m/s
	RunSpeed   float64 // m/s
	TurnRate   float64 // rad/s; attack facing uses double this
	EyeHeight  float64 // meters above the feet, perception ray origin
	BodyRadius float64

	FOVDegrees        float64
	DetectionRange    float64 // meters
	DetectionCooldown float64 // min seconds between perception checks
	AlertnessRate     float64 // base accrual, scaled by proximity and difficulty
	AlertnessDecay    float64 // decay per second, every tick
	AlertnessScale    float64 // difficulty multiplier on accrual
	DamageAlertness   float64 // alertness floor after a hit with a known source

	AttackRange      float64
	AttackDamage     int
	AttacksPerMinute float64

	SearchRadius  float64 // meters around the lost-contact anchor
	MaxSearchTime float64 // seconds before the search is abandoned

	DeathGrace float64 // seconds a corpse lingers before removal
	ModelRef   string  // asset bundle key resolved at spawn
}

// DefaultGuardConfig returns the baseline rifleman guard.
func DefaultGuardConfig() AgentConfig {
	return AgentConfig{
		MaxHealth:  100,
		WalkSpeed:  2.0,
		RunSpeed:   4.5,
		TurnRate:   3.0,
		EyeHeight:  1.7,
		BodyRadius: 0.4,

		FOVDegrees:        120,
		DetectionRange:    15,
		DetectionCooldown: 0.5,
		AlertnessRate:     30,
		AlertnessDecay:    3,
		AlertnessScale:    5.0,
		DamageAlertness:   85,

		AttackRange:      12,
		AttackDamage:     10,
		AttacksPerMinute: 40,

		SearchRadius:  6,
		MaxSearchTime: 12,

		DeathGrace: 5,
		ModelRef:   "guard",
	}
}

// Agent is one autonomous guard. All mutation happens inside Tick or through
// TakeDamage; both run on the sim goroutine.
type Agent struct {
	id    int
	label string
	cfg   AgentConfig

	pos Vec3 // feet, on the floor plane
	yaw float64

	health    int
	alertness float64

	state     AgentState
	prevState AgentState

	lastKnown    Vec3
	hasLastKnown bool

	// Timers, advanced in-tick only.
	attackCooldown float64
	detectionTimer float64
	waitRemaining  float64
	searchTime     float64
	graveTimer     float64

	// Search and alert-wander bookkeeping.
	searchAnchor   Vec3
	searchPoint    Vec3
	hasSearchPoint bool
	alertArrived   bool

	route    *PatrolRoute
	routeIdx int

	target        Target
	targetVisible bool

	behavior Behavior
	body     *Body
	sim      *Simulation
	audio    AudioSink
	anim     AnimationSink
	assets   *AssetBundle
	thoughts *ThoughtLog

	stateCh chan StateChange
	deathCh chan Death
}

// newAgent wires a guard into the sim. Called from the spawn attach path.
func newAgent(s *Simulation, id int, cfg AgentConfig, pose SpawnPose, route *PatrolRoute) *Agent {
	a := &Agent{
		id:        id,
		label:     fmt.Sprintf("G%d", id),
		cfg:       cfg,
		pos:       pose.Pos,
		yaw:       pose.Yaw,
		health:    cfg.MaxHealth,
		state:     StateIdle,
		prevState: StateIdle,
		route:     route,
		target:    s.target,
		behavior:  StandardGuard{},
		sim:       s,
		audio:     s.audio,
		anim:      s.animFor(id),
		thoughts:  NewThoughtLog(),
		stateCh:   make(chan StateChange, 32),
		deathCh:   make(chan Death, 2),
	}
	a.body = s.world.NewBody(a.colliderPos(), cfg.BodyRadius, true)
	return a
}

// --- Accessors ---

func (a *Agent) ID() int { return a.id }

func (a *Agent) Label() string { return a.label }

func (a *Agent) Config() AgentConfig { return a.cfg }

func (a *Agent) State() AgentState { return a.state }

func (a *Agent) PrevState() AgentState { return a.prevState }

func (a *Agent) Alertness() float64 { return a.alertness }

func (a *Agent) Health() int { return a.health }

func (a *Agent) Position() Vec3 { return a.pos }

func (a *Agent) Yaw() float64 { return a.yaw }

func (a *Agent) TargetVisible() bool { return a.targetVisible }

func (a *Agent) Body() *Body { return a.body }

// EyePos returns the perception ray origin.
func (a *Agent) EyePos() Vec3 {
	return Vec3{X: a.pos.X, Y: a.pos.Y + a.cfg.EyeHeight, Z: a.pos.Z}
}

// LastKnownTarget returns the remembered target position, if any.
func (a *Agent) LastKnownTarget() (Vec3, bool) {
	return a.lastKnown, a.hasLastKnown
}

// Route returns the attached patrol route (may be nil) and current index.
func (a *Agent) Route() (*PatrolRoute, int) { return a.route, a.routeIdx }

// Assets returns the loaded visual bundle, nil for synchronously added
// agents.
func (a *Agent) Assets() *AssetBundle { return a.assets }

// Thoughts returns the agent's recent decision log.
func (a *Agent) Thoughts() []ThoughtEntry { return a.thoughts.Recent() }

// StateChanges is a buffered notification channel of behaviour transitions.
// Publishes never block; unread notifications beyond the buffer are dropped.
func (a *Agent) StateChanges() <-chan StateChange { return a.stateCh }

// Deaths delivers at most one death notification.
func (a *Agent) Deaths() <-chan Death { return a.deathCh }

// SetRoute replaces the patrol route and resets traversal to waypoint 0.
func (a *Agent) SetRoute(r *PatrolRoute) {
	a.route = r
	a.routeIdx = 0
}

// --- Tick ---

// Tick advances the agent by dt seconds: alertness decay, throttled
// perception, one pass of the transition table, then the per-state update.
func (a *Agent) Tick(dt float64) {
	if a.state == StateDead {
		a.graveTimer -= dt
		return
	}

	// Decay runs every tick, perception only when its cooldown expires.
	a.decayAlertness(dt)
	a.behavior.UpdatePerception(a, dt)

	next := NextState(a.state, a.alertness, a.behavior.CanAttackTarget(a), a.behavior.ShouldPatrol(a))
	if next != a.state {
		a.enterState(next)
	}

	switch a.state {
	case StateIdle:
		a.behavior.UpdateIdle(a, dt)
	case StatePatrol:
		a.behavior.UpdatePatrol(a, dt)
	case StateAlert:
		a.behavior.UpdateAlert(a, dt)
	case StateAttack:
		a.behavior.UpdateAttack(a, dt)
	case StateSearch:
		a.behavior.UpdateSearch(a, dt)
	}

	a.body.Pos = a.colliderPos()
}

// TakeDamage applies a hit. A known source position is remembered and jolts
// alertness so the table reacts next tick. Returns true when this call
// killed the agent; calls on a dead agent are no-ops returning false.
func (a *Agent) TakeDamage(amount int, source *Vec3) bool {
	if a.state == StateDead {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	a.health -= amount
	if a.health < 0 {
		a.health = 0
	}
	if source != nil {
		a.lastKnown = *source
		a.hasLastKnown = true
		a.alertArrived = false
		if a.alertness < a.cfg.DamageAlertness {
			a.alertness = math.Min(100, a.cfg.DamageAlertness)
		}
	}
	a.logEvent("damage", "hit", fmt.Sprintf("%d hp left", a.health), float64(amount))
	if a.health == 0 {
		a.enterState(StateDead)
		return true
	}
	return false
}

// Dead reports whether the agent has been removed from play.
func (a *Agent) Dead() bool { return a.state == StateDead }

// buried reports whether the post-death grace period has elapsed.
func (a *Agent) buried() bool {
	return a.state == StateDead && a.graveTimer <= 0
}

// --- Alertness ---

func (a *Agent) decayAlertness(dt float64) {
	a.alertness = math.Max(0, a.alertness-a.cfg.AlertnessDecay*dt)
}

func (a *Agent) raiseAlertness(amount float64) {
	a.alertness = math.Min(100, a.alertness+amount)
}

func (a *Agent) forceAlertness(v float64) {
	a.alertness = math.Max(0, math.Min(100, v))
}

// --- Transitions ---

// enterState performs a transition: bookkeeping, entry cues, notifications.
// Self-transitions never reach here; NextState returns the current state
// for "no change".
func (a *Agent) enterState(next AgentState) {
	if next == a.state {
		return
	}
	prev := a.state
	a.prevState = prev
	a.state = next

	switch next {
	case StateAlert:
		a.alertArrived = false
		if !a.hasLastKnown {
			a.searchAnchor = a.pos
			a.hasSearchPoint = false
		}
	case StateSearch:
		a.searchAnchor = a.pos
		a.searchTime = 0
		a.hasSearchPoint = false
		a.waitRemaining = 0
	case StateDead:
		a.graveTimer = a.cfg.DeathGrace
		a.body.SetEnabled(false)
	}

	a.playEntryCues(next)
	a.think(fmt.Sprintf("%s -> %s (alertness %.0f)", prev, next, a.alertness))
	a.logEvent("state", "change", fmt.Sprintf("%s → %s", prev, next), a.alertness)

	sc := StateChange{AgentID: a.id, Label: a.label, From: prev, To: next, Tick: a.sim.tick}
	select {
	case a.stateCh <- sc:
	default:
	}
	if next == StateDead {
		a.logEvent("death", "killed", fmt.Sprintf("at (%.1f,%.1f)", a.pos.X, a.pos.Z), 0)
		d := Death{AgentID: a.id, Label: a.label, Pos: a.pos, Tick: a.sim.tick}
		select {
		case a.deathCh <- d:
		default:
		}
	}
}

// playEntryCues fires the one-shot cues for entering a state. Attack has
// none; its sounds come from the attacks themselves.
func (a *Agent) playEntryCues(st AgentState) {
	switch st {
	case StateIdle, StatePatrol, StateSearch:
		a.anim.PlayAnimation(CueAnimMove, true)
	case StateAlert:
		a.anim.PlayAnimation(CueAnimAlert, true)
		a.audio.PlaySound(CueSoundAlert)
	case StateDead:
		a.anim.PlayAnimation(CueAnimDeath, false)
		a.audio.PlaySound(CueSoundDeath)
	}
}

// enable runs once when the spawn attaches: initial entry cues, no
// transition notification.
func (a *Agent) enable() {
	a.playEntryCues(a.state)
	a.logEvent("spawn", "enabled", fmt.Sprintf("at (%.1f,%.1f)", a.pos.X, a.pos.Z), 0)
}

// --- Movement ---

// moveToward walks or runs straight at dest, turning the facing smoothly,
// and reports arrival (within arrivalDist on the ground plane).
func (a *Agent) moveToward(dest Vec3, speed, dt float64) bool {
	d := dest.Sub(a.pos)
	d.Y = 0
	dist := d.Length()
	if dist < arrivalDist {
		return true
	}
	a.yaw = turnToward(a.yaw, YawTo(a.pos, dest), a.cfg.TurnRate*dt)
	step := speed * dt
	if step >= dist {
		a.pos.X = dest.X
		a.pos.Z = dest.Z
		return true
	}
	a.pos = a.pos.Add(d.Scale(step / dist))
	a.pos = a.sim.world.Clamp(a.pos, a.cfg.BodyRadius)
	return false
}

// advanceWaypoint moves to the next route index, wrapping around.
func (a *Agent) advanceWaypoint(n int) {
	a.routeIdx = (a.routeIdx + 1) % n
	a.think(fmt.Sprintf("next waypoint %d", a.routeIdx))
}

// occlusionTest builds the perception probe: a world raycast from the eye,
// ignoring the agent's own body. The path is clear when the ray reaches the
// target's collider, or nothing at all before the target point. A ray that
// stops on anything unidentified counts as blocked.
func (a *Agent) occlusionTest() OcclusionTest {
	return func(eye, target Vec3, dist float64) bool {
		hit := a.sim.world.Raycast(eye, target.Sub(eye), dist, a.body.ID())
		if !hit.Hit {
			return true
		}
		if bt, ok := a.target.(bodyTarget); ok && hit.Entity == bt.BodyID() {
			return true
		}
		// Grazing the target point itself, e.g. a target with no collider.
		return hit.T >= dist-0.05
	}
}

// colliderPos centers the body sphere on the torso.
func (a *Agent) colliderPos() Vec3 {
	return Vec3{X: a.pos.X, Y: a.pos.Y + a.cfg.EyeHeight*0.55, Z: a.pos.Z}
}

func (a *Agent) think(msg string) {
	a.thoughts.Add(a.sim.tick, msg)
}

func (a *Agent) logEvent(category, key, value string, num float64) {
	a.sim.logEvent(a.label, "guard", category, key, value, num)
}
