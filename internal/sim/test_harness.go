package sim

// TestSim is a deterministic headless harness used by tests and the batch
// reporter. It wraps a Simulation with a fixed timestep, cue recorders in
// place of real audio and animation, and predicate-driven stepping.
type TestSim struct {
	Sim    *Simulation
	Dt     float64
	Player *Player
	Guards []*Agent

	Sounds *CueRecorder         // global audio cue recorder
	Anims  map[int]*CueRecorder // per-agent animation cue recorders

	cfg    SimConfig
	script *walkScript
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptConfig simOptionKind = iota // arena size, seed, timestep, verbose; applied first
	simOptWorld                       // geometry and props, once the sim exists
	simOptActor                       // player and guards, after geometry
	simOptLoad                        // weapons, after the player exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithArena sets the ground-plane extent in meters.
func WithArena(sizeX, sizeZ float64) SimOption {
	return SimOption{simOptConfig, func(ts *TestSim) {
		ts.cfg.WorldSizeX = sizeX
		ts.cfg.WorldSizeZ = sizeZ
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptConfig, func(ts *TestSim) {
		ts.cfg.Seed = seed
	}}
}

// WithVerbose keeps per-tick alertness detail in the log.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptConfig, func(ts *TestSim) {
		ts.cfg.Verbose = v
	}}
}

// WithTimestep overrides the fixed step, default 0.1s.
func WithTimestep(dt float64) SimOption {
	return SimOption{simOptConfig, func(ts *TestSim) {
		ts.Dt = dt
	}}
}

// WithCatalog swaps the asset catalog, for spawn pipeline tests.
func WithCatalog(c AssetCatalog) SimOption {
	return SimOption{simOptConfig, func(ts *TestSim) {
		ts.cfg.Catalog = c
	}}
}

// WithWall adds a full-height box obstacle on the ground plane.
func WithWall(x, z, sizeX, sizeZ, height float64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Sim.World().AddWall(x, z, sizeX, sizeZ, height)
	}}
}

// WithProp drops a loose dynamic sphere, for impulse and blast tests.
func WithProp(x, z, radius float64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Sim.World().NewBody(Vec3{X: x, Y: radius, Z: z}, radius, true)
	}}
}

// WithPlayer places the player proxy, which becomes the guards' target.
func WithPlayer(x, z float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.Player = ts.Sim.AddPlayer(DefaultPlayerConfig(), Vec3{X: x, Z: z})
	}}
}

// WithGuard adds a stationary guard facing yaw radians.
func WithGuard(cfg AgentConfig, x, z, yaw float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		g := ts.Sim.AddAgent(cfg, SpawnPose{Pos: Vec3{X: x, Z: z}, Yaw: yaw}, nil)
		ts.Guards = append(ts.Guards, g)
	}}
}

// WithPatrolGuard adds a guard walking the given waypoints.
func WithPatrolGuard(cfg AgentConfig, x, z, yaw float64, points ...Waypoint) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		g := ts.Sim.AddAgent(cfg, SpawnPose{Pos: Vec3{X: x, Z: z}, Yaw: yaw}, NewPatrolRoute(points...))
		ts.Guards = append(ts.Guards, g)
	}}
}

// WithWeapon equips the player. Ignored when no player was placed.
func WithWeapon(cfg WeaponConfig) SimOption {
	return SimOption{simOptLoad, func(ts *TestSim) {
		if ts.Player != nil {
			ts.Player.AddWeapon(cfg)
		}
	}}
}

// WithPlayerScript walks the player through a waypoint loop, standing in
// for live input during headless runs. RunTicks and RunUntil apply one
// script step before each tick.
func WithPlayerScript(points ...Vec3) SimOption {
	return SimOption{simOptLoad, func(ts *TestSim) {
		if ts.Player != nil && len(points) > 0 {
			ts.script = &walkScript{points: points}
		}
	}}
}

// walkScript drives the player proxy along a looping waypoint path.
type walkScript struct {
	points []Vec3
	idx    int
}

func (ws *walkScript) step(p *Player, dt float64) {
	if p == nil || !p.Alive() {
		return
	}
	wp := ws.points[ws.idx%len(ws.points)]
	if p.Position().DistanceTo(wp) < arrivalDist {
		ws.idx++
		wp = ws.points[ws.idx%len(ws.points)]
	}
	// Aim level at the waypoint so Move's yaw heading walks toward it.
	aim := wp
	aim.Y = p.EyePos().Y
	p.LookAt(aim)
	p.Move(1, 0, dt)
}

// NewTestSim constructs a harness from the given options in ordered
// passes: configuration, then geometry, then actors, then loadout.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		Dt:     0.1,
		cfg:    DefaultSimConfig(),
		Sounds: &CueRecorder{},
		Anims:  map[int]*CueRecorder{},
	}
	for _, o := range opts {
		if o.kind == simOptConfig {
			o.fn(ts)
		}
	}
	ts.cfg.Audio = ts.Sounds
	ts.cfg.Anims = ts.animRecorder
	ts.Sim = NewSimulation(ts.cfg)
	for _, o := range opts {
		if o.kind == simOptWorld {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptActor {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptLoad {
			o.fn(ts)
		}
	}
	return ts
}

func (ts *TestSim) animRecorder(agentID int) AnimationSink {
	rec, ok := ts.Anims[agentID]
	if !ok {
		rec = &CueRecorder{}
		ts.Anims[agentID] = rec
	}
	return rec
}

// RunTicks advances the simulation n fixed-dt ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		if ts.script != nil {
			ts.script.step(ts.Player, ts.Dt)
		}
		ts.Sim.Tick(ts.Dt)
	}
}

// RunUntil advances up to maxTicks, stopping early if predicate returns
// true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		if ts.script != nil {
			ts.script.step(ts.Player, ts.Dt)
		}
		ts.Sim.Tick(ts.Dt)
		if predicate(ts) {
			return ts.Sim.TickCount()
		}
	}
	return -1
}

// Guard returns the i-th added guard.
func (ts *TestSim) Guard(i int) *Agent { return ts.Guards[i] }

// Log returns the underlying sim log.
func (ts *TestSim) Log() *SimLog { return ts.Sim.Log() }

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int { return ts.Sim.TickCount() }
