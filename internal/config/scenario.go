package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// ScenarioConfig describes one arena layout: geometry, guard spawns with
// routes, the player spawn and its loadout. It maps 1:1 onto the scenario
// block of killhouse.cfg.json.
type ScenarioConfig struct {
	Name    string       `json:"name" mapstructure:"name"`
	Seed    int64        `json:"seed" mapstructure:"seed"`
	Arena   ArenaSpec    `json:"arena" mapstructure:"arena"`
	Walls   []WallSpec   `json:"walls" mapstructure:"walls"`
	Props   []PropSpec   `json:"props" mapstructure:"props"`
	Player  *PlayerSpec  `json:"player" mapstructure:"player"`
	Weapons []WeaponSpec `json:"weapons" mapstructure:"weapons"`
	Guards  []GuardSpec  `json:"guards" mapstructure:"guards"`
}

// ArenaSpec is the floor plane extent in meters.
type ArenaSpec struct {
	SizeX float64 `json:"sizeX" mapstructure:"sizeX"`
	SizeZ float64 `json:"sizeZ" mapstructure:"sizeZ"`
}

// WallSpec is one static axis-aligned box, anchored at its min corner.
type WallSpec struct {
	X      float64 `json:"x" mapstructure:"x"`
	Z      float64 `json:"z" mapstructure:"z"`
	SizeX  float64 `json:"sizeX" mapstructure:"sizeX"`
	SizeZ  float64 `json:"sizeZ" mapstructure:"sizeZ"`
	Height float64 `json:"height" mapstructure:"height"`
}

// PropSpec is one loose dynamic body (crate, barrel) that rays and blasts
// can shove around.
type PropSpec struct {
	X      float64 `json:"x" mapstructure:"x"`
	Z      float64 `json:"z" mapstructure:"z"`
	Radius float64 `json:"radius" mapstructure:"radius"`
}

// PlayerSpec is the player spawn point. A scenario without a player block
// runs guards-only.
type PlayerSpec struct {
	X   float64 `json:"x" mapstructure:"x"`
	Z   float64 `json:"z" mapstructure:"z"`
	Yaw float64 `json:"yaw" mapstructure:"yaw"`
}

// WeaponSpec selects a weapon preset by name ("rifle" or "launcher") with
// optional overrides. Zero override fields keep the preset value.
type WeaponSpec struct {
	Name         string `json:"name" mapstructure:"name"`
	Capacity     int    `json:"capacity" mapstructure:"capacity"`
	StartReserve int    `json:"startReserve" mapstructure:"startReserve"`
	Damage       int    `json:"damage" mapstructure:"damage"`
}

// GuardSpec is one guard spawn: position, facing, patrol route and tuning
// overrides on top of the default guard config.
type GuardSpec struct {
	X      float64        `json:"x" mapstructure:"x"`
	Z      float64        `json:"z" mapstructure:"z"`
	Yaw    float64        `json:"yaw" mapstructure:"yaw"`
	Patrol []WaypointSpec `json:"patrol" mapstructure:"patrol"`
	Tuning GuardTuning    `json:"tuning" mapstructure:"tuning"`
}

// WaypointSpec is one patrol stop.
type WaypointSpec struct {
	X    float64 `json:"x" mapstructure:"x"`
	Z    float64 `json:"z" mapstructure:"z"`
	Wait float64 `json:"wait" mapstructure:"wait"`
}

// GuardTuning overrides individual guard config fields. Zero fields keep
// the default, so a scenario only names what it changes.
type GuardTuning struct {
	MaxHealth       int     `json:"maxHealth" mapstructure:"maxHealth"`
	WalkSpeed       float64 `json:"walkSpeed" mapstructure:"walkSpeed"`
	RunSpeed        float64 `json:"runSpeed" mapstructure:"runSpeed"`
	FOVDegrees      float64 `json:"fovDegrees" mapstructure:"fovDegrees"`
	DetectionRange  float64 `json:"detectionRange" mapstructure:"detectionRange"`
	AlertnessScale  float64 `json:"alertnessScale" mapstructure:"alertnessScale"`
	AttackRange     float64 `json:"attackRange" mapstructure:"attackRange"`
	AttackDamage    int     `json:"attackDamage" mapstructure:"attackDamage"`
	SearchRadius    float64 `json:"searchRadius" mapstructure:"searchRadius"`
	MaxSearchTime   float64 `json:"maxSearchTime" mapstructure:"maxSearchTime"`
	DeathGraceSecs  float64 `json:"deathGrace" mapstructure:"deathGrace"`
	AttacksPerMin   float64 `json:"attacksPerMinute" mapstructure:"attacksPerMinute"`
	DamageAlertness float64 `json:"damageAlertness" mapstructure:"damageAlertness"`
}

// DefaultScenario is the built-in kill house: a 40x40 range with two
// interior walls, three guards (two on patrol), a crate and a rifle.
func DefaultScenario() ScenarioConfig {
	return ScenarioConfig{
		Name:  "killhouse",
		Seed:  1,
		Arena: ArenaSpec{SizeX: 40, SizeZ: 40},
		Walls: []WallSpec{
			{X: 10, Z: 8, SizeX: 1, SizeZ: 12, Height: 3},
			{X: 22, Z: 20, SizeX: 10, SizeZ: 1, Height: 3},
		},
		Props: []PropSpec{
			{X: 16, Z: 26, Radius: 0.5},
		},
		Player:  &PlayerSpec{X: 34, Z: 34},
		Weapons: []WeaponSpec{{Name: "rifle"}, {Name: "launcher"}},
		Guards: []GuardSpec{
			{X: 6, Z: 6, Yaw: 0.8},
			{X: 6, Z: 30, Patrol: []WaypointSpec{
				{X: 6, Z: 30, Wait: 1.5},
				{X: 18, Z: 30},
				{X: 18, Z: 24, Wait: 2},
			}},
			{X: 30, Z: 10, Patrol: []WaypointSpec{
				{X: 30, Z: 10},
				{X: 26, Z: 16, Wait: 1},
			}},
		},
	}
}

// GetScenario returns the scenario block from the loaded config, or the
// built-in default when the file does not define one.
func GetScenario() (ScenarioConfig, error) {
	if !viper.IsSet("scenario") {
		return DefaultScenario(), nil
	}
	var sc ScenarioConfig
	if err := viper.UnmarshalKey("scenario", &sc); err != nil {
		return ScenarioConfig{}, fmt.Errorf("error parsing scenario: %w", err)
	}
	if sc.Arena.SizeX <= 0 || sc.Arena.SizeZ <= 0 {
		sc.Arena = DefaultScenario().Arena
	}
	if sc.Seed == 0 {
		sc.Seed = 1
	}
	return sc, nil
}

// BuildSim constructs a simulation from a scenario. The base config
// supplies the cue sinks and asset catalog; arena size and seed come from
// the scenario, with base.Seed winning when it is nonzero so batch runners
// can override the seed per run.
func BuildSim(sc ScenarioConfig, base sim.SimConfig) (*sim.Simulation, error) {
	base.WorldSizeX = sc.Arena.SizeX
	base.WorldSizeZ = sc.Arena.SizeZ
	if base.Seed == 0 {
		base.Seed = sc.Seed
	}
	s := sim.NewSimulation(base)

	for _, w := range sc.Walls {
		s.World().AddWall(w.X, w.Z, w.SizeX, w.SizeZ, w.Height)
	}
	for _, p := range sc.Props {
		r := p.Radius
		if r <= 0 {
			r = 0.5
		}
		s.World().NewBody(sim.Vec3{X: p.X, Y: r, Z: p.Z}, r, true)
	}

	if sc.Player != nil {
		player := s.AddPlayer(sim.DefaultPlayerConfig(), sim.Vec3{X: sc.Player.X, Z: sc.Player.Z})
		player.Turn(sc.Player.Yaw, 0)
		for _, ws := range sc.Weapons {
			cfg, err := weaponPreset(ws)
			if err != nil {
				return nil, err
			}
			player.AddWeapon(cfg)
		}
	}

	for _, g := range sc.Guards {
		cfg := sim.DefaultGuardConfig()
		applyTuning(&cfg, g.Tuning)
		var route *sim.PatrolRoute
		if len(g.Patrol) > 0 {
			points := make([]sim.Waypoint, len(g.Patrol))
			for i, wp := range g.Patrol {
				points[i] = sim.Waypoint{Pos: sim.Vec3{X: wp.X, Z: wp.Z}, Wait: wp.Wait}
			}
			route = sim.NewPatrolRoute(points...)
		}
		s.AddAgent(cfg, sim.SpawnPose{Pos: sim.Vec3{X: g.X, Z: g.Z}, Yaw: g.Yaw}, route)
	}

	return s, nil
}

func weaponPreset(ws WeaponSpec) (sim.WeaponConfig, error) {
	var cfg sim.WeaponConfig
	switch ws.Name {
	case "rifle":
		cfg = sim.DefaultRifleConfig()
	case "launcher":
		cfg = sim.DefaultLauncherConfig()
	default:
		return sim.WeaponConfig{}, fmt.Errorf("unknown weapon preset %q", ws.Name)
	}
	if ws.Capacity > 0 {
		cfg.Capacity = ws.Capacity
		if cfg.StartAmmo > ws.Capacity {
			cfg.StartAmmo = ws.Capacity
		}
	}
	if ws.StartReserve > 0 {
		cfg.StartReserve = ws.StartReserve
	}
	if ws.Damage > 0 {
		cfg.Damage = ws.Damage
		cfg.ExplosionDamage = ws.Damage
	}
	return cfg, nil
}

func applyTuning(cfg *sim.AgentConfig, t GuardTuning) {
	if t.MaxHealth > 0 {
		cfg.MaxHealth = t.MaxHealth
	}
	if t.WalkSpeed > 0 {
		cfg.WalkSpeed = t.WalkSpeed
	}
	if t.RunSpeed > 0 {
		cfg.RunSpeed = t.RunSpeed
	}
	if t.FOVDegrees > 0 {
		cfg.FOVDegrees = t.FOVDegrees
	}
	if t.DetectionRange > 0 {
		cfg.DetectionRange = t.DetectionRange
	}
	if t.AlertnessScale > 0 {
		cfg.AlertnessScale = t.AlertnessScale
	}
	if t.AttackRange > 0 {
		cfg.AttackRange = t.AttackRange
	}
	if t.AttackDamage > 0 {
		cfg.AttackDamage = t.AttackDamage
	}
	if t.SearchRadius > 0 {
		cfg.SearchRadius = t.SearchRadius
	}
	if t.MaxSearchTime > 0 {
		cfg.MaxSearchTime = t.MaxSearchTime
	}
	if t.DeathGraceSecs > 0 {
		cfg.DeathGrace = t.DeathGraceSecs
	}
	if t.AttacksPerMin > 0 {
		cfg.AttacksPerMinute = t.AttacksPerMin
	}
	if t.DamageAlertness > 0 {
		cfg.DamageAlertness = t.DamageAlertness
	}
}
