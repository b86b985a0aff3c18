package sim

// AgentSnapshot is one guard's observable state at a tick boundary.
type AgentSnapshot struct {
	ID        int     `json:"id"`
	Label     string  `json:"label"`
	State     string  `json:"state"`
	Alertness float64 `json:"alertness"`
	Health    int     `json:"health"`
	Pos       Vec3    `json:"pos"`
	Yaw       float64 `json:"yaw"`
	Sees      bool    `json:"sees"`
}

// PlayerSnapshot is the player proxy's observable state.
type PlayerSnapshot struct {
	Pos    Vec3    `json:"pos"`
	Yaw    float64 `json:"yaw"`
	Health int     `json:"health"`
	Alive  bool    `json:"alive"`
}

// Snapshot is a point-in-time copy of everything an observer needs to
// draw or record the arena. Taken between ticks on the sim goroutine.
type Snapshot struct {
	Tick        int             `json:"tick"`
	Clock       float64         `json:"clock"`
	Agents      []AgentSnapshot `json:"agents"`
	Player      *PlayerSnapshot `json:"player,omitempty"`
	Projectiles []Vec3          `json:"projectiles,omitempty"`
}

// Snapshot captures the current sim state.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{Tick: s.tick, Clock: s.clock}
	for _, a := range s.agents {
		snap.Agents = append(snap.Agents, AgentSnapshot{
			ID:        a.id,
			Label:     a.label,
			State:     a.state.String(),
			Alertness: a.alertness,
			Health:    a.health,
			Pos:       a.pos,
			Yaw:       a.yaw,
			Sees:      a.targetVisible,
		})
	}
	if s.player != nil {
		snap.Player = &PlayerSnapshot{
			Pos:    s.player.pos,
			Yaw:    s.player.yaw,
			Health: s.player.health,
			Alive:  s.player.alive,
		}
	}
	for _, p := range s.projectiles {
		snap.Projectiles = append(snap.Projectiles, p.pos)
	}
	return snap
}
