package sim

import "fmt"

// Behavior is the capability set a guard variant implements. The agent owns
// all state; a behavior is pure logic driven from Agent.Tick, so one value
// can serve every agent using it.
type Behavior interface {
	UpdatePerception(a *Agent, dt float64)
	UpdateIdle(a *Agent, dt float64)
	UpdatePatrol(a *Agent, dt float64)
	UpdateAlert(a *Agent, dt float64)
	UpdateAttack(a *Agent, dt float64)
	UpdateSearch(a *Agent, dt float64)
	ShouldPatrol(a *Agent) bool
	CanAttackTarget(a *Agent) bool
}

// NextState is the transition table. Rows are checked in priority order
// against post-decay alertness; the first match wins. Dead has no rows: it
// is entered through damage only and never left.
func NextState(state AgentState, alertness float64, canAttack, hasRoute bool) AgentState {
	switch state {
	case StateIdle:
		if alertness > 50 {
			return StateAlert
		}
		if hasRoute {
			return StatePatrol
		}
	case StatePatrol:
		if alertness > 50 {
			return StateAlert
		}
		if alertness > 20 {
			return StateSearch
		}
	case StateAlert:
		if alertness > 80 && canAttack {
			return StateAttack
		}
		if alertness < 40 {
			return StateSearch
		}
	case StateAttack:
		if !canAttack {
			return StateAlert
		}
		if alertness < 60 {
			return StateSearch
		}
	case StateSearch:
		if alertness > 70 {
			return StateAlert
		}
		if alertness < 10 {
			if hasRoute {
				return StatePatrol
			}
			return StateIdle
		}
	}
	return state
}

// StandardGuard is the stock behaviour: patrol a route, investigate what it
// sees, shoot what it is sure of, search where it lost the trail.
type StandardGuard struct{}

// UpdatePerception runs the throttled perception check and accrues
// alertness on contact. The visibility flag holds its value between checks.
func (g StandardGuard) UpdatePerception(a *Agent, dt float64) {
	a.detectionTimer -= dt
	if a.detectionTimer > 0 {
		return
	}
	a.detectionTimer = a.cfg.DetectionCooldown

	if a.target == nil {
		a.targetVisible = false
		return
	}

	wasVisible := a.targetVisible
	tp := a.target.Position()
	visible, dist := CanPerceive(
		Pose{Eye: a.EyePos(), Yaw: a.yaw},
		tp,
		a.cfg.FOVDegrees,
		a.cfg.DetectionRange,
		a.occlusionTest(),
	)
	a.targetVisible = visible

	if visible {
		a.lastKnown = tp
		a.hasLastKnown = true
		a.alertArrived = false
		a.raiseAlertness(alertnessGain(a.cfg.AlertnessRate, dist, a.cfg.DetectionRange, dt, a.cfg.AlertnessScale))
		if !wasVisible {
			a.logEvent("vision", "contact", fmt.Sprintf("target at (%.1f,%.1f) dist %.1f", tp.X, tp.Z, dist), dist)
			a.think(fmt.Sprintf("contact, dist %.1f", dist))
		}
	} else if wasVisible {
		a.logEvent("vision", "contact_lost", fmt.Sprintf("last seen (%.1f,%.1f)", a.lastKnown.X, a.lastKnown.Z), 0)
		a.think("lost sight of target")
	}
	a.sim.log.AddVerbose(a.sim.tick, a.label, "guard", "alert", "level",
		fmt.Sprintf("%.1f", a.alertness), a.alertness)
}

// UpdateIdle holds position. The table moves the agent out when a route is
// attached or something raises alertness.
func (g StandardGuard) UpdateIdle(a *Agent, dt float64) {}

// UpdatePatrol walks the route: head for the current waypoint, wait out its
// hold time on arrival, then advance to the next index, wrapping around.
func (g StandardGuard) UpdatePatrol(a *Agent, dt float64) {
	n := a.route.Len()
	if n == 0 {
		return
	}
	if a.waitRemaining > 0 {
		a.waitRemaining -= dt
		if a.waitRemaining <= 0 {
			a.advanceWaypoint(n)
		}
		return
	}
	wp := a.route.Point(a.routeIdx % n)
	if a.moveToward(wp.Pos, a.cfg.WalkSpeed, dt) {
		if wp.Wait > 0 {
			a.waitRemaining = wp.Wait
			return
		}
		a.advanceWaypoint(n)
	}
}

// UpdateAlert runs to the last known target position. Arriving without a
// current sighting turns into a wander around the arrival point until the
// table cools the agent down to Search, or a new sighting re-aims the run.
func (g StandardGuard) UpdateAlert(a *Agent, dt float64) {
	if a.hasLastKnown && !a.alertArrived {
		if !a.moveToward(a.lastKnown, a.cfg.RunSpeed, dt) {
			return
		}
		a.alertArrived = true
		a.searchAnchor = a.pos
		a.hasSearchPoint = false
		a.waitRemaining = 0
		if !a.targetVisible {
			a.think("reached last known position, no contact")
			a.logEvent("search", "anchor", fmt.Sprintf("(%.1f,%.1f)", a.pos.X, a.pos.Z), 0)
		}
		return
	}
	if !a.hasLastKnown && !a.alertArrived {
		// Alarmed with no position to chase: hold the anchor set on entry.
		a.alertArrived = true
	}
	g.wanderStep(a, a.cfg.WalkSpeed, dt)
}

// UpdateAttack faces the target at double turn rate and fires on the
// cooldown when in range, closing at run speed otherwise.
func (g StandardGuard) UpdateAttack(a *Agent, dt float64) {
	if a.target == nil {
		return // table flips to Alert next tick
	}
	tp := a.target.Position()
	a.yaw = turnToward(a.yaw, YawTo(a.pos, tp), 2*a.cfg.TurnRate*dt)

	if a.attackCooldown > 0 {
		a.attackCooldown -= dt
		return
	}

	dist := a.EyePos().DistanceTo(tp)
	if dist > a.cfg.AttackRange {
		a.moveToward(tp, a.cfg.RunSpeed, dt)
		return
	}

	hitChance := 1.0 - dist/a.cfg.AttackRange
	if hitChance < 0.1 {
		hitChance = 0.1
	}
	a.audio.PlaySound(CueSoundAttack)
	a.sim.addTracer(a.EyePos(), tp)
	if a.sim.rng.Float64() < hitChance {
		a.target.TakeDamage(a.cfg.AttackDamage)
		a.logEvent("attack", "hit", fmt.Sprintf("dist %.1f chance %.2f", dist, hitChance), float64(a.cfg.AttackDamage))
	} else {
		a.logEvent("attack", "miss", fmt.Sprintf("dist %.1f chance %.2f", dist, hitChance), 0)
	}
	a.attackCooldown = 60.0 / a.cfg.AttacksPerMinute
}

// UpdateSearch wanders random points near the anchor until the search time
// budget runs out, then zeroes alertness so the table falls back to
// Patrol or Idle.
func (g StandardGuard) UpdateSearch(a *Agent, dt float64) {
	a.searchTime += dt
	if a.searchTime >= a.cfg.MaxSearchTime {
		a.forceAlertness(0)
		a.think("search exhausted, standing down")
		a.logEvent("search", "abandoned", fmt.Sprintf("after %.1fs", a.searchTime), a.searchTime)
		return
	}
	g.wanderStep(a, a.cfg.WalkSpeed, dt)
}

// ShouldPatrol reports whether a route with at least one waypoint is attached.
func (g StandardGuard) ShouldPatrol(a *Agent) bool {
	return a.route.Len() > 0
}

// CanAttackTarget reports whether the most recent perception check saw the
// target. Range is not required: the attack state closes distance itself.
func (g StandardGuard) CanAttackTarget(a *Agent) bool {
	return a.target != nil && a.targetVisible
}

// wanderStep walks to the current search point, pausing 1-3 seconds at each
// before picking the next one inside the search radius around the anchor.
func (g StandardGuard) wanderStep(a *Agent, speed, dt float64) {
	if a.waitRemaining > 0 {
		a.waitRemaining -= dt
		return
	}
	if !a.hasSearchPoint {
		a.searchPoint = a.sim.randPointNear(a.searchAnchor, a.cfg.SearchRadius, a.cfg.BodyRadius)
		a.hasSearchPoint = true
		a.logEvent("search", "point", fmt.Sprintf("(%.1f,%.1f)", a.searchPoint.X, a.searchPoint.Z), 0)
	}
	if a.moveToward(a.searchPoint, speed, dt) {
		a.hasSearchPoint = false
		a.waitRemaining = 1.0 + a.sim.rng.Float64()*2.0
	}
}
