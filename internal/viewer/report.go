package viewer

import (
	"fmt"
	"math"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// BuildDebugReport renders the sim state as pasteable text: player and
// guard status, the selected guard's thought log, and the recent event
// tail. lastTicks bounds the log window.
func BuildDebugReport(s *sim.Simulation, selected *sim.Agent, lastTicks int) string {
	if lastTicks <= 0 {
		lastTicks = 600
	}
	toTick := s.TickCount()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	alive := 0
	for _, g := range s.Agents() {
		if g.State() != sim.StateDead {
			alive++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- killhouse debug report ---\n")
	fmt.Fprintf(&b, "tick=%d clock=%.1fs tick_range=[%d..%d] guards=%d/%d\n\n",
		toTick, s.Clock(), fromTick, toTick, alive, len(s.Agents()))

	if p := s.Player(); p != nil {
		pos := p.Position()
		fmt.Fprintf(&b, "== player ==\n")
		fmt.Fprintf(&b, "pos=(%.1f, %.1f) yaw=%.0f hp=%d alive=%v\n",
			pos.X, pos.Z, p.Yaw()*180/math.Pi, p.Health(), p.Alive())
		if w := p.Weapon(); w != nil {
			mag, reserve := w.Ammo()
			fmt.Fprintf(&b, "weapon=%s ammo=%d/%d reloading=%v aiming=%v\n",
				w.Config().Name, mag, reserve, w.Reloading(), w.Aiming())
		}
		b.WriteByte('\n')
	}

	writeGuard := func(g *sim.Agent) {
		pos := g.Position()
		fmt.Fprintf(&b, "== guard (%s) ==\n", g.Label())
		fmt.Fprintf(&b, "state=%s prev=%s alertness=%.1f hp=%d\n",
			g.State(), g.PrevState(), g.Alertness(), g.Health())
		fmt.Fprintf(&b, "pos=(%.1f, %.1f) yaw=%.0f sees_target=%v\n",
			pos.X, pos.Z, g.Yaw()*180/math.Pi, g.TargetVisible())
		if lk, ok := g.LastKnownTarget(); ok {
			fmt.Fprintf(&b, "last_known=(%.1f, %.1f)\n", lk.X, lk.Z)
		}
		if route, idx := g.Route(); route.Len() > 0 {
			fmt.Fprintf(&b, "route=wp %d/%d\n", idx+1, route.Len())
		}

		if thoughts := g.Thoughts(); len(thoughts) > 0 {
			b.WriteString("thoughts:\n")
			for _, t := range thoughts {
				fmt.Fprintf(&b, "  T=%04d %s\n", t.Tick, t.Message)
			}
		}

		events := s.Log().FilterActor(g.Label())
		if len(events) > 12 {
			events = events[len(events)-12:]
		}
		if len(events) > 0 {
			b.WriteString("events:\n")
			for _, e := range events {
				b.WriteString("  ")
				b.WriteString(e.String())
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}

	if selected != nil {
		writeGuard(selected)
	}

	b.WriteString("== guards ==\n")
	for _, g := range s.Agents() {
		pos := g.Position()
		fmt.Fprintf(&b, "%-4s %-7s alert=%5.1f hp=%3d pos=(%.1f, %.1f)\n",
			g.Label(), g.State(), g.Alertness(), g.Health(), pos.X, pos.Z)
	}
	b.WriteByte('\n')

	tail := s.Log().FilterTickRange(fromTick, toTick)
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}
	b.WriteString("== log tail ==\n")
	for _, e := range tail {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString(s.Summary())
	return b.String()
}

// copyDebugReport puts the current report on the system clipboard.
func (a *App) copyDebugReport() {
	report := BuildDebugReport(a.sim, a.inspector.selected, 600)
	if err := clipboard.WriteAll(report); err != nil {
		a.log.Error().Err(err).Msg("Clipboard write failed")
		return
	}
	a.log.Info().Int("bytes", len(report)).Msg("Debug report copied to clipboard")
}
