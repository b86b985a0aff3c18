package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/kwestergaard/killhouse/internal/sim"
)

const (
	inspScale = 2
	inspBufW  = 230
	inspBufH  = 300
	inspPad   = 4
	inspLineH = 13
)

// Inspector holds the guard selected by clicking the arena. The raw view
// dumps config and runtime fields verbatim instead of the curated panel.
type Inspector struct {
	selected *sim.Agent
	rawView  bool
}

// handleInspectorClick picks the guard nearest the click, within a
// zoom-adjusted radius. Clicking empty floor deselects.
func (a *App) handleInspectorClick(mx, my int) {
	if mx < a.offX || mx >= a.offX+a.arenaW || my < a.offY || my >= a.offY+a.arenaH {
		return
	}
	ax, ay := screenToArena(mx, my, a.offX, a.offY,
		float64(a.arenaW), float64(a.arenaH), a.camX, a.camY, a.camZoom)

	pickR := 16.0 / a.camZoom
	best := pickR * pickR
	var hit *sim.Agent
	for _, g := range a.sim.Agents() {
		if g.State() == sim.StateDead {
			continue
		}
		pos := g.Position()
		dx := pos.X*basePPM - ax
		dy := pos.Z*basePPM - ay
		if d2 := dx*dx + dy*dy; d2 < best {
			best = d2
			hit = g
		}
	}

	a.inspector.selected = hit
	if hit != nil {
		a.log.Debug().Str("guard", hit.Label()).Msg("Inspector selection")
	}
}

// drawInspector renders the panel for the selected guard, bottom-right of
// the arena viewport.
func (a *App) drawInspector(screen *ebiten.Image) {
	g := a.inspector.selected
	if g == nil {
		return
	}

	buf := a.inspBuf
	buf.Clear()
	vector.FillRect(buf, 0, 0, inspBufW, inspBufH, color.RGBA{R: 12, G: 14, B: 17, A: 240}, false)
	vector.StrokeRect(buf, 0, 0, inspBufW, inspBufH, 1.0, color.RGBA{R: 70, G: 80, B: 95, A: 255}, false)

	// Title row with a state colour swatch.
	sc := stateColors[g.State()]
	vector.FillRect(buf, inspPad, inspPad+2, 8, 8, sc, false)
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("[ %s  %s ]", g.Label(), g.State()), inspPad+12, inspPad)
	vector.StrokeLine(buf, 0, inspPad+inspLineH+2, inspBufW, inspPad+inspLineH+2,
		1.0, color.RGBA{R: 45, G: 52, B: 62, A: 255}, false)

	y := inspPad + inspLineH + 7
	line := func(s string) {
		ebitenutil.DebugPrintAt(buf, truncLine(s), inspPad+2, y)
		y += inspLineH
	}
	section := func(title string) {
		y += 3
		ebitenutil.DebugPrintAt(buf, "-- "+title+" --", inspPad+2, y)
		y += inspLineH
	}
	bar := func(label string, val, max float64) {
		frac := 0.0
		if max > 0 {
			frac = val / max
		}
		filled := int(frac * 14)
		if filled < 0 {
			filled = 0
		}
		if filled > 14 {
			filled = 14
		}
		b := ""
		for i := 0; i < filled; i++ {
			b += "█"
		}
		for i := filled; i < 14; i++ {
			b += "░"
		}
		line(fmt.Sprintf("%-6s %s %.1f", label, b, val))
	}

	if a.inspector.rawView {
		a.drawRawInspector(g, line, section)
	} else {
		a.drawCuratedInspector(g, line, section, bar)
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(inspScale, inspScale)
	op.GeoM.Translate(
		float64(a.offX+a.arenaW-inspBufW*inspScale-8),
		float64(a.height-a.offY-inspBufH*inspScale-8))
	screen.DrawImage(buf, &op)
}

func (a *App) drawCuratedInspector(g *sim.Agent, line func(string), section func(string), bar func(string, float64, float64)) {
	cfg := g.Config()
	pos := g.Position()

	section("SITUATION")
	line(fmt.Sprintf("state  %s (was %s)", g.State(), g.PrevState()))
	bar("alert", g.Alertness(), 100)
	bar("hp", float64(g.Health()), float64(cfg.MaxHealth))
	line(fmt.Sprintf("pos    %.1f, %.1f  yaw %.0f", pos.X, pos.Z, g.Yaw()*180/math.Pi))
	sees := "no"
	if g.TargetVisible() {
		sees = "YES"
	}
	line("sees target  " + sees)
	if lk, ok := g.LastKnownTarget(); ok {
		line(fmt.Sprintf("last known   %.1f, %.1f", lk.X, lk.Z))
	} else {
		line("last known   none")
	}
	if route, idx := g.Route(); route.Len() > 0 {
		line(fmt.Sprintf("route  wp %d/%d", idx+1, route.Len()))
	} else {
		line("route  none")
	}

	section("SENSES")
	line(fmt.Sprintf("fov %.0f deg  range %.1fm", cfg.FOVDegrees, cfg.DetectionRange))
	line(fmt.Sprintf("check every %.2fs  eye %.1fm", cfg.DetectionCooldown, cfg.EyeHeight))
	line(fmt.Sprintf("accrue %.0f x%.1f  decay %.0f/s", cfg.AlertnessRate, cfg.AlertnessScale, cfg.AlertnessDecay))

	section("COMBAT")
	line(fmt.Sprintf("range %.1fm  dmg %d  %.0f/min", cfg.AttackRange, cfg.AttackDamage, cfg.AttacksPerMinute))
	line(fmt.Sprintf("search %.1fm for %.0fs", cfg.SearchRadius, cfg.MaxSearchTime))
	line(fmt.Sprintf("corpse lingers %.0fs", cfg.DeathGrace))
	if b := g.Assets(); b != nil {
		line(fmt.Sprintf("rig %q  %d anims", b.Ref, len(b.Animations)))
	}

	section("THOUGHTS")
	thoughts := g.Thoughts()
	if len(thoughts) > 6 {
		thoughts = thoughts[len(thoughts)-6:]
	}
	for _, t := range thoughts {
		line(fmt.Sprintf("%04d %s", t.Tick, t.Message))
	}
}

func (a *App) drawRawInspector(g *sim.Agent, line func(string), section func(string)) {
	cfg := g.Config()
	pos := g.Position()

	section("RUNTIME")
	line(fmt.Sprintf("id=%d label=%s", g.ID(), g.Label()))
	line(fmt.Sprintf("state=%s prev=%s", g.State(), g.PrevState()))
	line(fmt.Sprintf("alertness=%.2f health=%d", g.Alertness(), g.Health()))
	line(fmt.Sprintf("pos=(%.2f %.2f %.2f)", pos.X, pos.Y, pos.Z))
	line(fmt.Sprintf("yaw=%.3f visible=%v", g.Yaw(), g.TargetVisible()))
	if lk, ok := g.LastKnownTarget(); ok {
		line(fmt.Sprintf("lastKnown=(%.2f %.2f)", lk.X, lk.Z))
	} else {
		line("lastKnown=nil")
	}

	section("CONFIG")
	line(fmt.Sprintf("MaxHealth=%d BodyRadius=%.2f", cfg.MaxHealth, cfg.BodyRadius))
	line(fmt.Sprintf("WalkSpeed=%.2f RunSpeed=%.2f", cfg.WalkSpeed, cfg.RunSpeed))
	line(fmt.Sprintf("TurnRate=%.2f EyeHeight=%.2f", cfg.TurnRate, cfg.EyeHeight))
	line(fmt.Sprintf("FOVDegrees=%.1f", cfg.FOVDegrees))
	line(fmt.Sprintf("DetectionRange=%.2f", cfg.DetectionRange))
	line(fmt.Sprintf("DetectionCooldown=%.2f", cfg.DetectionCooldown))
	line(fmt.Sprintf("AlertnessRate=%.1f", cfg.AlertnessRate))
	line(fmt.Sprintf("AlertnessDecay=%.1f Scale=%.1f", cfg.AlertnessDecay, cfg.AlertnessScale))
	line(fmt.Sprintf("DamageAlertness=%.1f", cfg.DamageAlertness))
	line(fmt.Sprintf("AttackRange=%.2f Damage=%d", cfg.AttackRange, cfg.AttackDamage))
	line(fmt.Sprintf("AttacksPerMinute=%.1f", cfg.AttacksPerMinute))
	line(fmt.Sprintf("SearchRadius=%.2f MaxSearchTime=%.1f", cfg.SearchRadius, cfg.MaxSearchTime))
	line(fmt.Sprintf("DeathGrace=%.1f ModelRef=%q", cfg.DeathGrace, cfg.ModelRef))
}

// truncLine clips a panel line to the buffer width.
func truncLine(s string) string {
	max := (inspBufW - inspPad*2 - 4) / charW
	if len(s) > max && max > 2 {
		return s[:max-2] + ".."
	}
	return s
}
