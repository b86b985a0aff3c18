package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// Debug font cell metrics, shared by the HUD box and the log panel.
const (
	lineH = 12
	charW = 6
	padX  = 5
	padY  = 4
)

// categoryColors tints the swatch in front of each log line.
var categoryColors = map[string]color.RGBA{
	"state":  {R: 130, G: 180, B: 230, A: 255},
	"vision": {R: 120, G: 200, B: 140, A: 255},
	"alert":  {R: 225, G: 185, B: 60, A: 255},
	"move":   {R: 120, G: 128, B: 140, A: 255},
	"attack": {R: 225, G: 95, B: 70, A: 255},
	"weapon": {R: 210, G: 160, B: 235, A: 255},
	"proj":   {R: 255, G: 205, B: 95, A: 255},
	"blast":  {R: 255, G: 150, B: 70, A: 255},
	"damage": {R: 235, G: 80, B: 80, A: 255},
	"death":  {R: 160, G: 60, B: 60, A: 255},
	"spawn":  {R: 90, G: 210, B: 200, A: 255},
	"search": {R: 230, G: 135, B: 50, A: 255},
}

// drawEventLog renders the tail of the sim log in the right-hand column.
func (a *App) drawEventLog(screen *ebiten.Image) {
	logX := a.offX*2 + a.arenaW
	logY := a.offY
	logH := a.height - 2*a.offY

	vector.FillRect(screen, float32(logX), float32(logY), float32(logPanelWidth-a.offX), float32(logH),
		color.RGBA{R: 18, G: 20, B: 24, A: 255}, false)
	vector.StrokeRect(screen, float32(logX), float32(logY), float32(logPanelWidth-a.offX), float32(logH),
		1.0, color.RGBA{R: 45, G: 52, B: 62, A: 255}, false)

	ebitenutil.DebugPrintAt(screen, "EVENT LOG", logX+padX+2, logY+padY)
	vector.StrokeLine(screen, float32(logX), float32(logY+lineH+padY*2),
		float32(logX+logPanelWidth-a.offX), float32(logY+lineH+padY*2),
		1.0, color.RGBA{R: 45, G: 52, B: 62, A: 255}, false)

	top := logY + lineH + padY*3
	rowH := lineH + 2
	rows := (logH - (top - logY) - padY) / rowH
	if rows <= 0 {
		return
	}

	entries := a.sim.Log().Entries()
	if len(entries) > rows {
		entries = entries[len(entries)-rows:]
	}
	for i, e := range entries {
		y := top + i*rowH
		if c, ok := categoryColors[e.Category]; ok {
			vector.FillRect(screen, float32(logX+padX), float32(y+2), 3, float32(rowH-4), c, false)
		}
		line := e.String()
		maxChars := (logPanelWidth - a.offX - padX*3 - 4) / charW
		if len(line) > maxChars && maxChars > 3 {
			line = line[:maxChars-2] + ".."
		}
		ebitenutil.DebugPrintAt(screen, line, logX+padX+7, y)
	}
}

// drawHUD renders the status box bottom-left: sim controls, player state,
// weapon readout, and the key legend. Rendered at 1x into hudBuf, then
// blitted at hudScale.
func (a *App) drawHUD(screen *ebiten.Image) {
	lines := a.hudLines()

	w := 0
	for _, l := range lines {
		if len(l) > w {
			w = len(l)
		}
	}
	boxW := w*charW + padX*2
	boxH := len(lines)*lineH + padY*2

	a.hudBuf.Clear()
	vector.FillRect(a.hudBuf, 0, 0, float32(boxW), float32(boxH),
		color.RGBA{R: 10, G: 12, B: 15, A: 235}, false)
	vector.StrokeRect(a.hudBuf, 0, 0, float32(boxW), float32(boxH),
		1.0, color.RGBA{R: 70, G: 80, B: 95, A: 255}, false)
	vector.StrokeLine(a.hudBuf, 1, 1, float32(boxW-1), 1,
		1.0, color.RGBA{R: 100, G: 112, B: 128, A: 120}, false)

	for i, l := range lines {
		ebitenutil.DebugPrintAt(a.hudBuf, l, padX, padY+i*lineH)
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(hudScale, hudScale)
	op.GeoM.Translate(float64(a.offX), float64(a.height-boxH*hudScale-a.offY))
	screen.DrawImage(a.hudBuf, &op)
}

func (a *App) hudLines() []string {
	var lines []string

	speed := fmt.Sprintf("x%.1f", a.simSpeed)
	if a.simSpeed <= 0 {
		speed = "PAUSED"
	}
	lines = append(lines, fmt.Sprintf("SIM  %-6s  tick %d  %.1fs", speed, a.sim.TickCount(), a.sim.Clock()))

	alive := 0
	for _, g := range a.sim.Agents() {
		if g.State() != sim.StateDead {
			alive++
		}
	}
	if p := a.player; p != nil {
		hp := fmt.Sprintf("%d/%d", p.Health(), p.Config().MaxHealth)
		if !p.Alive() {
			hp = "DEAD"
		}
		lines = append(lines, fmt.Sprintf("HP   %-8s guards %d/%d", hp, alive, len(a.sim.Agents())))

		if w := p.Weapon(); w != nil {
			mag, reserve := w.Ammo()
			status := ""
			if w.Reloading() {
				status = " [RELOADING]"
			} else if w.Aiming() {
				status = " [ADS]"
			}
			lines = append(lines, fmt.Sprintf("WPN  %s %d/%d%s", w.Config().Name, mag, reserve, status))
		}
	} else {
		lines = append(lines, fmt.Sprintf("guards %d/%d", alive, len(a.sim.Agents())))
	}

	if n := len(a.pendingSpawns); n > 0 {
		lines = append(lines, fmt.Sprintf("SPAWN %d inbound", n))
	}

	lines = append(lines,
		"",
		"wasd move  arrows turn  space fire",
		"r reload  e aim  1/2 weapon  g call guard",
		"click inspect  i raw view  c copy report",
		"f follow  drag pan  wheel zoom",
		"p pause  ,/. speed  h hud",
	)
	return lines
}
