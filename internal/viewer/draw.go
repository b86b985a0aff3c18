package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// stateColors maps each guard state to its render colour. Cone tints and
// state tags reuse the same palette.
var stateColors = map[sim.AgentState]color.RGBA{
	sim.StateIdle:   {R: 120, G: 132, B: 120, A: 255},
	sim.StatePatrol: {R: 95, G: 165, B: 105, A: 255},
	sim.StateAlert:  {R: 225, G: 185, B: 60, A: 255},
	sim.StateAttack: {R: 225, G: 70, B: 55, A: 255},
	sim.StateSearch: {R: 230, G: 135, B: 50, A: 255},
	sim.StateDead:   {R: 45, G: 48, B: 52, A: 255},
}

// coneStates are the states that render an FOV cone, in draw order.
var coneStates = []sim.AgentState{
	sim.StateIdle, sim.StatePatrol, sim.StateAlert, sim.StateAttack, sim.StateSearch,
}

func (a *App) drawWorld(buf *ebiten.Image) {
	a.drawGround(buf)
	a.drawPatrolRoutes(buf)
	a.drawObstacles(buf)
	a.drawProps(buf)
	a.drawVisionCones(buf)
	a.drawGuards(buf)
	a.drawPlayer(buf)
	a.drawProjectiles(buf)
	a.drawTracers(buf)
	a.drawBlasts(buf)
	a.drawVignette(buf)
}

// drawGround fills the floor and lays a meter grid at 1m/5m/10m pitch.
func (a *App) drawGround(buf *ebiten.Image) {
	aw, ah := float32(a.arenaW), float32(a.arenaH)
	vector.FillRect(buf, 0, 0, aw, ah, color.RGBA{R: 30, G: 32, B: 36, A: 255}, false)

	fine := int(basePPM)
	drawGrid(buf, a.arenaW, a.arenaH, fine, color.RGBA{R: 36, G: 39, B: 44, A: 255})
	drawGrid(buf, a.arenaW, a.arenaH, fine*5, color.RGBA{R: 42, G: 46, B: 52, A: 255})
	drawGrid(buf, a.arenaW, a.arenaH, fine*10, color.RGBA{R: 52, G: 57, B: 65, A: 255})
}

func drawGrid(buf *ebiten.Image, w, h, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	for x := 0; x <= w; x += spacing {
		xf := float32(x)
		vector.StrokeLine(buf, xf, 0, xf, float32(h), 1.0, c, false)
	}
	for y := 0; y <= h; y += spacing {
		yf := float32(y)
		vector.StrokeLine(buf, 0, yf, float32(w), yf, 1.0, c, false)
	}
}

// drawPatrolRoutes renders each guard's waypoint loop under everything
// else: faint legs, waypoint dots, brighter dot for the current target.
func (a *App) drawPatrolRoutes(buf *ebiten.Image) {
	legCol := color.RGBA{R: 70, G: 95, B: 80, A: 90}
	dotCol := color.RGBA{R: 85, G: 120, B: 95, A: 160}
	curCol := color.RGBA{R: 140, G: 200, B: 150, A: 220}

	for _, g := range a.sim.Agents() {
		route, idx := g.Route()
		n := route.Len()
		if n == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			from := route.Point(i).Pos
			to := route.Point((i + 1) % n).Pos
			dashedLine(buf,
				float32(from.X*basePPM), float32(from.Z*basePPM),
				float32(to.X*basePPM), float32(to.Z*basePPM),
				8, 6, 1.0, legCol)
		}
		for i := 0; i < n; i++ {
			wp := route.Point(i)
			c := dotCol
			r := float32(3)
			if i == idx && g.State() == sim.StatePatrol {
				c = curCol
				r = 4
			}
			vector.FillCircle(buf, float32(wp.Pos.X*basePPM), float32(wp.Pos.Z*basePPM), r, c, false)
		}
	}
}

// drawObstacles renders the static boxes as lit wall slabs: drop shadow,
// fill, top-left highlight, bottom-right shadow edge.
func (a *App) drawObstacles(buf *ebiten.Image) {
	wallFill := color.RGBA{R: 78, G: 82, B: 90, A: 255}
	wallLight := color.RGBA{R: 105, G: 110, B: 120, A: 200}
	wallDark := color.RGBA{R: 48, G: 51, B: 57, A: 200}

	for _, ob := range a.sim.World().Obstacles() {
		x0 := float32(ob.Min.X * basePPM)
		y0 := float32(ob.Min.Z * basePPM)
		w := float32((ob.Max.X - ob.Min.X) * basePPM)
		h := float32((ob.Max.Z - ob.Min.Z) * basePPM)

		vector.FillRect(buf, x0+3, y0+3, w, h, color.RGBA{R: 8, G: 8, B: 10, A: 90}, false)
		vector.FillRect(buf, x0, y0, w, h, wallFill, false)
		vector.StrokeLine(buf, x0, y0, x0+w, y0, 1.0, wallLight, false)
		vector.StrokeLine(buf, x0, y0, x0, y0+h, 1.0, wallLight, false)
		vector.StrokeLine(buf, x0, y0+h, x0+w, y0+h, 1.0, wallDark, false)
		vector.StrokeLine(buf, x0+w, y0, x0+w, y0+h, 1.0, wallDark, false)
	}
}

// drawProps renders loose dynamic bodies that belong to neither the player
// nor a guard.
func (a *App) drawProps(buf *ebiten.Image) {
	owned := map[sim.EntityID]bool{}
	if p := a.player; p != nil {
		owned[p.BodyID()] = true
	}
	for _, g := range a.sim.Agents() {
		owned[g.Body().ID()] = true
	}

	world := a.sim.World()
	sizeX, sizeZ := world.Size()
	center := sim.Vec3{X: sizeX / 2, Z: sizeZ / 2}
	reach := math.Hypot(sizeX, sizeZ)

	propFill := color.RGBA{R: 140, G: 122, B: 92, A: 255}
	propEdge := color.RGBA{R: 95, G: 82, B: 62, A: 220}
	for _, b := range world.BodiesWithin(center, reach) {
		if owned[b.ID()] {
			continue
		}
		cx := float32(b.Pos.X * basePPM)
		cy := float32(b.Pos.Z * basePPM)
		r := float32(b.Radius * basePPM)
		vector.FillCircle(buf, cx+2, cy+2, r, color.RGBA{R: 8, G: 8, B: 10, A: 90}, false)
		vector.FillCircle(buf, cx, cy, r, propFill, false)
		strokeRing(buf, cx, cy, r, 1.0, propEdge)
	}
}

// drawVisionCones renders FOV fans grouped by state: all fans of one state
// go into an offscreen buffer as solid white, then composite with that
// state's tint at low opacity. Grouping keeps overlapping cones of the
// same state from blowing out additively.
func (a *App) drawVisionCones(buf *ebiten.Image) {
	const steps = 24
	const opacity = 0.10

	for _, st := range coneStates {
		drew := false
		for _, g := range a.sim.Agents() {
			if g.State() != st {
				continue
			}
			if !drew {
				a.visionBuf.Clear()
				drew = true
			}
			a.drawConeFan(a.visionBuf, g, steps)
		}
		if !drew {
			continue
		}
		opts := &ebiten.DrawImageOptions{}
		opts.ColorScale.ScaleWithColor(stateColors[st])
		opts.ColorScale.ScaleAlpha(opacity)
		buf.DrawImage(a.visionBuf, opts)
	}
}

// drawConeFan draws one guard's FOV fan in solid white, with each ray
// clipped against the world geometry at eye height.
func (a *App) drawConeFan(dst *ebiten.Image, g *sim.Agent, steps int) {
	cfg := g.Config()
	halfFOV := cfg.FOVDegrees * math.Pi / 180 / 2
	pos := g.Position()
	sx := float32(pos.X * basePPM)
	sy := float32(pos.Z * basePPM)

	var path vector.Path
	path.MoveTo(sx, sy)
	for i := 0; i <= steps; i++ {
		ang := g.Yaw() - halfFOV + (2*halfFOV/float64(steps))*float64(i)
		ex, ez := a.clipVisionRay(g, ang, cfg.DetectionRange)
		path.LineTo(float32(ex*basePPM), float32(ez*basePPM))
	}
	path.Close()
	vector.FillPath(dst, &path, &vector.FillOptions{}, &vector.DrawPathOptions{AntiAlias: true})

	// Faint bounding rays so the cone reads even at low opacity.
	edgeCol := color.RGBA{R: 255, G: 255, B: 255, A: 70}
	for _, ang := range []float64{g.Yaw() - halfFOV, g.Yaw() + halfFOV} {
		ex, ez := a.clipVisionRay(g, ang, cfg.DetectionRange)
		vector.StrokeLine(dst, sx, sy, float32(ex*basePPM), float32(ez*basePPM), 1.0, edgeCol, false)
	}
}

// clipVisionRay casts a horizontal ray at eye height and returns the
// ground-plane endpoint in meters, clipped at the first obstacle.
func (a *App) clipVisionRay(g *sim.Agent, angle, maxRange float64) (float64, float64) {
	origin := g.EyePos()
	dir := sim.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}
	hit := a.sim.World().Raycast(origin, dir, maxRange, g.Body().ID())
	dist := maxRange
	if hit.Hit {
		dist = hit.T
	}
	return origin.X + dir.X*dist, origin.Z + dir.Z*dist
}

func (a *App) drawGuards(buf *ebiten.Image) {
	for _, g := range a.sim.Agents() {
		pos := g.Position()
		cfg := g.Config()
		cx := float32(pos.X * basePPM)
		cy := float32(pos.Z * basePPM)
		r := float32(cfg.BodyRadius * basePPM)

		if g.State() == sim.StateDead {
			c := stateColors[sim.StateDead]
			vector.FillCircle(buf, cx, cy, r, c, false)
			cross := color.RGBA{R: 90, G: 94, B: 100, A: 200}
			vector.StrokeLine(buf, cx-r, cy-r, cx+r, cy+r, 1.5, cross, false)
			vector.StrokeLine(buf, cx-r, cy+r, cx+r, cy-r, 1.5, cross, false)
			continue
		}

		// Body with facing tick.
		c := stateColors[g.State()]
		vector.FillCircle(buf, cx+2, cy+2, r, color.RGBA{R: 8, G: 8, B: 10, A: 90}, false)
		vector.FillCircle(buf, cx, cy, r, c, false)
		fx := cx + float32(math.Cos(g.Yaw()))*(r+5)
		fy := cy + float32(math.Sin(g.Yaw()))*(r+5)
		vector.StrokeLine(buf, cx, cy, fx, fy, 2.0, color.RGBA{R: 235, G: 238, B: 242, A: 220}, false)

		// Alertness bar above the body, with detection threshold notch.
		a.drawAlertnessBar(buf, g, cx, cy, r)

		// Label and state tag below.
		tag := fmt.Sprintf("%s %s", g.Label(), g.State())
		a.drawLabel(buf, tag, float64(cx)-float64(len(tag))*3.5, float64(cy+r)+4, c)

		// Last-known target marker for guards hunting someone.
		if lk, ok := g.LastKnownTarget(); ok && g.State() != sim.StateIdle && g.State() != sim.StatePatrol {
			mx := float32(lk.X * basePPM)
			my := float32(lk.Z * basePPM)
			markCol := color.RGBA{R: 255, G: 235, B: 90, A: 170}
			d := float32(5)
			vector.StrokeLine(buf, mx-d, my-d, mx+d, my+d, 1.5, markCol, false)
			vector.StrokeLine(buf, mx-d, my+d, mx+d, my-d, 1.5, markCol, false)
			dashedLine(buf, cx, cy, mx, my, 6, 5, 0.5, color.RGBA{R: 255, G: 235, B: 90, A: 50})
		}

		// Selection ring.
		if a.inspector.selected == g {
			strokeRing(buf, cx, cy, r+5, 1.5, color.RGBA{R: 255, G: 240, B: 60, A: 220})
		}
	}
}

// drawAlertnessBar renders the 0-100 alertness meter with notches at the
// alert and attack thresholds.
func (a *App) drawAlertnessBar(buf *ebiten.Image, g *sim.Agent, cx, cy, r float32) {
	barW := 2*r + 10
	barH := float32(3)
	bx := cx - barW/2
	by := cy - r - 9

	vector.FillRect(buf, bx, by, barW, barH, color.RGBA{R: 16, G: 17, B: 20, A: 200}, false)

	frac := float32(g.Alertness() / 100)
	if frac > 1 {
		frac = 1
	}
	fill := color.RGBA{R: 110, G: 190, B: 100, A: 230}
	switch {
	case g.Alertness() >= 70:
		fill = color.RGBA{R: 225, G: 70, B: 55, A: 230}
	case g.Alertness() >= 35:
		fill = color.RGBA{R: 225, G: 185, B: 60, A: 230}
	}
	vector.FillRect(buf, bx, by, barW*frac, barH, fill, false)

	notch := color.RGBA{R: 200, G: 205, B: 210, A: 120}
	vector.StrokeLine(buf, bx+barW*0.35, by-1, bx+barW*0.35, by+barH+1, 1.0, notch, false)
	vector.StrokeLine(buf, bx+barW*0.70, by-1, bx+barW*0.70, by+barH+1, 1.0, notch, false)
}

func (a *App) drawPlayer(buf *ebiten.Image) {
	p := a.player
	if p == nil {
		return
	}
	pos := p.Position()
	cx := float32(pos.X * basePPM)
	cy := float32(pos.Z * basePPM)
	r := float32(0.35 * basePPM)

	if !p.Alive() {
		c := color.RGBA{R: 70, G: 74, B: 82, A: 255}
		vector.FillCircle(buf, cx, cy, r, c, false)
		cross := color.RGBA{R: 130, G: 135, B: 142, A: 220}
		vector.StrokeLine(buf, cx-r, cy-r, cx+r, cy+r, 1.5, cross, false)
		vector.StrokeLine(buf, cx-r, cy+r, cx+r, cy-r, 1.5, cross, false)
		return
	}

	// Aim line: along the horizontal aim until the first surface.
	origin, dir := p.AimRay()
	maxDist := 80.0
	if w := p.Weapon(); w != nil && w.Config().MaxRange > 0 {
		maxDist = w.Config().MaxRange
	}
	hit := a.sim.World().Raycast(origin, dir, maxDist, p.BodyID())
	dist := maxDist
	if hit.Hit {
		dist = hit.T
	}
	ex := float32((origin.X + dir.X*dist) * basePPM)
	ey := float32((origin.Z + dir.Z*dist) * basePPM)
	vector.StrokeLine(buf, cx, cy, ex, ey, 1.0, color.RGBA{R: 255, G: 255, B: 255, A: 30}, false)

	// Body with a facing wedge.
	vector.FillCircle(buf, cx+2, cy+2, r, color.RGBA{R: 8, G: 8, B: 10, A: 90}, false)
	vector.FillCircle(buf, cx, cy, r, color.RGBA{R: 120, G: 170, B: 235, A: 255}, false)
	wedge := color.RGBA{R: 235, G: 242, B: 250, A: 230}
	for _, da := range []float64{-0.22, 0.22} {
		wx := cx + float32(math.Cos(p.Yaw()+da))*(r+6)
		wy := cy + float32(math.Sin(p.Yaw()+da))*(r+6)
		vector.StrokeLine(buf, cx, cy, wx, wy, 1.5, wedge, false)
	}
}

func (a *App) drawProjectiles(buf *ebiten.Image) {
	for _, pr := range a.sim.Projectiles() {
		pos := pr.Position()
		cx := float32(pos.X * basePPM)
		cy := float32(pos.Z * basePPM)
		vel := pr.Velocity()
		speed := math.Hypot(vel.X, vel.Z)
		if speed > 1e-6 {
			tx := cx - float32(vel.X/speed)*7
			ty := cy - float32(vel.Z/speed)*7
			vector.StrokeLine(buf, cx, cy, tx, ty, 1.5, color.RGBA{R: 255, G: 200, B: 90, A: 120}, false)
		}
		vector.FillCircle(buf, cx, cy, 3, color.RGBA{R: 255, G: 205, B: 95, A: 255}, false)
	}
}

func (a *App) drawTracers(buf *ebiten.Image) {
	for _, t := range a.sim.Tracers() {
		fade := 1 - t.Age/t.Life
		if fade <= 0 {
			continue
		}
		c := color.RGBA{R: 255, G: 240, B: 180, A: uint8(200 * fade)}
		vector.StrokeLine(buf,
			float32(t.From.X*basePPM), float32(t.From.Z*basePPM),
			float32(t.To.X*basePPM), float32(t.To.Z*basePPM),
			1.0, c, false)
	}
}

func (a *App) drawBlasts(buf *ebiten.Image) {
	for _, b := range a.sim.Blasts() {
		frac := b.Age / b.Life
		if frac >= 1 {
			continue
		}
		cx := float32(b.Center.X * basePPM)
		cy := float32(b.Center.Z * basePPM)
		r := float32(b.Radius * basePPM * (0.3 + 0.7*frac))
		alpha := uint8(180 * (1 - frac))
		strokeRing(buf, cx, cy, r, 2.0, color.RGBA{R: 255, G: 180, B: 80, A: alpha})
		vector.FillCircle(buf, cx, cy, r*0.25, color.RGBA{R: 255, G: 230, B: 180, A: alpha / 3}, false)
	}
}

// drawVignette darkens the arena edges, two layers for depth.
func (a *App) drawVignette(buf *ebiten.Image) {
	aw, ah := float32(a.arenaW), float32(a.arenaH)

	outer := float32(28)
	outerDark := color.RGBA{A: 70}
	vector.FillRect(buf, 0, 0, aw, outer, outerDark, false)
	vector.FillRect(buf, 0, ah-outer, aw, outer, outerDark, false)
	vector.FillRect(buf, 0, 0, outer, ah, outerDark, false)
	vector.FillRect(buf, aw-outer, 0, outer, ah, outerDark, false)

	inner := float32(80)
	innerDark := color.RGBA{A: 25}
	vector.FillRect(buf, 0, 0, aw, inner, innerDark, false)
	vector.FillRect(buf, 0, ah-inner, aw, inner, innerDark, false)
	vector.FillRect(buf, 0, 0, inner, ah, innerDark, false)
	vector.FillRect(buf, aw-inner, 0, inner, ah, innerDark, false)
}

// drawLabel renders a world-space text tag into the arena buffer.
func (a *App) drawLabel(dst *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, a.face, op)
}

// strokeRing draws a circle outline as a 24-segment line loop.
func strokeRing(dst *ebiten.Image, cx, cy, r, width float32, c color.RGBA) {
	const segs = 24
	for i := 0; i < segs; i++ {
		a0 := float64(i) / segs * 2 * math.Pi
		a1 := float64(i+1) / segs * 2 * math.Pi
		vector.StrokeLine(dst,
			cx+r*float32(math.Cos(a0)), cy+r*float32(math.Sin(a0)),
			cx+r*float32(math.Cos(a1)), cy+r*float32(math.Sin(a1)),
			width, c, false)
	}
}

// dashedLine draws a segment as dashes.
func dashedLine(dst *ebiten.Image, x0, y0, x1, y1, dash, gap, width float32, c color.RGBA) {
	dx := x1 - x0
	dy := y1 - y0
	total := float32(math.Hypot(float64(dx), float64(dy)))
	if total < 1e-3 {
		return
	}
	nx := dx / total
	ny := dy / total
	drawn := float32(0)
	for drawn < total {
		end := drawn + dash
		if end > total {
			end = total
		}
		vector.StrokeLine(dst,
			x0+nx*drawn, y0+ny*drawn,
			x0+nx*end, y0+ny*end,
			width, c, false)
		drawn = end + gap
	}
}
