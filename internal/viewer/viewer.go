// Package viewer renders the arena as a top-down debug view. The sim works
// in meters on the ground plane; the viewer maps meters to pixels, layers
// guard senses over the geometry (FOV cones, alertness bars, state tags),
// and drives the player from keyboard input.
package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// borderWidth is the pixel gap between the window edge and the arena.
const borderWidth = 24

// basePPM is the arena scale: pixels per meter at zoom 1.
const basePPM = 24.0

// logPanelWidth is the event log column on the right of the window.
const logPanelWidth = 380

// hudScale is the integer upscale factor applied to all HUD text.
const hudScale = 2

// simDt is the fixed timestep; the sim advances in these steps only.
const simDt = 1.0 / 60.0

// turnRate is the player yaw speed under the arrow keys, radians/second.
const turnRate = 2.6

// App is the interactive sandbox: one Simulation, one player, rendered
// top-down with ebiten.
type App struct {
	sim    *sim.Simulation
	player *sim.Player
	log    zerolog.Logger

	width  int
	height int
	arenaW int // arena pixel width at zoom 1
	arenaH int
	offX   int
	offY   int

	// Offscreen buffer for the arena; the camera transform is applied on blit.
	worldBuf *ebiten.Image
	// Offscreen buffer for FOV cones, composited per state to avoid
	// additive blowout where cones overlap.
	visionBuf *ebiten.Image
	// Offscreen buffer for HUD text, rendered at 1x then blitted at hudScale.
	hudBuf  *ebiten.Image
	inspBuf *ebiten.Image

	face text.Face

	// Camera pan + zoom, in arena-pixel coordinates.
	camX    float64
	camY    float64
	camZoom float64
	follow  bool // camera tracks the player

	// Right-drag panning.
	dragging           bool
	dragX, dragY       int
	dragCamX, dragCamY float64

	// Simulation speed control.
	simSpeed  float64 // 0=paused, 0.5, 1, 2, 4
	tickAccum float64

	showHUD       bool
	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool

	inspector Inspector

	// Reinforcements requested with G; pruned once attached or failed.
	pendingSpawns []*sim.PendingAgent
	spawnCorner   int
}

// NewApp wires a viewer around an already-built simulation.
func NewApp(s *sim.Simulation, log zerolog.Logger) *App {
	sizeX, sizeZ := s.World().Size()
	arenaW := int(sizeX * basePPM)
	arenaH := int(sizeZ * basePPM)

	a := &App{
		sim:      s,
		player:   s.Player(),
		log:      log,
		width:    borderWidth + arenaW + borderWidth + logPanelWidth,
		height:   borderWidth + arenaH + borderWidth,
		arenaW:   arenaW,
		arenaH:   arenaH,
		offX:     borderWidth,
		offY:     borderWidth,
		camX:     float64(arenaW) / 2,
		camY:     float64(arenaH) / 2,
		camZoom:  1.0,
		follow:   true,
		simSpeed: 1.0,
		showHUD:  true,
		prevKeys: make(map[ebiten.Key]bool),
		face:     text.NewGoXFace(basicfont.Face7x13),
	}
	a.worldBuf = ebiten.NewImage(arenaW, arenaH)
	a.visionBuf = ebiten.NewImage(arenaW, arenaH)
	a.hudBuf = ebiten.NewImage(a.width/hudScale, a.height/hudScale)
	a.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
	return a
}

// WindowSize returns the pixel size the window should be opened at.
func (a *App) WindowSize() (int, int) { return a.width, a.height }

func (a *App) Update() error {
	a.handleInput()

	if a.simSpeed <= 0 {
		return nil
	}

	// For speeds > 1 run multiple sim ticks per frame, for speeds < 1
	// accumulate fractions.
	a.tickAccum += a.simSpeed
	for a.tickAccum >= 1.0 {
		a.tickAccum -= 1.0
		a.simTick()
	}
	return nil
}

// simTick applies held player input for one fixed step, then advances the
// simulation.
func (a *App) simTick() {
	if p := a.player; p != nil && p.Alive() {
		forward, strafe := 0.0, 0.0
		if ebiten.IsKeyPressed(ebiten.KeyW) {
			forward += 1
		}
		if ebiten.IsKeyPressed(ebiten.KeyS) {
			forward -= 1
		}
		if ebiten.IsKeyPressed(ebiten.KeyD) {
			strafe += 1
		}
		if ebiten.IsKeyPressed(ebiten.KeyA) {
			strafe -= 1
		}
		if forward != 0 || strafe != 0 {
			p.Move(forward, strafe, simDt)
		}

		dyaw, dpitch := 0.0, 0.0
		if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
			dyaw -= turnRate * simDt
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
			dyaw += turnRate * simDt
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
			dpitch += 0.8 * simDt
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
			dpitch -= 0.8 * simDt
		}
		if dyaw != 0 || dpitch != 0 {
			p.Turn(dyaw, dpitch)
		}

		// Held trigger; the weapon rate-gates itself.
		if ebiten.IsKeyPressed(ebiten.KeySpace) {
			if w := p.Weapon(); w != nil {
				w.Fire()
			}
		}
	}

	a.sim.Tick(simDt)
	a.prunePendingSpawns()
}

// handleInput processes edge-triggered keys and the camera every frame.
func (a *App) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !a.prevKeys[k]
	}

	p := a.player

	// Weapon handling.
	if p != nil && p.Alive() {
		if pressed(ebiten.KeyR) {
			if w := p.Weapon(); w != nil {
				w.Reload()
			}
		}
		if pressed(ebiten.KeyE) {
			if w := p.Weapon(); w != nil {
				w.SetAiming(!w.Aiming())
			}
		}
		if pressed(ebiten.Key1) {
			p.SelectWeapon(0)
		}
		if pressed(ebiten.Key2) {
			p.SelectWeapon(1)
		}
	}

	// G: call a reinforcement guard in through the async spawn pipeline.
	if pressed(ebiten.KeyG) {
		a.requestReinforcement()
	}

	// Sim speed: P pause/resume, ,/. slower/faster.
	speeds := []float64{0, 0.5, 1, 2, 4}
	if pressed(ebiten.KeyP) {
		if a.simSpeed > 0 {
			a.simSpeed = 0
		} else {
			a.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= a.simSpeed && i > 0 {
				a.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if pressed(ebiten.KeyPeriod) {
		for i, s := range speeds {
			if s <= a.simSpeed && i < len(speeds)-1 {
				if speeds[i+1] > a.simSpeed {
					a.simSpeed = speeds[i+1]
					break
				}
			}
		}
	}

	if pressed(ebiten.KeyH) {
		a.showHUD = !a.showHUD
	}
	if pressed(ebiten.KeyF) {
		a.follow = !a.follow
	}
	if pressed(ebiten.KeyI) {
		a.inspector.rawView = !a.inspector.rawView
	}
	if pressed(ebiten.KeyC) {
		a.copyDebugReport()
	}

	// Camera zoom: mouse wheel or =/- keys.
	const zoomMin, zoomMax = 0.5, 4.0
	_, wy := ebiten.Wheel()
	if wy != 0 {
		a.camZoom *= math.Pow(1.12, wy)
	}
	if pressed(ebiten.KeyEqual) {
		a.camZoom *= 1.25
	}
	if pressed(ebiten.KeyMinus) {
		a.camZoom /= 1.25
	}
	if a.camZoom < zoomMin {
		a.camZoom = zoomMin
	}
	if a.camZoom > zoomMax {
		a.camZoom = zoomMax
	}

	// Right-drag panning; any drag releases follow mode.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		mx, my := ebiten.CursorPosition()
		if !a.dragging {
			a.dragging = true
			a.dragX, a.dragY = mx, my
			a.dragCamX, a.dragCamY = a.camX, a.camY
		} else {
			a.follow = false
			a.camX = a.dragCamX - float64(mx-a.dragX)/a.camZoom
			a.camY = a.dragCamY - float64(my-a.dragY)/a.camZoom
		}
	} else {
		a.dragging = false
	}

	// Follow camera tracks the player in arena-pixel space.
	if a.follow && p != nil {
		pos := p.Position()
		a.camX = pos.X * basePPM
		a.camY = pos.Z * basePPM
	}

	// Clamp the camera centre to the arena, accounting for zoom. A viewport
	// larger than the zoomed arena pins to the centre instead.
	halfVW := float64(a.arenaW) / 2 / a.camZoom
	halfVH := float64(a.arenaH) / 2 / a.camZoom
	a.camX = clampCenter(a.camX, halfVW, float64(a.arenaW))
	a.camY = clampCenter(a.camY, halfVH, float64(a.arenaH))

	// Left click: inspect a guard.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !a.prevMouseLeft {
			mx, my := ebiten.CursorPosition()
			a.handleInspectorClick(mx, my)
		}
	}
	a.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	a.prevKeys = currentKeys
}

// clampCenter keeps a camera axis inside [half, extent-half], pinning to
// the midpoint when the view is wider than the extent.
func clampCenter(v, half, extent float64) float64 {
	if half*2 >= extent {
		return extent / 2
	}
	if v < half {
		return half
	}
	if v > extent-half {
		return extent - half
	}
	return v
}

// screenToArena inverts the camera transform, mapping a window pixel to
// arena-pixel coordinates.
func screenToArena(mx, my, offX, offY int, vpW, vpH, camX, camY, zoom float64) (float64, float64) {
	ax := (float64(mx)-float64(offX)-vpW/2)/zoom + camX
	ay := (float64(my)-float64(offY)-vpH/2)/zoom + camY
	return ax, ay
}

// requestReinforcement starts an async guard spawn at one of the arena
// corners, with a short patrol leg toward the centre.
func (a *App) requestReinforcement() {
	sizeX, sizeZ := a.sim.World().Size()
	corners := [4]sim.Vec3{
		{X: 2, Z: 2},
		{X: sizeX - 2, Z: 2},
		{X: sizeX - 2, Z: sizeZ - 2},
		{X: 2, Z: sizeZ - 2},
	}
	entry := corners[a.spawnCorner%len(corners)]
	a.spawnCorner++

	center := sim.Vec3{X: sizeX / 2, Z: sizeZ / 2}
	route := sim.NewPatrolRoute(
		sim.Waypoint{Pos: entry, Wait: 0.5},
		sim.Waypoint{Pos: center, Wait: 1.0},
	)
	pose := sim.SpawnPose{Pos: entry, Yaw: sim.YawTo(entry, center)}

	pending := a.sim.SpawnAgent(sim.DefaultGuardConfig(), pose, route)
	a.pendingSpawns = append(a.pendingSpawns, pending)
	a.log.Info().
		Float64("x", entry.X).
		Float64("z", entry.Z).
		Msg("Reinforcement requested")
}

// prunePendingSpawns drops finished spawns from the HUD counter.
func (a *App) prunePendingSpawns() {
	kept := a.pendingSpawns[:0]
	for _, p := range a.pendingSpawns {
		select {
		case <-p.LoadDone():
		default:
			kept = append(kept, p)
		}
	}
	a.pendingSpawns = kept
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 15, B: 18, A: 255})

	a.worldBuf.Clear()
	a.drawWorld(a.worldBuf)

	// Camera transform: translate so camX/camY sits at the viewport centre,
	// then scale.
	var cam ebiten.GeoM
	cam.Translate(-a.camX, -a.camY)
	cam.Scale(a.camZoom, a.camZoom)
	cam.Translate(float64(a.arenaW)/2, float64(a.arenaH)/2)

	var blit ebiten.DrawImageOptions
	blit.GeoM = cam
	blit.GeoM.Translate(float64(a.offX), float64(a.offY))
	screen.DrawImage(a.worldBuf, &blit)

	// Arena border frame, drawn in screen coordinates.
	ox := float32(a.offX)
	oy := float32(a.offY)
	aw := float32(a.arenaW)
	ah := float32(a.arenaH)
	borderCol := color.RGBA{R: 70, G: 80, B: 95, A: 255}
	vector.StrokeRect(screen, ox-1, oy-1, aw+2, ah+2, 2.0, borderCol, false)
	vector.StrokeRect(screen, ox-3, oy-3, aw+6, ah+6, 1.0, color.RGBA{R: 45, G: 52, B: 62, A: 100}, false)

	a.drawEventLog(screen)

	if a.showHUD {
		a.drawHUD(screen)
	}

	if a.camZoom != 1.0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("zoom: %.1fx", a.camZoom), a.offX+6, a.offY+6)
	}

	a.drawInspector(screen)
}

func (a *App) Layout(_, _ int) (int, int) {
	return a.width, a.height
}
