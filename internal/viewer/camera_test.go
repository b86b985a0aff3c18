package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenToArenaCenterIsCamera(t *testing.T) {
	// The viewport centre always maps to the camera position.
	ax, ay := screenToArena(24+240, 24+160, 24, 24, 480, 320, 300, 200, 1.0)
	assert.InDelta(t, 300.0, ax, 1e-9)
	assert.InDelta(t, 200.0, ay, 1e-9)

	// Zoom does not move the centre.
	ax, ay = screenToArena(24+240, 24+160, 24, 24, 480, 320, 300, 200, 3.0)
	assert.InDelta(t, 300.0, ax, 1e-9)
	assert.InDelta(t, 200.0, ay, 1e-9)
}

func TestScreenToArenaInvertsCameraTransform(t *testing.T) {
	const (
		offX, offY = 24, 24
		vpW, vpH   = 480.0, 480.0
	)
	camX, camY := 240.0, 220.0
	zoom := 2.0

	// Forward transform of an arena point, as Draw applies it.
	wantX, wantY := 300.0, 180.0
	sx := int((wantX-camX)*zoom + vpW/2 + offX)
	sy := int((wantY-camY)*zoom + vpH/2 + offY)

	ax, ay := screenToArena(sx, sy, offX, offY, vpW, vpH, camX, camY, zoom)
	assert.InDelta(t, wantX, ax, 0.5)
	assert.InDelta(t, wantY, ay, 0.5)
}

func TestClampCenterPinsOversizedViewport(t *testing.T) {
	// Viewport wider than the arena pins to the midpoint.
	assert.Equal(t, 120.0, clampCenter(300, 200, 240))

	// Otherwise the centre stays at least half a viewport from each edge.
	assert.Equal(t, 100.0, clampCenter(40, 100, 480))
	assert.Equal(t, 380.0, clampCenter(470, 100, 480))
	assert.Equal(t, 250.0, clampCenter(250, 100, 480))
}
