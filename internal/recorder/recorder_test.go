package recorder

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwestergaard/killhouse/internal/sim"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	rec, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	return rec
}

func entry(tick int, actor, category, key string, num float64) sim.SimLogEntry {
	return sim.SimLogEntry{
		Tick:     tick,
		Actor:    actor,
		Side:     "guard",
		Category: category,
		Key:      key,
		Value:    "test",
		NumVal:   num,
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	rec := openTestRecorder(t)

	runID, err := rec.BeginRun("smoke", 7)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	rec.HandleSimEvent(entry(1, "G1", "state", "change", 0))
	rec.HandleSimEvent(entry(2, "G1", "vision", "contact", 4.5))
	rec.HandleSimEvent(entry(3, "G2", "state", "change", 12))
	require.NoError(t, rec.Flush())

	n, err := rec.EventCount(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	counts, err := rec.CategoryCounts(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["state"])
	assert.Equal(t, int64(1), counts["vision"])

	events, err := rec.EventsFor(runID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "G1", events[0].Actor)
	assert.Equal(t, "contact", events[1].Key)
	assert.Equal(t, 4.5, events[1].NumVal)
	assert.Equal(t, runID, events[2].RunID)

	require.NoError(t, rec.EndRun(42))
	runs, err := rec.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "smoke", runs[0].Label)
	assert.Equal(t, int64(7), runs[0].Seed)
	assert.Equal(t, 42, runs[0].Ticks)
	assert.False(t, runs[0].EndedAt.IsZero())
}

func TestRecorderDropsEventsOutsideRun(t *testing.T) {
	rec := openTestRecorder(t)

	rec.HandleSimEvent(entry(1, "G1", "state", "change", 0))
	require.NoError(t, rec.Flush())

	runID, err := rec.BeginRun("late", 1)
	require.NoError(t, err)
	n, err := rec.EventCount(runID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, rec.EndRun(0))
	rec.HandleSimEvent(entry(2, "G1", "state", "change", 0))
	require.NoError(t, rec.Flush())
	n, err = rec.EventCount(runID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecorderAutoFlushAtBatchSize(t *testing.T) {
	rec := openTestRecorder(t)

	runID, err := rec.BeginRun("batch", 1)
	require.NoError(t, err)
	for i := 0; i < flushBatch; i++ {
		rec.HandleSimEvent(entry(i, "G1", "attack", "miss", 0))
	}

	// Threshold reached, so the batch is on disk without an explicit Flush.
	n, err := rec.EventCount(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(flushBatch), n)
}

func TestRecorderSeparatesRuns(t *testing.T) {
	rec := openTestRecorder(t)

	first, err := rec.BeginRun("first", 1)
	require.NoError(t, err)
	rec.HandleSimEvent(entry(1, "G1", "state", "change", 0))
	require.NoError(t, rec.EndRun(10))

	second, err := rec.BeginRun("second", 2)
	require.NoError(t, err)
	rec.HandleSimEvent(entry(1, "G1", "state", "change", 0))
	rec.HandleSimEvent(entry(2, "G1", "death", "killed", 0))
	require.NoError(t, rec.EndRun(20))

	n1, err := rec.EventCount(first)
	require.NoError(t, err)
	n2, err2 := rec.EventCount(second)
	require.NoError(t, err2)
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)

	runs, err := rec.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].Label)
	assert.Equal(t, "second", runs[1].Label)
}

func TestRecorderCapturesLiveSim(t *testing.T) {
	rec := openTestRecorder(t)

	// Guard spawns facing -Z straight at the player, so contact comes
	// within a few ticks.
	ts := sim.NewTestSim(
		sim.WithSeed(3),
		sim.WithPlayer(10, 10),
		sim.WithGuard(sim.DefaultGuardConfig(), 10, 14, -math.Pi/2),
	)

	runID, err := rec.BeginRun("live", 3)
	require.NoError(t, err)
	ts.Sim.AddSink(rec)

	reached := ts.RunUntil(func(ts *sim.TestSim) bool {
		return ts.Guard(0).State() == sim.StateAttack
	}, 300)
	require.NotEqual(t, -1, reached, "guard never engaged the player")
	require.NoError(t, rec.EndRun(ts.CurrentTick()))

	counts, err := rec.CategoryCounts(runID)
	require.NoError(t, err)
	assert.NotZero(t, counts["vision"], "expected vision contact events")
	assert.NotZero(t, counts["state"], "expected state transition events")
}
