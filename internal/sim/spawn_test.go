package sim

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Successful async spawn: the bundle lands in the inbox from the loader
// goroutine and the next tick attaches the agent on the sim side.
func TestSpawnAgent_AttachesOnTick(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40))
	pending := ts.Sim.SpawnAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}}, nil)

	deadline := time.Now().Add(2 * time.Second)
	for len(ts.Sim.Agents()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("agent never attached")
		}
		ts.RunTicks(1)
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, err := pending.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if a == nil || a.Assets() == nil || a.Assets().Ref != "guard" {
		t.Fatalf("attached agent missing its asset bundle: %+v", a)
	}
	if !a.Assets().Animations[CueAnimMove] {
		t.Fatal("bundle lacks the move animation handle")
	}
	if !ts.Log().HasEntry("spawn", "enabled", "") {
		t.Fatal("spawn/enabled not logged")
	}
}

func TestSpawnAgent_LoadFailure(t *testing.T) {
	boom := errors.New("missing rig")
	ts := NewTestSim(WithArena(40, 40), WithCatalog(&StaticCatalog{
		Fail: map[string]error{"guard": boom},
	}))
	pending := ts.Sim.SpawnAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, err := pending.Wait(ctx)
	if a != nil {
		t.Fatal("agent attached despite the load failure")
	}

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want a LoadError", err)
	}
	if le.Ref != "guard" {
		t.Fatalf("LoadError.Ref = %q, want guard", le.Ref)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the catalog's root cause wrapped", err)
	}

	ts.RunTicks(3)
	if len(ts.Sim.Agents()) != 0 {
		t.Fatal("failed spawn still attached an agent")
	}
}

func TestSpawnAgent_CancelDuringLoad(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40), WithCatalog(&StaticCatalog{
		Delay: 200 * time.Millisecond,
	}))
	pending := ts.Sim.SpawnAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}}, nil)

	pending.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, err := pending.Wait(ctx)
	if a != nil {
		t.Fatal("cancelled spawn produced an agent")
	}
	if !errors.Is(err, ErrSpawnCanceled) {
		t.Fatalf("err = %v, want ErrSpawnCanceled", err)
	}

	// Even after the load window passes, nothing attaches.
	time.Sleep(250 * time.Millisecond)
	ts.RunTicks(2)
	if len(ts.Sim.Agents()) != 0 {
		t.Fatal("cancelled spawn attached anyway")
	}
}

// A bundle that finished loading before the cancel is discarded when the
// inbox drains, not attached.
func TestSpawnAgent_CancelBeforeFlushDiscards(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40))
	pending := ts.Sim.SpawnAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}}, nil)

	// The zero-delay load finishes almost at once; wait for the inbox,
	// then cancel before any tick runs.
	deadline := time.Now().Add(2 * time.Second)
	for {
		ts.Sim.spawnMu.Lock()
		queued := len(ts.Sim.inbox)
		ts.Sim.spawnMu.Unlock()
		if queued > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("bundle never reached the inbox")
		}
		time.Sleep(time.Millisecond)
	}
	pending.Cancel()

	if n := ts.Sim.FlushSpawns(); n != 0 {
		t.Fatalf("FlushSpawns attached %d, want 0", n)
	}
	if len(ts.Sim.Agents()) != 0 {
		t.Fatal("discarded spawn attached an agent")
	}
	if !ts.Log().HasEntry("spawn", "discarded", "guard") {
		t.Fatal("spawn/discarded not logged")
	}
}

func TestSpawnAgent_WaitHonorsContext(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40), WithCatalog(&StaticCatalog{
		Delay: time.Minute, // never finishes within the test
	}))
	pending := ts.Sim.SpawnAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}}, nil)
	defer pending.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pending.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

// Synchronous AddAgent stays available for tests and scripted setups; the
// agent is live immediately with no bundle.
func TestAddAgent_SynchronousAttach(t *testing.T) {
	ts := NewTestSim(WithArena(40, 40))
	a := ts.Sim.AddAgent(DefaultGuardConfig(), SpawnPose{Pos: Vec3{X: 10, Z: 10}, Yaw: 1}, nil)

	if len(ts.Sim.Agents()) != 1 {
		t.Fatal("agent not registered")
	}
	if a.Assets() != nil {
		t.Fatal("synchronous agent should have no asset bundle")
	}
	if a.State() != StateIdle {
		t.Fatalf("fresh agent state = %v, want idle", a.State())
	}
}
