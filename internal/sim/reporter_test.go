package sim

import (
	"math"
	"strings"
	"testing"
)

func TestRunReporter_OccupancySumsToFull(t *testing.T) {
	ts := NewTestSim(
		WithArena(40, 40),
		WithSeed(5),
		WithPlayer(30, 16),
		WithPatrolGuard(DefaultGuardConfig(), 8, 16, 0,
			Waypoint{Pos: Vec3{X: 8, Z: 16}},
			Waypoint{Pos: Vec3{X: 14, Z: 16}}),
		WithGuard(DefaultGuardConfig(), 20, 35, 0),
	)

	rep := NewRunReporter()
	for i := 0; i < 300; i++ {
		ts.RunTicks(1)
		rep.Collect(ts.Sim)
	}
	rr := rep.Finalize(ts.Sim, 5)

	if rr.Ticks != 300 {
		t.Fatalf("Ticks = %d, want 300", rr.Ticks)
	}
	if rr.GuardsTotal != 2 {
		t.Fatalf("GuardsTotal = %d, want 2", rr.GuardsTotal)
	}

	sum := 0.0
	for _, pct := range rr.StatePct {
		sum += pct
	}
	if math.Abs(sum-100) > 0.5 {
		t.Fatalf("aggregate occupancy sums to %.2f%%, want 100%%", sum)
	}
	for _, g := range rr.Guards {
		gsum := 0.0
		for _, pct := range g.StatePct {
			gsum += pct
		}
		if math.Abs(gsum-100) > 0.5 {
			t.Fatalf("%s occupancy sums to %.2f%%", g.Label, gsum)
		}
	}
}

func TestRunReporter_MinesCombatOutcome(t *testing.T) {
	rifle := testRifle()
	rifle.Damage = 50

	cfg := DefaultGuardConfig()
	cfg.DeathGrace = 30 // keep the corpse in the tally window

	ts := NewTestSim(
		WithArena(40, 40),
		WithSeed(11),
		WithPlayer(5, 10),
		WithGuard(cfg, 15, 10, 0),
		WithWeapon(rifle),
	)
	g := ts.Guard(0)

	rep := NewRunReporter()
	for i := 0; i < 2; i++ {
		ts.Player.LookAt(g.Body().Pos)
		ts.Player.Weapon().Fire()
		ts.RunTicks(1)
		rep.Collect(ts.Sim)
	}
	for i := 0; i < 10; i++ {
		ts.RunTicks(1)
		rep.Collect(ts.Sim)
	}
	rr := rep.Finalize(ts.Sim, 11)

	if rr.ShotsFired != 2 || rr.ShotsHit != 2 {
		t.Fatalf("shots fired=%d hit=%d, want 2/2", rr.ShotsFired, rr.ShotsHit)
	}
	if rr.GuardsDead != 1 {
		t.Fatalf("GuardsDead = %d, want 1", rr.GuardsDead)
	}
	if len(rr.Guards) != 1 || !rr.Guards[0].Died || rr.Guards[0].DiedTick < 0 {
		t.Fatalf("guard report fate wrong: %+v", rr.Guards)
	}
	if !rr.PlayerAlive || rr.PlayerHealth != 100 {
		t.Fatalf("player alive=%v hp=%d, want untouched", rr.PlayerAlive, rr.PlayerHealth)
	}

	// Dead occupancy must show up once the guard drops.
	if rr.StatePct[StateDead] <= 0 {
		t.Fatalf("no dead occupancy recorded: %v", rr.StatePct)
	}

	out := rr.Format()
	for _, section := range []string{"=== Run Report", "--- State Occupancy ---", "--- Detection ---", "--- Combat ---", "--- Outcome ---", "--- Guards ---"} {
		if !strings.Contains(out, section) {
			t.Fatalf("report missing %q:\n%s", section, out)
		}
	}
	if !strings.Contains(out, "guards dead=1/1") {
		t.Fatalf("report outcome line wrong:\n%s", out)
	}
}

func TestRunReporter_NoContactRun(t *testing.T) {
	ts := NewTestSim(
		WithArena(40, 40),
		WithSeed(2),
		WithGuard(DefaultGuardConfig(), 10, 10, 0),
	)
	rep := NewRunReporter()
	for i := 0; i < 50; i++ {
		ts.RunTicks(1)
		rep.Collect(ts.Sim)
	}
	rr := rep.Finalize(ts.Sim, 2)

	if rr.FirstContactTick != -1 {
		t.Fatalf("FirstContactTick = %d, want -1 with no player", rr.FirstContactTick)
	}
	if rr.Contacts != 0 {
		t.Fatalf("Contacts = %d, want 0", rr.Contacts)
	}
	if !strings.Contains(rr.Format(), "first_contact=never") {
		t.Fatal("report should render first_contact=never")
	}
}

func TestSummarizeRuns_Averages(t *testing.T) {
	runs := []RunReport{
		{
			Seed: 1, Ticks: 100, FirstContactTick: 10, Contacts: 4,
			GuardsDead: 1, GuardsTotal: 2, PlayerAlive: true,
			ShotsFired: 10, ShotsHit: 6,
			StatePct: map[AgentState]float64{StatePatrol: 80, StateAlert: 20},
		},
		{
			Seed: 2, Ticks: 100, FirstContactTick: -1, Contacts: 0,
			GuardsDead: 0, GuardsTotal: 2, PlayerAlive: false,
			ShotsFired: 2, ShotsHit: 0,
			StatePct: map[AgentState]float64{StatePatrol: 100},
		},
	}

	bs := SummarizeRuns(runs)
	if bs.Runs != 2 {
		t.Fatalf("Runs = %d", bs.Runs)
	}
	if bs.ContactRuns != 1 {
		t.Fatalf("ContactRuns = %d, want 1", bs.ContactRuns)
	}
	if math.Abs(bs.AvgFirstContact-10) > 1e-9 {
		t.Fatalf("AvgFirstContact = %.2f, want 10 (only contact runs count)", bs.AvgFirstContact)
	}
	if math.Abs(bs.AvgContacts-2) > 1e-9 {
		t.Fatalf("AvgContacts = %.2f, want 2", bs.AvgContacts)
	}
	if math.Abs(bs.AvgGuardsDead-0.5) > 1e-9 {
		t.Fatalf("AvgGuardsDead = %.2f, want 0.5", bs.AvgGuardsDead)
	}
	if bs.PlayerDeaths != 1 {
		t.Fatalf("PlayerDeaths = %d, want 1", bs.PlayerDeaths)
	}
	if math.Abs(bs.StatePct[StatePatrol]-90) > 1e-9 {
		t.Fatalf("patrol occupancy = %.2f, want 90", bs.StatePct[StatePatrol])
	}

	out := bs.Format()
	if !strings.Contains(out, "=== Batch Summary (2 runs) ===") {
		t.Fatalf("batch header missing:\n%s", out)
	}
	if !strings.Contains(out, "player_deaths=1") {
		t.Fatalf("batch combat line missing:\n%s", out)
	}
}

func TestSummarizeRuns_Empty(t *testing.T) {
	bs := SummarizeRuns(nil)
	if bs.Runs != 0 || bs.ContactRuns != 0 {
		t.Fatalf("empty batch not zeroed: %+v", bs)
	}
}
