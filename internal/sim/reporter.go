package sim

import (
	"fmt"
	"sort"
	"strings"
)

// reportStates fixes the presentation order for state occupancy tables.
var reportStates = []AgentState{
	StateIdle, StatePatrol, StateAlert, StateAttack, StateSearch, StateDead,
}

// GuardReport is one guard's aggregate over a run.
type GuardReport struct {
	Label         string
	StatePct      map[AgentState]float64
	PeakAlertness float64
	Contacts      int
	AttacksHit    int
	AttacksMissed int
	Died          bool
	DiedTick      int // -1 if survived
}

// RunReport is the aggregate outcome of one headless run.
type RunReport struct {
	Seed  int64
	Ticks int

	Guards   []GuardReport
	StatePct map[AgentState]float64 // occupancy across all guards

	Contacts          int
	FirstContactTick  int // -1 when nothing was ever seen
	SearchesAbandoned int

	GuardAttacksHit    int
	GuardAttacksMissed int
	ShotsFired         int
	ShotsHit           int
	Detonations        int

	GuardsDead   int
	GuardsTotal  int
	PlayerAlive  bool
	PlayerHealth int
}

// RunReporter samples state occupancy every tick and mines the sim log at
// the end of a run. Collect must be called once per tick, after Tick.
type RunReporter struct {
	samples int
	tallies map[string]*guardTally
}

type guardTally struct {
	label      string
	stateTicks map[AgentState]int
	ticks      int
	peakAlert  float64
}

// NewRunReporter creates an empty reporter.
func NewRunReporter() *RunReporter {
	return &RunReporter{tallies: make(map[string]*guardTally)}
}

// Collect samples every live guard's state for the occupancy table.
func (r *RunReporter) Collect(s *Simulation) {
	r.samples++
	for _, a := range s.Agents() {
		t, ok := r.tallies[a.Label()]
		if !ok {
			t = &guardTally{label: a.Label(), stateTicks: make(map[AgentState]int)}
			r.tallies[a.Label()] = t
		}
		t.stateTicks[a.State()]++
		t.ticks++
		if a.Alertness() > t.peakAlert {
			t.peakAlert = a.Alertness()
		}
	}
}

// Finalize mines the sim log and returns the run aggregate.
func (r *RunReporter) Finalize(s *Simulation, seed int64) RunReport {
	log := s.Log()
	rr := RunReport{
		Seed:             seed,
		Ticks:            s.TickCount(),
		StatePct:         make(map[AgentState]float64),
		FirstContactTick: -1,
	}

	contacts := log.Filter("vision", "contact")
	rr.Contacts = len(contacts)
	if len(contacts) > 0 {
		rr.FirstContactTick = contacts[0].Tick
	}
	rr.SearchesAbandoned = len(log.Filter("search", "abandoned"))
	rr.GuardAttacksHit = len(log.Filter("attack", "hit"))
	rr.GuardAttacksMissed = len(log.Filter("attack", "miss"))
	rr.ShotsFired = len(log.Filter("weapon", "fire"))
	rr.ShotsHit = len(log.Filter("weapon", "hit"))
	for _, cause := range []string{"impact", "ground", "timeout"} {
		rr.Detonations += log.CountCategory("proj", cause)
	}

	diedAt := make(map[string]int)
	for _, e := range log.Filter("death", "killed") {
		if e.Side == "guard" {
			diedAt[e.Actor] = e.Tick
		}
	}

	labels := make([]string, 0, len(r.tallies))
	for l := range r.tallies {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	total := 0
	totalByState := make(map[AgentState]int)
	for _, l := range labels {
		t := r.tallies[l]
		gr := GuardReport{
			Label:         t.label,
			StatePct:      make(map[AgentState]float64),
			PeakAlertness: t.peakAlert,
			DiedTick:      -1,
		}
		for st, n := range t.stateTicks {
			gr.StatePct[st] = float64(n) / float64(t.ticks) * 100
			totalByState[st] += n
		}
		total += t.ticks
		if tick, ok := diedAt[t.label]; ok {
			gr.Died = true
			gr.DiedTick = tick
			rr.GuardsDead++
		}
		for _, e := range contacts {
			if e.Actor == t.label {
				gr.Contacts++
			}
		}
		for _, e := range log.Filter("attack", "hit") {
			if e.Actor == t.label {
				gr.AttacksHit++
			}
		}
		for _, e := range log.Filter("attack", "miss") {
			if e.Actor == t.label {
				gr.AttacksMissed++
			}
		}
		rr.Guards = append(rr.Guards, gr)
	}
	rr.GuardsTotal = len(rr.Guards)
	if total > 0 {
		for st, n := range totalByState {
			rr.StatePct[st] = float64(n) / float64(total) * 100
		}
	}

	if p := s.Player(); p != nil {
		rr.PlayerAlive = p.Alive()
		rr.PlayerHealth = p.Health()
	}
	return rr
}

// Format renders the run report as a multi-line console table.
func (rr RunReport) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Run Report (seed %d, %d ticks) ===\n", rr.Seed, rr.Ticks)

	sb.WriteString("\n--- State Occupancy ---\n")
	for _, st := range reportStates {
		if pct, ok := rr.StatePct[st]; ok && pct > 0.05 {
			fmt.Fprintf(&sb, "  %-8s %5.1f%%\n", st, pct)
		}
	}

	sb.WriteString("\n--- Detection ---\n")
	first := "never"
	if rr.FirstContactTick >= 0 {
		first = fmt.Sprintf("T=%d", rr.FirstContactTick)
	}
	fmt.Fprintf(&sb, "  contacts=%d  first_contact=%s  searches_abandoned=%d\n",
		rr.Contacts, first, rr.SearchesAbandoned)

	sb.WriteString("\n--- Combat ---\n")
	fmt.Fprintf(&sb, "  guard attacks: hit=%d miss=%d\n", rr.GuardAttacksHit, rr.GuardAttacksMissed)
	fmt.Fprintf(&sb, "  player shots:  fired=%d hits=%d detonations=%d\n",
		rr.ShotsFired, rr.ShotsHit, rr.Detonations)

	sb.WriteString("\n--- Outcome ---\n")
	player := "no player"
	if rr.PlayerAlive {
		player = fmt.Sprintf("alive (hp %d)", rr.PlayerHealth)
	} else if rr.PlayerHealth == 0 && rr.GuardAttacksHit > 0 {
		player = "dead"
	}
	fmt.Fprintf(&sb, "  guards dead=%d/%d  player=%s\n", rr.GuardsDead, rr.GuardsTotal, player)

	sb.WriteString("\n--- Guards ---\n")
	for _, g := range rr.Guards {
		fate := "alive"
		if g.Died {
			fate = fmt.Sprintf("died T=%d", g.DiedTick)
		}
		fmt.Fprintf(&sb, "  %-4s peak_alert=%5.1f contacts=%d hit=%d miss=%d  %s\n",
			g.Label, g.PeakAlertness, g.Contacts, g.AttacksHit, g.AttacksMissed, fate)
	}
	return sb.String()
}

// BatchSummary aggregates a set of runs that differ only by seed.
type BatchSummary struct {
	Runs int

	AvgFirstContact float64 // over runs with a contact
	ContactRuns     int
	AvgContacts     float64
	AvgGuardsDead   float64
	PlayerDeaths    int
	AvgShotsFired   float64
	AvgShotsHit     float64
	StatePct        map[AgentState]float64
}

// SummarizeRuns folds per-run reports into batch averages.
func SummarizeRuns(runs []RunReport) BatchSummary {
	bs := BatchSummary{Runs: len(runs), StatePct: make(map[AgentState]float64)}
	if len(runs) == 0 {
		return bs
	}
	n := float64(len(runs))
	for _, rr := range runs {
		if rr.FirstContactTick >= 0 {
			bs.AvgFirstContact += float64(rr.FirstContactTick)
			bs.ContactRuns++
		}
		bs.AvgContacts += float64(rr.Contacts)
		bs.AvgGuardsDead += float64(rr.GuardsDead)
		if !rr.PlayerAlive {
			bs.PlayerDeaths++
		}
		bs.AvgShotsFired += float64(rr.ShotsFired)
		bs.AvgShotsHit += float64(rr.ShotsHit)
		for st, pct := range rr.StatePct {
			bs.StatePct[st] += pct
		}
	}
	if bs.ContactRuns > 0 {
		bs.AvgFirstContact /= float64(bs.ContactRuns)
	}
	bs.AvgContacts /= n
	bs.AvgGuardsDead /= n
	bs.AvgShotsFired /= n
	bs.AvgShotsHit /= n
	for st := range bs.StatePct {
		bs.StatePct[st] /= n
	}
	return bs
}

// Format renders the batch summary.
func (bs BatchSummary) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Batch Summary (%d runs) ===\n", bs.Runs)
	fmt.Fprintf(&sb, "  detection: runs_with_contact=%d/%d  avg_first_contact=T=%.0f  avg_contacts=%.1f\n",
		bs.ContactRuns, bs.Runs, bs.AvgFirstContact, bs.AvgContacts)
	fmt.Fprintf(&sb, "  combat:    avg_guards_dead=%.2f  player_deaths=%d  avg_shots=%.1f (%.1f hits)\n",
		bs.AvgGuardsDead, bs.PlayerDeaths, bs.AvgShotsFired, bs.AvgShotsHit)
	sb.WriteString("  occupancy:")
	for _, st := range reportStates {
		if pct, ok := bs.StatePct[st]; ok && pct > 0.05 {
			fmt.Fprintf(&sb, " %s=%.1f%%", st, pct)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
