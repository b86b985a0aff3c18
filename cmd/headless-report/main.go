// Command headless-report runs the scenario N times without a display,
// walks a scripted player through the arena, and prints per-run and
// aggregate detection/combat statistics. With -record the runs also land
// in a sqlite file for later inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/kwestergaard/killhouse/internal/config"
	"github.com/kwestergaard/killhouse/internal/logging"
	"github.com/kwestergaard/killhouse/internal/recorder"
	"github.com/kwestergaard/killhouse/internal/sim"
)

// reportDt is the fixed batch timestep, matching the test harness.
const reportDt = 0.1

func main() {
	var (
		runs     int
		ticks    int
		seedBase int64
		seedStep int64
		cfgPath  string
		record   string
	)
	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 1200, "ticks per run, 0.1s each")
	flag.Int64Var(&seedBase, "seed-base", 42, "RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&cfgPath, "config", "", "config file with a scenario block")
	flag.StringVar(&record, "record", "", "sqlite file to record runs into")
	flag.Parse()

	if runs <= 0 || ticks <= 0 {
		fmt.Println("error: -runs and -ticks must be > 0")
		os.Exit(1)
	}

	loadErr := config.Load(cfgPath)
	settings := config.GetSettings()
	log := logging.Setup(settings.LogLevel, settings.LogJSON)
	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("No config file, using the built-in scenario")
	}
	sc, err := config.GetScenario()
	if err != nil {
		log.Fatal().Err(err).Msg("Bad scenario config")
	}

	var rec *recorder.Recorder
	if record != "" {
		rec, err = recorder.Open(record, log.With().Str("component", "recorder").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("Recorder open failed")
		}
	}

	fmt.Printf("=== Killhouse Batch Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		sc.Name, runs, ticks, seedBase, seedStep)

	reports := make([]sim.RunReport, 0, runs)
	verdicts := map[string]int{}
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		rr, err := runOnce(sc, seed, ticks, rec)
		if err != nil {
			log.Fatal().Err(err).Int("run", i+1).Msg("Run failed")
		}
		reports = append(reports, rr)
		verdicts[classifyRun(rr)]++
		fmt.Printf("--- Run %d: %s ---\n%s\n", i+1, classifyRun(rr), rr.Format())
	}

	fmt.Print(sim.SummarizeRuns(reports).Format())
	fmt.Printf("  verdicts: %s\n", formatVerdicts(verdicts))

	if rec != nil {
		printRecorded(rec, record)
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("Recorder close failed")
		}
	}
}

// runOnce builds the scenario with the given seed, walks the player around
// the arena perimeter for the full run, and returns the aggregate report.
func runOnce(sc config.ScenarioConfig, seed int64, ticks int, rec *recorder.Recorder) (sim.RunReport, error) {
	base := sim.DefaultSimConfig()
	base.Seed = seed
	s, err := config.BuildSim(sc, base)
	if err != nil {
		return sim.RunReport{}, err
	}

	if rec != nil {
		if _, err := rec.BeginRun(fmt.Sprintf("%s seed=%d", sc.Name, seed), seed); err != nil {
			return sim.RunReport{}, err
		}
		s.AddSink(rec)
	}

	reporter := sim.NewRunReporter()
	w := newWalker(s)
	for i := 0; i < ticks; i++ {
		w.step(reportDt)
		s.Tick(reportDt)
		reporter.Collect(s)
	}
	rr := reporter.Finalize(s, seed)

	if rec != nil {
		if err := rec.EndRun(s.TickCount()); err != nil {
			return rr, err
		}
	}
	return rr, nil
}

// walker loops the player around an inset rectangle of the arena so every
// run has a moving target for the guards to find.
type walker struct {
	player *sim.Player
	points []sim.Vec3
	idx    int
}

func newWalker(s *sim.Simulation) *walker {
	p := s.Player()
	if p == nil {
		return nil
	}
	sizeX, sizeZ := s.World().Size()
	return &walker{player: p, points: perimeterLoop(sizeX, sizeZ, 4)}
}

// perimeterLoop returns the corner waypoints of a rectangle inset from the
// arena edges.
func perimeterLoop(sizeX, sizeZ, inset float64) []sim.Vec3 {
	return []sim.Vec3{
		{X: inset, Z: inset},
		{X: sizeX - inset, Z: inset},
		{X: sizeX - inset, Z: sizeZ - inset},
		{X: inset, Z: sizeZ - inset},
	}
}

func (w *walker) step(dt float64) {
	if w == nil || !w.player.Alive() {
		return
	}
	wp := w.points[w.idx%len(w.points)]
	if w.player.Position().DistanceTo(wp) < 0.6 {
		w.idx++
		wp = w.points[w.idx%len(w.points)]
	}
	aim := wp
	aim.Y = w.player.EyePos().Y
	w.player.LookAt(aim)
	w.player.Move(1, 0, dt)
}

// classifyRun reduces a run report to a one-word verdict for the batch
// table.
func classifyRun(rr sim.RunReport) string {
	switch {
	case rr.GuardsTotal > 0 && rr.GuardsDead == rr.GuardsTotal:
		return "clean_sweep"
	case !rr.PlayerAlive && rr.GuardAttacksHit > 0:
		return "player_down"
	case rr.Contacts == 0:
		return "undetected"
	default:
		return "contested"
	}
}

func formatVerdicts(v map[string]int) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "  "
		}
		out += fmt.Sprintf("%s=%d", k, v[k])
	}
	return out
}

func printRecorded(rec *recorder.Recorder, path string) {
	stored, err := rec.Runs()
	if err != nil {
		fmt.Printf("error reading recorded runs: %v\n", err)
		return
	}
	fmt.Printf("\n=== Recorded Runs (%s) ===\n", path)
	for _, r := range stored {
		n, err := rec.EventCount(r.ID)
		if err != nil {
			fmt.Printf("  %s  error: %v\n", r.ID, err)
			continue
		}
		fmt.Printf("  %.8s  %-28s seed=%-6d ticks=%-6d events=%d\n",
			r.ID, r.Label, r.Seed, r.Ticks, n)
	}
}
