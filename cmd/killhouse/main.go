// Command killhouse runs the interactive sandbox: the scenario arena
// rendered top-down, with the player on the keyboard and every guard's
// senses laid over the floor.
package main

import (
	"flag"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/kwestergaard/killhouse/internal/config"
	"github.com/kwestergaard/killhouse/internal/logging"
	"github.com/kwestergaard/killhouse/internal/sim"
	"github.com/kwestergaard/killhouse/internal/viewer"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "config file (default killhouse.cfg.json in the working directory)")
	flag.Parse()

	loadErr := config.Load(cfgPath)
	settings := config.GetSettings()
	log := logging.Setup(settings.LogLevel, settings.LogJSON)
	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("No config file, running on defaults")
	}

	sc, err := config.GetScenario()
	if err != nil {
		log.Fatal().Err(err).Msg("Bad scenario config")
	}
	s, err := config.BuildSim(sc, sim.DefaultSimConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Scenario build failed")
	}
	log.Info().
		Str("scenario", sc.Name).
		Int("guards", len(s.Agents())).
		Msg("Arena ready")

	app := viewer.NewApp(s, log.With().Str("component", "viewer").Logger())
	ebiten.SetWindowTitle("killhouse - " + sc.Name)
	ebiten.SetWindowSize(app.WindowSize())
	if err := ebiten.RunGame(app); err != nil {
		log.Fatal().Err(err).Msg("Viewer exited")
	}
}
