// Command killhouse-server runs the scenario headless at a fixed tick
// rate and serves live state: JSON snapshots and events over websocket at
// /ws, prometheus metrics at /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kwestergaard/killhouse/internal/config"
	"github.com/kwestergaard/killhouse/internal/logging"
	"github.com/kwestergaard/killhouse/internal/recorder"
	"github.com/kwestergaard/killhouse/internal/sim"
	"github.com/kwestergaard/killhouse/internal/stream"
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

	hub := stream.NewHub(log.With().Str("component", "hub").Logger())
	metrics := stream.NewMetrics()
	s.AddSink(hub)
	s.AddSink(metrics)

	var rec *recorder.Recorder
	if settings.Recorder.Enabled {
		rec, err = recorder.Open(settings.Recorder.Path, log.With().Str("component", "recorder").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("Recorder open failed")
		}
		runID, err := rec.BeginRun(sc.Name, sc.Seed)
		if err != nil {
			log.Fatal().Err(err).Msg("Recorder run begin failed")
		}
		s.AddSink(rec)
		log.Info().Str("run", runID).Str("path", settings.Recorder.Path).Msg("Recording run")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickRate := settings.TickRate
	if tickRate <= 0 {
		tickRate = 30
	}
	dt := 1.0 / float64(tickRate)
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	log.Info().
		Str("addr", settings.ListenAddr).
		Str("scenario", sc.Name).
		Int("tickRate", tickRate).
		Msg("Server running")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			s.Tick(dt)
			hub.BroadcastSnapshot(s.Snapshot())
			metrics.ObserveTick(s, hub.ClientCount())
		}
	}

	log.Info().Msg("Shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	hub.Close()
	if rec != nil {
		if err := rec.EndRun(s.TickCount()); err != nil {
			log.Error().Err(err).Msg("Recorder run end failed")
		}
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("Recorder close failed")
		}
	}
	log.Info().Msg("Server stopped")
}
