// Command tube3d builds the London Underground network geometry and
// runs the train simulation, exporting scene and position data for
// the web renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/internal/config"
	"github.com/tube3d/engine/internal/depth"
	"github.com/tube3d/engine/internal/geo"
	"github.com/tube3d/engine/internal/influx"
	"github.com/tube3d/engine/internal/logging"
	"github.com/tube3d/engine/internal/monitor"
	"github.com/tube3d/engine/internal/network"
	"github.com/tube3d/engine/internal/queue"
	"github.com/tube3d/engine/internal/sim"
	"github.com/tube3d/engine/internal/storage"
	"github.com/tube3d/engine/internal/terrain"
	"github.com/tube3d/engine/internal/tfl"
	"github.com/tube3d/engine/pkg/core"
	"github.com/tube3d/engine/pkg/streaming"
)

const appName = "tube3d"

func main() {
	configDir := flag.String("config", ".", "directory containing tube3d.cfg.json")
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	sessionStart := time.Now()

	cfgErr := config.Load(configDir)

	logFile, err := logging.OpenSessionLogFile(config.GetString("logsDir"), appName, sessionStart)
	if err != nil {
		fmt.Fprintln(os.Stderr, "continuing without a log file:", err)
	}
	log := logging.Setup(logFile)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("Failed to load config, using defaults")
	} else {
		log.Info().Msg("Loaded config")
	}

	// storage: postgres first, sqlite fallback
	store := storage.NewStore(log)
	if err := store.Connect(config.GetString("db.sqlitePath")); err != nil {
		log.Warn().Err(err).Msg("No database available, running without persistence")
		store = nil
	} else if err := store.Setup(); err != nil {
		log.Warn().Err(err).Msg("Database migration failed, running without persistence")
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	// metrics
	var metrics *influx.Manager
	if config.GetBool("influx.enabled") {
		backupPath := filepath.Join(config.GetString("logsDir"), "influx_backup.log.gzip")
		metrics = influx.NewManager(log, backupPath)
		if err := metrics.Connect(); err != nil {
			log.Warn().Err(err).Msg("InfluxDB unavailable, metrics disabled")
			metrics = nil
		}
	}

	// terrain
	var heightmap *terrain.Heightmap
	if config.GetBool("terrain.enabled") {
		heightmap, err = terrain.LoadFiles(
			config.GetString("terrain.heightmap"),
			config.GetString("terrain.metadata"),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load heightmap, using flat ground")
			heightmap = nil
		}
	}

	// depth anchors
	anchors := loadAnchors(log)
	resolver := depth.NewResolver(anchors, core.Lines)

	projector := geo.NewProjector(
		config.GetFloat("scene.originLat"),
		config.GetFloat("scene.originLon"),
		config.GetFloat("scene.horizontalScale"),
		config.GetFloat("scene.verticalScale"),
	)

	source := &tfl.FallbackSource{
		Client: tfl.New(
			config.GetString("api.baseUrl"),
			config.GetString("api.appKey"),
			time.Duration(config.GetInt("api.timeoutSeconds"))*time.Second,
		),
		Store:     store,
		StaticDir: config.GetString("data.staticDir"),
		MaxAge:    time.Duration(config.GetInt("api.cacheMaxAgeHours")) * time.Hour,
		Logger:    log,
	}

	builder := network.NewBuilder(network.Dependencies{
		Source:    source,
		Resolver:  resolver,
		Projector: projector,
		Store:     store,
		Influx:    metrics,
		Terrain:   heightmap,
		Params: network.Params{
			TunnelSpacing: config.GetFloat("scene.tunnelSpacing"),
			CruiseSpeed:   config.GetFloat("sim.cruiseSpeed"),
			DwellSeconds:  config.GetFloat("sim.dwellSeconds"),
			TrainsPerBore: config.GetInt("sim.trainsPerBore"),
		},
		Logger: log,
	})

	// previous session's time scale wins over the config default
	timeScale := config.GetFloat("sim.timeScale")
	if store != nil {
		if v := store.LoadPreference("sim.timeScale", ""); v != "" {
			if _, err := fmt.Sscanf(v, "%f", &timeScale); err == nil {
				log.Info().Float64("timeScale", timeScale).Msg("Restored time scale preference")
			}
		}
	}
	simulator := sim.NewSimulator(timeScale, log)

	exportDir := config.GetString("data.exportDir")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	// one stream writer shared by the frame loop and the monitor, so
	// envelopes from both always land as whole lines
	streamFile := openStream(filepath.Join(exportDir, "stream.jsonl"), log)
	var stream *streaming.Writer
	if streamFile != nil {
		defer streamFile.Close()
		stream = streaming.NewWriter(streamFile)
	}

	statusMonitor := monitor.NewService(monitor.Dependencies{
		Sim:        simulator,
		Influx:     metrics,
		StatusPath: filepath.Join(exportDir, "status.json"),
		Stream:     stream,
		Interval:   time.Second,
		Logger:     log,
	})
	if err := statusMonitor.Start(); err != nil {
		return err
	}
	defer statusMonitor.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completed := queue.New[*network.LineBuild]()
	buildDone := builder.BuildAllAsync(ctx, completed)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	frameInterval := time.Duration(config.GetInt("sim.frameMillis")) * time.Millisecond
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	writeEnvelope(stream, streaming.TypeBuildStarted, streaming.StatusPayload{
		Summary: "network build started",
	}, log)

	var builds []*network.LineBuild
	lastTick := time.Now()
	scenePath := filepath.Join(exportDir, "scene.json")

	for {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			if store != nil {
				store.SavePreference("sim.timeScale", fmt.Sprintf("%g", timeScale))
			}
			return nil

		case result := <-buildDone:
			if err := finishBuild(result, store, stream, log); err != nil {
				return err
			}
			buildDone = nil // result is delivered once

		case now := <-ticker.C:
			simulator.Advance(now.Sub(lastTick).Seconds())
			lastTick = now

			fresh := completed.Drain()
			if len(fresh) == 0 {
				continue
			}
			for _, build := range fresh {
				simulator.AddTrains(build.Trains)
				builds = append(builds, build)
				writeEnvelope(stream, streaming.TypeLineBuilt, streaming.LineBuiltPayload{
					LineID:   build.Line.ID,
					Branches: len(build.Branches),
					Stations: len(build.Stations),
					Trains:   len(build.Trains),
				}, log)
			}
			if err := network.WriteScene(network.BuildScene(builds), scenePath); err != nil {
				log.Warn().Err(err).Msg("Failed to write scene export")
			}
		}
	}
}

// finishBuild records the build outcome and fails the process only
// when nothing at all could be built.
func finishBuild(result *network.BuildResult, store *storage.Store, stream *streaming.Writer, log zerolog.Logger) error {
	for _, lr := range result.Lines {
		if lr.Err == nil {
			continue
		}
		writeEnvelope(stream, streaming.TypeLineFailed, streaming.LineFailedPayload{
			LineID: lr.LineID,
			Error:  lr.Err.Error(),
		}, log)
	}
	writeEnvelope(stream, streaming.TypeBuildComplete, streaming.StatusPayload{
		Summary: result.Summary(),
	}, log)

	if store != nil {
		stations, trains := result.Totals()
		built, failed := 0, 0
		for _, lr := range result.Lines {
			if lr.Err != nil {
				failed++
			} else {
				built++
			}
		}
		report := &storage.BuildReport{
			StartedAt:   result.Started,
			FinishedAt:  result.Finished,
			LinesBuilt:  built,
			LinesFailed: failed,
			Stations:    stations,
			Trains:      trains,
			Summary:     result.Summary(),
		}
		if err := store.SaveBuildReport(report); err != nil {
			log.Warn().Err(err).Msg("Failed to save build report")
		}
	}

	return result.Err()
}

func loadAnchors(log zerolog.Logger) map[string]core.DepthAnchor {
	path := config.GetString("data.anchorsFile")
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("No depth anchors file, relying on per-line heuristics")
		return nil
	}
	defer f.Close()

	anchors, err := depth.ParseAnchors(f, log)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse depth anchors")
		return nil
	}
	return anchors
}

func openStream(path string, log zerolog.Logger) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to open stream file")
		return nil
	}
	return f
}

func writeEnvelope(w *streaming.Writer, msgType string, payload any, log zerolog.Logger) {
	if w == nil {
		return
	}
	if err := w.Write(msgType, payload); err != nil {
		log.Warn().Err(err).Str("type", msgType).Msg("Failed to write stream message")
	}
}
