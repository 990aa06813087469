package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/OCAP2/gcs/internal/api"
	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/database"
	"github.com/OCAP2/gcs/internal/dispatcher"
	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/handlers"
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/logging"
	"github.com/OCAP2/gcs/internal/loop"
	"github.com/OCAP2/gcs/internal/missions"
	"github.com/OCAP2/gcs/internal/monitor"
	intOtel "github.com/OCAP2/gcs/internal/otel"
	"github.com/OCAP2/gcs/internal/outbox"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/ruler"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/storage"
	"github.com/OCAP2/gcs/internal/terrain"
	"github.com/OCAP2/gcs/internal/transport/websocket"
	"github.com/OCAP2/gcs/internal/vehicles"
	"github.com/OCAP2/gcs/pkg/core"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "gcsmap"
)

// global variables
var (
	// ConfigDir holds gcsmap.cfg.json. Overridden by GCSMAP_CONFIG_DIR.
	ConfigDir string = "."

	SessionStartTime time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLogger backs the database and influx managers and the dispatcher
	ZLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	logFile    io.WriteCloser
	logOptions logging.Options
)

func main() {
	if dir := os.Getenv("GCSMAP_CONFIG_DIR"); dir != "" {
		ConfigDir = dir
	}

	command := "run"
	if len(os.Args) > 1 {
		command = strings.ToLower(os.Args[1])
	}
	if command == "version" {
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return
	}

	setupLogging()
	defer shutdownLogging()

	var err error
	switch command {
	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = run(ctx)
		stop()
	case "setupdb":
		err = setupDB()
	default:
		err = fmt.Errorf("unknown command %q, expected run, setupdb or version", command)
	}
	if err != nil {
		Logger.Error("Exiting with error", "command", command, "error", err)
		shutdownLogging()
		os.Exit(1)
	}
}

// setupLogging loads the config, then builds the slog, zerolog and OTel
// outputs. Failures fall back to console logging.
func setupLogging() {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", ConfigDir)
	}

	logCfg := config.GetLogConfig()
	if err := os.MkdirAll(logCfg.Dir, 0o755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logCfg.Dir)
	}
	logFilePath := logging.LogFilePath(logCfg.Dir, AppName, SessionStartTime)
	logFile = logging.NewRotatingFile(logFilePath, logCfg)

	graylog, err := logging.NewGraylogWriter(logCfg)
	if err != nil {
		Logger.Error("Failed to set up graylog", "error", err)
	}

	otelCfg := config.GetOTelConfig()
	OTelProvider, err = intOtel.New(intOtel.Config{OTelConfig: otelCfg, LogWriter: logFile, Version: CurrentVersion})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider, _ = intOtel.New(intOtel.Config{})
	} else if otelCfg.Enabled {
		Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
	}

	logOptions = logging.Options{
		Level:    logCfg.Level,
		File:     logFile,
		Console:  true,
		Provider: OTelProvider.LoggerProvider(),
	}
	if graylog != nil {
		logOptions.Graylog = graylog
	}
	SlogManager.Setup(logOptions)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	Logger.Info("Logging to file", "path", logFilePath, "version", CurrentVersion)

	ZLogger = logging.NewZerolog(logCfg.Level, logFile)
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "log flush failed: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown failed: %v\n", err)
		}
		OTelProvider = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// setupDB creates the journal tables of the configured backend and exits.
func setupDB() error {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, database.NewManager(ZLogger))
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	Logger.Info("DB setup complete.", "type", storageCfg.Type)
	return backend.Close()
}

// app holds everything run wires together.
type app struct {
	loop       *loop.Loop
	scene      *render.Scene
	controller *interaction.Controller
	vehicles   *vehicles.Engine
	missions   *missions.Engine
	ruler      *ruler.Ruler
	dispatcher *dispatcher.Dispatcher
	handlers   *handlers.Service
	journal    storage.Backend
	rest       *api.Client
	outbox     *outbox.Outbox
	feed       *websocket.Client
	monitor    *monitor.Service

	// resync asks syncSnapshots for a fresh snapshot.
	resync chan struct{}
}

func run(ctx context.Context) error {
	Logger.Info("Starting up...")

	l, err := loop.New(Logger)
	if err != nil {
		return fmt.Errorf("failed to create event loop: %w", err)
	}

	storageType := config.GetStorageConfig().Type
	opts := logOptions
	opts.Context = func() []slog.Attr {
		return []slog.Attr{
			slog.String("storage", storageType),
			slog.Int("loopQueue", l.Len()),
		}
	}
	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	a, err := newApp(ctx, l)
	if err != nil {
		return err
	}
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(ctx) })
	g.Go(func() error { return a.outbox.Run(ctx) })
	g.Go(func() error { return a.feed.Run(ctx) })
	g.Go(func() error { return a.syncSnapshots(ctx) })
	a.monitor.Start(ctx)

	Logger.Info("Map core running", "server", config.GetAPIConfig().ServerURL)
	err = g.Wait()
	a.monitor.Stop()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	Logger.Info("Shutting down", "error", err)
	return err
}

func newApp(ctx context.Context, l *loop.Loop) (*app, error) {
	apiCfg := config.GetAPIConfig()
	mapCfg := config.GetMapConfig()
	terrainCfg := config.GetTerrainConfig()
	storageCfg := config.GetStorageConfig()

	camera, err := startCamera(mapCfg.Center)
	if err != nil {
		return nil, err
	}

	a := &app{loop: l, resync: make(chan struct{}, 1)}

	a.journal, err = createStorageBackend(storageCfg, database.NewManager(ZLogger))
	if err != nil {
		return nil, err
	}
	if err := a.journal.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}

	entity.HoverScale = mapCfg.HoverScale
	a.scene = render.NewScene(camera)
	a.controller = interaction.New(a.scene,
		interaction.WithPickRadius(mapCfg.PickRadius),
		interaction.WithLogger(Logger),
	)

	sampler := terrain.NewAsync(ctx, terrain.Flat(terrainCfg.DefaultHeight), a.loop,
		terrain.WithCache(terrainCfg.CacheSize, terrainCfg.CacheTTL),
		terrain.WithConcurrency(int(terrainCfg.Concurrency)),
		terrain.WithLogger(Logger),
	)

	a.rest = api.New(apiCfg.ServerURL, apiCfg.Timeout)
	a.outbox, err = outbox.New(outbox.Dependencies{
		Publisher: a.rest,
		Journal:   a.journal,
		Poster:    a.loop,
		OnFailed: func(p core.Proposal) {
			a.vehicles.CancelProposal(p)
			a.missions.CancelProposal(p)
		},
		Logger:  Logger,
		Timeout: apiCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox: %w", err)
	}
	propose := func(p core.Proposal) {
		if err := a.outbox.Submit(p); err != nil {
			Logger.Error("Failed to submit proposal", "key", p.Key(), "error", err)
		}
	}

	a.missions = missions.New(missions.Dependencies{
		Renderer: a.scene,
		Registry: a.controller,
		Terrain:  sampler,
		Logger:   Logger,
		Propose:  propose,
	})
	a.missions.OnActivated(func(id string, index int) {
		Logger.Info("Route item activated", "mission", id, "index", index)
		a.missions.SetSelected(id)
	})
	a.vehicles = vehicles.New(vehicles.Dependencies{
		Renderer:            a.scene,
		Registry:            a.controller,
		Terrain:             sampler,
		TrailLength:         mapCfg.TrailLength,
		Logger:              Logger,
		Propose:             propose,
		HomeAltitudeChanged: a.missions.SetVehicleHomeAltitude,
	})
	a.ruler = ruler.New(a.scene, a.controller)
	a.ruler.OnChanged(func(d float64) { Logger.Info("Ruler distance", "meters", d) })
	a.ruler.SetEnabled(mapCfg.Ruler)

	a.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(ZLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.handlers = handlers.NewService(handlers.Dependencies{
		Vehicles: a.vehicles,
		Missions: a.missions,
		Journal:  a.journal,
		Logger:   Logger,
	})
	a.handlers.RegisterHandlers(a.dispatcher, dispatcher.OnLoop(a.loop), dispatcher.Logged())
	Logger.Debug("Registered event handlers", "types", a.dispatcher.Types())

	a.feed, err = websocket.New(websocket.Config{
		URL:         apiCfg.WSURL,
		Secret:      apiCfg.Secret,
		OnReconnect: a.requestSnapshot,
	}, a.dispatch, Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event feed client: %w", err)
	}

	a.monitor = monitor.NewService(monitor.Dependencies{
		Loop:        a.loop,
		Queue:       a.loop,
		Vehicles:    a.vehicles,
		Missions:    a.missions,
		Interaction: a.controller.State,
		Outbox:      a.outbox,
		Logger:      Logger,
		Interval:    config.GetMonitorInterval(),
		StatusFile:  filepath.Join(config.GetLogConfig().Dir, "status.json"),
	})
	return a, nil
}

// dispatch runs on the feed goroutine. Handlers are registered with OnLoop,
// so Dispatch only queues them.
func (a *app) dispatch(ev core.ServerEvent) {
	if err := a.dispatcher.Dispatch(dispatcher.NewEvent(ev)); err != nil {
		Logger.Debug("Event not dispatched", "error", err)
	}
}

// requestSnapshot queues a snapshot reload. Requests made while one is
// already queued are merged.
func (a *app) requestSnapshot() {
	select {
	case a.resync <- struct{}{}:
	default:
	}
}

// syncSnapshots loads the snapshot at startup and again on every request,
// until ctx ends.
func (a *app) syncSnapshots(ctx context.Context) error {
	for {
		a.loadSnapshot(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-a.resync:
			Logger.Info("Event feed reconnected, reloading snapshot")
		}
	}
}

// loadSnapshot fetches the REST snapshot once the backend answers and
// reconciles both engines against it on the loop.
func (a *app) loadSnapshot(ctx context.Context) {
	if err := a.rest.Healthcheck(ctx); err != nil {
		Logger.Warn("Backend healthcheck failed", "error", err)
	}
	vs, err := a.rest.GetVehicles(ctx)
	if err != nil {
		Logger.Error("Failed to fetch vehicles, waiting for the event feed", "error", err)
		return
	}
	ms, err := a.rest.GetMissions(ctx)
	if err != nil {
		Logger.Error("Failed to fetch missions, waiting for the event feed", "error", err)
		return
	}
	a.loop.Post(func() { a.handlers.ApplySnapshot(vs, ms) })
}

// close releases the scene entities and flushes the journal. The loop
// has stopped, so its remaining work runs here.
func (a *app) close() {
	a.loop.RunPending()
	a.ruler.Clear()
	a.vehicles.Done()
	a.missions.Done()
	Logger.Debug("Map entities released", "remaining", a.scene.Len())

	if err := a.journal.Close(); err != nil {
		Logger.Error("Failed to close storage", "error", err)
	}
}

// cameraAltitude is the start camera height above the map centre.
const cameraAltitude = 20000

// startCamera looks straight down on center, a "lon,lat" string. Empty
// means the null island.
func startCamera(center string) (render.Camera, error) {
	ground := core.Geodetic{Frame: core.FrameAboveSeaLevel}
	if center != "" {
		var err error
		ground, err = spatial.PositionFromString(center, core.FrameAboveSeaLevel)
		if err != nil {
			return render.Camera{}, fmt.Errorf("invalid map center %q: %w", center, err)
		}
	}
	eye := ground
	eye.Altitude += cameraAltitude
	return render.LookAt(spatial.ToLocal(eye, 0), spatial.ToLocal(ground, 0), 1920, 1080), nil
}
