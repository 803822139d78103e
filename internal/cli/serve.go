package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"device_controller/internal/config"
	"device_controller/internal/handlers"
	"device_controller/internal/logger"
	"device_controller/internal/ports"
	"device_controller/internal/repository"
	"device_controller/internal/repository/db"
	"device_controller/internal/server"
	"device_controller/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the devices, the simulator and the monitoring API",
		Long: `Start both device engines, the thermostat simulator and (optionally)
the stdin keypad, and serve the read-only monitoring API until SIGINT or
SIGTERM.

Example:
  devicectl serve
  DEVICE_PANEL_KEYPAD=true devicectl serve --config ./configs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cfg, cmd.InOrStdin())
		},
	}
	return cmd
}

// app is everything serve starts, assembled by build.
type app struct {
	log       *logger.Logger
	db        *sql.DB
	devices   *service.Devices
	simulator *service.SimulatorService
	keypad    *service.Keypad
	handler   *handlers.Handler
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Get(cfg.LoggerOptions())

	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	repos := repository.NewRepository(conn)
	// the mirror only reflects this run
	if err := repos.StateRepo.Reset(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("reset device state: %w", err)
	}

	store, err := cfg.CredentialStore()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	feed := service.NewFeed()
	journal := service.NewJournal(repos.EventRepo, repos.StateRepo, feed, log)
	clock := ports.SystemClock{Location: cfg.Location}

	devices, err := service.NewDevices(service.DevicesConfig{
		ThermostatName: cfg.Thermostat.Name,
		Thermostat:     cfg.Thermostat.Config,
		PanelName:      cfg.Panel.Name,
		Panel:          cfg.Panel.Config,
	}, clock, clock, store, journal, log)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("build devices: %w", err)
	}

	a := &app{log: log, db: conn, devices: devices}
	if cfg.Simulator.Enabled {
		a.simulator = service.NewSimulatorService(devices, clock.Now(), cfg.Simulator.HourStep)
	}
	if cfg.Panel.Keypad {
		a.keypad = service.NewKeypad(devices, log)
	}

	services := service.NewService(repos, devices, feed, service.AuthConfig{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	a.handler = handlers.NewHandler(services, log)
	return a, nil
}

func serve(cfg *config.Config, stdin io.Reader) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	log := a.log
	defer func() {
		if cerr := a.db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	devicesDone := make(chan struct{})
	go func() {
		a.devices.Run(ctx)
		close(devicesDone)
	}()
	if a.simulator != nil {
		go a.simulator.Run(ctx, cfg.Simulator.Tick)
		log.Infow("simulator_started", "tick", cfg.Simulator.Tick.String(), "hour_step", cfg.Simulator.HourStep.String())
	}
	if a.keypad != nil {
		go a.keypad.Run(ctx, stdin)
		log.Infow("keypad_reading_stdin", "device", cfg.Panel.Name)
	}

	srv := &server.Server{}
	serverErr := runHTTPServer(srv, cfg.Port, a.handler, log)

	waitForShutdown(cancel, serverErr, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	<-devicesDone
	log.Infow("stopped")
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_listening", "port", port)
		errc <- srv.Run(port, handler.InitRoutes())
	}()
	return errc
}

// waitForShutdown blocks until a termination signal or a server failure,
// then stops background goroutines.
func waitForShutdown(cancel context.CancelFunc, serverErr <-chan error, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	case err := <-serverErr:
		log.Errorw("error running server", "err", err)
	}
	cancel()
}
