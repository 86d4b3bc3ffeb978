// Gray Logic Door - single-door MQTT access controller.
//
// The controller listens for OPEN commands on a bus topic, drives a servo
// latch through one open/hold/close/cooldown cycle and reports boundary
// events back on a retained state topic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nerrad567/gray-logic-door/internal/actuator"
	"github.com/nerrad567/gray-logic-door/internal/api"
	"github.com/nerrad567/gray-logic-door/internal/audit"
	"github.com/nerrad567/gray-logic-door/internal/command"
	"github.com/nerrad567/gray-logic-door/internal/connectivity"
	"github.com/nerrad567/gray-logic-door/internal/controller"
	"github.com/nerrad567/gray-logic-door/internal/door"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-door/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component from the configuration at path and runs the
// control loop until ctx is cancelled. Only startup failures are returned.
func run(ctx context.Context, path string) error { //nolint:gocognit,gocyclo // linear startup wiring
	log := logging.Default()
	log.Info("starting Gray Logic Door",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", path, "door", cfg.Door.ID)

	if err := validateTopics(cfg); err != nil {
		return err
	}

	auth, err := command.NewAuthorizer(command.Options{
		Topic:                  cfg.Door.CommandTopic,
		Token:                  cfg.Door.Token,
		RequireTokenForLiteral: cfg.Door.RequireTokenForLiteral,
	})
	if err != nil {
		return fmt.Errorf("creating authorizer: %w", err)
	}
	if auth.LiteralBypassesToken() {
		log.Warn("bare OPEN literal bypasses the configured token; set door.require_token_for_literal to close this")
	}

	act, err := actuator.New(cfg.Actuator, log.Component("actuator"))
	if err != nil {
		return fmt.Errorf("opening actuator: %w", err)
	}
	defer func() {
		if closeErr := act.Close(); closeErr != nil {
			log.Error("error closing actuator", "error", closeErr)
		}
	}()
	log.Info("actuator ready", "driver", cfg.Actuator.Driver)

	session, err := mqtt.New(cfg.MQTT, cfg.Door.AvailabilityTopic)
	if err != nil {
		return fmt.Errorf("creating MQTT client: %w", err)
	}
	session.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	var associator connectivity.Associator
	if cfg.Network.SSID != "" {
		associator = connectivity.NewNMCLI(cfg.Network.SSID, cfg.Network.Passphrase, cfg.Network.Interface)
	}
	link := connectivity.NewInterfaceLink(cfg.Network.Interface, associator)

	conn, err := connectivity.NewManager(connectivity.Config{
		CommandTopic:      cfg.Door.CommandTopic,
		StateTopic:        cfg.Door.StateTopic,
		QoS:               byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		LinkRetryDelay:    cfg.Network.RetryDelay,
		SessionRetryDelay: cfg.MQTT.Reconnect.RetryDelay,
		InboxSize:         cfg.Door.InboxSize,
	}, link, session)
	if err != nil {
		return fmt.Errorf("creating connectivity manager: %w", err)
	}
	conn.SetLogger(log.Component("connectivity"))

	machine, err := door.NewMachine(door.Config{
		OpenDuration: cfg.OpenDuration(),
		Cooldown:     cfg.Cooldown(),
		Positions: door.Positions{
			Closed: cfg.Actuator.ClosedAngle,
			Open:   cfg.Actuator.OpenAngle,
		},
	}, act, conn)
	if err != nil {
		return fmt.Errorf("creating door machine: %w", err)
	}
	machine.SetLogger(log.Component("door"))

	ctrl, err := controller.New(controller.Config{TickInterval: cfg.Door.TickInterval},
		machine, conn, auth, log.Component("controller"))
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	checks := map[string]api.HealthChecker{"mqtt": session}

	// The recorder outlives the control loop so its final transitions are
	// still written.
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	defer stopSinks()
	var sinks sync.WaitGroup

	var events audit.Repository
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		var recorder *audit.Recorder
		defer func() {
			stopSinks()
			sinks.Wait()

			if recorder != nil {
				written, dropped, failed := recorder.Stats()
				log.Info("access log drained", "written", written, "dropped", dropped, "failed", failed)
			}
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("access log ready", "path", db.Path())

		repo := audit.NewSQLiteRepository(db.DB)
		recorder = audit.NewRecorder(repo, audit.DefaultQueueSize)
		recorder.SetLogger(log.Component("audit"))

		sinks.Add(1)
		go func() {
			defer sinks.Done()
			recorder.Run(sinkCtx)
		}()

		ctrl.SetRecorder(recorder)
		events = repo
		checks["database"] = db
	}

	if cfg.InfluxDB.Enabled {
		influx, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID, cfg.Door.ID)
		if err != nil {
			// Telemetry is optional; the door runs without it.
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		} else {
			defer func() {
				log.Info("closing InfluxDB")
				influx.Close() //nolint:errcheck // Close only flushes
			}()
			influx.SetOnError(func(err error) {
				log.Warn("InfluxDB write failed", "error", err)
			})
			ctrl.SetTelemetry(influx)
			checks["influxdb"] = influx
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Door:    ctrl,
			Events:  events,
			Checks:  checks,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("Gray Logic Door started",
		"command_topic", cfg.Door.CommandTopic,
		"state_topic", cfg.Door.StateTopic,
		"token_required", auth.TokenRequired(),
	)

	if err := ctrl.Run(ctx); err != nil {
		return fmt.Errorf("control loop: %w", err)
	}

	log.Info("Gray Logic Door stopped", "cycles", machine.Cycles())
	return nil
}

// validateTopics rejects door topics the broker would refuse.
func validateTopics(cfg *config.Config) error {
	for name, topic := range map[string]string{
		"door.command_topic":      cfg.Door.CommandTopic,
		"door.state_topic":        cfg.Door.StateTopic,
		"door.availability_topic": cfg.Door.AvailabilityTopic,
	} {
		if err := mqtt.ValidateTopic(topic); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
