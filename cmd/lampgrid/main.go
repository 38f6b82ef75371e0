// Lampgrid gateway entry point.
//
// The gateway mediates between an authenticated HTTPS API on the outside
// and Hue-compatible lamp bridges speaking plain HTTP on the internal
// network. It keeps a registry of bridges, a cached snapshot of every
// lamp and group, and pushes state changes out over WebSocket, MQTT,
// and InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lampgrid/lampgrid-core/migrations"

	"github.com/lampgrid/lampgrid-core/internal/api"
	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
	"github.com/lampgrid/lampgrid-core/internal/grid"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/config"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/database"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/influxdb"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/mqtt"
	"github.com/lampgrid/lampgrid-core/internal/notify"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting lampgrid gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Bridge protocol client, shared by the registry and dispatcher
	hueClient := hue.NewClient(hue.ClientOptions{
		Timeout: cfg.Hue.GetRequestTimeout(),
	})

	// Bridge registry backed by SQLite
	repo := grid.NewSQLiteRepository(db.DB)
	registry, err := grid.NewRegistry(repo, hueClient, log)
	if err != nil {
		return fmt.Errorf("creating bridge registry: %w", err)
	}
	if loadErr := registry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading bridge registry: %w", loadErr)
	}
	log.Info("bridge registry loaded", "bridges", len(registry.List()))

	cache := grid.NewStateCache()
	dispatcher := grid.NewDispatcher(hueClient, hue.RetryPolicyFromConfig(cfg.Hue.Retry), log)

	coordinator, err := grid.NewCoordinator(grid.CoordinatorOptions{
		Registry:   registry,
		Cache:      cache,
		Dispatcher: dispatcher,
		Client:     hueClient,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating grid coordinator: %w", err)
	}

	// WebSocket hub relays grid events to connected clients. Created here
	// rather than inside the server so it can be registered as a notifier
	// before the first refresh runs.
	hub := api.NewHub(cfg.WebSocket, log)
	coordinator.AddNotifier(hub)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		coordinator.AddNotifier(notify.NewMQTTNotifier(mqttClient, log))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		coordinator.AddNotifier(notify.NewInfluxNotifier(influxClient, cache))
	} else {
		log.Info("InfluxDB disabled")
	}

	// API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Hue:         cfg.Hue,
		Logger:      log,
		Coordinator: coordinator,
		Pairer:      hueClient,
		Discoverer:  hue.Discover,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Populate the cache for bridges restored from the registry
	if refreshErr := coordinator.RefreshAll(ctx); refreshErr != nil {
		log.Warn("initial grid refresh incomplete", "error", refreshErr)
	}

	// Background refresh keeps the cache converging on bridge reality
	if cfg.Gateway.RefreshInterval > 0 {
		interval := time.Duration(cfg.Gateway.RefreshInterval) * time.Second
		go coordinator.RunPeriodicRefresh(ctx, interval)
		log.Info("periodic grid refresh started", "interval", interval)
	} else {
		log.Info("periodic grid refresh disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("lampgrid gateway stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LAMPGRID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LAMPGRID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
