package cli

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/keyscope/application"
	"github.com/felixgeelhaar/keyscope/domain/browse"
	domainconfig "github.com/felixgeelhaar/keyscope/domain/config"
	"github.com/felixgeelhaar/keyscope/infrastructure/config"
	"github.com/felixgeelhaar/keyscope/infrastructure/logging"
	"github.com/felixgeelhaar/keyscope/infrastructure/resilience"
	"github.com/felixgeelhaar/keyscope/infrastructure/storage/memory"
	"github.com/felixgeelhaar/keyscope/infrastructure/storage/redis"
	"github.com/felixgeelhaar/keyscope/infrastructure/telemetry"
)

// session is the wired browsing stack for one connection: driver
// registry, cache with its background sweeper, scanner, and key service.
type session struct {
	cfg     *domainconfig.Config
	cache   *memory.Cache
	service *application.KeyService

	registry *redis.Registry
	cancel   context.CancelFunc
}

// loadConfig loads the configured file or falls back to defaults.
func (a *App) loadConfig() (*domainconfig.Config, error) {
	if a.configPath == "" {
		return domainconfig.Default(), nil
	}
	return config.NewLoader().LoadFile(a.configPath)
}

// resolveConnection picks the connection named by --conn, or the only
// configured one.
func resolveConnection(cfg *domainconfig.Config, connID string) (domainconfig.ConnectionConfig, error) {
	if connID == "" {
		switch len(cfg.Connections) {
		case 0:
			// No configuration at all: browse a local default store.
			return domainconfig.ConnectionConfig{ID: "local", Address: "localhost:6379"}, nil
		case 1:
			return cfg.Connections[0], nil
		default:
			return domainconfig.ConnectionConfig{}, fmt.Errorf("multiple connections configured, select one with --conn")
		}
	}
	for _, conn := range cfg.Connections {
		if conn.ID == connID {
			return conn, nil
		}
	}
	return domainconfig.ConnectionConfig{}, fmt.Errorf("%w: %q", browse.ErrConnectionNotFound, connID)
}

// openSession wires the full browsing stack for the selected connection.
func (a *App) openSession() (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	conn, err := resolveConnection(cfg, a.connID)
	if err != nil {
		return nil, err
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Address = conn.Address
	redisCfg.Username = conn.Username
	redisCfg.Password = conn.Password
	redisCfg.DB = conn.DB
	redisCfg.UseTLS = conn.UseTLS
	redisCfg.ScanPageSize = cfg.Scan.PageSize
	redisCfg.DeleteBatchSize = cfg.Scan.DeleteBatchSize

	registry := redis.NewRegistry()
	driver, err := registry.Connect(conn.ID, redisCfg)
	if err != nil {
		return nil, err
	}

	store := memory.NewCache()
	sweepCtx, cancel := context.WithCancel(context.Background())
	store.StartSweeper(sweepCtx, cfg.Cache.SweepInterval.Duration())

	exec := resilience.NewPageExecutor(resilience.Config{
		MaxConcurrent: cfg.Scan.MaxConcurrentScans,
		FetchTimeout:  cfg.Scan.FetchTimeout.Duration(),
	})
	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())

	scanner := application.NewScanner(conn.ID, driver, exec,
		application.WithScanPageSize(cfg.Scan.PageSize),
		application.WithDeleteBatchSize(cfg.Scan.DeleteBatchSize),
		application.WithProbeRange(cfg.Scan.ProbeLow, cfg.Scan.ProbeHigh),
		application.WithScannerMetrics(metrics),
	)
	service := application.NewKeyService(conn.ID, driver, store, scanner,
		application.WithListingTTL(cfg.Cache.ListingTTL.Duration()),
		application.WithPointReadTTL(cfg.Cache.PointReadTTL.Duration()),
		application.WithMetrics(metrics),
	)

	return &session{
		cfg:      cfg,
		cache:    store,
		service:  service,
		registry: registry,
		cancel:   cancel,
	}, nil
}

// Close tears down the sweeper and every open store connection.
func (s *session) Close() {
	s.cancel()
	_ = s.registry.Close()
}
