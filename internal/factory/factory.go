// Package factory wires the application components together: bus,
// storage, registries, presence beacon and the status API.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mkrato/battleship-server/internal/advert"
	"github.com/mkrato/battleship-server/internal/api"
	"github.com/mkrato/battleship-server/internal/dependencies/clock"
	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/messaging/natsbus"
	"github.com/mkrato/battleship-server/internal/registry"
	"github.com/mkrato/battleship-server/internal/storage"
	"github.com/mkrato/battleship-server/internal/storage/memory"
	redisstorage "github.com/mkrato/battleship-server/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	ServerName string

	// Transport and storage
	Bus     messaging.Bus
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Workers
	Clients    *registry.ClientRegistry
	Games      *registry.GameRegistry
	Advertiser *advert.Advertiser

	// Whether the factory created the bus and should close it on Stop
	ownsBus bool

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// ServerName is the name this server advertises and routes under (required)
	ServerName string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Bus is the message bus to attach to (optional)
	// If nil, a NATS connection is made using NATSConfig
	Bus messaging.Bus
	// NATSConfig holds NATS connection settings (used when Bus is nil)
	// If zero value, defaults to natsbus.DefaultConfig()
	NATSConfig natsbus.Config
	// StorageType selects the archive backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// AdvertInterval is the presence beacon period (optional)
	// If zero, defaults to advert.DefaultInterval
	AdvertInterval time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	if cfg.ServerName == "" {
		return nil, errors.New("ServerName is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	bus := cfg.Bus
	ownsBus := false
	if bus == nil {
		natsCfg := cfg.NATSConfig
		if natsCfg.URL == "" {
			natsCfg = natsbus.DefaultConfig()
		}
		if natsCfg.ClientName == "" {
			natsCfg.ClientName = cfg.ServerName
		}
		natsBus, err := natsbus.Connect(natsCfg)
		if err != nil {
			return nil, err
		}
		bus = natsBus
		ownsBus = true
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(cfg.ServerName, bus, store, clock.New(), cfg.AdvertInterval, logger)
	app.ownsBus = ownsBus
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	serverName string,
	bus messaging.Bus,
	store storage.Storage,
	clk clock.Clock,
	advertInterval time.Duration,
	logger *slog.Logger,
) *App {
	clients := registry.NewClientRegistry(serverName, bus, logger)
	games := registry.NewGameRegistry(serverName, bus, clients, store, clk, logger)
	advertiser := advert.New(serverName, bus, advertInterval, logger)

	return &App{
		ServerName: serverName,
		Bus:        bus,
		Storage:    store,
		Clock:      clk,
		Clients:    clients,
		Games:      games,
		Advertiser: advertiser,
		logger:     logger,
	}
}

// Start launches the registries and the presence beacon
func (a *App) Start() error {
	if err := a.Clients.Start(); err != nil {
		return err
	}
	if err := a.Games.Start(); err != nil {
		a.Clients.Stop()
		return err
	}
	a.Advertiser.Start()
	a.logger.Info("server started", slog.String("server", a.ServerName))
	return nil
}

// Stop announces shutdown and terminates the workers. The bus is closed
// only if the factory created it.
func (a *App) Stop() {
	a.Advertiser.Stop()
	a.Games.Stop()
	a.Clients.Stop()
	if a.ownsBus {
		if err := a.Bus.Close(); err != nil {
			a.logger.Error("failed to close bus", slog.String("error", err.Error()))
		}
	}
	a.logger.Info("server stopped", slog.String("server", a.ServerName))
}

// APIRouter builds the status API router over the wired components
func (a *App) APIRouter() api.RouterConfig {
	return api.RouterConfig{
		Logger:     a.logger,
		ServerName: a.ServerName,
		Games:      a.Games,
		Storage:    a.Storage,
	}
}
