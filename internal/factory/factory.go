package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/realtime"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
	"github.com/BlueStarAcademy/sudampvp/internal/services/ai"
	"github.com/BlueStarAcademy/sudampvp/internal/services/analysis"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
	"github.com/BlueStarAcademy/sudampvp/internal/services/gameclock"
	"github.com/BlueStarAcademy/sudampvp/internal/services/matchmaking"
	"github.com/BlueStarAcademy/sudampvp/internal/services/scoring"
	"github.com/BlueStarAcademy/sudampvp/internal/services/session"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/memory"
	redisstorage "github.com/BlueStarAcademy/sudampvp/internal/storage/redis"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// DefaultCollaboratorTimeout bounds every call to the analysis engine
const DefaultCollaboratorTimeout = 5 * time.Second

// hubCleanupInterval is how often hubs without subscribers are dropped
const hubCleanupInterval = time.Minute

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Records storage.Records

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Engine            *rules.Engine
	Clocks            *gameclock.Service
	Scorer            *scoring.Service
	Suggester         *ai.Service
	SessionController *session.Controller
	Queue             *matchmaking.Queue
	AuthService       *auth.Service
	HubManager        *realtime.HubManager
	Broadcaster       *realtime.Broadcaster

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the shared store ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RecordsPath is the sqlite database holding players and game records
	// If empty, records are kept in memory
	RecordsPath string
	// AnalysisURL is the base URL of the analysis engine (optional)
	// If empty, scoring and AI moves are computed locally
	AnalysisURL string
	// CollaboratorTimeout bounds analysis engine calls
	// If zero, DefaultCollaboratorTimeout is used
	CollaboratorTimeout time.Duration

	Auth        auth.Config
	Clock       gameclock.Config
	Session     session.Config
	Matchmaking matchmaking.Config
}

// DefaultConfig returns a memory-backed configuration with default tunables
func DefaultConfig() Config {
	return Config{
		StorageType:         StorageTypeMemory,
		CollaboratorTimeout: DefaultCollaboratorTimeout,
		Auth:                auth.DefaultConfig(),
		Clock:               gameclock.DefaultConfig(),
		Session:             session.DefaultConfig(),
		Matchmaking:         matchmaking.DefaultConfig(),
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg = withDefaults(cfg)

	var closers []io.Closer

	// Create storage based on type
	var store storage.Storage
	switch cfg.StorageType {
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
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var records storage.Records
	if cfg.RecordsPath == "" {
		records = memory.NewRecords()
	} else {
		sqliteRecords, err := sqlite.Open(cfg.RecordsPath, logger)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		records = sqliteRecords
		closers = append(closers, sqliteRecords)
	}

	app := newWithDependencies(store, records, clock.New(), random.New(), cfg, logger)
	app.closers = closers
	return app, nil
}

func withDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.StorageType == "" {
		cfg.StorageType = defaults.StorageType
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = defaults.CollaboratorTimeout
	}
	if cfg.Auth.TokenDuration == 0 {
		secret := cfg.Auth.Secret
		cfg.Auth = defaults.Auth
		cfg.Auth.Secret = secret
	}
	if cfg.Clock.TickInterval == 0 {
		cfg.Clock = defaults.Clock
	}
	if cfg.Session.DeadlineInterval == 0 {
		cfg.Session = defaults.Session
	}
	if cfg.Matchmaking.TickInterval == 0 {
		cfg.Matchmaking = defaults.Matchmaking
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, records storage.Records, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	hubManager := realtime.NewHubManager(logger)
	broadcaster := realtime.NewBroadcaster(hubManager, logger)

	engine := rules.NewEngine(rnd)

	var strategies []scoring.Strategy
	var suggesters []ai.Suggester
	if cfg.AnalysisURL != "" {
		client := analysis.NewClient(cfg.AnalysisURL, cfg.CollaboratorTimeout)
		strategies = append(strategies, scoring.NewRemoteStrategy(client))
		suggesters = append(suggesters, ai.NewRemoteSuggester(client, engine))
	}
	scorer := scoring.NewService(strategies, cfg.CollaboratorTimeout, logger)
	suggester := ai.NewService(suggesters, ai.NewLocalSuggester(engine, rnd), cfg.CollaboratorTimeout, logger)

	clocks := gameclock.NewService(store, clk, broadcaster, cfg.Clock, logger)
	controller := session.NewController(store, records, clocks, scorer, suggester, engine,
		broadcaster, clk, rnd, cfg.Session, logger)
	queue := matchmaking.NewQueue(store, records, controller, broadcaster, clk, rnd, cfg.Matchmaking, logger)
	authService := auth.New(records, clk, rnd, cfg.Auth)

	return &App{
		Storage:           store,
		Records:           records,
		Clock:             clk,
		Random:            rnd,
		Engine:            engine,
		Clocks:            clocks,
		Scorer:            scorer,
		Suggester:         suggester,
		SessionController: controller,
		Queue:             queue,
		AuthService:       authService,
		HubManager:        hubManager,
		Broadcaster:       broadcaster,
	}
}

// Run starts the background loops (clock ticks, phase deadlines, pairing
// and hub cleanup) and blocks until ctx is cancelled and they have stopped
func (a *App) Run(ctx context.Context) {
	var wg sync.WaitGroup
	loops := []func(context.Context){
		a.Clocks.Run,
		a.SessionController.RunDeadlines,
		a.Queue.Run,
		func(ctx context.Context) { a.HubManager.RunCleanup(ctx, hubCleanupInterval) },
	}
	for _, loop := range loops {
		loop := loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx)
		}()
	}
	wg.Wait()
	a.SessionController.Wait()
}

// Close releases the stores
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
