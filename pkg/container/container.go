package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/config"
	infraCache "bookcatalog-backend/internal/infrastructure/cache"
	"bookcatalog-backend/internal/infrastructure/database"
	"bookcatalog-backend/internal/infrastructure/queue"
	"bookcatalog-backend/internal/infrastructure/storage"
	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/pkg/jwt"
	"bookcatalog-backend/pkg/ratelimit"

	"bookcatalog-backend/internal/domains/author"
	authorHandler "bookcatalog-backend/internal/domains/author/handler"
	authorRepo "bookcatalog-backend/internal/domains/author/repository"
	authorService "bookcatalog-backend/internal/domains/author/service"

	bookHandler "bookcatalog-backend/internal/domains/book/handler"
	bookRepo "bookcatalog-backend/internal/domains/book/repository"
	bookService "bookcatalog-backend/internal/domains/book/service"

	"bookcatalog-backend/internal/domains/user"
	userHandler "bookcatalog-backend/internal/domains/user/handler"
	userRepo "bookcatalog-backend/internal/domains/user/repository"
	userService "bookcatalog-backend/internal/domains/user/service"

	"bookcatalog-backend/internal/domains/transfer"
	transferHandler "bookcatalog-backend/internal/domains/transfer/handler"
	transferRepo "bookcatalog-backend/internal/domains/transfer/repository"
	transferService "bookcatalog-backend/internal/domains/transfer/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph shared by the API and the
// worker.
type Container struct {
	// INFRASTRUCTURE
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       *infraCache.RedisCache
	JWTManager  *jwt.Manager
	Storage     *storage.MinIOStorage // nil when MinIO is unreachable
	RedisOpt    asynq.RedisClientOpt
	AsynqClient *asynq.Client
	Limiter     *ratelimit.SlidingWindow
	Metrics     *middleware.HTTPMetrics

	// REPOSITORIES
	AuthorRepo author.Repository
	BookRepo   bookRepo.RepositoryInterface
	UserRepo   user.Repository
	JobRepo    transfer.JobRepository

	// SERVICES
	AuthorService   author.Service
	BookService     bookService.ServiceInterface
	UserService     user.Service
	TransferService transfer.Service

	// HANDLERS
	AuthorHandler   *authorHandler.AuthorHandler
	BookHandler     *bookHandler.BookHandler
	UserHandler     *userHandler.UserHandler
	TransferHandler *transferHandler.TransferHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer builds the graph in order: config, infrastructure,
// repositories, services, handlers.
func NewContainer(ctx context.Context) (*Container, error) {
	log.Info().Msg("Initializing DI container...")
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	// Database
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(connectCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Cache: a Redis outage degrades to uncached reads
	c.Cache = infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis connection failed (non-critical)")
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL())

	// Async imports need both MinIO and the asynq broker
	c.RedisOpt = asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	c.AsynqClient = asynq.NewClient(c.RedisOpt)

	st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		log.Warn().Err(err).Msg("MinIO unavailable, asynchronous imports disabled")
	} else {
		c.Storage = st
	}

	c.Limiter = ratelimit.New(ratelimit.Config{
		Window:        cfg.RateLimit.Window(),
		Limit:         cfg.RateLimit.MaxRequests,
		SweepInterval: cfg.RateLimit.SweepInterval,
	})

	metrics, err := middleware.NewHTTPMetrics(middleware.MetricsOptions{})
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := metrics.TrackLimiter(c.Limiter); err != nil {
		return fmt.Errorf("failed to register limiter metrics: %w", err)
	}
	c.Metrics = metrics

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.AuthorRepo = authorRepo.NewPostgresRepository(pool, c.Cache)
	c.BookRepo = bookRepo.NewPostgresRepository(pool, c.Cache)
	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.JobRepo = transferRepo.NewJobRepository(pool)
}

func (c *Container) initServices() {
	c.AuthorService = authorService.NewAuthorService(c.AuthorRepo)
	c.BookService = bookService.NewService(c.BookRepo, c.AuthorRepo)
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, 0)

	deps := transferService.Dependencies{
		Authors:    c.AuthorRepo,
		Books:      c.BookRepo,
		MaxRecords: c.Config.Import.MaxRecords,
	}
	// interfaces stay nil unless the backing client exists
	if c.Storage != nil {
		deps.Jobs = c.JobRepo
		deps.Objects = c.Storage
		deps.Queue = queue.NewEnqueuer(c.AsynqClient)
	}
	c.TransferService = transferService.NewTransferService(deps)
}

func (c *Container) initHandlers() {
	c.AuthorHandler = authorHandler.NewAuthorHandler(c.AuthorService)
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.TransferHandler = transferHandler.NewTransferHandler(c.TransferService, c.Config.Import.MaxUploadBytes())
}

// StartLimiterSweeper evicts idle rate-limit keys until ctx is cancelled.
func (c *Container) StartLimiterSweeper(ctx context.Context) {
	c.Limiter.StartSweeper(ctx, func(evicted int) {
		if evicted > 0 {
			log.Debug().Int("evicted", evicted).Int("tracked", c.Limiter.Len()).Msg("rate limiter sweep")
		}
	})
}

// Cleanup releases connections. Safe on a partially built container.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
