// Package main - точка входа REST API сервиса учёта студентов.
//
// Сервер отвечает за:
// - CRUD операции над студентами и чтение/создание групп
// - Выбор хранилища (PostgreSQL или встроенный SQLite)
// - Опциональный Redis для кеша групп и общего rate limiter
// - Метрики Prometheus и health-check эндпоинты
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/academic-hub/student-records/config"
	"github.com/academic-hub/student-records/internal/application/service"
	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/student"
	"github.com/academic-hub/student-records/internal/infrastructure/i18n"
	"github.com/academic-hub/student-records/internal/infrastructure/metrics"
	"github.com/academic-hub/student-records/internal/infrastructure/persistence/postgres"
	"github.com/academic-hub/student-records/internal/infrastructure/persistence/redis"
	"github.com/academic-hub/student-records/internal/infrastructure/persistence/sqlite"
	apihttp "github.com/academic-hub/student-records/internal/interface/http"
	"github.com/academic-hub/student-records/internal/interface/http/handlers"
	"github.com/academic-hub/student-records/pkg/circuitbreaker"
	"github.com/academic-hub/student-records/pkg/logger"
	"github.com/academic-hub/student-records/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	hashKey := flag.String("hash-key", "", "print the bcrypt hash for HTTP_ADMIN_KEY_HASH and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := handlers.HashKey(*hashKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting student records API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("driver", cfg.Database.Driver),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К ХРАНИЛИЩУ
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing store...")
		st.close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	if cfg.Redis.Enabled {
		cache, err = openCache(ctx, cfg, log)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	catalog, err := i18n.NewCatalog(cfg.I18n.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to build message catalog: %w", err)
	}

	var (
		groupOpts  []service.GroupServiceOption
		groupCache *redis.GroupCache
	)
	if cache != nil {
		breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
		groupCache = redis.NewGroupCache(cache, redis.WithBreaker(breaker))
		groupOpts = append(groupOpts, service.WithGroupCache(groupCache, cfg.Redis.GroupCacheTTL))
	}
	groupService := service.NewGroupService(st.groups, catalog, st.tx, log, groupOpts...)
	studentService := service.NewStudentService(st.students, groupService, catalog, st.tx, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HEALTH CHECKS И МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	probes := []handlers.Probe{handlers.DatabaseProbe(st.pinger)}
	if groupCache != nil {
		probes = append(probes, handlers.CacheProbe(groupCache))
	}
	health := handlers.NewCompositeHealthChecker(cfg.App.Version, 0, probes...)

	deps := apihttp.Dependencies{
		Students:      studentService,
		Groups:        groupService,
		Locales:       catalog,
		Logger:        log,
		HealthChecker: health,
	}

	if cfg.Observability.MetricsEnabled {
		collector := metrics.NewCollector()
		reg, err := metrics.NewRegistry(collector)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		deps.Metrics = collector
		deps.MetricsHandler = metrics.Handler(reg)
	}

	if cache != nil && cfg.HTTP.RateLimitPerMinute > 0 {
		deps.RateLimiter = redis.NewRateLimiter(cache, cfg.HTTP.RateLimitPerMinute, time.Minute)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := apihttp.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.TrustedProxies = cfg.HTTP.TrustedProxies
	httpCfg.AdminKeyHash = cfg.HTTP.AdminKeyHash
	httpCfg.Version = cfg.App.Version

	server := apihttp.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE WIRING
// ══════════════════════════════════════════════════════════════════════════════

// store - репозитории и менеджер транзакций выбранного хранилища.
type store struct {
	students student.Repository
	groups   group.Repository
	tx       service.TxManager
	pinger   handlers.Pinger
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		log.Info("connecting to PostgreSQL...")
		opts := postgres.DefaultPoolOptions()
		opts.MaxConns = int32(cfg.Database.MaxOpenConns)
		opts.MinConns = int32(cfg.Database.MaxIdleConns)
		opts.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		opts.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		retrier := retry.DatabaseRetrier(onRetry, retry.WithRetryIf(postgres.IsRetryableConnectError))
		var conn *postgres.Connection
		err := retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			conn, err = postgres.NewConnection(ctx, cfg.Database.URL, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if cfg.Database.AutoMigrate {
			log.Info("checking database migrations...")
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("database schema up to date", logger.Int("applied", applied))
		}

		log.Info("database connection established")
		return &store{
			students: postgres.NewStudentRepository(conn),
			groups:   postgres.NewGroupRepository(conn),
			tx:       postgres.NewTxManager(conn),
			pinger:   conn,
			close:    conn.Close,
		}, nil

	case config.DriverSQLite:
		log.Info("opening SQLite database...", logger.String("path", cfg.Database.SQLitePath))
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return &store{
			students: sqlite.NewStudentRepository(db),
			groups:   sqlite.NewGroupRepository(db),
			tx:       sqlite.NewTxManager(db),
			pinger:   db,
			close:    func() { _ = db.Close() },
		}, nil

	default:
		return nil, errors.New("unsupported database driver: " + cfg.Database.Driver)
	}
}

func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Cache, error) {
	opts := redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	}

	log.Info("connecting to Redis...", logger.String("addr", opts.Addr))
	retrier := retry.CacheRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("redis not ready, retrying", logger.Int("attempt", attempt), logger.Err(err))
	})

	var cache *redis.Cache
	err := retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		cache, err = redis.NewCache(ctx, opts)
		return err
	})
	return cache, err
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает логгер по уровню и формату из конфигурации.
func setupLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.App.Debug,
	})
}
