package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/app"
	"github.com/ignatzorin/freight-backend/internal/config"
	"github.com/ignatzorin/freight-backend/internal/db"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/goroutine"
	httpMiddleware "github.com/ignatzorin/freight-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/freight-backend/internal/http/router"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/freight-backend/internal/interface/http/handler"
	"github.com/ignatzorin/freight-backend/internal/jobs"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/metrics"
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
	"github.com/ignatzorin/freight-backend/internal/pkg/secretbox"
	"github.com/ignatzorin/freight-backend/internal/service"
	"github.com/ignatzorin/freight-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	metrics.Register()

	healthChecks := map[string]handler.HealthCheck{}

	// Хранилище.
	var store repository.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Log.Warn("main: используется хранилище в памяти, данные не сохраняются между запусками")
		store = memory.NewStore()
	default:
		pool := db.DefaultPoolConfig()
		pool.MaxOpenConns = cfg.DBMaxOpenConns
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, pool)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		store = persistence.NewStore(dbConn)
		healthChecks["database"] = dbConn.PingContext
	}

	// Блокировки и счётчики rate limit: Redis, если настроен, иначе память процесса.
	var (
		locker      keylock.Locker = keylock.NewLocalLocker()
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = keylock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = redisClient.Close() }()
		if err := keylock.Ping(ctx, redisClient); err != nil {
			logger.Log.Fatalf("main: %v", err)
		}
		keylock.SetUnlockErrorHandler(func(key string, err error) {
			logger.Log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).
				Warn("keylock: не удалось снять блокировку")
		})
		locker = keylock.NewRedisLocker(redisClient, cfg.LockTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return keylock.Ping(ctx, redisClient) }
		logger.Log.WithField("addr", cfg.RedisAddr).Info("main: блокировки через Redis")
	}
	rateLimitStore, err := httpMiddleware.NewRateLimitStore(redisClient)
	if err != nil {
		logger.Log.Fatalf("main: ошибка инициализации rate limit: %v", err)
	}

	sealer, err := secretbox.New(cfg.BankAccountKey)
	if err != nil {
		logger.Log.Fatalf("main: ошибка ключа шифрования счетов: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	application := app.New(app.Deps{
		Store:          store,
		Locker:         locker,
		Gateway:        payment.NewSandboxGateway(cfg.PaymentDeclinePrefix),
		Sealer:         sealer,
		Tokens:         tokenManager,
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		HealthChecks:   healthChecks,
	})

	var reconcileJob *jobs.ReconcileJob
	if cfg.ReconcileSchedule != "" {
		reconcileJob = jobs.NewReconcileJob(application.Reconcile, cfg.ReconcileSchedule)
		if err := reconcileJob.Start(); err != nil {
			logger.Log.Fatalf("main: некорректное расписание сверки %q: %v", cfg.ReconcileSchedule, err)
		}
	}

	engine := httpRouter.SetupRouter(cfg, application.Handlers, tokenManager, rateLimitStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
		if reconcileJob != nil {
			reconcileJob.Stop(shutdownCtx)
		}
	})

	logger.Log.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"env":     cfg.Env,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
