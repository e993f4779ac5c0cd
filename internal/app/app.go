// Package app собирает зависимости сервиса.
package app

import (
	"context"
	"log"

	"github.com/avetra/supplierhub/internal/config"
	"github.com/avetra/supplierhub/internal/config/db"
	"github.com/avetra/supplierhub/internal/freshness"
	"github.com/avetra/supplierhub/internal/kafka"
	"github.com/avetra/supplierhub/internal/repository"
	"github.com/avetra/supplierhub/internal/resolver"
	"github.com/avetra/supplierhub/internal/retry"
	"github.com/avetra/supplierhub/internal/telemetry"
	"github.com/avetra/supplierhub/internal/upstream"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App содержит все зависимости приложения
type App struct {
	Config    *config.Config
	DBPool    *pgxpool.Pool
	Telemetry *telemetry.Providers

	KPI       *resolver.Resolver
	Catalog   *resolver.CatalogResolver
	Directory *resolver.DirectoryResolver

	kpiStore      repository.KPIStore
	snapshotStore repository.SnapshotStore
	dirStore      repository.DirectoryStore

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp создает новое приложение.
func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Init выполняет инициализацию зависимостей приложения.
func (a *App) Init() error {
	tel, err := telemetry.Init(a.ctx, a.Config.Telemetry)
	if err != nil {
		log.Printf("Warning: telemetry init failed: %v. Running without telemetry.", err)
		tel = &telemetry.Providers{}
	}
	a.Telemetry = tel

	// Инициализация БД; без DSN сервис работает на памяти.
	if err := a.initDatabase(a.ctx); err != nil {
		log.Printf("Warning: cannot connect to DB: %v. Running without database.", err)
	}
	if a.kpiStore == nil {
		mem := repository.NewMemStorage()
		a.kpiStore = mem
		a.snapshotStore = mem
		a.dirStore = mem
		log.Println("Using in-memory storage")
	}

	source := upstream.NewClient(upstream.Config{
		BaseURL:    a.Config.Upstream.BaseURL,
		Token:      a.Config.Upstream.Token,
		Timeout:    a.Config.Upstream.Timeout,
		MaxRetries: a.Config.Upstream.MaxRetries,
	})

	policy := freshness.NewPolicy(freshness.SystemClock(), a.Config.Cache.TTL)
	a.KPI = resolver.NewResolver(a.kpiStore, source, policy, a.Config.Cache.OpTTL, tel.Metrics)
	a.Catalog = resolver.NewCatalogResolver(a.snapshotStore, source, policy)
	a.Directory = resolver.NewDirectoryResolver(a.dirStore, source, policy, a.Config.Cache.DirectoryStalenessDays)

	// Запуск Kafka consumer
	if len(a.Config.Kafka.Brokers) > 0 && a.Config.Kafka.Topic != "" {
		backoff := retry.NewBackoff(
			a.Config.Kafka.DLQBackoff,
			a.Config.Kafka.DLQBackoffCap,
			a.Config.Kafka.DLQBackoffJitter,
		)
		go kafka.RunConsumer(a.ctx, kafka.ConsumerConfig{
			Brokers:    a.Config.Kafka.Brokers,
			Topic:      a.Config.Kafka.Topic,
			GroupID:    a.Config.Kafka.GroupID,
			DLQTopic:   a.Config.Kafka.DLQTopic,
			MaxRetries: a.Config.Kafka.DLQMaxRetries,
			Backoff:    backoff,
		}, a.snapshotStore, tel.Metrics)
	}

	return nil
}

// initDatabase инициализирует подключение к базе данных
func (a *App) initDatabase(ctx context.Context) error {
	if a.Config.Database.DSN == "" {
		log.Println("No DSN provided, running without database")
		return nil
	}

	if err := db.RunMigrations(a.Config.Database.DSN); err != nil {
		return err
	}

	dbPool, err := db.NewPool(ctx, a.Config.Database.DSN)
	if err != nil {
		return err
	}

	a.DBPool = dbPool
	pg := repository.NewPostgresStorage(dbPool)
	a.kpiStore = pg
	a.snapshotStore = pg
	a.dirStore = pg
	log.Println("Database initialized successfully")

	return nil
}

// Close освобождает все ресурсы приложения
func (a *App) Close() {
	log.Println("Shutting down application...")

	// Отменяем контекст (остановит Kafka consumer)
	if a.cancel != nil {
		a.cancel()
	}

	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(context.Background()); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}

	// Закрываем подключение к БД
	if a.DBPool != nil {
		a.DBPool.Close()
		log.Println("Database connection closed")
	}

	log.Println("Application shutdown complete")
}

// Context возвращает контекст приложения
func (a *App) Context() context.Context {
	return a.ctx
}
