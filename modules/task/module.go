package task

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/task-store/domain/task"
	cachemod "github.com/example/task-store/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides task services as a mono module.
type Module struct {
	db          *gorm.DB
	repo        *task.Repository
	service     *Service
	cacheModule *cachemod.Module
	dbPath      string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)

// NewModule creates a new task module backed by the SQLite file at dbPath.
func NewModule(dbPath string) *Module {
	return &Module{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetCacheModule wires the cache module dependency. Must be called
// before Start; without it the service runs uncached.
func (m *Module) SetCacheModule(cm *cachemod.Module) {
	m.cacheModule = cm
}

// Init opens the database and runs migrations.
func (m *Module) Init(_ mono.ServiceContainer) error {
	logLevel := logger.Warn
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db
	m.repo = task.NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("[task] Database initialized at %s", m.dbPath)
	return nil
}

// Start creates the service, wiring the cache when one was provided.
func (m *Module) Start(_ context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("task module not initialized")
	}

	c := cachemod.NewNoop()
	if m.cacheModule != nil {
		if svc := m.cacheModule.GetService(); svc != nil {
			c = svc
		}
	}
	m.service = NewService(m.repo, c)

	log.Println("[task] Module started")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// GetService returns the task service.
func (m *Module) GetService() *Service {
	return m.service
}

// GetRepository returns the task repository.
func (m *Module) GetRepository() *task.Repository {
	return m.repo
}

// HealthCheck verifies the database connection is healthy.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
