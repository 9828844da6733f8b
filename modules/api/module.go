package api

import (
	"context"
	"fmt"
	"log"

	cachemod "github.com/example/task-store/modules/cache"
	taskmod "github.com/example/task-store/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Module provides the HTTP API for the task store.
type Module struct {
	app         *fiber.App
	handlers    *Handlers
	taskModule  *taskmod.Module
	cacheModule *cachemod.Module
	port        int
}

// NewModule creates a new API module listening on the given port.
func NewModule(port int) *Module {
	return &Module{
		port: port,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetTaskModule sets the task module dependency.
func (m *Module) SetTaskModule(tm *taskmod.Module) {
	m.taskModule = tm
}

// SetCacheModule sets the cache module dependency.
func (m *Module) SetCacheModule(cm *cachemod.Module) {
	m.cacheModule = cm
}

// Init initializes the Fiber app and global middleware.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "Task Store Service",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	return nil
}

// Start wires the handlers and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return fmt.Errorf("task module not set")
	}

	service := m.taskModule.GetService()
	if service == nil {
		return fmt.Errorf("task service not available")
	}

	m.handlers = NewHandlers(service, m.cacheModule, m.healthCheck)
	m.setupRoutes()

	go func() {
		addr := fmt.Sprintf(":%d", m.port)
		log.Printf("[api] Starting HTTP server on %s", addr)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	return nil
}

// setupRoutes configures all HTTP routes. Analytics routes are
// registered before the :id routes so the path segments never clash.
func (m *Module) setupRoutes() {
	m.app.Get("/", m.handlers.Root)
	m.app.Get("/health", m.handlers.Health)

	tasks := m.app.Group("/tasks")
	tasks.Get("/analytics/weekly-completion", m.handlers.WeeklyCompletion)
	tasks.Get("/analytics/weekly-completion/export", m.handlers.ExportWeeklyCompletion)
	tasks.Post("/", m.handlers.CreateTask)
	tasks.Get("/", m.handlers.ListTasks)
	tasks.Get("/:id", m.handlers.GetTask)
	tasks.Put("/:id", m.handlers.UpdateTask)
	tasks.Delete("/:id", m.handlers.DeleteTask)

	cacheGroup := m.app.Group("/cache")
	cacheGroup.Get("/stats", m.handlers.CacheStats)
	cacheGroup.Post("/stats/reset", m.handlers.ResetCacheStats)
}

// healthCheck aggregates the health of the backing modules.
func (m *Module) healthCheck(ctx context.Context) map[string]string {
	checks := make(map[string]string)

	if m.taskModule != nil {
		if err := m.taskModule.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}
	}
	if m.cacheModule != nil {
		if err := m.cacheModule.HealthCheck(ctx); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}
	return checks
}

// Stop stops the HTTP server gracefully.
func (m *Module) Stop(_ context.Context) error {
	if m.app != nil {
		log.Println("[api] Shutting down HTTP server...")
		return m.app.Shutdown()
	}
	return nil
}

// errorHandler handles errors escaping Fiber routes.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// GetApp returns the Fiber app (for testing).
func (m *Module) GetApp() *fiber.App {
	return m.app
}
