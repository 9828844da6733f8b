package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/example/task-store/modules/api"
	cachemod "github.com/example/task-store/modules/cache"
	taskmod "github.com/example/task-store/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./tasks.db")
	httpPort := getEnvInt("HTTP_PORT", 8000)
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "tasks:")

	log.Println("=== Task Store Service ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	if redisAddr != "" {
		log.Printf("Redis: %s (prefix: %s, TTL: %s)", redisAddr, cachePrefix, cacheTTL)
	} else {
		log.Println("Redis: disabled")
	}

	// Create modules
	cacheModule := cachemod.NewModule(redisAddr, cachePrefix, cacheTTL)
	taskModule := taskmod.NewModule(dbPath)
	apiModule := apimod.NewModule(httpPort)

	// Wire dependencies; modules resolve them on Start
	taskModule.SetCacheModule(cacheModule)
	apiModule.SetTaskModule(taskModule)
	apiModule.SetCacheModule(cacheModule)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Register modules; registration order is start order
	app.Register(cacheModule)
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", httpPort)
	log.Println("Endpoints:")
	log.Println("  GET    /                                          - Service listing")
	log.Println("  GET    /health                                    - Health check")
	log.Println("  POST   /tasks                                     - Create task")
	log.Println("  GET    /tasks                                     - List tasks (?status=)")
	log.Println("  GET    /tasks/:id                                 - Get task")
	log.Println("  PUT    /tasks/:id                                 - Update task")
	log.Println("  DELETE /tasks/:id                                 - Delete task")
	log.Println("  GET    /tasks/analytics/weekly-completion         - Weekly report (?weeks=4)")
	log.Println("  GET    /tasks/analytics/weekly-completion/export  - Report download (?format=json|csv|pdf)")
	log.Println("  GET    /cache/stats                               - Cache statistics")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	// Setup graceful shutdown using gelmium/graceful-shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
