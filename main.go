package main

import (
	"context"
	"log"
	"os"
	"time"

	apimod "github.com/example/task-tracker/modules/api"
	cachemod "github.com/example/task-tracker/modules/cache"
	taskmod "github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Tracker API ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// The Redis cache is optional; the task module serves straight from
	// PostgreSQL when REDIS_ADDR is not set.
	var cacheModule *cachemod.Module
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cacheModule = cachemod.NewModule(redisAddr)
		app.Register(cacheModule)
	}

	taskModule := taskmod.NewModule()
	app.Register(taskModule)
	app.Register(apimod.NewModule())

	// Start application. An unreachable database is fatal: better to die
	// here than serve degraded traffic.
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	if cacheModule != nil {
		taskModule.SetCache(cacheModule.GetCache())
	}

	printStartupInfo()

	// Graceful shutdown
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

func printStartupInfo() {
	log.Print(`
Application started successfully!

Endpoints:
  GET    /health          - Health check
  GET    /api             - Service description
  GET    /api/tasks       - List tasks (optional ?status= filter)
  GET    /api/tasks/:id   - Get task
  POST   /api/tasks       - Create task
  PUT    /api/tasks/:id   - Partial update
  DELETE /api/tasks/:id   - Delete task

Press Ctrl+C to shutdown gracefully
`)
}
