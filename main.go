package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/team-tasks/modules/api"
	"github.com/example/team-tasks/modules/digest"
	"github.com/example/team-tasks/modules/employee"
	"github.com/example/team-tasks/modules/notification"
	"github.com/example/team-tasks/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Team Tasks - Approval-Gated Task Tracker ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Register modules with the framework.
	// The framework automatically handles:
	// - ServiceProviderModule.RegisterServices() for request-reply services
	// - DependentModule.SetDependencyServiceContainer() for cross-module communication
	// - EventBusAwareModule.SetEventBus() for event publishing
	// - EventConsumerModule.RegisterEventConsumers() for event subscriptions
	//
	// Order: independent modules first, then modules with dependencies
	app.Register(employee.NewModule())     // Directory (no dependencies)
	app.Register(notification.NewModule()) // Event consumer (subscribes to notice events)
	app.Register(task.NewModule())         // Core domain (depends on employee, emits events)
	app.Register(digest.NewModule())       // Scheduled daily summaries (depends on employee, task)
	app.Register(api.NewModule())          // Driving adapter (HTTP surface)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

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
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Demo Employees Available:")
	log.Println("  - Dana Reed (dana@example.com) - Manager")
	log.Println("  - Alice Johnson (alice@example.com)")
	log.Println("  - Bob Smith (bob@example.com)")
	log.Println("  - Charlie Brown (charlie@example.com)")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("  POST   /api/v1/tasks                  - Create a task")
	log.Println("  GET    /api/v1/tasks?viewer=email     - List visible tasks")
	log.Println("  GET    /api/v1/tasks/:id              - Get a task by ID")
	log.Println("  PUT    /api/v1/tasks/:id              - Request a change")
	log.Println("  PATCH  /api/v1/tasks/:id/approval     - Approve or reject")
	log.Println("  GET    /api/v1/tasks/:id/activity     - Task activity log")
	log.Println("  GET    /api/v1/activity               - Global activity feed")
	log.Println("  GET    /api/v1/employees              - Employee directory")
	log.Println("  GET    /api/v1/dashboard/summary      - Dashboard counts")
	log.Println("  GET    /api/v1/notifications?user=e   - In-app notifications")
	log.Println("  POST   /api/v1/notifications/mark-read - Mark all read")
	log.Println("  POST   /api/v1/daily-summary          - Trigger digest run")
	log.Println("  GET    /health                        - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
