package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/forgeline/qms/cmd/qms/container"
	qmsmiddleware "github.com/forgeline/qms/cmd/qms/middleware"
	"github.com/forgeline/qms/cmd/qms/routes"
	"github.com/forgeline/qms/common/bootstrap"
	"github.com/forgeline/qms/common/db"
	"github.com/forgeline/qms/common/metrics"
	commonmiddleware "github.com/forgeline/qms/common/middleware"
	"github.com/forgeline/qms/common/ratelimit"
	"github.com/forgeline/qms/common/repository"
	"github.com/forgeline/qms/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "qms",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.InitSchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap qms: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e, serviceContainer)
	setupHealthCheck(e)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, serviceContainer *container.Container) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())
	e.Use(qmsmiddleware.ExtractActor())
	e.Use(commonmiddleware.GlobalRateLimitMiddleware(serviceContainer.RateLimiter, ratelimit.DefaultGlobalConfig.Limit))
	e.Use(commonmiddleware.ActorRateLimitMiddleware(serviceContainer.RateLimiter, string(qmsmiddleware.ActorKey)))
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "qms",
			"system":  metrics.GetSystemInfo().ToMap(),
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterRecordRoutes(e, serviceContainer)
	routes.RegisterDispositionRoutes(e, serviceContainer)
	routes.RegisterLinkageRoutes(e, serviceContainer)
}

// startServer starts the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("qms", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
