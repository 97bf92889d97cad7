package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/n8n-dashboard/pkg/config"
	"github.com/dukex/n8n-dashboard/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
)

type API struct {
	logger    *slog.Logger
	dashboard web.Dashboard
	config    config.Config
	validate  *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	dashboard web.Dashboard,
	cfg config.Config,
) *API {
	return &API{
		logger:    logger,
		dashboard: dashboard,
		config:    cfg,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	exposeDetails := !a.config.IsProduction()

	handlers := web.NewAPIHandlers(a.dashboard, a.validate, a.logger, exposeDetails)

	app := fiber.New(fiber.Config{
		AppName:      "n8n-dashboard",
		ErrorHandler: web.ErrorHandler(a.logger, exposeDetails),
	})
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{a.config.FrontendURL},
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	if a.config.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          a.config.RateLimit,
			Expiration:   time.Minute,
			LimitReached: web.RateLimitReached,
		}))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")
	if a.config.RequireAuth {
		api.Use(web.RequireAPIKey())
	}

	api.Get("/workflows", handlers.GetWorkflows)
	api.Get("/workflows/:workflowId", handlers.GetWorkflow)
	api.Get("/executions", handlers.GetExecutions)
	api.Get("/executions/:executionId", handlers.GetExecution)
	api.Delete("/cache", handlers.ClearCache)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
