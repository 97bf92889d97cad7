package main

import (
	"context"
	"fmt"

	"github.com/dukex/n8n-dashboard/pkg/config"
	"github.com/dukex/n8n-dashboard/pkg/log"
	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/dukex/n8n-dashboard/pkg/otelhelper"
	"github.com/dukex/n8n-dashboard/pkg/services"
)

const serviceName = "n8n-dashboard"

func run(ctx context.Context, cfg config.Config) error {
	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing n8n dashboard API",
		"n8n_base_url", cfg.N8NBaseURL,
		"environment", cfg.Environment,
		"require_auth", cfg.RequireAuth)

	if cfg.OTelEnabled {
		tracerProvider, err := otelhelper.NewTracerProvider(ctx, serviceName)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := tracerProvider.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	client, err := n8n.New(cfg.N8NBaseURL, cfg.N8NAPIKey,
		n8n.WithTimeout(cfg.RequestTimeout),
		n8n.WithLogger(log.WithModule("n8n")),
	)
	if err != nil {
		return fmt.Errorf("failed to create n8n client: %w", err)
	}

	dashboard := services.NewDashboard(client, log.WithModule("dashboard"))

	api := NewAPI(logger, dashboard, cfg)

	if err := api.Start(cfg.Port); err != nil {
		logger.ErrorContext(ctx, "Failed to start API server", "error", err)

		return err
	}

	return nil
}
