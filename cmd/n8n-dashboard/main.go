// Package main provides the n8n dashboard API server.
package main

import (
	"context"
	"os"

	"github.com/dukex/n8n-dashboard/pkg/config"
	"github.com/dukex/n8n-dashboard/pkg/log"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  "n8n-dashboard",
		Usage:                 "Serve a read-only dashboard API over an n8n instance",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   config.DefaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "n8n-base-url",
				Usage:    "Base URL of the n8n public API (e.g. http://localhost:5678/api/v1)",
				Required: true,
				Sources:  cli.EnvVars("N8N_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "n8n-api-key",
				Usage:   "API key sent to n8n in the X-N8N-API-KEY header",
				Sources: cli.EnvVars("N8N_API_KEY"),
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Usage:   "Timeout for each request to n8n",
				Value:   config.DefaultRequestTimeout,
				Sources: cli.EnvVars("N8N_REQUEST_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "frontend-url",
				Usage:   "Origin allowed by CORS",
				Value:   config.DefaultFrontendURL,
				Sources: cli.EnvVars("FRONTEND_URL"),
			},
			&cli.StringFlag{
				Name:    "environment",
				Usage:   "Runtime environment (development, production, test)",
				Value:   config.DefaultEnvironment,
				Sources: cli.EnvVars("APP_ENV", "NODE_ENV"),
			},
			&cli.BoolFlag{
				Name:    "require-auth",
				Usage:   "Reject API requests without an API key",
				Sources: cli.EnvVars("REQUIRE_AUTH"),
			},
			&cli.IntFlag{
				Name:    "rate-limit",
				Usage:   "Maximum requests per minute per client, 0 disables the limiter",
				Value:   config.DefaultRateLimit,
				Sources: cli.EnvVars("RATE_LIMIT_MAX"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   config.DefaultLogLevel,
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   config.DefaultLogFormat,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg := config.Config{
				Port:           command.Int("port"),
				N8NBaseURL:     command.String("n8n-base-url"),
				RequestTimeout: command.Duration("request-timeout"),
				FrontendURL:    command.String("frontend-url"),
				Environment:    command.String("environment"),
				RateLimit:      command.Int("rate-limit"),
				LogLevel:       command.String("log-level"),
				LogFormat:      command.String("log-format"),
				N8NAPIKey:      command.String("n8n-api-key"),
				RequireAuth:    command.Bool("require-auth"),
				OTelEnabled:    command.Bool("otel"),
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Setup(cfg.LogLevel, cfg.LogFormat)

			return run(ctx, cfg)
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
