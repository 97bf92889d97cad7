// Package config holds the runtime settings of the dashboard gateway.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPort           = 3000
	DefaultRequestTimeout = 10 * time.Second
	DefaultFrontendURL    = "http://localhost:5173"
	DefaultEnvironment    = "development"
	DefaultRateLimit      = 60
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config is assembled from CLI flags and their environment sources.
type Config struct {
	Port           int           `validate:"gte=1,lte=65535"`
	N8NBaseURL     string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`
	FrontendURL    string        `validate:"required,url"`
	Environment    string        `validate:"oneof=development production test"`
	RateLimit      int           `validate:"gte=0"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	LogFormat      string        `validate:"oneof=text json"`
	N8NAPIKey      string
	RequireAuth    bool
	OTelEnabled    bool
}

// Default returns a Config with every optional value set.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		RequestTimeout: DefaultRequestTimeout,
		FrontendURL:    DefaultFrontendURL,
		Environment:    DefaultEnvironment,
		RateLimit:      DefaultRateLimit,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
	}
}

// Validate checks every field and joins the failures into one error.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		problems = append(problems, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
