package command

import (
	"context"
	"fmt"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/config"
	"github.com/lanz/mediatracker-cli/internal/logger"
)

type (
	configKey  struct{}
	clientKey  struct{}
	libraryKey struct{}
	loggerKey  struct{}
)

// WithConfig returns a new context with the loaded configuration
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the configuration from the context
func GetConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return nil
}

// WithClient returns a new context with the API client instance
func WithClient(ctx context.Context, client *api.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient retrieves the API client instance from the context
func GetClient(ctx context.Context) *api.Client {
	if client, ok := ctx.Value(clientKey{}).(*api.Client); ok {
		return client
	}
	return nil
}

// WithLibrary returns a new context with the book library instance
func WithLibrary(ctx context.Context, library *books.Library) context.Context {
	return context.WithValue(ctx, libraryKey{}, library)
}

// GetLibrary retrieves the book library instance from the context
func GetLibrary(ctx context.Context) *books.Library {
	if library, ok := ctx.Value(libraryKey{}).(*books.Library); ok {
		return library
	}
	return nil
}

// WithLogger returns a new context with the command logger
func WithLogger(ctx context.Context, log *logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// GetLogger retrieves the command logger, falling back to the default one
func GetLogger(ctx context.Context) *logger.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*logger.Logger); ok {
		return log
	}
	return logger.GetLogger()
}

// RequireLibrary retrieves the library and returns an error if not found
func RequireLibrary(ctx context.Context) (*books.Library, error) {
	library := GetLibrary(ctx)
	if library == nil {
		return nil, fmt.Errorf("book library not initialized")
	}
	return library, nil
}

// RequireClient retrieves the API client and returns an error if not found
func RequireClient(ctx context.Context) (*api.Client, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, fmt.Errorf("API client not initialized")
	}
	return client, nil
}
