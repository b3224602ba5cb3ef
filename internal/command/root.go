// Package command implements the mt command tree
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/collection"
	"github.com/lanz/mediatracker-cli/internal/config"
	"github.com/lanz/mediatracker-cli/internal/logger"
)

// RootCommand holds the global flags shared by every subcommand
type RootCommand struct {
	configPath string
	baseURL    string
	collection string
	debug      bool
}

// NewRootCommand creates the mt root command with all subcommands attached
func NewRootCommand(version string) *cobra.Command {
	rc := &RootCommand{}

	cmd := &cobra.Command{
		Use:   "mt",
		Short: "mt - Media tracker client",
		Long: `mt is a client for the media tracker backend.
It lists, searches and edits the books in your library, either through
plain commands or through an interactive terminal interface.`,
		Version:           version,
		PersistentPreRunE: rc.setup,
		SilenceUsage:      true, // Don't show usage on RunE errors
		SilenceErrors:     true,
	}

	cmd.PersistentFlags().StringVar(&rc.configPath, "config", "",
		"Config file (default: $MT_HOME/config.yaml or ~/.mediatracker/config.yaml)")
	cmd.PersistentFlags().StringVar(&rc.baseURL, "base-url", "", "Backend API base URL")
	cmd.PersistentFlags().StringVar(&rc.collection, "collection", "", "Collection name")
	cmd.PersistentFlags().BoolVar(&rc.debug, "debug", false, "Enable debug output")

	cmd.AddGroup(&cobra.Group{
		ID:    "library",
		Title: "Library Management:",
	})
	cmd.AddGroup(&cobra.Group{
		ID:    "global",
		Title: "Global Commands:",
	})

	cmd.AddCommand(
		NewBooksCommand("library"),
		NewUICommand("global"),
		NewPingCommand("global"),
	)

	cmd.SetVersionTemplate("mt version {{.Version}}\n")

	return cmd
}

// setup loads configuration, configures logging and builds the client and
// library every subcommand reads from the context
func (rc *RootCommand) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags win over file and environment
	if rc.baseURL != "" {
		cfg.BaseURL = rc.baseURL
	}
	if rc.collection != "" {
		cfg.Collection = rc.collection
	}
	if rc.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := configureLogger(cfg, rc.debug)
	if err != nil {
		return err
	}

	client, err := api.NewClient(cfg.BaseURL, api.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	library, err := books.NewHTTPLibrary(client, collection.Options{
		Collection: cfg.Collection,
		PageSize:   cfg.PageSize,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}

	log.Debug("using %s collection at %s", cfg.Collection, client.BaseURL())

	ctx := WithConfig(cmd.Context(), cfg)
	ctx = WithLogger(ctx, log)
	ctx = WithClient(ctx, client)
	ctx = WithLibrary(ctx, library)
	cmd.SetContext(ctx)
	return nil
}

// configureLogger applies the configured level and outputs to the default logger
func configureLogger(cfg *config.Config, debug bool) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()
	log.SetLevel(level)

	if debug {
		if err := log.ResetOutputs(); err != nil {
			return nil, fmt.Errorf("failed to reset log outputs: %w", err)
		}
		log.AddOutput(logger.DEBUG, os.Stderr)
	}

	if cfg.LogFile != "" {
		if err := log.AddFileOutput(logger.DEBUG, cfg.LogFile); err != nil {
			return nil, err
		}
	}

	return log, nil
}
