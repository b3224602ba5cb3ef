// Package command provides UI command functionality
package command

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lanz/mediatracker-cli/internal/config"
	"github.com/lanz/mediatracker-cli/internal/logger"
	"github.com/lanz/mediatracker-cli/internal/tui"
)

// NewUICommand creates the UI command
func NewUICommand(groupId string) *cobra.Command {
	return &cobra.Command{
		Use:     "ui",
		Short:   "Launch interactive terminal interface",
		Long:    "Launch the mt terminal user interface for browsing, searching and editing your library.",
		Args:    cobra.NoArgs,
		RunE:    runUI,
		GroupID: groupId,
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file only
	logFile := config.DefaultLogFile()
	if cfg := GetConfig(cmd.Context()); cfg != nil && cfg.LogFile != "" {
		logFile = cfg.LogFile
	}
	log := GetLogger(cmd.Context())
	if err := log.ResetOutputs(); err != nil {
		return fmt.Errorf("failed to reset log outputs: %w", err)
	}
	if err := log.AddFileOutput(logger.DEBUG, logFile); err != nil {
		return err
	}
	defer log.ResetOutputs()

	log.Info("starting UI")

	model := tui.NewModel(cmd.Context(), library)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
