package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanz/mediatracker-cli/internal/output"
)

// NewPingCommand creates the ping command
func NewPingCommand(groupId string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ping",
		Short:   "Check that the backend is reachable",
		Args:    cobra.NoArgs,
		RunE:    runPing,
		GroupID: groupId,
	}

	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func runPing(cmd *cobra.Command, args []string) error {
	client, err := RequireClient(cmd.Context())
	if err != nil {
		return err
	}

	collection := "books"
	if cfg := GetConfig(cmd.Context()); cfg != nil {
		collection = cfg.Collection
	}

	if err := client.Health(cmd.Context(), collection); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	printer := output.NewPrinterWithWriter(cmd.OutOrStdout(), output.FormatTable, quiet)
	printer.Success(fmt.Sprintf("Backend at %s is reachable (%s)", client.BaseURL(), collection))
	return nil
}
