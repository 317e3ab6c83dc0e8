package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retaildw/retaildw/internal/db"
	"github.com/retaildw/retaildw/internal/reports"
)

var reportCmd = &cobra.Command{
	Use:   "report [name]",
	Short: "Run a KPI report against the loaded warehouse",
	Long: `Run one of the fixed KPI reports against the star schema and print
the result table. Without arguments, lists the available reports.

Example:
  retaildw report monthly_revenue --connection "postgres://..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Println("Available reports:")
		cmd.Println()
		for _, d := range reports.Definitions {
			cmd.Printf("  %-24s %s\n", d.Name, d.Description)
		}
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	runner := reports.NewRunner(pool)
	return runner.Run(ctx, args[0], cmd.OutOrStdout())
}
