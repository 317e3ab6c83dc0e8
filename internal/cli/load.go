package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retaildw/retaildw/internal/db"
	"github.com/retaildw/retaildw/internal/etl"
	"github.com/retaildw/retaildw/internal/logging"
	"github.com/retaildw/retaildw/internal/source"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the ETL pipeline against the warehouse",
	Long: `Extract the source CSV files, transform them into dimension and
fact rows, and load them into the warehouse inside a single transaction.
Rows that fail validation are rejected and counted; a storage failure
rolls the whole run back.

Re-running against the same source snapshot is idempotent: fact rows are
keyed by (order_id, order_item_id) and never duplicated.

Example:
  retaildw load --data-dir data --connection "postgres://..."`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if ok, err := db.MetadataExists(ctx, pool); err != nil || !ok {
		return fmt.Errorf("warehouse has not been initialized; run 'retaildw init' first")
	}

	batch, err := source.LoadDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	coordinator := etl.NewCoordinator(pool)
	summary, err := coordinator.Run(ctx, batch)
	if err != nil {
		var storageErr *etl.StorageError
		if errors.As(err, &storageErr) {
			logging.Error().Err(err).Msg("Load failed; transaction rolled back")
		}
		return err
	}

	summary.Log()

	if err := db.RecordLoadRun(ctx, pool); err != nil {
		logging.Warn().Err(err).Msg("Could not record load timestamp")
	}

	return nil
}
