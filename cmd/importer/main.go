// Command importer loads property records into Postgres from a shapefile or CSV export.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/wealthmap/internal/config"
	"github.com/stwalsh4118/wealthmap/internal/database"
	"github.com/stwalsh4118/wealthmap/internal/ingest"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/repository"
)

const defaultBatchSize = 500

var (
	dryRun    bool
	batchSize int
)

// reader parses one input file into properties.
type reader func(path string) ([]models.Property, error)

// upserter is the slice of PropertyRepository the importer needs.
type upserter interface {
	Upsert(ctx context.Context, props []models.Property) (int, error)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Load property data into the Wealth Map database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "parse the input and report counts without writing")
	root.PersistentFlags().IntVar(&batchSize, "batch-size", defaultBatchSize, "properties per upsert batch")

	root.AddCommand(&cobra.Command{
		Use:   "shapefile <path.shp>",
		Short: "Import properties from an ESRI point or polygon shapefile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], ingest.ReadShapefile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "csv <path.csv>",
		Short: "Import properties from a CSV file with a header row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], ingest.ReadCSVFile)
		},
	})
	return root
}

func runImport(cmd *cobra.Command, path string, read reader) error {
	if batchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive, got %d", batchSize)
	}

	props, err := read(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "parsed %d properties from %s\n", len(props), path)
	if dryRun {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.Server.Env).WithComponent("importer")
	if cfg.Server.LogLevel != "" {
		if err := log.SetLevel(cfg.Server.LogLevel); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	written, err := importBatches(ctx, repository.NewPropertyRepository(db), props, batchSize, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d properties\n", written)
	return nil
}

// importBatches upserts props in chunks of size and stops at the first failed batch.
func importBatches(ctx context.Context, repo upserter, props []models.Property, size int, log *logger.Logger) (int, error) {
	total := 0
	for start := 0; start < len(props); start += size {
		end := min(start+size, len(props))

		n, err := repo.Upsert(ctx, props[start:end])
		total += n
		if err != nil {
			log.Error("Batch upsert failed", err, map[string]interface{}{
				"offset":  start,
				"written": total,
			})
			return total, fmt.Errorf("import stopped after %d properties: %w", total, err)
		}
		log.Debug("Batch upserted", map[string]interface{}{
			"offset": start,
			"count":  n,
		})
	}
	log.Info("Import complete", map[string]interface{}{"count": total})
	return total, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
