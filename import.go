package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/dataset"
)

var (
	dataFile  string
	batchSize int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a data file into Qdrant, recreating its collections",
	Long: `import reads a JSON file mapping collection names to lists of records
({"id", "vector", "payload"}) and, for each collection, drops it, recreates it with
cosine distance sized to the first vector, and inserts every record.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func registerImportFlags() {
	if importCmd.Flags().Lookup("file") != nil {
		return
	}
	importCmd.Flags().StringVar(&dataFile, "file", dataset.DefaultFile, "Data file to import")
	importCmd.Flags().IntVar(&batchSize, "batch-size", dataset.DefaultBatchSize, "Records per upsert request")
}

func runImport(cmd *cobra.Command, _ []string) error {
	store, err := NewVectorStore(appConfig.Qdrant)
	if err != nil {
		return fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return processImport(cmd.Context(), dataFile, batchSize, NewFileDatasetReader(), store)
}

func processImport(ctx context.Context, path string, batch int, reader DatasetReader, store VectorStore) error {
	slog.Info("processing data file", "file", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("data file does not exist: %s", path)
	}

	data, err := reader.ReadDataset(path)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("no datasets found in file: %s", path)
	}

	slog.Info("found datasets", "count", len(data))
	if _, err := dataset.Import(ctx, store, data, batch); err != nil {
		return fmt.Errorf("failed to import data: %w", err)
	}
	return nil
}
