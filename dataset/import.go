package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alc6/vec2stubs/qdrant"
)

// DefaultBatchSize is the number of points sent per upsert call
const DefaultBatchSize = 64

// Store is the write side of the vector store used by Import
type Store interface {
	RecreateCollection(ctx context.Context, name string, params qdrant.VectorParams) error
	Upsert(ctx context.Context, collection string, points []qdrant.Point, wait bool) (*qdrant.UpdateResult, error)
}

// Summary counts what an import wrote
type Summary struct {
	Collections int
	Points      int
}

// Import recreates one collection per dataset, sized to the first record's
// vector, and inserts every record. Datasets are processed in name order and
// the first failure aborts the run.
func Import(ctx context.Context, store Store, data Data, batchSize int) (Summary, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var summary Summary
	for _, name := range data.Names() {
		points := data[name]

		size, err := VectorSize(points)
		if err != nil {
			return summary, fmt.Errorf("invalid dataset %s: %w", name, err)
		}

		slog.Info("recreating collection", "collection", name, "vector_size", size, "points", len(points))
		params := qdrant.VectorParams{Size: size, Distance: qdrant.DistanceCosine}
		if err := store.RecreateCollection(ctx, name, params); err != nil {
			return summary, fmt.Errorf("failed to recreate collection %s: %w", name, err)
		}

		for start := 0; start < len(points); start += batchSize {
			end := min(start+batchSize, len(points))
			if _, err := store.Upsert(ctx, name, points[start:end], true); err != nil {
				return summary, fmt.Errorf("failed to insert records %d-%d into %s: %w", start, end-1, name, err)
			}
			slog.Debug("inserted batch", "collection", name, "from", start, "to", end-1)
		}

		summary.Collections++
		summary.Points += len(points)
	}

	slog.Info("import completed", "collections", summary.Collections, "points", summary.Points)
	return summary, nil
}
