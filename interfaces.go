package main

import (
	"context"

	"github.com/alc6/vec2stubs/dataset"
	"github.com/alc6/vec2stubs/qdrant"
)

// VectorStore is the Qdrant surface the commands need
type VectorStore interface {
	// ListCollectionNames returns every collection name
	ListCollectionNames(ctx context.Context) ([]string, error)
	// SampleRecord returns the payload of one record, or nil for an empty collection
	SampleRecord(ctx context.Context, collection string) (map[string]any, error)
	// RecreateCollection drops and creates a collection
	RecreateCollection(ctx context.Context, name string, params qdrant.VectorParams) error
	// Upsert inserts or replaces points
	Upsert(ctx context.Context, collection string, points []qdrant.Point, wait bool) (*qdrant.UpdateResult, error)
}

// DatasetReader reads an import file
type DatasetReader interface {
	// ReadDataset loads and validates the file at path
	ReadDataset(path string) (dataset.Data, error)
}
