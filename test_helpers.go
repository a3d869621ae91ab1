package main

import (
	"context"
	"fmt"

	"github.com/alc6/vec2stubs/dataset"
	"github.com/alc6/vec2stubs/qdrant"
)

// MockVectorStore is a mock implementation of VectorStore for testing
type MockVectorStore struct {
	ListCollectionNamesFunc func(ctx context.Context) ([]string, error)
	SampleRecordFunc        func(ctx context.Context, collection string) (map[string]any, error)
	RecreateCollectionFunc  func(ctx context.Context, name string, params qdrant.VectorParams) error
	UpsertFunc              func(ctx context.Context, collection string, points []qdrant.Point, wait bool) (*qdrant.UpdateResult, error)

	// Track calls for verification
	ListCollectionNamesCalled bool
	SampledCollections        []string
	RecreatedCollections      []string
	UpsertedPoints            int
}

func (m *MockVectorStore) ListCollectionNames(ctx context.Context) ([]string, error) {
	m.ListCollectionNamesCalled = true
	if m.ListCollectionNamesFunc != nil {
		return m.ListCollectionNamesFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockVectorStore) SampleRecord(ctx context.Context, collection string) (map[string]any, error) {
	m.SampledCollections = append(m.SampledCollections, collection)
	if m.SampleRecordFunc != nil {
		return m.SampleRecordFunc(ctx, collection)
	}
	return nil, nil
}

func (m *MockVectorStore) RecreateCollection(ctx context.Context, name string, params qdrant.VectorParams) error {
	m.RecreatedCollections = append(m.RecreatedCollections, name)
	if m.RecreateCollectionFunc != nil {
		return m.RecreateCollectionFunc(ctx, name, params)
	}
	return nil
}

func (m *MockVectorStore) Upsert(ctx context.Context, collection string, points []qdrant.Point, wait bool) (*qdrant.UpdateResult, error) {
	m.UpsertedPoints += len(points)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, collection, points, wait)
	}
	return &qdrant.UpdateResult{Status: "completed"}, nil
}

// MockDatasetReader is a mock implementation of DatasetReader for testing
type MockDatasetReader struct {
	ReadDatasetFunc func(path string) (dataset.Data, error)
	ReadCalled      bool
}

func (m *MockDatasetReader) ReadDataset(path string) (dataset.Data, error) {
	m.ReadCalled = true
	if m.ReadDatasetFunc != nil {
		return m.ReadDatasetFunc(path)
	}
	return dataset.Data{}, nil
}

// MockSink records what reaches it
type MockSink struct {
	WriteFunc   func(ctx context.Context, data []byte) error
	WriteCalled bool
	Data        []byte
}

func (m *MockSink) Write(ctx context.Context, data []byte) error {
	m.WriteCalled = true
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, data)
	}
	m.Data = append([]byte(nil), data...)
	return nil
}

// SimulateError simulates various Qdrant errors for testing
func SimulateError(errType string) error {
	switch errType {
	case "connection":
		return fmt.Errorf("failed to execute request: dial tcp 127.0.0.1:6333: connect: connection refused")
	case "not_found":
		return &qdrant.APIError{StatusCode: 404, Message: "Not found: Collection doesn't exist!"}
	case "unauthorized":
		return &qdrant.APIError{StatusCode: 401, Message: "Must provide an API key or an Authorization bearer token"}
	default:
		return fmt.Errorf("simulated error: %s", errType)
	}
}
