package stubs

import "context"

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// Source supplies collections and sample records from a vector store
type Source interface {
	// ListCollectionNames returns every collection name in the store
	ListCollectionNames(ctx context.Context) ([]string, error)
	// SampleRecord returns the payload of one arbitrary record, or nil if the collection is empty
	SampleRecord(ctx context.Context, collection string) (map[string]any, error)
}

// Sink receives the serialized document
type Sink interface {
	// Write replaces the destination content with data
	Write(ctx context.Context, data []byte) error
}
