package qdrant

import (
	"context"
)

// ListCollectionNames returns the names of all collections in listing order
func (c *Client) ListCollectionNames(ctx context.Context) ([]string, error) {
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(collections))
	for _, coll := range collections {
		names = append(names, coll.Name)
	}
	return names, nil
}

// SampleRecord returns one record payload of the collection, nil if empty
func (c *Client) SampleRecord(ctx context.Context, collection string) (map[string]any, error) {
	return c.ScrollOne(ctx, collection)
}
