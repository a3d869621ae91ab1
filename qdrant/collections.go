package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// ListCollections returns every collection of the instance
func (c *Client) ListCollections(ctx context.Context) ([]CollectionDescription, error) {
	var result collectionsResult
	if err := c.do(ctx, http.MethodGet, "/collections", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return result.Collections, nil
}

// DeleteCollection drops a collection. Deleting a missing collection is not an error.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	var ok bool
	if err := c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil, &ok); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// CreateCollection creates a collection with a single unnamed vector space
func (c *Client) CreateCollection(ctx context.Context, name string, params VectorParams) error {
	body := createCollectionRequest{Vectors: params}
	var ok bool
	if err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), nil, body, &ok); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// RecreateCollection drops name if present and creates it again with params
func (c *Client) RecreateCollection(ctx context.Context, name string, params VectorParams) error {
	slog.Debug("recreating collection", "collection", name, "size", params.Size, "distance", params.Distance)
	if err := c.DeleteCollection(ctx, name); err != nil {
		return err
	}
	return c.CreateCollection(ctx, name, params)
}
