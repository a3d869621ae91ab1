package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ScrollOne returns the payload of one arbitrary point of the collection, or
// nil when the collection is empty. Numbers in the payload are json.Number.
func (c *Client) ScrollOne(ctx context.Context, collection string) (map[string]any, error) {
	body := scrollRequest{Limit: 1, WithPayload: true, WithVector: false}

	var result scrollResult
	path := "/collections/" + url.PathEscape(collection) + "/points/scroll"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, fmt.Errorf("failed to scroll collection %s: %w", collection, err)
	}

	if len(result.Points) == 0 {
		return nil, nil
	}
	payload := result.Points[0].Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// Upsert inserts or replaces points. With wait set the call returns once the
// points are persisted.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point, wait bool) (*UpdateResult, error) {
	query := url.Values{}
	if wait {
		query.Set("wait", "true")
	}

	var result UpdateResult
	path := "/collections/" + url.PathEscape(collection) + "/points"
	if err := c.do(ctx, http.MethodPut, path, query, upsertRequest{Points: points}, &result); err != nil {
		return nil, fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
	}
	return &result, nil
}
