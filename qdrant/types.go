package qdrant

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Distance is the similarity metric of a collection
type Distance string

const (
	DistanceCosine    Distance = "Cosine"
	DistanceEuclid    Distance = "Euclid"
	DistanceDot       Distance = "Dot"
	DistanceManhattan Distance = "Manhattan"
)

// APIError is a non-2xx answer from Qdrant
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qdrant api error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from Qdrant
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// CollectionDescription is one entry of the collection listing
type CollectionDescription struct {
	Name string `json:"name"`
}

type collectionsResult struct {
	Collections []CollectionDescription `json:"collections"`
}

// VectorParams configures the vector space of a collection
type VectorParams struct {
	Size     int      `json:"size"`
	Distance Distance `json:"distance"`
}

type createCollectionRequest struct {
	Vectors VectorParams `json:"vectors"`
}

// Point is a stored record. ID is an unsigned integer or a UUID string.
type Point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type scrollRequest struct {
	Limit       int  `json:"limit"`
	WithPayload bool `json:"with_payload"`
	WithVector  bool `json:"with_vector"`
}

type scrollResult struct {
	Points         []scrollPoint `json:"points"`
	NextPageOffset any           `json:"next_page_offset"`
}

// scrollPoint keeps the id untyped because it may be a number or a UUID
type scrollPoint struct {
	ID      any             `json:"id"`
	Payload map[string]any  `json:"payload"`
	Vector  json.RawMessage `json:"vector,omitempty"`
}

type upsertRequest struct {
	Points []Point `json:"points"`
}

// UpdateResult acknowledges a write
type UpdateResult struct {
	OperationID int64  `json:"operation_id"`
	Status      string `json:"status"`
}
