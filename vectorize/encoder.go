// Package vectorize serves text embeddings over HTTP so that search clients
// can turn a query string into a vector for a given model.
package vectorize

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelNotFound is returned when a model id cannot be loaded
	ErrModelNotFound = errors.New("model not found")
	// ErrEncodingFailed is returned when a loaded model fails to encode text
	ErrEncodingFailed = errors.New("encoding failed")
)

// Encoder turns text into an embedding vector
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// Loader creates an encoder for a model id
type Loader interface {
	Load(ctx context.Context, model string) (Encoder, error)
}

// HashPrefix selects the built-in feature hashing encoder, e.g. "hash:384"
const HashPrefix = "hash:"

// RouterLoader sends hash model ids to Hash and everything else to Python.
// A nil Python loader rejects non-hash models.
type RouterLoader struct {
	Hash   Loader
	Python Loader
}

func (r *RouterLoader) Load(ctx context.Context, model string) (Encoder, error) {
	if strings.HasPrefix(model, HashPrefix) {
		return r.Hash.Load(ctx, model)
	}
	if r.Python == nil {
		return nil, fmt.Errorf("%w: %s (python worker disabled)", ErrModelNotFound, model)
	}
	return r.Python.Load(ctx, model)
}
