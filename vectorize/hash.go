package vectorize

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// maxHashDims caps the vector size a hash model may request
const maxHashDims = 65536

// HashLoader builds feature hashing encoders for "hash:<dims>" model ids
type HashLoader struct{}

func (HashLoader) Load(_ context.Context, model string) (Encoder, error) {
	raw, ok := strings.CutPrefix(model, HashPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	dims, err := strconv.Atoi(raw)
	if err != nil || dims <= 0 || dims > maxHashDims {
		return nil, fmt.Errorf("%w: %s (dimensions must be between 1 and %d)", ErrModelNotFound, model, maxHashDims)
	}
	return &HashEncoder{Dims: dims}, nil
}

// HashEncoder maps lower-cased word tokens onto Dims buckets with xxhash and
// returns the L2-normalized counts. Text without tokens yields a zero vector.
type HashEncoder struct {
	Dims int
}

func (e *HashEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make([]float64, e.Dims)
	for _, token := range tokenize(text) {
		h := xxhash.Sum64String(token)
		bucket := h % uint64(e.Dims)
		// top bit picks the sign so collisions tend to cancel
		if h>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.Dims)
	if norm == 0 {
		return out, nil
	}
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (e *HashEncoder) Close() error { return nil }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
