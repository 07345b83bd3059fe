package rag

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

const defaultHashDims = 384

// HashEncoder produces deterministic unit vectors seeded by the text hash.
// Identical texts match exactly; anything else is noise. It keeps the
// pipeline running when no embedding model is available.
type HashEncoder struct {
	dims int
}

func NewHashEncoder(dims int) *HashEncoder {
	if dims <= 0 {
		dims = defaultHashDims
	}
	return &HashEncoder{dims: dims}
}

func (h *HashEncoder) EncodeQuery(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *HashEncoder) EncodePassage(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *HashEncoder) Dims() int {
	return h.dims
}

func (h *HashEncoder) Mode() string {
	return ModeDegraded
}

func (h *HashEncoder) Shutdown() error {
	return nil
}

func (h *HashEncoder) vector(text string) []float32 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(text))
	rnd := rand.New(rand.NewSource(int64(f.Sum64())))

	vec := make([]float32, h.dims)
	var norm float64
	for i := range vec {
		v := rnd.NormFloat64()
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
