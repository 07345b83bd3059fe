package rag

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
)

const defaultTimeout = 10 * time.Second

// Embedder bounds every model call with a timeout and splits long
// passages into model-sized chunks.
type Embedder struct {
	model     DualEncoder
	timeout   time.Duration
	chunkConf ChunkerConfig
}

func NewEmbedder(model DualEncoder) *Embedder {
	return NewEmbedderWithTimeout(model, defaultTimeout)
}

func NewEmbedderWithTimeout(model DualEncoder, timeout time.Duration) *Embedder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Embedder{
		model:     model,
		timeout:   timeout,
		chunkConf: DefaultChunkerConfig(),
	}
}

// WithChunking replaces the chunk sizing used for passages.
func (e *Embedder) WithChunking(cfg ChunkerConfig) *Embedder {
	if cfg.MaxTokens > 0 {
		e.chunkConf = cfg
	}
	return e
}

func (e *Embedder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vec, err := e.model.EncodeQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode query: %w", core.ErrEmbedding, err)
	}
	return vec, nil
}

// EncodeChunks embeds every chunk of the passage separately.
func (e *Embedder) EncodeChunks(ctx context.Context, text string) ([][]float32, error) {
	chunks, err := ChunkText(text, e.chunkConf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to chunk passage: %w", core.ErrEmbedding, err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		log.FromCtx(ctx).Debug().Int("chunk", i).Int("tokens", chunk.TokenSize).Msg("embedding chunk")
		emb, err := e.model.EncodePassage(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to embed chunk %d: %w", core.ErrEmbedding, i, err)
		}
		embeddings = append(embeddings, emb)
	}
	return embeddings, nil
}

// EncodePassage returns one vector per passage: the normalized mean of its chunk vectors.
func (e *Embedder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EncodeChunks(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: nothing to embed", core.ErrEmbedding)
	}
	if len(embeddings) == 1 {
		return embeddings[0], nil
	}
	return meanPool(embeddings), nil
}

func (e *Embedder) Dims() int {
	return e.model.Dims()
}

func (e *Embedder) Mode() string {
	return e.model.Mode()
}

func (e *Embedder) Shutdown() error {
	return e.model.Shutdown()
}

func meanPool(vectors [][]float32) []float32 {
	out := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range out {
			if i < len(v) {
				out[i] += v[i]
			}
		}
	}

	var norm float64
	for _, x := range out {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}
