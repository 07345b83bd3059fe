package rag

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEncoder(t *testing.T) {
	var inputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var body struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "multilingual-e5-small", body.Model)
		inputs = append(inputs, body.Input)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer srv.Close()

	enc := NewOllamaEncoder(srv.URL, "", "multilingual-e5-small", 0)
	assert.Equal(t, 0, enc.Dims())

	vec, err := enc.EncodeQuery(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, enc.Dims())

	_, err = enc.EncodePassage(context.Background(), "dogs")
	require.NoError(t, err)

	assert.Equal(t, []string{"query: cats", "passage: dogs"}, inputs)
	assert.Equal(t, ModeSemantic, enc.Mode())
}

func TestOllamaEncoder_NoPrefixForOtherModels(t *testing.T) {
	var input string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		input, _ = body["input"].(string)
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer srv.Close()

	enc := NewOllamaEncoder(srv.URL, "", "all-minilm", 0)
	_, err := enc.EncodeQuery(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, "cats", input)
}

func TestOllamaEncoder_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "http error", body: `model not found`, code: http.StatusNotFound},
		{name: "no embeddings", body: `{"embeddings":[]}`, code: http.StatusOK},
		{name: "empty vector", body: `{"embeddings":[[]]}`, code: http.StatusOK},
		{name: "bad json", body: `{`, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaEncoder(srv.URL, "", "m", 0).EncodeQuery(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestOllamaEncoder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	enc := NewOllamaEncoder(srv.URL, "", "m", 3)
	_, err := enc.EncodeQuery(context.Background(), "x")
	assert.Error(t, err)
}

func TestOpenAIEncoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.5],"index":0}]}`))
	}))
	defer srv.Close()

	enc := NewOpenAIEncoder(srv.URL, "key", "text-embedding-3-small", 0)
	vec, err := enc.EncodePassage(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Equal(t, 2, enc.Dims())
}

func TestHashEncoder(t *testing.T) {
	enc := NewHashEncoder(16)
	ctx := context.Background()

	a1, _ := enc.EncodeQuery(ctx, "same text")
	a2, _ := enc.EncodePassage(ctx, "same text")
	b, _ := enc.EncodeQuery(ctx, "other text")

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.Len(t, a1, 16)
	assert.Equal(t, ModeDegraded, enc.Mode())

	var norm float64
	for _, v := range a1 {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	assert.Equal(t, defaultHashDims, NewHashEncoder(0).Dims())
}

func TestNewEncoder(t *testing.T) {
	ctx := context.Background()

	enc, err := NewEncoder(ctx, &config.EmbeddingConfig{Provider: config.EmbeddingHash, Dims: 8})
	require.NoError(t, err)
	assert.Equal(t, ModeDegraded, enc.Mode())

	enc, err = NewEncoder(ctx, &config.EmbeddingConfig{Provider: config.EmbeddingOllama, Model: "all-minilm"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEncoder{}, enc)

	_, err = NewEncoder(ctx, &config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
