package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sandevgo/teleai/internal/core"
)

const (
	ModeSemantic = "semantic"
	ModeDegraded = "degraded"
)

// DualEncoder is an embedding model that may treat queries and passages differently.
type DualEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
	EncodePassage(ctx context.Context, text string) ([]float32, error)
	// Dims is 0 until the first vector has been produced, unless configured.
	Dims() int
	Mode() string
	Shutdown() error
}

// prefixes for asymmetric e5 models
type prefixes struct {
	query   string
	passage string
}

func prefixesFor(model string) prefixes {
	if strings.Contains(strings.ToLower(model), "e5") {
		return prefixes{query: "query: ", passage: "passage: "}
	}
	return prefixes{}
}

// httpEncoder carries the plumbing shared by remote embedding APIs.
type httpEncoder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	prefix  prefixes
	dims    atomic.Int64
}

func newHTTPEncoder(baseURL, apiKey, model string, dims int) *httpEncoder {
	e := &httpEncoder{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		prefix:  prefixesFor(model),
	}
	e.dims.Store(int64(dims))
	return e
}

func (e *httpEncoder) Dims() int {
	return int(e.dims.Load())
}

func (e *httpEncoder) Mode() string {
	return ModeSemantic
}

func (e *httpEncoder) Shutdown() error {
	e.client.CloseIdleConnections()
	return nil
}

// remember records the dimension of the first vector and rejects mismatches afterwards.
func (e *httpEncoder) remember(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding")
	}
	if e.dims.CompareAndSwap(0, int64(len(vec))) {
		return nil
	}
	if want := e.dims.Load(); int64(len(vec)) != want {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), want)
	}
	return nil
}

func (e *httpEncoder) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.AppUserAgent)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
