package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/providers/rag"
)

type fakeStore struct {
	mu        sync.Mutex
	records   []core.StoredRecord
	vectors   [][]float32
	dims      int
	seq       int64
	healthErr error
	searchErr error
	healthN   int
	ensureErr error
	ensureN   int
	closed    bool

	// hits overrides Search when set
	hits []core.ScoredRecord
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) EnsureCollection(_ context.Context, dims int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureN++
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.dims = dims
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, key string, rec core.Record, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.records = append(f.records, core.StoredRecord{Record: rec, Key: key, Seq: f.seq})
	f.vectors = append(f.vectors, vector)
	return nil
}

func (f *fakeStore) Search(_ context.Context, conversationID string, vector []float32, k int) ([]core.ScoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.hits != nil {
		return f.hits, nil
	}

	var out []core.ScoredRecord
	for i, r := range f.records {
		if r.ConversationID != conversationID {
			continue
		}
		out = append(out, core.ScoredRecord{StoredRecord: r, Similarity: cosine(vector, f.vectors[i])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) Recent(_ context.Context, conversationID string, limit int) ([]core.StoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	var out []core.StoredRecord
	for _, r := range f.records {
		if r.ConversationID == conversationID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeStore) Coverage(_ context.Context, conversationID string) (core.Coverage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c core.Coverage
	for _, r := range f.records {
		if r.ConversationID != conversationID {
			continue
		}
		c.Total++
		if r.AuthorIsBot {
			c.Bot++
		} else {
			c.User++
		}
	}
	return c, nil
}

func (f *fakeStore) Stats(_ context.Context) (core.StoreStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	convs := map[string]bool{}
	for _, r := range f.records {
		convs[r.ConversationID] = true
	}
	return core.StoreStats{Records: len(f.records), Conversations: len(convs)}, nil
}

func (f *fakeStore) Health(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthN++
	return f.healthErr
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func (f *fakeStore) setHealth(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthErr = err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeEncoder maps every text to a fixed vector unless overridden.
type fakeEncoder struct {
	vectors map[string][]float32
	def     []float32
	err     error
	mode    string
	// delay simulates a slow model; a done ctx aborts it
	delay time.Duration
}

func (e *fakeEncoder) encode(ctx context.Context, text string) ([]float32, error) {
	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.delay):
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	if e.def != nil {
		return e.def, nil
	}
	return []float32{1, 0, 0}, nil
}

func (e *fakeEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return e.encode(ctx, text)
}

func (e *fakeEncoder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return e.encode(ctx, text)
}

func (e *fakeEncoder) Dims() int { return 0 }

func (e *fakeEncoder) Mode() string {
	if e.mode == "" {
		return rag.ModeSemantic
	}
	return e.mode
}

var errDown = errors.New("connection refused")

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
