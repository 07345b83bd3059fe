package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
)

// recencyScore is assigned to records returned by the recency fallback.
const recencyScore = 0.5

type RankerConfig struct {
	SearchResults int
	MinSimilarity float64
	IncludeBot    bool
	BotWeight     float64
	Timeout       time.Duration
}

func NewRankerConfig(ctxCfg *config.ContextConfig, storeCfg *config.StoreConfig) RankerConfig {
	return RankerConfig{
		SearchResults: ctxCfg.SearchResults,
		MinSimilarity: ctxCfg.MinSimilarity,
		IncludeBot:    ctxCfg.IncludeBot,
		BotWeight:     ctxCfg.BotWeight,
		Timeout:       storeCfg.Timeout,
	}
}

// Ranker turns a question into an ordered list of candidate records
// from one conversation.
type Ranker struct {
	cfg     RankerConfig
	store   core.VectorStore
	encoder core.Encoder
}

func NewRanker(cfg RankerConfig, store core.VectorStore, encoder core.Encoder) *Ranker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Ranker{cfg: cfg, store: store, encoder: encoder}
}

// Rank returns candidates sorted by weighted similarity. When no stored
// record passes the similarity threshold, the most recent records are
// returned with a flat score instead. Errors are ErrEmbedding or
// ErrStoreUnavailable and come with a nil result.
func (r *Ranker) Rank(ctx context.Context, conversationID, question string) ([]core.RankedCandidate, error) {
	logger := log.FromCtx(ctx)

	var candidates []core.RankedCandidate
	if strings.TrimSpace(question) != "" {
		hits, err := r.search(ctx, conversationID, question)
		if err != nil {
			return nil, err
		}
		candidates = r.filter(conversationID, hits)
		logger.Debug().
			Str("conversation", conversationID).
			Int("hits", len(hits)).
			Int("passed", len(candidates)).
			Float64("threshold", r.cfg.MinSimilarity).
			Msg("semantic search")
	}

	if len(candidates) == 0 {
		recent, err := r.recent(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		candidates = recent
		if len(candidates) > 0 {
			logger.Debug().Str("conversation", conversationID).Int("records", len(candidates)).Msg("recency fallback")
		}
	}

	sortByPriority(candidates)
	r.logCoverage(ctx, conversationID)
	return candidates, nil
}

func (r *Ranker) search(ctx context.Context, conversationID, question string) ([]core.ScoredRecord, error) {
	vec, err := r.encoder.EncodeQuery(ctx, question)
	if err != nil {
		return nil, asKind(core.ErrEmbedding, err)
	}

	sctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	hits, err := r.store.Search(sctx, conversationID, vec, r.cfg.SearchResults)
	if err != nil {
		return nil, asKind(core.ErrStoreUnavailable, err)
	}
	return hits, nil
}

func (r *Ranker) filter(conversationID string, hits []core.ScoredRecord) []core.RankedCandidate {
	seen := make(map[string]struct{}, len(hits))
	out := make([]core.RankedCandidate, 0, len(hits))

	for _, h := range hits {
		if h.ConversationID != conversationID || h.Similarity < r.cfg.MinSimilarity {
			continue
		}
		if _, dup := seen[h.Key]; dup {
			continue
		}
		seen[h.Key] = struct{}{}

		weighted := h.Similarity
		if h.AuthorIsBot {
			if !r.cfg.IncludeBot {
				continue
			}
			weighted *= r.cfg.BotWeight
		}

		out = append(out, core.RankedCandidate{
			StoredRecord:       h.StoredRecord,
			Similarity:         h.Similarity,
			WeightedSimilarity: weighted,
		})
	}
	return out
}

func (r *Ranker) recent(ctx context.Context, conversationID string) ([]core.RankedCandidate, error) {
	sctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	records, err := r.store.Recent(sctx, conversationID, r.cfg.SearchResults)
	if err != nil {
		return nil, asKind(core.ErrStoreUnavailable, err)
	}

	out := make([]core.RankedCandidate, 0, len(records))
	for _, rec := range records {
		if rec.ConversationID != conversationID {
			continue
		}
		if rec.AuthorIsBot && !r.cfg.IncludeBot {
			continue
		}
		out = append(out, core.RankedCandidate{
			StoredRecord:       rec,
			Similarity:         recencyScore,
			WeightedSimilarity: recencyScore,
		})
	}
	return out, nil
}

func (r *Ranker) logCoverage(ctx context.Context, conversationID string) {
	e := log.FromCtx(ctx).Debug()
	if !e.Enabled() {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	cov, err := r.store.Coverage(cctx, conversationID)
	if err != nil {
		e.Discard()
		return
	}
	e.Str("conversation", conversationID).
		Int("total", cov.Total).
		Int("bot", cov.Bot).
		Int("user", cov.User).
		Msg("conversation coverage")
}

// sortByPriority orders by weighted similarity, then oldest first.
func sortByPriority(c []core.RankedCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].WeightedSimilarity != c[j].WeightedSimilarity {
			return c[i].WeightedSimilarity > c[j].WeightedSimilarity
		}
		if c[i].Timestamp != c[j].Timestamp {
			return c[i].Timestamp < c[j].Timestamp
		}
		return c[i].Seq < c[j].Seq
	})
}

// asKind makes sure err matches kind with errors.Is.
func asKind(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
