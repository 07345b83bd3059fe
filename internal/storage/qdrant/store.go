package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
)

const (
	backendName = "qdrant"
	grpcPort    = 6334
	facetLimit  = 100000
)

// pointNamespace derives stable point ids from record keys.
var pointNamespace = uuid.MustParse("6f1d2c3e-8a44-4b7e-9c55-0d3f6a1e2b90")

// api is the part of *qdrant.Client the store talks to.
type api interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, req *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error)
	Facet(ctx context.Context, req *qdrant.FacetCounts) ([]*qdrant.FacetHit, error)
	Close() error
}

// Store keeps records as points of a single Qdrant collection.
type Store struct {
	client     api
	collection string
	lastSeq    atomic.Int64
}

// NewStore dials the gRPC endpoint at rawURL lazily; nothing is sent
// until the first call.
func NewStore(rawURL, apiKey, collection string) (*Store, error) {
	cfg, err := clientConfig(rawURL, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	return newStore(client, collection), nil
}

func newStore(client api, collection string) *Store {
	return &Store{client: client, collection: collection}
}

// clientConfig turns QDRANT_URL into client settings. https enables TLS;
// the port defaults to the gRPC one.
func clientConfig(rawURL, apiKey string) (*qdrant.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant url %q", rawURL)
	}

	cfg := &qdrant.Config{
		Host:                   u.Hostname(),
		Port:                   grpcPort,
		APIKey:                 apiKey,
		UseTLS:                 u.Scheme == "https",
		SkipCompatibilityCheck: true,
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port in %q: %w", rawURL, err)
		}
		cfg.Port = port
	}
	return cfg, nil
}

func (s *Store) Name() string {
	return backendName
}

func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dims)
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return unavailable("collection exists", err)
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return unavailable("get collection", err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && size != uint64(dims) {
			return fmt.Errorf("collection %s has dimension %d, encoder produces %d", s.collection, size, dims)
		}
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return unavailable("create collection", err)
	}

	indexes := []struct {
		field string
		kind  qdrant.FieldType
	}{
		{"chat_id", qdrant.FieldType_FieldTypeKeyword},
		{"seq", qdrant.FieldType_FieldTypeInteger},
		{"is_bot", qdrant.FieldType_FieldTypeBool},
	}
	for _, idx := range indexes {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      idx.field,
			FieldType:      qdrant.PtrOf(idx.kind),
		})
		if err != nil {
			return unavailable("create payload index", err)
		}
	}

	log.FromCtx(ctx).Info().Str("collection", s.collection).Int("dims", dims).Msg("qdrant collection created")
	return nil
}

func (s *Store) Upsert(ctx context.Context, key string, rec core.Record, vector []float32) error {
	payload, err := qdrant.TryValueMap(map[string]any{
		"chat_id":      rec.ConversationID,
		"chat_title":   rec.ConversationTitle,
		"chat_type":    rec.ConversationType,
		"user_id":      rec.AuthorID,
		"user_name":    rec.AuthorName,
		"is_bot":       rec.AuthorIsBot,
		"text":         rec.Text,
		"timestamp":    rec.Timestamp,
		"date":         rec.Date(),
		"message_id":   rec.MessageID,
		"message_type": rec.MessageType(),
		"key":          key,
		"seq":          s.nextSeq(),
	})
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", key, err)
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(PointID(key)),
			Vectors: qdrant.NewVectorsDense(vector),
			Payload: payload,
		}},
	})
	if err != nil {
		return unavailable("upsert", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, conversationID string, vector []float32, k int) ([]core.ScoredRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vector),
		Filter:         conversationFilter(conversationID),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, unavailable("query", err)
	}

	result := make([]core.ScoredRecord, 0, len(points))
	for _, p := range points {
		result = append(result, core.ScoredRecord{
			StoredRecord: stored(p.GetPayload()),
			Similarity:   clampSimilarity(float64(p.GetScore())),
		})
	}
	return result, nil
}

// Recent returns up to limit newest points of a conversation, oldest first.
func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]core.StoredRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         conversationFilter(conversationID),
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		OrderBy: &qdrant.OrderBy{
			Key:       "seq",
			Direction: qdrant.PtrOf(qdrant.Direction_Desc),
		},
	})
	if err != nil {
		return nil, unavailable("scroll", err)
	}

	result := make([]core.StoredRecord, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		result = append(result, stored(points[i].GetPayload()))
	}
	return result, nil
}

func (s *Store) Coverage(ctx context.Context, conversationID string) (core.Coverage, error) {
	total, err := s.count(ctx, conversationFilter(conversationID))
	if err != nil {
		return core.Coverage{}, err
	}

	botFilter := conversationFilter(conversationID)
	botFilter.Must = append(botFilter.Must, qdrant.NewMatchBool("is_bot", true))
	bot, err := s.count(ctx, botFilter)
	if err != nil {
		return core.Coverage{}, err
	}

	return core.Coverage{Total: total, Bot: bot, User: total - bot}, nil
}

func (s *Store) Stats(ctx context.Context) (core.StoreStats, error) {
	total, err := s.count(ctx, nil)
	if err != nil {
		return core.StoreStats{}, err
	}

	hits, err := s.client.Facet(ctx, &qdrant.FacetCounts{
		CollectionName: s.collection,
		Key:            "chat_id",
		Limit:          qdrant.PtrOf(uint64(facetLimit)),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		// facets need Qdrant 1.12+
		log.FromCtx(ctx).Debug().Err(err).Msg("qdrant facet unavailable")
		return core.StoreStats{Records: total}, nil
	}

	return core.StoreStats{Records: total, Conversations: len(hits)}, nil
}

func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return unavailable("health check", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) count(ctx context.Context, filter *qdrant.Filter) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, unavailable("count", err)
	}
	return int(n), nil
}

// nextSeq is a strictly increasing, restart-safe sequence.
func (s *Store) nextSeq() int64 {
	for {
		now := time.Now().UnixNano()
		last := s.lastSeq.Load()
		if now <= last {
			now = last + 1
		}
		if s.lastSeq.CompareAndSwap(last, now) {
			return now
		}
	}
}

// PointID maps a record key to the UUID Qdrant stores it under.
func PointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func stored(p map[string]*qdrant.Value) core.StoredRecord {
	return core.StoredRecord{
		Record: core.Record{
			ConversationID:    p["chat_id"].GetStringValue(),
			ConversationTitle: p["chat_title"].GetStringValue(),
			ConversationType:  p["chat_type"].GetStringValue(),
			AuthorID:          p["user_id"].GetStringValue(),
			AuthorName:        p["user_name"].GetStringValue(),
			AuthorIsBot:       p["is_bot"].GetBoolValue(),
			Text:              p["text"].GetStringValue(),
			Timestamp:         p["timestamp"].GetStringValue(),
			MessageID:         p["message_id"].GetStringValue(),
		},
		Key: p["key"].GetStringValue(),
		Seq: p["seq"].GetIntegerValue(),
	}
}

func conversationFilter(conversationID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeyword("chat_id", conversationID)},
	}
}

func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: qdrant %s: %w", core.ErrStoreUnavailable, op, err)
}
