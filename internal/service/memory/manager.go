package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/providers/rag"
	"github.com/sandevgo/teleai/pkg/log"
	"github.com/sandevgo/teleai/pkg/retry"
)

const dimensionSample = "dimension sample"

// Stats is an operator view of the context subsystem.
type Stats struct {
	RecordCount       int
	ConversationCount int
	StoreEnabled      bool
	State             ConnState
	Backend           string
	EmbeddingMode     string
	FlatConversations int
	FlatLines         int
	FlatBytes         int64
}

// Manager stores every turn in the flat log and the vector store and
// builds the history injected into prompts.
type Manager struct {
	ctxCfg    *config.ContextConfig
	storeCfg  *config.StoreConfig
	store     core.VectorStore
	encoder   core.Encoder
	flat      core.FlatLog
	ranker    *Ranker
	estimator TokenEstimator
	timeout   time.Duration

	state      atomic.Int32
	connecting atomic.Bool
	lastErr    atomic.Value // string
}

func NewManager(
	ctxCfg *config.ContextConfig,
	storeCfg *config.StoreConfig,
	store core.VectorStore,
	encoder core.Encoder,
	flat core.FlatLog,
) *Manager {
	timeout := storeCfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{
		timeout:   timeout,
		ctxCfg:    ctxCfg,
		storeCfg:  storeCfg,
		store:     store,
		encoder:   encoder,
		flat:      flat,
		ranker:    NewRanker(NewRankerConfig(ctxCfg, storeCfg), store, encoder),
		estimator: NewEstimator(ctxCfg),
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if err := m.Connect(ctx); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("running on flat history only")
	}
	return nil
}

func (m *Manager) Shutdown(ctx context.Context) error {
	m.setState(StateDisconnected)
	return m.store.Close()
}

// Connect moves the store through CONNECTING to CONNECTED, retrying with a
// fixed delay. On failure the store stays DISCONNECTED until ResetConnection.
func (m *Manager) Connect(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "context_manager").Logger()

	if !m.ctxCfg.SearchEnabled {
		m.setState(StateDisconnected)
		logger.Info().Msg("semantic search disabled, using flat history")
		return nil
	}

	if !m.connecting.CompareAndSwap(false, true) {
		logger.Debug().Msg("connect already in progress")
		return nil
	}
	defer m.connecting.Store(false)

	if m.encoder.Mode() != rag.ModeSemantic {
		logger.Warn().Str("mode", m.encoder.Mode()).Msg("embeddings are not semantic, retrieval quality is degraded")
	}

	m.setState(StateConnecting)
	retrier := retry.NewRetrier(retry.NewFixedConfig(m.storeCfg.ConnectRetries, m.storeCfg.ConnectDelay))

	attempt := 0
	err := retrier.Do(ctx, func() error {
		attempt++
		err := m.tryConnect(ctx)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("backend", m.store.Name()).Msg("vector store connect failed")
		}
		return err
	})
	if err != nil {
		m.setState(StateDisconnected)
		m.lastErr.Store(err.Error())
		return asKind(core.ErrStoreUnavailable, err)
	}

	m.lastErr.Store("")
	m.setState(StateConnected)
	logger.Info().Str("backend", m.store.Name()).Int("attempts", attempt).Msg("vector store connected")
	return nil
}

func (m *Manager) tryConnect(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.store.Health(hctx)
	cancel()
	if err != nil {
		return err
	}

	dims := m.encoder.Dims()
	if dims <= 0 {
		vec, err := m.encoder.EncodeQuery(ctx, dimensionSample)
		if err != nil {
			return fmt.Errorf("detect embedding dimension: %w", err)
		}
		dims = len(vec)
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.store.EnsureCollection(cctx, dims); err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			return err
		}
		// a dimension mismatch does not heal by waiting
		return retry.Permanent(err)
	}
	return nil
}

// ResetConnection re-enters CONNECTING from any state.
func (m *Manager) ResetConnection(ctx context.Context) error {
	if m.connecting.Load() {
		return nil
	}
	log.FromCtx(ctx).Info().Str("from", m.State().String()).Msg("resetting vector store connection")
	m.setState(StateDisconnected)
	return m.Connect(ctx)
}

// MarkUnavailable drops a connected store to DISCONNECTED.
func (m *Manager) MarkUnavailable(ctx context.Context, cause error) {
	if m.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected)) {
		if cause != nil {
			m.lastErr.Store(cause.Error())
		}
		log.FromCtx(ctx).Error().Err(cause).Str("backend", m.store.Name()).Msg("vector store marked unavailable")
	}
}

func (m *Manager) State() ConnState {
	return ConnState(m.state.Load())
}

func (m *Manager) setState(s ConnState) {
	m.state.Store(int32(s))
}

// IsAvailable reports whether semantic retrieval can be served.
func (m *Manager) IsAvailable() bool {
	return m.ctxCfg.SearchEnabled && m.State() == StateConnected
}

// IsReady is IsAvailable under its lifecycle name.
func (m *Manager) IsReady() bool {
	return m.IsAvailable()
}

// LastError is the message of the most recent connect or health failure.
func (m *Manager) LastError() string {
	s, _ := m.lastErr.Load().(string)
	return s
}

// Store persists a turn. Empty text is ignored. Failures of either write
// are logged and never affect the other write.
func (m *Manager) Store(ctx context.Context, rec core.Record) {
	if rec.IsEmpty() {
		return
	}
	logger := log.FromCtx(ctx).With().Str("conversation", rec.ConversationID).Logger()

	if err := m.flat.Append(ctx, rec.ConversationID, FormatFlatLine(rec)); err != nil {
		logger.Warn().Err(err).Msg("failed to append flat history")
	}

	if !m.IsAvailable() {
		return
	}

	vec, err := m.encoder.EncodePassage(ctx, rec.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to embed record")
		return
	}

	uctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	key := rec.Key(time.Now().UnixNano())
	if err := m.store.Upsert(uctx, key, rec, vec); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to upsert record")
		return
	}
	logger.Debug().Str("key", key).Bool("bot", rec.AuthorIsBot).Msg("record stored")
}

// RetrieveRelevantContext returns the selected history as a transcript, or
// an empty string when nothing qualifies or the store is not connected.
func (m *Manager) RetrieveRelevantContext(ctx context.Context, conversationID, question string) string {
	history, err := m.SearchContext(ctx, conversationID, question)
	if err != nil && !errors.Is(err, core.ErrNotConnected) {
		logger := log.FromCtx(ctx).With().Str("conversation", conversationID).Logger()
		if errors.Is(err, core.ErrEmbedding) {
			logger.Warn().Err(err).Msg("embedding failed, continuing without history")
		} else {
			logger.Warn().Err(err).Msg("vector store failed, continuing without history")
		}
	}
	return history
}

// SearchContext is RetrieveRelevantContext with the failure reported. The
// error is ErrNotConnected, ErrEmbedding or ErrStoreUnavailable.
func (m *Manager) SearchContext(ctx context.Context, conversationID, question string) (string, error) {
	if !m.IsAvailable() {
		return "", fmt.Errorf("%w: state %s", core.ErrNotConnected, m.State())
	}

	candidates, err := m.ranker.Rank(ctx, conversationID, question)
	if err != nil {
		return "", err
	}

	selected, budget := Select(candidates, m.ctxCfg.MaxTokens, m.estimator)
	log.FromCtx(ctx).Debug().
		Str("conversation", conversationID).
		Int("candidates", len(candidates)).
		Int("selected", len(selected)).
		Int("tokens", budget.UsedTokens).
		Int("max_tokens", budget.MaxTokens).
		Int("bot", budget.BotSelected).
		Int("user", budget.UserSelected).
		Msg("context selected")

	return FormatTranscript(selected), nil
}

func (m *Manager) GetContextForQuestion(ctx context.Context, conversationID, question string) string {
	return m.RetrieveRelevantContext(ctx, conversationID, question)
}

// RetrieveFlatContext returns the flat log of a conversation verbatim.
func (m *Manager) RetrieveFlatContext(ctx context.Context, conversationID string) string {
	lines, err := m.flat.Tail(ctx, conversationID, m.ctxCfg.MaxLines)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("conversation", conversationID).Msg("failed to read flat history")
		return ""
	}
	return strings.Join(lines, "\n")
}

func (m *Manager) Stats(ctx context.Context) Stats {
	logger := log.FromCtx(ctx)
	st := Stats{
		StoreEnabled:  m.ctxCfg.SearchEnabled,
		State:         m.State(),
		Backend:       m.store.Name(),
		EmbeddingMode: m.encoder.Mode(),
	}

	if m.IsAvailable() {
		sctx, cancel := context.WithTimeout(ctx, m.timeout)
		ss, err := m.store.Stats(sctx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read store stats")
		} else {
			st.RecordCount = ss.Records
			st.ConversationCount = ss.Conversations
		}
	}

	if fs, err := m.flat.Stats(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to read flat history stats")
	} else {
		st.FlatConversations = fs.Conversations
		st.FlatLines = fs.Lines
		st.FlatBytes = fs.Bytes
	}
	return st
}
