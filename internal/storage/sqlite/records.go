package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
	vecsqlite "github.com/sandevgo/teleai/pkg/sqlite"
)

const (
	backendName = "sqlite"
	metaDims    = "embedding_dims"
)

// RecordStore keeps records in a plain table and their embeddings in a
// vec0 virtual table partitioned by conversation.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Name() string {
	return backendName
}

// EnsureCollection creates the vector table for the given dimension.
// An existing table with another dimension is an error.
func (s *RecordStore) EnsureCollection(ctx context.Context, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dims)
	}

	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE name = ?`, metaDims).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return unavailable("read store meta", err)
	default:
		existing, convErr := strconv.Atoi(stored)
		if convErr == nil && existing != dims {
			return fmt.Errorf("vector table has dimension %d, encoder produces %d", existing, dims)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS records_vec USING vec0(
		conversation_id text partition key,
		embedding float[%d] distance_metric=cosine
	)`, dims)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return unavailable("create vector table", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO store_meta (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		metaDims, strconv.Itoa(dims))
	if err != nil {
		return unavailable("write store meta", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}

	log.FromCtx(ctx).Debug().Int("dims", dims).Msg("sqlite vector table ready")
	return nil
}

func (s *RecordStore) Upsert(ctx context.Context, key string, rec core.Record, vector []float32) error {
	blob, err := vecsqlite.SerializeVector(vector)
	if err != nil {
		return fmt.Errorf("failed to serialize vector: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO records (key, conversation_id, chat_title, chat_type, user_id, user_name, is_bot, text, timestamp, message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			user_name = excluded.user_name,
			is_bot = excluded.is_bot,
			text = excluded.text,
			timestamp = excluded.timestamp`
	_, err = tx.ExecContext(ctx, query,
		key, rec.ConversationID, rec.ConversationTitle, rec.ConversationType,
		rec.AuthorID, rec.AuthorName, rec.AuthorIsBot, rec.Text, rec.Timestamp, rec.MessageID)
	if err != nil {
		return unavailable("insert record", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM records WHERE key = ?`, key).Scan(&id); err != nil {
		return unavailable("lookup record id", err)
	}

	// vec0 has no upsert; the rowid is tied to records.id
	if _, err := tx.ExecContext(ctx, `DELETE FROM records_vec WHERE rowid = ?`, id); err != nil {
		return unavailable("delete old vector", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records_vec (rowid, conversation_id, embedding) VALUES (?, ?, ?)`,
		id, rec.ConversationID, blob)
	if err != nil {
		return unavailable("insert vector", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (s *RecordStore) Search(ctx context.Context, conversationID string, vector []float32, k int) ([]core.ScoredRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	blob, err := vecsqlite.SerializeVector(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}

	query := `WITH knn AS (
			SELECT rowid, distance FROM records_vec
			WHERE embedding MATCH ? AND k = ? AND conversation_id = ?
		)
		SELECT ` + recordColumns + `, knn.distance
		FROM knn JOIN records r ON r.id = knn.rowid
		ORDER BY knn.distance, r.id`

	rows, err := s.db.QueryContext(ctx, query, blob, k, conversationID)
	if err != nil {
		return nil, unavailable("search", err)
	}
	defer rows.Close()

	var result []core.ScoredRecord
	for rows.Next() {
		var rec core.StoredRecord
		var distance float64
		if err := rows.Scan(append(recordDest(&rec), &distance)...); err != nil {
			return nil, unavailable("scan search hit", err)
		}
		result = append(result, core.ScoredRecord{
			StoredRecord: rec,
			Similarity:   clampSimilarity(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search", err)
	}
	return result, nil
}

// Recent returns up to limit newest records of a conversation, oldest first.
func (s *RecordStore) Recent(ctx context.Context, conversationID string, limit int) ([]core.StoredRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT ` + recordColumns + ` FROM records r WHERE r.conversation_id = ? ORDER BY r.id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, unavailable("recent", err)
	}
	defer rows.Close()

	var result []core.StoredRecord
	for rows.Next() {
		var rec core.StoredRecord
		if err := rows.Scan(recordDest(&rec)...); err != nil {
			return nil, unavailable("scan record", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("recent", err)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (s *RecordStore) Coverage(ctx context.Context, conversationID string) (core.Coverage, error) {
	var c core.Coverage
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_bot), 0) FROM records WHERE conversation_id = ?`,
		conversationID).Scan(&c.Total, &c.Bot)
	if err != nil {
		return core.Coverage{}, unavailable("coverage", err)
	}
	c.User = c.Total - c.Bot
	return c, nil
}

func (s *RecordStore) Stats(ctx context.Context) (core.StoreStats, error) {
	var st core.StoreStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT conversation_id) FROM records`).Scan(&st.Records, &st.Conversations)
	if err != nil {
		return core.StoreStats{}, unavailable("stats", err)
	}
	return st, nil
}

func (s *RecordStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	var version string
	if err := s.db.QueryRowContext(ctx, `SELECT vec_version()`).Scan(&version); err != nil {
		return unavailable("vec extension", err)
	}
	return nil
}

func (s *RecordStore) Close() error {
	return s.db.Close()
}

const recordColumns = `r.id, r.key, r.conversation_id, r.chat_title, r.chat_type, r.user_id, r.user_name, r.is_bot, r.text, r.timestamp, r.message_id`

func recordDest(rec *core.StoredRecord) []any {
	return []any{
		&rec.Seq, &rec.Key, &rec.ConversationID, &rec.ConversationTitle, &rec.ConversationType,
		&rec.AuthorID, &rec.AuthorName, &rec.AuthorIsBot, &rec.Text, &rec.Timestamp, &rec.MessageID,
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
	return fmt.Errorf("%w: sqlite %s: %w", core.ErrStoreUnavailable, op, err)
}
