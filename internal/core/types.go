package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	AppName          = "TeleAI"
	AppUserAgent     = "TeleAI-Bot/0.2"
	AppRepositoryURL = "https://github.com/sandevgo/teleai"
	AppVersion       = "0.2.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TimestampLayout is the second-precision, lexicographically sortable
// format used for every stored turn.
const TimestampLayout = time.DateTime

// Message is a single chat-completion message exchanged with the AI backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat describes the Telegram conversation a record belongs to.
type Chat struct {
	ID    string
	Title string
	Type  string
}

func (c Chat) IsGroup() bool {
	return c.Type == "group" || c.Type == "supergroup"
}

// Record is one conversational turn. It is built once at the transport
// boundary and never mutated afterwards.
type Record struct {
	ConversationID    string `json:"chat_id"`
	ConversationTitle string `json:"chat_title,omitempty"`
	ConversationType  string `json:"chat_type,omitempty"`
	AuthorID          string `json:"user_id,omitempty"`
	AuthorName        string `json:"user_name"`
	AuthorIsBot       bool   `json:"is_bot"`
	Text              string `json:"text"`
	Timestamp         string `json:"timestamp"`
	MessageID         string `json:"message_id"`
}

func NewRecord(chat Chat, authorID, authorName string, isBot bool, text string, at time.Time, messageID string) Record {
	return Record{
		ConversationID:    chat.ID,
		ConversationTitle: chat.Title,
		ConversationType:  chat.Type,
		AuthorID:          authorID,
		AuthorName:        authorName,
		AuthorIsBot:       isBot,
		Text:              text,
		Timestamp:         at.Format(TimestampLayout),
		MessageID:         messageID,
	}
}

// IsEmpty reports whether the record carries no storable text.
func (r Record) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Key builds the storage key. The nonce is taken at insertion time so a
// retried message never collides with its earlier copy.
func (r Record) Key(nonce int64) string {
	return fmt.Sprintf("chat_%s_msg_%s_%d", r.ConversationID, r.MessageID, nonce)
}

// Date returns the YYYY-MM-DD part of the timestamp.
func (r Record) Date() string {
	if len(r.Timestamp) < 10 {
		return r.Timestamp
	}
	return r.Timestamp[:10]
}

func (r Record) MessageType() string {
	if r.AuthorIsBot {
		return "bot_response"
	}
	return "user_message"
}

// StoredRecord is a record read back from a vector store.
type StoredRecord struct {
	Record
	Key string
	// Seq grows with insertion order inside a store.
	Seq int64
}

// ScoredRecord is a search hit with cosine similarity in [0,1].
type ScoredRecord struct {
	StoredRecord
	Similarity float64
}

// RankedCandidate lives for the duration of one retrieval call.
type RankedCandidate struct {
	StoredRecord
	Similarity         float64
	WeightedSimilarity float64
}
