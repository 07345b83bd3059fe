package rag

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const encodingName = "cl100k_base"

var (
	bpeMu sync.Mutex
	bpe   *tiktoken.Tiktoken

	loadEncoding = func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding(encodingName)
	}
)

func init() {
	// ranks ship inside the binary, no download on first use
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Chunk is a piece of a message small enough for the embedding model.
type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig fits models with a 512 token window.
func DefaultChunkerConfig() ChunkerConfig {
	return chunkerForWindow(512)
}

// ChunkerConfigFor sizes chunks for the context window of a known
// embedding model family.
func ChunkerConfigFor(model string) ChunkerConfig {
	name := strings.ToLower(model)
	switch {
	case strings.Contains(name, "minilm"):
		return chunkerForWindow(256)
	case strings.Contains(name, "nomic-embed"), strings.Contains(name, "text-embedding-3"):
		return chunkerForWindow(2048)
	default:
		return DefaultChunkerConfig()
	}
}

// chunkerForWindow leaves a fifth of the window for special tokens and prefixes.
func chunkerForWindow(window int) ChunkerConfig {
	limit := window * 4 / 5
	return ChunkerConfig{MaxTokens: limit, OverlapTokens: limit / 8}
}

// ChunkText packs whole sentences into chunks of at most MaxTokens.
// A sentence that alone exceeds the limit is cut on token boundaries.
// Consecutive chunks repeat trailing sentences worth OverlapTokens.
func ChunkText(text string, cfg ChunkerConfig) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	enc, err := tokenizer()
	if err != nil {
		return nil, err
	}

	sentences := splitSentences(text)
	b := &chunkBuilder{}

	for i, sentence := range sentences {
		size := countTokens(enc, sentence)

		if size > cfg.MaxTokens {
			b.flush()
			for _, piece := range sliceTokens(enc, sentence, cfg.MaxTokens) {
				b.emit(piece.Text, piece.TokenSize)
			}
			continue
		}

		if b.tokens+size > cfg.MaxTokens && b.buf.Len() > 0 {
			b.flush()
			overlap := overlapTail(enc, sentences[:i], cfg.OverlapTokens)
			b.buf.WriteString(overlap)
			b.tokens = countTokens(enc, overlap)
		}

		b.add(sentence, size)
	}
	b.flush()

	return b.chunks, nil
}

type chunkBuilder struct {
	chunks []Chunk
	buf    strings.Builder
	tokens int
}

func (b *chunkBuilder) add(sentence string, size int) {
	if b.buf.Len() > 0 {
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(sentence)
	b.tokens += size
}

func (b *chunkBuilder) emit(text string, size int) {
	b.chunks = append(b.chunks, Chunk{
		Text:      strings.TrimSpace(text),
		TokenSize: size,
		Index:     len(b.chunks),
	})
}

func (b *chunkBuilder) flush() {
	if b.buf.Len() > 0 {
		b.emit(b.buf.String(), b.tokens)
	}
	b.buf.Reset()
	b.tokens = 0
}

// sliceTokens cuts text into pieces of at most limit tokens.
func sliceTokens(enc *tiktoken.Tiktoken, text string, limit int) []Chunk {
	ids := enc.Encode(text, nil, nil)

	var pieces []Chunk
	for start := 0; start < len(ids); start += limit {
		end := min(start+limit, len(ids))
		pieces = append(pieces, Chunk{
			Text:      enc.Decode(ids[start:end]),
			TokenSize: end - start,
		})
	}
	return pieces
}

// overlapTail returns the shortest suffix of sentences holding at least
// target tokens.
func overlapTail(enc *tiktoken.Tiktoken, sentences []string, target int) string {
	var tail []string
	tokens := 0
	for i := len(sentences) - 1; i >= 0 && tokens < target; i-- {
		tail = append([]string{sentences[i]}, tail...)
		tokens += countTokens(enc, sentences[i])
	}
	return strings.Join(tail, " ")
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true, '…': true,
	'。': true, '！': true, '？': true, '．': true,
}

// splitSentences splits on terminal punctuation followed by a space, the
// end of the paragraph or a CJK character. Blank lines separate paragraphs.
func splitSentences(text string) []string {
	var sentences []string

	for _, para := range splitParagraphs(text) {
		runes := []rune(para)
		start := 0
		for i, r := range runes {
			if !sentenceEnders[r] {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) && !isCJK(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// splitParagraphs joins soft-wrapped lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// tokenizer loads the encoding on first use. A failed load is not
// remembered, the next call tries again.
func tokenizer() (*tiktoken.Tiktoken, error) {
	bpeMu.Lock()
	defer bpeMu.Unlock()

	if bpe != nil {
		return bpe, nil
	}
	enc, err := loadEncoding()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", encodingName, err)
	}
	bpe = enc
	return bpe, nil
}

func countTokens(enc *tiktoken.Tiktoken, text string) int {
	if text == "" {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// CountTokens reports the cl100k_base token count of text.
func CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := tokenizer()
	if err != nil {
		return 0, err
	}
	return countTokens(enc, text), nil
}
