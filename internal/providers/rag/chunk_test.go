package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/teleai/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkTexts(chunks []Chunk) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name string
		text string
		cfg  ChunkerConfig
		want []string
	}{
		{
			name: "empty message",
			text: "",
			cfg:  DefaultChunkerConfig(),
		},
		{
			name: "whitespace only",
			text: "   \n\t   ",
			cfg:  DefaultChunkerConfig(),
		},
		{
			name: "short message stays whole",
			text: "Hello world. How are you?",
			cfg:  ChunkerConfig{MaxTokens: 10},
			want: []string{"Hello world. How are you?"},
		},
		{
			name: "split on sentence boundary",
			text: "First sentence. Second sentence.",
			cfg:  ChunkerConfig{MaxTokens: 3},
			want: []string{"First sentence.", "Second sentence."},
		},
		{
			name: "previous sentence repeated as overlap",
			text: "Sentence one. Sentence two. Sentence three.",
			cfg:  ChunkerConfig{MaxTokens: 6, OverlapTokens: 3},
			want: []string{"Sentence one. Sentence two.", "Sentence two. Sentence three."},
		},
		{
			name: "oversized sentence cut on tokens",
			text: "One two three four five six.",
			cfg:  ChunkerConfig{MaxTokens: 3},
			want: []string{"One two three", "four five six", "."},
		},
		{
			name: "cyrillic",
			text: "Привет мир. Как твои дела?",
			cfg:  ChunkerConfig{MaxTokens: 10},
			want: []string{"Привет мир.", "Как твои дела?"},
		},
		{
			name: "cjk sentences",
			text: "你好世界。这是一个测试。",
			cfg:  ChunkerConfig{MaxTokens: 20},
			want: []string{"你好世界。 这是一个测试。"},
		},
		{
			name: "paragraphs are joined",
			text: "Para one.\n\nPara two.",
			cfg:  ChunkerConfig{MaxTokens: 10},
			want: []string{"Para one. Para two."},
		},
		{
			name: "abbreviations fit in one chunk",
			text: "Mr. Smith met Dr. Jones at the U.S.A. embassy.",
			cfg:  ChunkerConfig{MaxTokens: 50},
			want: []string{"Mr. Smith met Dr. Jones at the U.S.A. embassy."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ChunkText(tt.text, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, chunkTexts(chunks))
		})
	}
}

func TestChunkText_IndexesAndLimits(t *testing.T) {
	chunks, err := ChunkText("http://very.long.url/that/exceeds/max/tokens", ChunkerConfig{MaxTokens: 5})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.TokenSize, 5)
		assert.NotEmpty(t, c.Text)
	}
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Hello", 1},
		{"Hello world", 2},
		{"Hello, world!", 4},
		{"Привет", 3},
	}

	for _, tt := range tests {
		n, err := CountTokens(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n, tt.text)
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"Hello world.", "How are you?", "I am fine."},
		splitSentences("Hello world. How are you? I am fine."))

	assert.Equal(t, []string{"no terminal punctuation"}, splitSentences("no terminal\npunctuation"))
	assert.Equal(t, []string{"v1.2 is out."}, splitSentences("v1.2 is out."))
}

func TestChunkerConfigFor(t *testing.T) {
	assert.Equal(t, ChunkerConfig{MaxTokens: 204, OverlapTokens: 25}, ChunkerConfigFor("all-minilm"))
	assert.Equal(t, ChunkerConfig{MaxTokens: 1638, OverlapTokens: 204}, ChunkerConfigFor("nomic-embed-text"))
	assert.Equal(t, DefaultChunkerConfig(), ChunkerConfigFor("intfloat/multilingual-e5-base"))
	assert.Equal(t, ChunkerConfig{MaxTokens: 409, OverlapTokens: 51}, DefaultChunkerConfig())
}

// failEncodingLoads makes the next n encoding loads fail and drops the
// cached encoding, restoring both when the test ends.
func failEncodingLoads(t *testing.T, n int) *int {
	t.Helper()

	bpeMu.Lock()
	prevBPE, prevLoad := bpe, loadEncoding
	bpe = nil
	calls := 0
	loadEncoding = func() (*tiktoken.Tiktoken, error) {
		calls++
		if calls <= n {
			return nil, errors.New("dial tcp: lookup openaipublic.blob.core.windows.net: no such host")
		}
		return prevLoad()
	}
	bpeMu.Unlock()

	t.Cleanup(func() {
		bpeMu.Lock()
		bpe, loadEncoding = prevBPE, prevLoad
		bpeMu.Unlock()
	})
	return &calls
}

func TestChunkText_EncodingUnavailable(t *testing.T) {
	calls := failEncodingLoads(t, 2)

	_, err := ChunkText("Hello world.", DefaultChunkerConfig())
	require.Error(t, err)

	_, err = CountTokens("Hello world.")
	require.Error(t, err)

	// the failure is not cached
	chunks, err := ChunkText("Hello world.", DefaultChunkerConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello world."}, chunkTexts(chunks))
	assert.Equal(t, 3, *calls)

	_, err = CountTokens("again")
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestEmbedder_EncodingUnavailableIsEmbeddingError(t *testing.T) {
	failEncodingLoads(t, 1)

	e := NewEmbedder(NewHashEncoder(8))
	_, err := e.EncodePassage(context.Background(), "Hello world.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmbedding))

	vec, err := e.EncodePassage(context.Background(), "Hello world.")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
}

func TestTokenizer_Offline(t *testing.T) {
	failEncodingLoads(t, 0)

	enc, err := tokenizer()
	require.NoError(t, err)
	assert.NotNil(t, enc)
}
