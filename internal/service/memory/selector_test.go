package memory

import (
	"strings"
	"testing"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/stretchr/testify/assert"
)

func candidate(key string, bot bool, text, ts string, weighted float64) core.RankedCandidate {
	return core.RankedCandidate{
		StoredRecord: core.StoredRecord{
			Record: core.Record{
				ConversationID: "c1",
				AuthorName:     "alice",
				AuthorIsBot:    bot,
				Text:           text,
				Timestamp:      ts,
			},
			Key: key,
		},
		Similarity:         weighted,
		WeightedSimilarity: weighted,
	}
}

func TestCharEstimator(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		text  string
		want  int
	}{
		{name: "empty", ratio: 4, text: "", want: 0},
		{name: "exact multiple", ratio: 4, text: "abcdefgh", want: 2},
		{name: "rounds up", ratio: 4, text: "abcde", want: 2},
		{name: "counts runes not bytes", ratio: 4, text: "привет", want: 2},
		{name: "zero ratio falls back to four", ratio: 0, text: "abcd", want: 1},
		{name: "custom ratio", ratio: 2.5, text: "abcdef", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CharEstimator{CharsPerToken: tt.ratio}.Estimate(tt.text))
		})
	}
}

func TestSelect_Empty(t *testing.T) {
	got, budget := Select(nil, 100, CharEstimator{CharsPerToken: 4})
	assert.Empty(t, got)
	assert.Equal(t, 0, budget.UsedTokens)
	assert.Equal(t, 100, budget.MaxTokens)
}

func TestSelect_FirstCandidateTooLarge(t *testing.T) {
	c := candidate("big", false, strings.Repeat("x", 100), "2024-01-01 10:00:00", 0.9)

	got, budget := Select([]core.RankedCandidate{c}, 10, CharEstimator{CharsPerToken: 4})
	assert.Empty(t, got)
	assert.Equal(t, 0, budget.UsedTokens)
}

func TestSelect_StopsAtFirstRejection(t *testing.T) {
	est := CharEstimator{CharsPerToken: 4}
	small := candidate("small", false, "hi", "2024-01-01 10:00:00", 0.9)
	big := candidate("big", false, strings.Repeat("x", 400), "2024-01-01 10:01:00", 0.8)
	tiny := candidate("tiny", false, "ok", "2024-01-01 10:02:00", 0.7)

	limit := est.Estimate(FormatTranscriptLine(small.Record)) + est.Estimate(FormatTranscriptLine(tiny.Record))

	got, budget := Select([]core.RankedCandidate{small, big, tiny}, limit, est)
	assert.Equal(t, []string{"small"}, keys(got))

	// budget property: the rejected candidate would not have fit
	used := est.Estimate(FormatTranscriptLine(small.Record))
	assert.Equal(t, used, budget.UsedTokens)
	assert.LessOrEqual(t, budget.UsedTokens, limit)
	assert.Greater(t, used+est.Estimate(FormatTranscriptLine(big.Record)), limit)
}

func TestSelect_ChronologicalOutput(t *testing.T) {
	in := []core.RankedCandidate{
		candidate("c", true, "third", "2024-01-01 10:02:00", 0.9),
		candidate("a", false, "first", "2024-01-01 10:00:00", 0.8),
		candidate("b", false, "second", "2024-01-01 10:01:00", 0.7),
	}

	got, budget := Select(in, 1000, CharEstimator{CharsPerToken: 4})
	assert.Equal(t, []string{"a", "b", "c"}, keys(got))
	assert.Equal(t, 1, budget.BotSelected)
	assert.Equal(t, 2, budget.UserSelected)

	// input order is untouched
	assert.Equal(t, "c", in[0].Key)
}

func TestSelect_BudgetNeverExceeded(t *testing.T) {
	est := CharEstimator{CharsPerToken: 4}
	var in []core.RankedCandidate
	for i := 0; i < 30; i++ {
		in = append(in, candidate(string(rune('a'+i%26)), i%3 == 0, strings.Repeat("w", 10+i*7), "2024-01-01 10:00:00", 1-float64(i)/100))
	}

	for _, limit := range []int{1, 17, 50, 120, 333, 5000} {
		got, budget := Select(in, limit, est)
		sum := 0
		for _, c := range got {
			sum += est.Estimate(FormatTranscriptLine(c.Record))
		}
		assert.Equal(t, sum, budget.UsedTokens)
		assert.LessOrEqual(t, sum, limit)

		if n := len(got); n < len(in) {
			next := est.Estimate(FormatTranscriptLine(in[n].Record))
			assert.Greater(t, sum+next, limit)
		}
	}
}

func TestTiktokenEstimator(t *testing.T) {
	n := TiktokenEstimator{}.Estimate("hello world")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 5)
}
