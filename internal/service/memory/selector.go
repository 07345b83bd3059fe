package memory

import (
	"sort"

	"github.com/sandevgo/teleai/internal/core"
)

// Budget reports how a selection used the token allowance.
type Budget struct {
	UsedTokens   int
	MaxTokens    int
	BotSelected  int
	UserSelected int
}

// Select walks candidates in priority order and keeps whole records while
// they fit into maxTokens. It stops at the first record that does not fit,
// so a cheaper lower-priority record never jumps the queue. The result is
// in chronological order.
func Select(candidates []core.RankedCandidate, maxTokens int, est TokenEstimator) ([]core.RankedCandidate, Budget) {
	budget := Budget{MaxTokens: maxTokens}
	if len(candidates) == 0 || maxTokens <= 0 {
		return nil, budget
	}

	var selected []core.RankedCandidate
	for _, c := range candidates {
		cost := est.Estimate(FormatTranscriptLine(c.Record))
		if budget.UsedTokens+cost > maxTokens {
			break
		}
		budget.UsedTokens += cost
		if c.AuthorIsBot {
			budget.BotSelected++
		} else {
			budget.UserSelected++
		}
		selected = append(selected, c)
	}

	sortChronological(selected)
	return selected, budget
}

func sortChronological(c []core.RankedCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Timestamp != c[j].Timestamp {
			return c[i].Timestamp < c[j].Timestamp
		}
		return c[i].Seq < c[j].Seq
	})
}
