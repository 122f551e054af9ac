// Package score implements the local keyword scorer and the context resolver.
// Both are pure functions of their inputs.
package score

import (
	"math"
	"sort"

	"github.com/ppiankov/indxflow/internal/keywords"
	"github.com/ppiankov/indxflow/internal/model"
)

// Lexicon is the read-only keyword view the scorer needs
type Lexicon interface {
	// Types returns the context types with keywords, in canonical order
	Types() []model.ContextType

	// Match returns the first keyword entry of ctxType matching a stem
	Match(ctxType model.ContextType, token string) (keywords.Entry, bool)
}

// Scores maps each context type to its normalized 0-100 score
type Scores map[model.ContextType]int

// Ranked is one context type with its score
type Ranked struct {
	Type  model.ContextType
	Score int
}

// Scorer accumulates keyword weights per context
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score matches every token against every context's keywords and normalizes
// the accumulated weights to percentages of the total.
// At most one entry contributes per token per context: the first match wins.
// When nothing matches, every score is 0.
func (s *Scorer) Score(tokens []string, lex Lexicon) Scores {
	types := lex.Types()
	raw := make(map[model.ContextType]float64, len(types))
	totalWeight := 0.0

	for _, token := range tokens {
		for _, ctxType := range types {
			if entry, ok := lex.Match(ctxType, token); ok {
				raw[ctxType] += entry.Weight
				totalWeight += entry.Weight
			}
		}
	}

	scores := make(Scores, len(types))
	for _, ctxType := range types {
		scores[ctxType] = 0
	}
	if totalWeight == 0 {
		return scores
	}

	exact := make(map[model.ContextType]float64, len(types))
	for _, ctxType := range types {
		exact[ctxType] = raw[ctxType] / totalWeight * 100
		scores[ctxType] = int(math.Round(exact[ctxType]))
	}
	trimRoundingExcess(scores, exact, types)

	return scores
}

// trimRoundingExcess keeps the rounded total at or below 100 by taking a point
// back from the contexts that gained the most from rounding up.
func trimRoundingExcess(scores Scores, exact map[model.ContextType]float64, types []model.ContextType) {
	for scores.Sum() > 100 {
		var pick model.ContextType
		best := 0.0
		for _, ctxType := range types {
			gain := float64(scores[ctxType]) - exact[ctxType]
			if gain > best {
				best = gain
				pick = ctxType
			}
		}
		if pick == "" {
			return
		}
		scores[pick]--
		exact[pick] = float64(scores[pick]) // consumed; do not pick again
	}
}

// Sum returns the total of all scores
func (s Scores) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Ranked returns the non-zero scores sorted descending.
// Equal scores are ordered by the canonical context type order.
func (s Scores) Ranked() []Ranked {
	ranked := make([]Ranked, 0, len(s))
	for ctxType, score := range s {
		if score > 0 {
			ranked = append(ranked, Ranked{Type: ctxType, Score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Type.Rank() < ranked[j].Type.Rank()
	})
	return ranked
}
