package classify

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/indxflow/internal/model"
)

// Fusion policy
const (
	// Model preferred outright when it beats local confidence by more than this
	aiPreferredMargin = 20

	// Agreement on the primary type adds coherenceBonus to the result and
	// contextCoherenceBonus to each context both sides found
	coherenceBonus        = 10
	contextCoherenceBonus = 5

	// Consensus fusion when the confidences are closer than this
	consensusMaxGap = 15

	// Local contexts enrich a model result from this confidence, at a reduced weight
	enrichMinConfidence = 35
	enrichWeightRatio   = 0.7
	enrichMaxWeight     = 0.5
	enrichMaxContexts   = 5

	// Local-only contexts joining a coherent merge
	complementMinConfidence = 50
	mergeMaxContexts        = 4

	// Local-only contexts joining a consensus fusion
	fuseLocalMinConfidence = 40
	fuseMaxContexts        = 4

	// Local contexts kept on the alternative when the model is preferred
	alternativeContexts = 2
)

// Fuse reconciles a local and a model result for the same text.
// Strategies are checked in priority order and the first match wins.
func Fuse(local, ai model.ClassificationResult) model.ClassificationResult {
	switch {
	case ai.Confidence > local.Confidence+aiPreferredMargin:
		return preferAI(local, ai)
	case local.PrimaryType == ai.PrimaryType:
		return coherentBoost(local, ai)
	case abs(local.Confidence-ai.Confidence) < consensusMaxGap:
		return consensus(local, ai)
	default:
		return enrichAI(local, ai)
	}
}

// preferAI keeps the model answer and its local counterpart as an alternative
func preferAI(local, ai model.ClassificationResult) model.ClassificationResult {
	result := baseFrom(ai, model.StrategyAIPreferred)
	result.DetectedContexts = enrich(ai.DetectedContexts, local.DetectedContexts, model.StrategyAIPreferred)

	contexts := local.DetectedContexts
	if len(contexts) > alternativeContexts {
		contexts = contexts[:alternativeContexts]
	}
	result.LocalAlternative = alternative(local, contexts)
	return result
}

// coherentBoost raises the confidence of a model answer the local analysis confirms
func coherentBoost(local, ai model.ClassificationResult) model.ClassificationResult {
	result := baseFrom(ai, model.StrategyCoherentBoost)
	result.Confidence = min(100, ai.Confidence+coherenceBonus)
	result.Reasoning = ai.Reasoning + " (confirmed by local analysis)"
	result.DetectedContexts = mergeCoherent(local.DetectedContexts, ai.DetectedContexts)
	return result
}

// consensus builds a new hybrid answer when both sides are about as confident
func consensus(local, ai model.ClassificationResult) model.ClassificationResult {
	contexts := fuseContexts(local.DetectedContexts, ai.DetectedContexts, ai.PrimaryType)

	cols := ai.SuggestedStructure
	if len(cols) == 0 {
		cols = local.SuggestedStructure
	}

	return model.ClassificationResult{
		PrimaryType:        ai.PrimaryType,
		Confidence:         int(math.Round(float64(local.Confidence+ai.Confidence) / 2)),
		Reasoning:          fmt.Sprintf("Hybrid fusion: %d contexts detected", len(contexts)),
		IsHybrid:           true,
		SecondaryType:      local.PrimaryType,
		DetectedContexts:   contexts,
		SuggestedStructure: append([]string(nil), cols...),
		Method:             model.MethodHybrid,
		Strategy:           model.StrategyConsensus,
		Language:           local.Language,
	}
}

// enrichAI keeps the model answer, completed with relevant local contexts
func enrichAI(local, ai model.ClassificationResult) model.ClassificationResult {
	result := baseFrom(ai, model.StrategyAIWithLocalEnrichment)
	result.Reasoning = ai.Reasoning + " (enriched with local contexts)"
	result.DetectedContexts = enrich(ai.DetectedContexts, local.DetectedContexts, model.StrategyAIWithLocalEnrichment)
	result.LocalAlternative = alternative(local, local.DetectedContexts)
	return result
}

// baseFrom copies a model result as the starting point of a strategy
func baseFrom(ai model.ClassificationResult, strategy model.Strategy) model.ClassificationResult {
	result := ai
	result.DetectedContexts = model.CloneContexts(ai.DetectedContexts)
	result.SuggestedStructure = append([]string(nil), ai.SuggestedStructure...)
	result.Method = model.MethodHybrid
	result.Strategy = strategy
	result.LocalAlternative = nil
	result.Debug = nil
	return result
}

func alternative(local model.ClassificationResult, contexts []model.DetectedContext) *model.LocalAlternative {
	return &model.LocalAlternative{
		Type:       local.PrimaryType,
		Confidence: local.Confidence,
		Contexts:   model.CloneContexts(contexts),
	}
}

// enrich appends the extra contexts not already present, at reduced weight
func enrich(base, extra []model.DetectedContext, strategy model.Strategy) []model.DetectedContext {
	out := model.CloneContexts(base)
	for _, c := range extra {
		if c.Confidence < enrichMinConfidence || hasType(out, c.Type) {
			continue
		}
		c.Priority = model.PriorityEnrichment
		c.Weight = round2(math.Min(c.Weight*enrichWeightRatio, enrichMaxWeight))
		c.Reasoning = fmt.Sprintf("%s (%s enrichment)", c.Reasoning, strategy)
		c.Source = model.SourceLocal
		out = append(out, c)
	}
	if len(out) > enrichMaxContexts {
		out = out[:enrichMaxContexts]
	}
	return out
}

// mergeCoherent combines the contexts both sides found and appends
// significant local-only ones
func mergeCoherent(local, ai []model.DetectedContext) []model.DetectedContext {
	merged := make([]model.DetectedContext, 0, len(ai)+len(local))
	for _, c := range ai {
		if l, ok := findType(local, c.Type); ok {
			c.Confidence = min(100, int(math.Round(float64(c.Confidence+l.Confidence)/2))+contextCoherenceBonus)
			c.Weight = math.Max(c.Weight, l.Weight)
			c.Reasoning += " (consistent with local analysis)"
			c.CoherenceBonus = true
			c.Sources = []model.Source{model.SourceAI, model.SourceLocal}
		} else {
			c.Sources = []model.Source{model.SourceAI}
		}
		merged = append(merged, c)
	}

	for _, c := range local {
		if c.Confidence < complementMinConfidence || hasType(merged, c.Type) {
			continue
		}
		c.Priority = model.PriorityLocalComplementary
		c.Sources = []model.Source{model.SourceLocal}
		merged = append(merged, c)
	}

	if len(merged) > mergeMaxContexts {
		merged = merged[:mergeMaxContexts]
	}
	return merged
}

// fuseContexts merges both lists by type, ranks them by confidence times
// weight and keeps the best, always including the primary.
func fuseContexts(local, ai []model.DetectedContext, primary model.ContextType) []model.DetectedContext {
	fused := make([]model.DetectedContext, 0, len(ai)+len(local))
	index := make(map[model.ContextType]int, len(ai)+len(local))

	for _, c := range ai {
		if _, dup := index[c.Type]; dup {
			continue
		}
		c.Source = model.SourceAI
		c.FusionScore = fusionScore(c)
		index[c.Type] = len(fused)
		fused = append(fused, c)
	}

	for _, l := range local {
		if i, ok := index[l.Type]; ok {
			existing := fused[i]
			existing.Confidence = int(math.Round(float64(existing.Confidence+l.Confidence) / 2))
			existing.Weight = math.Max(existing.Weight, l.Weight)
			existing.Reasoning += " + local analysis"
			existing.Source = model.SourceFused
			existing.FusionScore = math.Max(existing.FusionScore, fusionScore(l))
			fused[i] = existing
			continue
		}
		if l.Confidence < fuseLocalMinConfidence {
			continue
		}
		l.Source = model.SourceLocal
		l.Priority = model.PriorityComplementary
		l.FusionScore = fusionScore(l)
		index[l.Type] = len(fused)
		fused = append(fused, l)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].FusionScore != fused[j].FusionScore {
			return fused[i].FusionScore > fused[j].FusionScore
		}
		return fused[i].Type.Rank() < fused[j].Type.Rank()
	})

	if len(fused) > fuseMaxContexts {
		kept := fused[:fuseMaxContexts]
		if !hasType(kept, primary) {
			if p, ok := findType(fused, primary); ok {
				kept[fuseMaxContexts-1] = p
			}
		}
		fused = kept
	}
	return fused
}

func fusionScore(c model.DetectedContext) float64 {
	return round2(float64(c.Confidence) * c.Weight)
}

func findType(contexts []model.DetectedContext, t model.ContextType) (model.DetectedContext, bool) {
	for _, c := range contexts {
		if c.Type == t {
			return c, true
		}
	}
	return model.DetectedContext{}, false
}

func hasType(contexts []model.DetectedContext, t model.ContextType) bool {
	_, ok := findType(contexts, t)
	return ok
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
