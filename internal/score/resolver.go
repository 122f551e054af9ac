package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/indxflow/internal/model"
)

// Classification policy. Changing any of these changes classification behavior.
const (
	// Primary confidence = min(100, primaryScore * confidenceMultiplier)
	confidenceMultiplier = 1.5

	// +lengthBonus above each token count threshold, cumulative
	lengthBonusTokens     = 10
	longLengthBonusTokens = 20
	lengthBonus           = 5

	// Primary scores below thinSignalScore lose thinSignalPenalty, floored at GenericConfidence
	thinSignalScore   = 10
	thinSignalPenalty = 20

	// GenericConfidence is the confidence of a result with no keyword signal
	GenericConfidence = 20

	// Hybrid when second >= hybridRatio * primary and second >= hybridMinScore
	hybridRatio    = 0.4
	hybridMinScore = 20

	// A non-primary context is kept when score >= max(secondaryMinScore, primary * secondaryMinRatio)
	secondaryMinScore = 15
	secondaryMinRatio = 0.3

	// Tiers by proportion of the primary score, each with a weight cap
	strongRatio     = 0.7
	strongWeightCap = 0.8
	mediumRatio     = 0.5
	mediumWeightCap = 0.6
	weakWeightCap   = 0.4

	// Non-primary weights summing above weightInflationLimit are rescaled by weightRescaleTarget / sum
	weightInflationLimit = 1.5
	weightRescaleTarget  = 1.2

	// Non-primary confidence = score * secondaryConfidenceBoost
	secondaryConfidenceBoost = 1.2
)

// Resolve turns raw scores into a local classification: primary type,
// confidence, hybrid flag and the ranked list of significant contexts.
func (s *Scorer) Resolve(scores Scores, tokenCount int) model.ClassificationResult {
	ranked := scores.Ranked()
	if len(ranked) == 0 {
		return GenericResult("no contextual keyword detected")
	}

	primary := ranked[0]
	confidence := primaryConfidence(primary.Score, tokenCount)

	var second Ranked
	if len(ranked) > 1 {
		second = ranked[1]
	}
	isHybrid := isHybridPair(primary.Score, second.Score)

	reasoning := fmt.Sprintf("Type %s detected with %d%% keyword match", primary.Type, primary.Score)
	result := model.ClassificationResult{
		PrimaryType:      primary.Type,
		Confidence:       confidence,
		IsHybrid:         isHybrid,
		DetectedContexts: extractContexts(ranked, confidence),
		Method:           model.MethodLocal,
	}
	if isHybrid {
		result.SecondaryType = second.Type
		reasoning += fmt.Sprintf(" (hybrid with %s: %d%%)", second.Type, second.Score)
	}
	result.Reasoning = reasoning

	return result
}

// GenericResult is the low-confidence answer for text without keyword signal
func GenericResult(reasoning string) model.ClassificationResult {
	return model.ClassificationResult{
		PrimaryType: model.ContextGeneric,
		Confidence:  GenericConfidence,
		Reasoning:   reasoning,
		DetectedContexts: []model.DetectedContext{{
			Type:       model.ContextGeneric,
			Confidence: GenericConfidence,
			Weight:     1.0,
			Reasoning:  reasoning,
			Priority:   model.PriorityPrimary,
		}},
		Method: model.MethodLocal,
	}
}

// primaryConfidence rewards longer inputs and penalizes thin keyword signal
func primaryConfidence(primaryScore, tokenCount int) int {
	confidence := math.Min(100, float64(primaryScore)*confidenceMultiplier)
	if tokenCount > lengthBonusTokens {
		confidence += lengthBonus
	}
	if tokenCount > longLengthBonusTokens {
		confidence += lengthBonus
	}
	if primaryScore < thinSignalScore {
		confidence = math.Max(GenericConfidence, confidence-thinSignalPenalty)
	}
	return clampConfidence(int(math.Round(confidence)))
}

// isHybridPair applies the relative and absolute floors for hybridity
func isHybridPair(primaryScore, secondScore int) bool {
	return float64(secondScore) >= float64(primaryScore)*hybridRatio && secondScore >= hybridMinScore
}

// extractContexts builds the primary context plus every secondary context
// crossing the significance threshold, tiered by proportion of the primary.
func extractContexts(ranked []Ranked, confidence int) []model.DetectedContext {
	primary := ranked[0]
	contexts := []model.DetectedContext{{
		Type:       primary.Type,
		Confidence: confidence,
		Weight:     1.0,
		Reasoning:  fmt.Sprintf("Dominant context with %d%% keyword match", primary.Score),
		Priority:   model.PriorityPrimary,
	}}

	primaryScore := float64(primary.Score)
	minThreshold := math.Max(secondaryMinScore, primaryScore*secondaryMinRatio)

	secondaryWeight := 0.0
	for _, r := range ranked[1:] {
		score := float64(r.Score)
		if score < minThreshold {
			continue
		}

		weight := score / primaryScore
		var priority model.Priority
		switch {
		case score >= primaryScore*strongRatio:
			priority = model.PriorityStrong
			weight = math.Min(strongWeightCap, weight)
		case score >= primaryScore*mediumRatio:
			priority = model.PriorityMedium
			weight = math.Min(mediumWeightCap, weight)
		default:
			priority = model.PriorityWeak
			weight = math.Min(weakWeightCap, weight)
		}
		weight = round2(weight)
		secondaryWeight += weight

		contexts = append(contexts, model.DetectedContext{
			Type:       r.Type,
			Confidence: clampConfidence(int(math.Round(score * secondaryConfidenceBoost))),
			Weight:     weight,
			Reasoning:  fmt.Sprintf("%s context with %d%% keyword match", priority, r.Score),
			Priority:   priority,
		})
	}

	if secondaryWeight > weightInflationLimit {
		factor := weightRescaleTarget / secondaryWeight
		for i := 1; i < len(contexts); i++ {
			contexts[i].Weight = round2(contexts[i].Weight * factor)
		}
	}

	return contexts
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
