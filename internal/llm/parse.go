package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/structure"
)

// Defaults applied to incomplete model replies
const (
	fallbackConfidence = 50
	contextConfidence  = 50
	contextWeight      = 0.5

	// Synthesized hybrid secondary when the reply lists no contexts
	hybridConfidenceRatio = 0.7
	hybridWeight          = 0.6
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// reply is the JSON the model is asked to produce.
// Pointers distinguish missing fields from zero values.
type reply struct {
	PrimaryType        string         `json:"primaryType"`
	Confidence         *float64       `json:"confidence"`
	Reasoning          string         `json:"reasoning"`
	IsHybrid           bool           `json:"isHybrid"`
	SecondaryType      *string        `json:"secondaryType"`
	DetectedContexts   []replyContext `json:"detectedContexts"`
	SuggestedStructure []string       `json:"suggestedStructure"`
}

type replyContext struct {
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence"`
	Weight     *float64 `json:"weight"`
	Reasoning  string   `json:"reasoning"`
	Priority   string   `json:"priority"`
}

// ParseResponse shapes raw model output into a result. It never fails:
// an unusable reply yields the generic fallback and a non-nil error
// describing why, for logging only.
func ParseResponse(raw string) (model.ClassificationResult, error) {
	r, err := decodeReply(raw)
	if err != nil {
		return FallbackResult(), err
	}

	primary, ok := model.ParseContextType(r.PrimaryType)
	if !ok {
		return FallbackResult(), fmt.Errorf("invalid primary type %q", r.PrimaryType)
	}
	if r.Confidence == nil || *r.Confidence < 0 || *r.Confidence > 100 {
		return FallbackResult(), fmt.Errorf("invalid confidence")
	}
	confidence := int(math.Round(*r.Confidence))

	reasoning := r.Reasoning
	if reasoning == "" {
		reasoning = "automatic model analysis"
	}

	var secondary model.ContextType
	if r.SecondaryType != nil {
		if t, ok := model.ParseContextType(*r.SecondaryType); ok && t != primary {
			secondary = t
		}
	}
	isHybrid := r.IsHybrid && secondary != ""
	if !isHybrid {
		secondary = ""
	}

	cols := r.SuggestedStructure
	if len(cols) != 4 {
		cols = structure.Default(primary)
	}

	contexts := shapeContexts(r.DetectedContexts)
	if len(contexts) == 0 {
		contexts = synthesizeContexts(primary, confidence, reasoning, secondary)
	}

	return model.ClassificationResult{
		PrimaryType:        primary,
		Confidence:         confidence,
		Reasoning:          reasoning,
		IsHybrid:           isHybrid,
		SecondaryType:      secondary,
		DetectedContexts:   ensurePrimary(contexts, primary, confidence, reasoning),
		SuggestedStructure: append([]string(nil), cols...),
		Method:             model.MethodAI,
	}, nil
}

// FallbackResult is the generic answer used when a reply cannot be parsed
func FallbackResult() model.ClassificationResult {
	const reasoning = "parsing error, generic analysis applied"
	return model.ClassificationResult{
		PrimaryType: model.ContextGeneric,
		Confidence:  fallbackConfidence,
		Reasoning:   reasoning,
		DetectedContexts: []model.DetectedContext{{
			Type:       model.ContextGeneric,
			Confidence: fallbackConfidence,
			Weight:     1.0,
			Reasoning:  reasoning,
			Priority:   model.PriorityPrimary,
		}},
		SuggestedStructure: structure.Default(model.ContextGeneric),
		Method:             model.MethodAI,
	}
}

// decodeReply strips markdown fences and any prose around the JSON object
func decodeReply(raw string) (*reply, error) {
	clean := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}"); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var r reply
	if err := json.Unmarshal([]byte(clean), &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &r, nil
}

// shapeContexts fills defaults, drops unknown types and repeated types
func shapeContexts(in []replyContext) []model.DetectedContext {
	out := make([]model.DetectedContext, 0, len(in))
	seen := make(map[model.ContextType]bool, len(in))
	for _, c := range in {
		t, ok := model.ParseContextType(c.Type)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true

		confidence := float64(contextConfidence)
		if c.Confidence != nil {
			confidence = *c.Confidence
		}
		weight := contextWeight
		if c.Weight != nil {
			weight = *c.Weight
		}
		reasoning := c.Reasoning
		if reasoning == "" {
			reasoning = "context detected by model"
		}

		out = append(out, model.DetectedContext{
			Type:       t,
			Confidence: clamp(int(math.Round(confidence)), 0, 100),
			Weight:     math.Max(0, math.Min(1, math.Round(weight*100)/100)),
			Reasoning:  reasoning,
			Priority:   parsePriority(c.Priority),
		})
	}
	return out
}

// synthesizeContexts builds contexts from the single-type fields
func synthesizeContexts(primary model.ContextType, confidence int, reasoning string, secondary model.ContextType) []model.DetectedContext {
	contexts := []model.DetectedContext{{
		Type:       primary,
		Confidence: confidence,
		Weight:     1.0,
		Reasoning:  reasoning,
		Priority:   model.PriorityPrimary,
	}}
	if secondary != "" {
		contexts = append(contexts, model.DetectedContext{
			Type:       secondary,
			Confidence: int(math.Round(float64(confidence) * hybridConfidenceRatio)),
			Weight:     hybridWeight,
			Reasoning:  "hybrid context detected",
			Priority:   model.PriorityMedium,
		})
	}
	return contexts
}

// ensurePrimary leaves exactly one primary entry, of the primary type,
// first in the list and weighted 1.0
func ensurePrimary(contexts []model.DetectedContext, primary model.ContextType, confidence int, reasoning string) []model.DetectedContext {
	head := model.DetectedContext{
		Type:       primary,
		Confidence: confidence,
		Weight:     1.0,
		Reasoning:  reasoning,
		Priority:   model.PriorityPrimary,
	}

	rest := make([]model.DetectedContext, 0, len(contexts))
	for _, c := range contexts {
		if c.Type == primary {
			head.Confidence = c.Confidence
			head.Reasoning = c.Reasoning
			continue
		}
		if c.Priority == model.PriorityPrimary {
			c.Priority = model.PrioritySecondary
		}
		rest = append(rest, c)
	}
	return append([]model.DetectedContext{head}, rest...)
}

func parsePriority(s string) model.Priority {
	switch p := model.Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case model.PriorityPrimary, model.PriorityStrong, model.PriorityMedium, model.PriorityWeak,
		model.PrioritySecondary, model.PriorityComplementary, model.PriorityEnrichment:
		return p
	}
	return model.PrioritySecondary
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
