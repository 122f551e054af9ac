package model

import "time"

// DetectedContext is one context found in a text, with its weight relative to the primary.
// Values are never patched after construction; adjusted contexts are new values.
type DetectedContext struct {
	Type       ContextType `json:"type"`
	Confidence int         `json:"confidence"` // 0-100
	Weight     float64     `json:"weight"`     // 0.0-1.0, 1.0 for the primary
	Reasoning  string      `json:"reasoning"`
	Priority   Priority    `json:"priority"`

	// Fusion annotations, only set on contexts produced by the orchestrator
	Source         Source   `json:"source,omitempty"`
	Sources        []Source `json:"sources,omitempty"`
	FusionScore    float64  `json:"fusionScore,omitempty"`
	CoherenceBonus bool     `json:"coherenceBonus,omitempty"`
}

// LocalAlternative keeps the local answer next to a model-preferred result
type LocalAlternative struct {
	Type       ContextType       `json:"type"`
	Confidence int               `json:"confidence"`
	Contexts   []DetectedContext `json:"contexts,omitempty"`
}

// DebugInfo exposes the local scorer's intermediate values
type DebugInfo struct {
	TokenCount      int                 `json:"tokenCount"`
	ProcessedTokens []string            `json:"processedTokens"`
	Scores          map[ContextType]int `json:"scores,omitempty"`
	TotalContexts   int                 `json:"totalContexts"`
	StrongContexts  int                 `json:"strongContexts"`
}

// ClassificationResult is the outcome of one analysis request.
// It is built once and returned by value; SecondaryType is empty when not hybrid.
type ClassificationResult struct {
	PrimaryType        ContextType       `json:"primaryType"`
	Confidence         int               `json:"confidence"` // 0-100
	Reasoning          string            `json:"reasoning"`
	IsHybrid           bool              `json:"isHybrid"`
	SecondaryType      ContextType       `json:"secondaryType,omitempty"`
	DetectedContexts   []DetectedContext `json:"detectedContexts"`
	SuggestedStructure []string          `json:"suggestedStructure,omitempty"`
	Method             Method            `json:"method"`
	AnalysisTime       time.Duration     `json:"analysisTime"`

	Strategy              Strategy          `json:"strategy,omitempty"`
	LocalAlternative      *LocalAlternative `json:"localAlternative,omitempty"`
	UsedAI                bool              `json:"usedAI"`
	AIError               string            `json:"aiError,omitempty"`
	Cost                  float64           `json:"cost,omitempty"`
	LocalConfidence       int               `json:"localConfidence,omitempty"`
	AIConfidence          int               `json:"aiConfidence,omitempty"`
	ConfidenceImprovement int               `json:"confidenceImprovement,omitempty"`
	FromCache             bool              `json:"fromCache,omitempty"`
	Language              string            `json:"language,omitempty"`
	Debug                 *DebugInfo        `json:"debug,omitempty"`
}

// Primary returns the detected context tagged primary
func (r ClassificationResult) Primary() (DetectedContext, bool) {
	for _, c := range r.DetectedContexts {
		if c.Priority == PriorityPrimary {
			return c, true
		}
	}
	return DetectedContext{}, false
}

// Context returns the detected context of the given type
func (r ClassificationResult) Context(t ContextType) (DetectedContext, bool) {
	for _, c := range r.DetectedContexts {
		if c.Type == t {
			return c, true
		}
	}
	return DetectedContext{}, false
}

// CloneContexts returns a copy of contexts that shares no backing storage
func CloneContexts(contexts []DetectedContext) []DetectedContext {
	if contexts == nil {
		return nil
	}
	out := make([]DetectedContext, len(contexts))
	for i, c := range contexts {
		if c.Sources != nil {
			c.Sources = append([]Source(nil), c.Sources...)
		}
		out[i] = c
	}
	return out
}
