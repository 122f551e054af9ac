package model

import "strings"

// ContextType is the organizational context a piece of work is structured around
type ContextType string

const (
	ContextClientBased   ContextType = "CLIENT_BASED"   // Organized per client, account or patient
	ContextTemporal      ContextType = "TEMPORAL"       // Organized in sprints, cycles, campaigns
	ContextPhased        ContextType = "PHASED"         // Organized in sequential phases
	ContextVersioned     ContextType = "VERSIONED"      // Organized per version or iteration
	ContextProcessBased  ContextType = "PROCESS_BASED"  // Organized along a business process
	ContextResourceBased ContextType = "RESOURCE_BASED" // Organized per team or resource
	ContextGeneric       ContextType = "GENERIC"        // No dominant organization
)

// AllContextTypes returns every context type in canonical order.
// The order doubles as the tie-break ranking when two contexts score the same.
func AllContextTypes() []ContextType {
	return []ContextType{
		ContextClientBased,
		ContextTemporal,
		ContextPhased,
		ContextVersioned,
		ContextProcessBased,
		ContextResourceBased,
		ContextGeneric,
	}
}

// IsValid reports whether c is one of the known context types
func (c ContextType) IsValid() bool {
	return c.Rank() >= 0
}

// Rank returns the position of c in the canonical order, or -1 if unknown
func (c ContextType) Rank() int {
	for i, t := range AllContextTypes() {
		if t == c {
			return i
		}
	}
	return -1
}

// ParseContextType parses a context tag case-insensitively
func ParseContextType(s string) (ContextType, bool) {
	c := ContextType(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}

// Priority tags a detected context with its importance relative to the primary
type Priority string

const (
	PriorityPrimary            Priority = "primary"
	PriorityStrong             Priority = "strong"
	PriorityMedium             Priority = "medium"
	PriorityWeak               Priority = "weak"
	PrioritySecondary          Priority = "secondary"
	PriorityComplementary      Priority = "complementary"
	PriorityEnrichment         Priority = "enrichment"
	PriorityLocalComplementary Priority = "local_complementary"
)

// Method records which path produced a classification
type Method string

const (
	MethodLocal           Method = "local"
	MethodAI              Method = "ai"
	MethodHybrid          Method = "hybrid"
	MethodLocalFallback   Method = "local_fallback"
	MethodLocalForced     Method = "local_forced"
	MethodLocalSufficient Method = "local_sufficient"
)

// Strategy names the fusion strategy used to reconcile local and model results
type Strategy string

const (
	StrategyAIPreferred           Strategy = "ai_preferred"
	StrategyCoherentBoost         Strategy = "coherent_ai_boost"
	StrategyConsensus             Strategy = "hybrid_consensus"
	StrategyAIWithLocalEnrichment Strategy = "ai_with_local_enrichment"
)

// Source records where a fused context came from
type Source string

const (
	SourceAI    Source = "ai"
	SourceLocal Source = "local"
	SourceFused Source = "fused"
)
