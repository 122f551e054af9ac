package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/indxflow/internal/model"
)

const validReply = `{
  "primaryType": "CLIENT_BASED",
  "confidence": 88,
  "reasoning": "several clients handled in sprints",
  "isHybrid": true,
  "secondaryType": "TEMPORAL",
  "detectedContexts": [
    {"type": "CLIENT_BASED", "confidence": 88, "weight": 1.0, "reasoning": "clients", "priority": "primary"},
    {"type": "TEMPORAL", "confidence": 61, "weight": 0.7, "reasoning": "sprints", "priority": "strong"}
  ],
  "suggestedStructure": ["Prospects", "Clients Actifs", "En Attente", "Terminés"]
}`

func TestParseResponse_Valid(t *testing.T) {
	result, err := ParseResponse(validReply)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	if result.PrimaryType != model.ContextClientBased {
		t.Errorf("Expected CLIENT_BASED, got %s", result.PrimaryType)
	}
	if result.Confidence != 88 {
		t.Errorf("Expected confidence 88, got %d", result.Confidence)
	}
	if !result.IsHybrid || result.SecondaryType != model.ContextTemporal {
		t.Errorf("Expected hybrid with TEMPORAL, got %v / %s", result.IsHybrid, result.SecondaryType)
	}
	if result.Method != model.MethodAI {
		t.Errorf("Expected method ai, got %s", result.Method)
	}
	if len(result.DetectedContexts) != 2 {
		t.Fatalf("Expected 2 contexts, got %d", len(result.DetectedContexts))
	}
	if result.DetectedContexts[1].Priority != model.PriorityStrong || result.DetectedContexts[1].Weight != 0.7 {
		t.Errorf("Unexpected secondary context: %+v", result.DetectedContexts[1])
	}
	if result.SuggestedStructure[1] != "Clients Actifs" {
		t.Errorf("Expected model structure kept, got %v", result.SuggestedStructure)
	}
}

func TestParseResponse_CodeFencesAndProse(t *testing.T) {
	raw := "Here is the analysis:\n```json\n" + validReply + "\n```\nHope this helps."

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if result.PrimaryType != model.ContextClientBased {
		t.Errorf("Expected CLIENT_BASED, got %s", result.PrimaryType)
	}
}

func TestParseResponse_Fallback(t *testing.T) {
	cases := map[string]string{
		"not json":         "I think this is about clients",
		"unknown type":     `{"primaryType": "FINANCIAL", "confidence": 80}`,
		"missing conf":     `{"primaryType": "TEMPORAL"}`,
		"confidence > 100": `{"primaryType": "TEMPORAL", "confidence": 140}`,
		"negative conf":    `{"primaryType": "TEMPORAL", "confidence": -1}`,
	}

	for name, raw := range cases {
		result, err := ParseResponse(raw)
		if err == nil {
			t.Errorf("%s: expected a parse error", name)
		}
		if result.PrimaryType != model.ContextGeneric || result.Confidence != 50 {
			t.Errorf("%s: expected GENERIC 50 fallback, got %s %d", name, result.PrimaryType, result.Confidence)
		}
		if !strings.Contains(result.Reasoning, "parsing error") {
			t.Errorf("%s: unexpected reasoning %q", name, result.Reasoning)
		}
		if len(result.SuggestedStructure) != 4 {
			t.Errorf("%s: expected 4 columns, got %d", name, len(result.SuggestedStructure))
		}
	}
}

func TestParseResponse_StructureReplaced(t *testing.T) {
	result, err := ParseResponse(`{"primaryType": "phased", "confidence": 70, "suggestedStructure": ["A", "B"]}`)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	if result.PrimaryType != model.ContextPhased {
		t.Errorf("Expected PHASED, got %s", result.PrimaryType)
	}
	if len(result.SuggestedStructure) != 4 || result.SuggestedStructure[0] == "A" {
		t.Errorf("Expected default PHASED structure, got %v", result.SuggestedStructure)
	}
	if result.Reasoning == "" {
		t.Error("Expected default reasoning")
	}
}

func TestParseResponse_SynthesizedContexts(t *testing.T) {
	result, err := ParseResponse(`{"primaryType": "VERSIONED", "confidence": 80, "isHybrid": true, "secondaryType": "TEMPORAL"}`)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	if len(result.DetectedContexts) != 2 {
		t.Fatalf("Expected 2 synthesized contexts, got %d", len(result.DetectedContexts))
	}
	second := result.DetectedContexts[1]
	if second.Type != model.ContextTemporal || second.Confidence != 56 || second.Weight != 0.6 {
		t.Errorf("Unexpected synthesized secondary: %+v", second)
	}
	if second.Priority != model.PriorityMedium {
		t.Errorf("Expected medium priority, got %s", second.Priority)
	}
}

func TestParseResponse_HybridNeedsValidSecondary(t *testing.T) {
	cases := []string{
		`{"primaryType": "TEMPORAL", "confidence": 70, "isHybrid": true}`,
		`{"primaryType": "TEMPORAL", "confidence": 70, "isHybrid": true, "secondaryType": "TEMPORAL"}`,
		`{"primaryType": "TEMPORAL", "confidence": 70, "isHybrid": true, "secondaryType": "UNKNOWN"}`,
	}

	for _, raw := range cases {
		result, _ := ParseResponse(raw)
		if result.IsHybrid || result.SecondaryType != "" {
			t.Errorf("Expected non-hybrid for %s, got %v / %q", raw, result.IsHybrid, result.SecondaryType)
		}
	}
}

func TestParseResponse_SinglePrimary(t *testing.T) {
	raw := `{
	  "primaryType": "TEMPORAL",
	  "confidence": 75,
	  "detectedContexts": [
	    {"type": "CLIENT_BASED", "confidence": 70, "weight": 1.4, "priority": "primary"},
	    {"type": "TEMPORAL", "confidence": 75, "weight": 0.9, "priority": "strong"},
	    {"type": "TEMPORAL", "confidence": 10},
	    {"type": "NOPE", "confidence": 99},
	    {"type": "PHASED", "confidence": 150, "priority": "bogus"}
	  ]
	}`

	result, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	if len(result.DetectedContexts) != 3 {
		t.Fatalf("Expected 3 contexts, got %d: %+v", len(result.DetectedContexts), result.DetectedContexts)
	}

	primaries := 0
	for _, c := range result.DetectedContexts {
		if c.Priority == model.PriorityPrimary {
			primaries++
		}
		if c.Weight < 0 || c.Weight > 1 || c.Confidence < 0 || c.Confidence > 100 {
			t.Errorf("Out of range context: %+v", c)
		}
	}
	if primaries != 1 {
		t.Errorf("Expected exactly one primary, got %d", primaries)
	}

	head := result.DetectedContexts[0]
	if head.Type != model.ContextTemporal || head.Weight != 1.0 {
		t.Errorf("Expected TEMPORAL primary first with weight 1, got %+v", head)
	}
	if result.DetectedContexts[1].Priority != model.PrioritySecondary {
		t.Errorf("Expected demoted CLIENT_BASED, got %s", result.DetectedContexts[1].Priority)
	}
	if result.DetectedContexts[1].Weight != 1.0 {
		t.Errorf("Expected weight clamped to 1, got %v", result.DetectedContexts[1].Weight)
	}
	phased := result.DetectedContexts[2]
	if phased.Confidence != 100 || phased.Priority != model.PrioritySecondary || phased.Weight != 0.5 {
		t.Errorf("Unexpected defaults on PHASED: %+v", phased)
	}
}
