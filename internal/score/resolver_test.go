package score

import (
	"math"
	"testing"

	"github.com/ppiankov/indxflow/internal/model"
)

func countPrimary(t *testing.T, r model.ClassificationResult) {
	t.Helper()
	primaries := 0
	for _, c := range r.DetectedContexts {
		if c.Priority == model.PriorityPrimary {
			primaries++
			if c.Weight != 1.0 {
				t.Errorf("Expected primary weight 1.0, got %v", c.Weight)
			}
			if c.Type != r.PrimaryType {
				t.Errorf("Expected primary context %s, got %s", r.PrimaryType, c.Type)
			}
		}
	}
	if primaries != 1 {
		t.Errorf("Expected exactly one primary context, got %d", primaries)
	}
}

func TestResolve_NoSignal(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{model.ContextClientBased: 0, model.ContextTemporal: 0}, 3)

	if result.PrimaryType != model.ContextGeneric {
		t.Errorf("Expected GENERIC, got %s", result.PrimaryType)
	}
	if result.Confidence != 20 {
		t.Errorf("Expected confidence 20, got %d", result.Confidence)
	}
	if len(result.DetectedContexts) != 1 {
		t.Fatalf("Expected a single context, got %d", len(result.DetectedContexts))
	}
	if result.IsHybrid || result.SecondaryType != "" {
		t.Error("Expected non-hybrid result without secondary type")
	}
	countPrimary(t, result)
}

func TestResolve_HybridClientSprint(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{model.ContextClientBased: 53, model.ContextTemporal: 47}, 5)

	if result.PrimaryType != model.ContextClientBased {
		t.Errorf("Expected CLIENT_BASED, got %s", result.PrimaryType)
	}
	if result.Confidence != 80 {
		t.Errorf("Expected confidence 80 (53*1.5 rounded), got %d", result.Confidence)
	}
	if !result.IsHybrid || result.SecondaryType != model.ContextTemporal {
		t.Errorf("Expected hybrid with TEMPORAL, got hybrid=%v secondary=%q", result.IsHybrid, result.SecondaryType)
	}
	countPrimary(t, result)

	temporal, ok := result.Context(model.ContextTemporal)
	if !ok {
		t.Fatal("Expected TEMPORAL in detected contexts")
	}
	if temporal.Priority != model.PriorityStrong {
		t.Errorf("Expected strong priority, got %s", temporal.Priority)
	}
	if temporal.Weight != 0.8 {
		t.Errorf("Expected weight capped at 0.8, got %v", temporal.Weight)
	}
	if temporal.Confidence != 56 {
		t.Errorf("Expected confidence 56 (47*1.2), got %d", temporal.Confidence)
	}
}

func TestResolve_LengthBonus(t *testing.T) {
	scorer := NewScorer()

	short := scorer.Resolve(Scores{model.ContextPhased: 40}, 5)
	medium := scorer.Resolve(Scores{model.ContextPhased: 40}, 11)
	long := scorer.Resolve(Scores{model.ContextPhased: 40}, 21)

	if short.Confidence != 60 || medium.Confidence != 65 || long.Confidence != 70 {
		t.Errorf("Expected 60/65/70, got %d/%d/%d", short.Confidence, medium.Confidence, long.Confidence)
	}

	capped := scorer.Resolve(Scores{model.ContextPhased: 100}, 30)
	if capped.Confidence != 100 {
		t.Errorf("Expected confidence capped at 100, got %d", capped.Confidence)
	}
}

func TestResolve_ThinSignalPenalty(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{model.ContextVersioned: 8, model.ContextPhased: 6}, 25)

	// 8*1.5 = 12, +10 length bonus = 22, -20 thin penalty = 2, floored at 20
	if result.Confidence != 20 {
		t.Errorf("Expected confidence floored at 20, got %d", result.Confidence)
	}
}

func TestResolve_HybridAbsoluteFloor(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{model.ContextProcessBased: 45, model.ContextResourceBased: 19}, 5)

	if result.IsHybrid {
		t.Error("Expected no hybrid when the second score is below 20")
	}
	if result.SecondaryType != "" {
		t.Errorf("Expected empty secondary type, got %s", result.SecondaryType)
	}

	// 19 >= max(15, 13.5) so it is still a detected context
	weak, ok := result.Context(model.ContextResourceBased)
	if !ok {
		t.Fatal("Expected RESOURCE_BASED as a weak context")
	}
	if weak.Priority != model.PriorityWeak {
		t.Errorf("Expected weak priority, got %s", weak.Priority)
	}
}

func TestResolve_ContextThreshold(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{
		model.ContextClientBased: 70,
		model.ContextTemporal:    20, // below 70*0.3 = 21
		model.ContextPhased:      10,
	}, 5)

	if len(result.DetectedContexts) != 1 {
		t.Errorf("Expected only the primary context, got %d", len(result.DetectedContexts))
	}
}

func TestResolve_WeightRescaling(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{
		model.ContextClientBased:   30,
		model.ContextTemporal:      25,
		model.ContextPhased:        24,
		model.ContextResourceBased: 21,
	}, 5)

	countPrimary(t, result)
	if len(result.DetectedContexts) != 4 {
		t.Fatalf("Expected 4 contexts, got %d", len(result.DetectedContexts))
	}

	total := 0.0
	for _, c := range result.DetectedContexts[1:] {
		total += c.Weight
		if c.Weight > 0.8 {
			t.Errorf("Expected weight <= 0.8, got %v", c.Weight)
		}
	}
	// 0.8 + 0.8 + 0.7 = 2.3 rescaled by 1.2/2.3
	if math.Abs(total-1.2) > 0.02 {
		t.Errorf("Expected rescaled weights to sum to ~1.2, got %v", total)
	}
}

func TestResolve_MediumTier(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Resolve(Scores{model.ContextVersioned: 60, model.ContextTemporal: 33}, 5)

	c, ok := result.Context(model.ContextTemporal)
	if !ok {
		t.Fatal("Expected TEMPORAL context")
	}
	if c.Priority != model.PriorityMedium {
		t.Errorf("Expected medium priority, got %s", c.Priority)
	}
	if c.Weight != 0.55 {
		t.Errorf("Expected weight 0.55, got %v", c.Weight)
	}
}
