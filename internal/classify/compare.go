package classify

import (
	"context"
	"time"

	"github.com/ppiankov/indxflow/internal/model"
	"golang.org/x/sync/errgroup"
)

// Recommendation thresholds
const (
	recommendLocalConfidence      = 85
	recommendHybridImprovement    = 15
	recommendAcceptableConfidence = 70
)

// MethodFigures holds one number per analysis method
type MethodFigures struct {
	Local  float64 `json:"local"`
	AI     float64 `json:"ai"`
	Hybrid float64 `json:"hybrid"`
}

// MethodTimes holds one duration per analysis method
type MethodTimes struct {
	Local  time.Duration `json:"local"`
	AI     time.Duration `json:"ai"`
	Hybrid time.Duration `json:"hybrid"`
}

// TypeConsistency reports which methods agree on the primary type.
// A nil field means one side was not run.
type TypeConsistency struct {
	LocalVsAI     *bool `json:"localVsAI"`
	HybridVsAI    *bool `json:"hybridVsAI"`
	HybridVsLocal *bool `json:"hybridVsLocal"`
}

// Comparison runs every method on one text
type Comparison struct {
	Local   *model.ClassificationResult `json:"local"`
	AI      *model.ClassificationResult `json:"ai,omitempty"`
	AIError string                      `json:"aiError,omitempty"`
	Hybrid  *model.ClassificationResult `json:"hybrid"`

	Costs MethodFigures `json:"costs"`
	Times MethodTimes   `json:"times"`

	// CostSavings is the hybrid saving relative to the model alone, in percent
	CostSavings float64 `json:"costSavings"`
	// HybridVsAITime and HybridVsLocalTime compare durations, in percent
	HybridVsAITime    float64 `json:"hybridVsAITime"`
	HybridVsLocalTime float64 `json:"hybridVsLocalTime"`

	Confidence        MethodFigures   `json:"confidence"`
	TypeConsistency   TypeConsistency `json:"typeConsistency"`
	RecommendedMethod model.Method    `json:"recommendedMethod"`
}

// Compare classifies input with the local analyzer, the model analyzer
// (when available) and the hybrid path. Local and model run concurrently;
// the hybrid run follows and may reuse the cached model reply.
func (o *Orchestrator) Compare(ctx context.Context, input string) (*Comparison, error) {
	cmp := &Comparison{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		local, err := o.local.Analyze(gctx, input)
		if err != nil {
			return err
		}
		cmp.Times.Local = time.Since(start)
		cmp.Costs.Local = o.localCost
		cmp.Local = &local
		return nil
	})
	if o.ModelAvailable() {
		g.Go(func() error {
			start := time.Now()
			ai, err := o.model.Analyze(gctx, input)
			cmp.Times.AI = time.Since(start)
			if err != nil {
				// Model trouble is reported, not fatal
				cmp.AIError = err.Error()
				return nil
			}
			cmp.Costs.AI = ai.Cost
			cmp.AI = &ai
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	hybrid, err := o.Classify(ctx, input, Options{})
	if err != nil {
		return nil, err
	}
	cmp.Times.Hybrid = time.Since(start)
	cmp.Costs.Hybrid = hybrid.Cost
	cmp.Hybrid = &hybrid

	if cmp.Costs.AI > 0 {
		cmp.CostSavings = round2((cmp.Costs.AI - cmp.Costs.Hybrid) / cmp.Costs.AI * 100)
	}
	if cmp.Times.AI > 0 {
		cmp.HybridVsAITime = round2(float64(cmp.Times.AI-cmp.Times.Hybrid) / float64(cmp.Times.AI) * 100)
	}
	if cmp.Times.Local > 0 {
		cmp.HybridVsLocalTime = round2(float64(cmp.Times.Hybrid-cmp.Times.Local) / float64(cmp.Times.Local) * 100)
	}

	cmp.Confidence = MethodFigures{
		Local:  float64(cmp.Local.Confidence),
		Hybrid: float64(cmp.Hybrid.Confidence),
	}
	if cmp.AI != nil {
		cmp.Confidence.AI = float64(cmp.AI.Confidence)
	}
	cmp.TypeConsistency = consistency(cmp.Local, cmp.AI, cmp.Hybrid)
	cmp.RecommendedMethod = Recommend(cmp.Local, cmp.AI)

	return cmp, nil
}

// Recommend picks the method worth using for texts like this one
func Recommend(local, ai *model.ClassificationResult) model.Method {
	switch {
	case local != nil && local.Confidence >= recommendLocalConfidence:
		return model.MethodLocal
	case local != nil && ai != nil && ai.Confidence > local.Confidence+recommendHybridImprovement:
		return model.MethodHybrid
	case local != nil && local.Confidence >= recommendAcceptableConfidence:
		return model.MethodLocal
	default:
		return model.MethodHybrid
	}
}

func consistency(local, ai, hybrid *model.ClassificationResult) TypeConsistency {
	same := func(a, b *model.ClassificationResult) *bool {
		if a == nil || b == nil {
			return nil
		}
		v := a.PrimaryType == b.PrimaryType
		return &v
	}
	return TypeConsistency{
		LocalVsAI:     same(local, ai),
		HybridVsAI:    same(hybrid, ai),
		HybridVsLocal: same(hybrid, local),
	}
}
