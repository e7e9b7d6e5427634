// Package scoring computes the bounded compatibility score between a seeker
// and a candidate.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/playground/internal/domain/intensity"
	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/normalize"
)

// Default scoring configuration constants.
const (
	defaultPrecision = 4
	maxPrecision     = 6
)

// Factor names, in evaluation order.
const (
	FactorNiche    = "niche"
	FactorSkill    = "skill"
	FactorTools    = "tools"
	FactorWorkload = "workload"
	FactorRichness = "richness"
)

// Weights holds the points available per factor. A factor weighted 0 is
// disabled and leaves the denominator.
type Weights struct {
	Niche    int
	Skill    int
	Tools    int
	Workload int
	Richness int
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{Niche: 4, Skill: 3, Tools: 3, Workload: 3, Richness: 2}
}

// Total is the sum of attainable points.
func (w Weights) Total() int {
	return w.Niche + w.Skill + w.Tools + w.Workload + w.Richness
}

func (w Weights) sanitized() Weights {
	pos := func(v int) int { return max(v, 0) }
	return Weights{
		Niche:    pos(w.Niche),
		Skill:    pos(w.Skill),
		Tools:    pos(w.Tools),
		Workload: pos(w.Workload),
		Richness: pos(w.Richness),
	}
}

// FactorScore is one factor's contribution.
type FactorScore struct {
	Name   string
	Earned int
	Max    int
}

// Breakdown is the per-factor view of a score. It is never persisted.
type Breakdown struct {
	Factors []FactorScore
	Earned  int
	Max     int
	Score   float64
}

// Result contains the computed score for a candidate.
type Result struct {
	CandidateID string
	Score       float64
	Breakdown   Breakdown
}

// Scorer evaluates one seeker/candidate pair, honoring ctx for cancellation.
type Scorer interface {
	Evaluate(ctx context.Context, seeker, candidate model.Profile) (Result, error)
}

// Engine implements Scorer with the weighted-overlap algorithm.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights   Weights
	precision int
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:   DefaultWeights(),
		precision: defaultPrecision,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's factor weights.
func (e *Engine) Weights() Weights { return e.weights }

// Score returns the compatibility of candidate for seeker in [0,1].
func (e *Engine) Score(seeker, candidate model.Profile) float64 {
	return e.Breakdown(seeker, candidate).Score
}

// Evaluate implements Scorer.
func (e *Engine) Evaluate(ctx context.Context, seeker, candidate model.Profile) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	b := e.Breakdown(seeker, candidate)
	return Result{CandidateID: candidate.ID, Score: b.Score, Breakdown: b}, nil
}

// Breakdown scores the pair and reports every factor.
func (e *Engine) Breakdown(seeker, candidate model.Profile) Breakdown {
	s := newSeekerSignals(seeker)
	c := newCandidateSignals(candidate)
	w := e.weights

	b := Breakdown{Max: w.Total()}
	if b.Max == 0 {
		return b
	}

	add := func(name string, earned, limit int) {
		if limit == 0 {
			return
		}
		earned = min(max(earned, 0), limit)
		b.Factors = append(b.Factors, FactorScore{Name: name, Earned: earned, Max: limit})
		b.Earned += earned
	}

	// A seeker with nothing to match on gets no match, whatever the
	// candidate's own richness.
	if s.empty() {
		add(FactorNiche, 0, w.Niche)
		add(FactorSkill, 0, w.Skill)
		add(FactorTools, 0, w.Tools)
		add(FactorWorkload, 0, w.Workload)
		add(FactorRichness, 0, w.Richness)
		return b
	}

	add(FactorNiche, s.niche.Overlap(c.niche), w.Niche)
	add(FactorSkill, s.needs.Overlap(c.focus), w.Skill)
	add(FactorTools, s.tools.Overlap(c.tools), w.Tools)
	add(FactorWorkload, workloadFit(s.tier, c.availability), w.Workload)
	add(FactorRichness, richness(c), w.Richness)

	b.Score = e.round(float64(b.Earned) / float64(b.Max))
	return b
}

func (e *Engine) round(v float64) float64 {
	p := math.Pow10(e.precision)
	return math.Round(v*p) / p
}

type seekerSignals struct {
	niche normalize.Set
	needs normalize.Set
	tools normalize.Set
	tier  intensity.Tier
}

func newSeekerSignals(p model.Profile) seekerSignals {
	return seekerSignals{
		niche: normalize.NewSet(p.Get(model.AttrNiche)...),
		needs: normalize.NewSet(p.Get(model.AttrDesignHelp)...),
		tools: normalize.NewSet(p.Get(model.AttrToolsUsed)...),
		tier:  intensity.Classify(p.Text(model.AttrEstimatedHours)),
	}
}

func (s seekerSignals) empty() bool {
	return s.niche.Empty() && s.needs.Empty() && s.tools.Empty() && s.tier == intensity.Unknown
}

type candidateSignals struct {
	niche        normalize.Set
	focus        normalize.Set
	tools        normalize.Set
	availability normalize.Set
	goals        normalize.Set
}

func newCandidateSignals(p model.Profile) candidateSignals {
	return candidateSignals{
		niche:        normalize.NewSet(p.Get(model.AttrNicheInterest)...),
		focus:        normalize.NewSet(p.Get(model.AttrFocus)...),
		tools:        normalize.NewSet(p.Get(model.AttrTools)...),
		availability: normalize.NewSet(p.Get(model.AttrAvailability)...),
		goals:        normalize.NewSet(p.Get(model.AttrGoals)...),
	}
}

// workloadFit applies the tier table against the candidate's availability.
func workloadFit(tier intensity.Tier, avail normalize.Set) int {
	n := avail.Len()
	switch tier {
	case intensity.Light:
		if n > 0 {
			return 2
		}
	case intensity.Medium:
		switch {
		case n >= 2:
			return 2
		case n == 1:
			return 1
		}
	case intensity.Heavy:
		switch {
		case avail.Has("flexible"):
			return 3
		case n >= 2:
			return 2
		}
	default:
		if n >= 2 {
			return 1
		}
	}
	return 0
}

// richness rewards candidates who filled in niche and goals.
func richness(c candidateSignals) int {
	n := 0
	if !c.niche.Empty() {
		n++
	}
	if !c.goals.Empty() {
		n++
	}
	return n
}
