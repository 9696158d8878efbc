package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ConceptUnknown is the sentinel label used when no model is available
// or the active model cannot score a vector.
const ConceptUnknown = "Unknown"

// DefaultLabels is the versioned concept label set, ordered. Retrains
// keep this ordering unless explicitly reconfigured.
var DefaultLabels = []string{
	"Binary Search",
	"Dynamic Programming",
	"Graph Traversal",
	"Sorting",
	"Array Manipulation",
	"String Processing",
	"Tree Algorithms",
	"Greedy Algorithm",
	"Backtracking",
	"Mathematics",
	"General Programming",
}

var (
	// ErrInsufficientData is returned when a retrain is attempted with
	// fewer confirmed examples than the configured minimum.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrSchemaMismatch is returned when a feature vector does not match
	// the shape the model was trained against.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrUnknownLabel is returned when a training example carries a label
	// outside the configured label set.
	ErrUnknownLabel = errors.New("unknown concept label")
)

// Example is one labeled training observation.
type Example struct {
	Features FeatureVector
	Label    string
}

// TrainConfig controls model training.
type TrainConfig struct {
	Labels      []string
	MinExamples int
	TieEpsilon  float64
}

// Prediction is the classifier output for one feature vector.
type Prediction struct {
	Label      string
	Confidence float64
}

// Model is an immutable trained concept classifier. All fields are set
// at training time and never mutated, so a *Model can be shared across
// goroutines through an atomic pointer swap.
type Model struct {
	Version   int
	TrainedAt time.Time

	labels     []string
	schema     int
	dim        int
	logPrior   []float64
	logLik     [][]float64
	exampleCnt []int
	examples   int
	tieEpsilon float64
}

// Labels returns a copy of the model's label set.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// ExampleCount returns how many examples the model was trained on.
func (m *Model) ExampleCount() int { return m.examples }

// Train builds a new model from the given examples using multinomial
// naive Bayes with Laplace smoothing over the squashed feature counts.
// It never mutates any previously trained model.
func Train(version int, examples []Example, cfg TrainConfig) (*Model, error) {
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	if len(examples) < cfg.MinExamples {
		return nil, fmt.Errorf("%w: have %d examples, need %d", ErrInsufficientData, len(examples), cfg.MinExamples)
	}

	labelIdx := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIdx[l] = i
	}

	nLabels := len(labels)
	counts := make([]int, nLabels)
	sums := make([][]float64, nLabels)
	totals := make([]float64, nLabels)
	for i := range sums {
		sums[i] = make([]float64, featureDim)
	}

	for _, ex := range examples {
		li, ok := labelIdx[ex.Label]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, ex.Label)
		}
		if ex.Features.Schema != FeatureSchema || ex.Features.Dim() != featureDim {
			return nil, fmt.Errorf("%w: example schema %d dim %d", ErrSchemaMismatch, ex.Features.Schema, ex.Features.Dim())
		}
		counts[li]++
		for d, v := range ex.Features.Values {
			sums[li][d] += v
			totals[li] += v
		}
	}

	const alpha = 1.0

	logPrior := make([]float64, nLabels)
	logLik := make([][]float64, nLabels)
	for li := range labels {
		logPrior[li] = math.Log(float64(counts[li]+1) / float64(len(examples)+nLabels))
		logLik[li] = make([]float64, featureDim)
		denom := totals[li] + alpha*featureDim
		for d := 0; d < featureDim; d++ {
			logLik[li][d] = math.Log((sums[li][d] + alpha) / denom)
		}
	}

	labelsCopy := make([]string, nLabels)
	copy(labelsCopy, labels)

	return &Model{
		Version:    version,
		TrainedAt:  time.Now(),
		labels:     labelsCopy,
		schema:     FeatureSchema,
		dim:        featureDim,
		logPrior:   logPrior,
		logLik:     logLik,
		exampleCnt: counts,
		examples:   len(examples),
		tieEpsilon: cfg.TieEpsilon,
	}, nil
}

// Classify scores a feature vector against the model and returns the
// best label with a softmax-normalized confidence. Ties within the
// configured epsilon resolve toward the label with more training
// examples, then toward label-set order for determinism.
func (m *Model) Classify(fv FeatureVector) (Prediction, error) {
	if fv.Schema != m.schema || fv.Dim() != m.dim {
		return Prediction{}, fmt.Errorf("%w: vector schema %d dim %d, model schema %d dim %d",
			ErrSchemaMismatch, fv.Schema, fv.Dim(), m.schema, m.dim)
	}

	scores := make([]float64, len(m.labels))
	maxScore := math.Inf(-1)
	for li := range m.labels {
		s := m.logPrior[li]
		for d, v := range fv.Values {
			s += v * m.logLik[li][d]
		}
		scores[li] = s
		if s > maxScore {
			maxScore = s
		}
	}

	// Softmax in a numerically stable form.
	probs := make([]float64, len(scores))
	var z float64
	for li, s := range scores {
		probs[li] = math.Exp(s - maxScore)
		z += probs[li]
	}
	for li := range probs {
		probs[li] /= z
	}

	best := 0
	for li := range probs {
		if probs[li] > probs[best] {
			best = li
		}
	}

	// Tie-break: stability over novelty.
	for li := range probs {
		if li == best {
			continue
		}
		if probs[best]-probs[li] <= m.tieEpsilon {
			if m.exampleCnt[li] > m.exampleCnt[best] ||
				(m.exampleCnt[li] == m.exampleCnt[best] && li < best) {
				best = li
			}
		}
	}

	return Prediction{Label: m.labels[best], Confidence: probs[best]}, nil
}
