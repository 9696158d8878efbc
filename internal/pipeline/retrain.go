package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/algo-insight/code-mentor/internal/analysis"
	"github.com/algo-insight/code-mentor/internal/monitoring"
)

var (
	ErrRetrainInProgress    = errors.New("retrain already in progress")
	ErrInsufficientExamples = errors.New("not enough confirmed submissions to retrain")
)

// RetrainConfig controls which submissions qualify as training data.
type RetrainConfig struct {
	Labels           []string
	MinExamples      int
	ConfirmThreshold float64
	TieEpsilon       float64
	IncludeSeed      bool
}

// Coordinator rebuilds the classifier from confirmed submissions and
// publishes the result to the orchestrator. At most one retrain runs
// at a time; concurrent requests fail fast with ErrRetrainInProgress.
type Coordinator struct {
	orch      *Orchestrator
	store     SubmissionStore
	extractor *analysis.Extractor
	metrics   *monitoring.Metrics
	cfg       RetrainConfig
	training  atomic.Bool
}

func NewCoordinator(orch *Orchestrator, st SubmissionStore, extractor *analysis.Extractor, metrics *monitoring.Metrics, cfg RetrainConfig) *Coordinator {
	if len(cfg.Labels) == 0 {
		cfg.Labels = analysis.DefaultLabels
	}
	if cfg.MinExamples <= 0 {
		cfg.MinExamples = 5
	}
	if cfg.ConfirmThreshold <= 0 {
		cfg.ConfirmThreshold = 0.60
	}
	return &Coordinator{
		orch:      orch,
		store:     st,
		extractor: extractor,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Training reports whether a retrain is currently running.
func (c *Coordinator) Training() bool {
	return c.training.Load()
}

// Retrain gathers confirmed submissions, trains a new model version
// and atomically replaces the active model. On any failure the
// previous model keeps serving unchanged.
func (c *Coordinator) Retrain(ctx context.Context) (*analysis.Model, error) {
	if !c.training.CompareAndSwap(false, true) {
		return nil, ErrRetrainInProgress
	}
	defer c.training.Store(false)

	start := time.Now()

	submissions, err := c.store.ListAll(ctx)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	var examples []analysis.Example
	confirmed := 0
	for _, s := range submissions {
		if s.Concept == analysis.ConceptUnknown || s.Confidence < c.cfg.ConfirmThreshold {
			continue
		}
		examples = append(examples, analysis.Example{
			Features: c.extractor.Extract(s.Code, s.Language),
			Label:    s.Concept,
		})
		confirmed++
	}

	if confirmed < c.cfg.MinExamples {
		c.recordFailure()
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientExamples, confirmed, c.cfg.MinExamples)
	}

	if c.cfg.IncludeSeed {
		examples = append(examples, analysis.SeedExamples(c.extractor)...)
	}

	version := 1
	if m := c.orch.ActiveModel(); m != nil {
		version = m.Version + 1
	}

	model, err := analysis.Train(version, examples, analysis.TrainConfig{
		Labels:      c.cfg.Labels,
		MinExamples: c.cfg.MinExamples,
		TieEpsilon:  c.cfg.TieEpsilon,
	})
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("training failed: %w", err)
	}

	c.orch.SetModel(model)

	if c.metrics != nil {
		c.metrics.IncrementRetrainSuccess()
	}
	slog.Info("Model retrained",
		"version", model.Version,
		"confirmed_submissions", confirmed,
		"total_examples", len(examples),
		"duration_ms", time.Since(start).Milliseconds())

	return model, nil
}

func (c *Coordinator) recordFailure() {
	if c.metrics != nil {
		c.metrics.IncrementRetrainFailure()
	}
}
