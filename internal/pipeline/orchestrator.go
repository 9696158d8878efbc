package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/algo-insight/code-mentor/internal/analysis"
	"github.com/algo-insight/code-mentor/internal/monitoring"
	"github.com/algo-insight/code-mentor/internal/store"
	"github.com/algo-insight/code-mentor/internal/suggest"
)

var (
	ErrEmptyCode   = errors.New("code must not be empty")
	ErrCodeTooLong = errors.New("code exceeds maximum length")
)

// SubmissionStore persists analysis results. Satisfied by *store.Repository.
type SubmissionStore interface {
	Append(ctx context.Context, s *store.Submission) (int64, error)
	ListAll(ctx context.Context) ([]store.Submission, error)
	ConceptCounts(ctx context.Context) (map[string]int64, int64, error)
}

// Suggester produces guidance text for a classified submission.
type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request) suggest.Result
}

// Options bound the input accepted by Analyze.
type Options struct {
	MaxCodeLength   int
	DefaultLanguage string
	Languages       []string
}

// Orchestrator runs the extract-classify-suggest-persist sequence for
// each submission. The active model is swapped atomically by the
// retrain coordinator while analyses are in flight.
type Orchestrator struct {
	extractor *analysis.Extractor
	model     atomic.Pointer[analysis.Model]
	store     SubmissionStore
	suggester Suggester
	metrics   *monitoring.Metrics
	opts      Options
	languages map[string]struct{}
}

func NewOrchestrator(extractor *analysis.Extractor, st SubmissionStore, suggester Suggester, metrics *monitoring.Metrics, opts Options) *Orchestrator {
	if opts.MaxCodeLength <= 0 {
		opts.MaxCodeLength = 10000
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "python"
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"python", "cpp", "c", "java", "javascript"}
	}
	languages := make(map[string]struct{}, len(opts.Languages))
	for _, lang := range opts.Languages {
		languages[strings.ToLower(lang)] = struct{}{}
	}
	return &Orchestrator{
		extractor: extractor,
		store:     st,
		suggester: suggester,
		metrics:   metrics,
		opts:      opts,
		languages: languages,
	}
}

// ActiveModel returns the model snapshot serving classifications, or
// nil when no model has been published yet.
func (o *Orchestrator) ActiveModel() *analysis.Model {
	return o.model.Load()
}

// SetModel publishes a new model. In-flight analyses keep the snapshot
// they already loaded.
func (o *Orchestrator) SetModel(m *analysis.Model) {
	o.model.Store(m)
}

// Analyze validates the submission, classifies it against the active
// model snapshot, generates a suggestion and persists the outcome.
// Validation failures return before anything is stored.
func (o *Orchestrator) Analyze(ctx context.Context, code, errText, language string) (*store.Submission, error) {
	start := time.Now()

	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}
	if len(code) > o.opts.MaxCodeLength {
		return nil, ErrCodeTooLong
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if _, ok := o.languages[language]; !ok {
		language = o.opts.DefaultLanguage
	}

	features := o.extractor.Extract(code, language)

	concept := analysis.ConceptUnknown
	confidence := 0.0
	model := o.model.Load()
	if model != nil {
		pred, err := model.Classify(features)
		if err != nil {
			slog.Warn("Classification failed, falling back to unknown concept",
				"error", err, "model_version", model.Version)
			if o.metrics != nil {
				o.metrics.IncrementClassifierFallback()
			}
		} else {
			concept = pred.Label
			confidence = pred.Confidence
		}
	} else {
		slog.Warn("No model published, falling back to unknown concept")
		if o.metrics != nil {
			o.metrics.IncrementClassifierFallback()
		}
	}

	result := o.suggester.Suggest(ctx, suggest.Request{
		Concept:    concept,
		Code:       code,
		Error:      errText,
		Language:   language,
		Confidence: confidence,
	})
	if o.metrics != nil {
		if result.LLMUsed {
			o.metrics.IncrementLLMCall()
		} else {
			o.metrics.IncrementLLMFallback()
		}
	}

	submission := &store.Submission{
		Code:           code,
		Error:          errText,
		Language:       language,
		Concept:        concept,
		Confidence:     confidence,
		Suggestion:     result.Text,
		LLMUsed:        result.LLMUsed,
		ProcessingTime: time.Since(start).Seconds(),
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := o.store.Append(ctx, submission); err != nil {
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.IncrementAnalysis()
		o.metrics.RecordResponseTime(time.Since(start))
	}

	return submission, nil
}

// Stats aggregates stored submission counts with the active model version.
func (o *Orchestrator) Stats(ctx context.Context) (map[string]int64, int64, int, error) {
	counts, total, err := o.store.ConceptCounts(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	version := 0
	if m := o.model.Load(); m != nil {
		version = m.Version
	}
	return counts, total, version, nil
}
