package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algo-insight/code-mentor/internal/analysis"
	"github.com/algo-insight/code-mentor/internal/store"
	"github.com/algo-insight/code-mentor/internal/suggest"
)

// memStore is an in-memory SubmissionStore for tests.
type memStore struct {
	mu        sync.Mutex
	subs      []store.Submission
	appendErr error
	listErr   error
}

func (m *memStore) Append(ctx context.Context, s *store.Submission) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	s.ID = int64(len(m.subs) + 1)
	m.subs = append(m.subs, *s)
	return s.ID, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]store.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]store.Submission, len(m.subs))
	copy(out, m.subs)
	return out, nil
}

func (m *memStore) ConceptCounts(ctx context.Context) (map[string]int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range m.subs {
		counts[s.Concept]++
	}
	return counts, int64(len(m.subs)), nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// staticSuggester returns a fixed suggestion.
type staticSuggester struct {
	text    string
	llmUsed bool
}

func (s *staticSuggester) Suggest(ctx context.Context, req suggest.Request) suggest.Result {
	return suggest.Result{Text: s.text, LLMUsed: s.llmUsed}
}

func newTestOrchestrator(t *testing.T, st SubmissionStore) *Orchestrator {
	t.Helper()

	extractor := analysis.NewExtractor()
	orch := NewOrchestrator(extractor, st, &staticSuggester{text: "try smaller inputs"}, nil, Options{
		MaxCodeLength:   10000,
		DefaultLanguage: "python",
	})

	model, err := analysis.TrainSeedModel(extractor, analysis.TrainConfig{MinExamples: 5, TieEpsilon: 0.05})
	require.NoError(t, err)
	orch.SetModel(model)

	return orch
}

const binarySearchCode = `def search(nums, target):
    left, right = 0, len(nums) - 1
    while left <= right:
        mid = (left + right) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            left = mid + 1
        else:
            right = mid - 1
    return -1`

func TestAnalyze_HappyPath(t *testing.T) {
	st := &memStore{}
	orch := newTestOrchestrator(t, st)

	sub, err := orch.Analyze(context.Background(), binarySearchCode, "", "python")
	require.NoError(t, err)

	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, "Binary Search", sub.Concept)
	assert.Greater(t, sub.Confidence, 0.0)
	assert.Equal(t, "try smaller inputs", sub.Suggestion)
	assert.False(t, sub.LLMUsed)
	assert.GreaterOrEqual(t, sub.ProcessingTime, 0.0)
	assert.Equal(t, 1, st.len())
}

func TestAnalyze_ValidationFailuresPersistNothing(t *testing.T) {
	st := &memStore{}
	orch := newTestOrchestrator(t, st)

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"empty code", "", ErrEmptyCode},
		{"whitespace only", "   \n\t  ", ErrEmptyCode},
		{"code too long", strings.Repeat("a", 10001), ErrCodeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orch.Analyze(context.Background(), tt.code, "", "python")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, st.len(), "rejected submissions must not be stored")
}

func TestAnalyze_DefaultLanguage(t *testing.T) {
	st := &memStore{}
	orch := newTestOrchestrator(t, st)

	sub, err := orch.Analyze(context.Background(), "print('hi')", "", "")
	require.NoError(t, err)
	assert.Equal(t, "python", sub.Language)

	sub, err = orch.Analyze(context.Background(), "int main() {}", "", "  C  ")
	require.NoError(t, err)
	assert.Equal(t, "c", sub.Language)
}

func TestAnalyze_UnrecognizedLanguageFallsBack(t *testing.T) {
	st := &memStore{}
	orch := newTestOrchestrator(t, st)

	sub, err := orch.Analyze(context.Background(), "print('hi')", "", "klingon")
	require.NoError(t, err)
	assert.Equal(t, "python", sub.Language)

	sub, err = orch.Analyze(context.Background(), "fn main() {}", "", "rust")
	require.NoError(t, err)
	assert.Equal(t, "python", sub.Language, "tags outside the configured set use the default")
}

func TestAnalyze_ConfiguredLanguageSet(t *testing.T) {
	st := &memStore{}
	extractor := analysis.NewExtractor()
	orch := NewOrchestrator(extractor, st, &staticSuggester{text: "ok"}, nil, Options{
		DefaultLanguage: "java",
		Languages:       []string{"java", "kotlin"},
	})

	sub, err := orch.Analyze(context.Background(), "val x = 1", "", "kotlin")
	require.NoError(t, err)
	assert.Equal(t, "kotlin", sub.Language)

	sub, err = orch.Analyze(context.Background(), "print('hi')", "", "python")
	require.NoError(t, err)
	assert.Equal(t, "java", sub.Language)
}

// slowSuggester stalls so the measured pipeline duration is observable.
type slowSuggester struct {
	delay time.Duration
}

func (s *slowSuggester) Suggest(ctx context.Context, req suggest.Request) suggest.Result {
	time.Sleep(s.delay)
	return suggest.Result{Text: "eventually"}
}

func TestAnalyze_ProcessingTimeInSeconds(t *testing.T) {
	st := &memStore{}
	orch := NewOrchestrator(analysis.NewExtractor(), st, &slowSuggester{delay: 80 * time.Millisecond}, nil, Options{})

	sub, err := orch.Analyze(context.Background(), "print('hi')", "", "python")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sub.ProcessingTime, 0.08)
	assert.Less(t, sub.ProcessingTime, 1.0, "an 80ms pipeline must record a fraction of a second")
}

func TestAnalyze_NoModelFallsBackToUnknown(t *testing.T) {
	st := &memStore{}
	orch := NewOrchestrator(analysis.NewExtractor(), st, &staticSuggester{text: "generic advice"}, nil, Options{})

	sub, err := orch.Analyze(context.Background(), "print('hi')", "", "python")
	require.NoError(t, err)

	assert.Equal(t, analysis.ConceptUnknown, sub.Concept)
	assert.Zero(t, sub.Confidence)
	assert.Equal(t, "generic advice", sub.Suggestion)
	assert.Equal(t, 1, st.len(), "fallback analyses are still recorded")
}

func TestAnalyze_StoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("disk full")
	st := &memStore{appendErr: wantErr}
	orch := newTestOrchestrator(t, st)

	_, err := orch.Analyze(context.Background(), binarySearchCode, "", "python")
	assert.ErrorIs(t, err, wantErr)
}

func TestAnalyze_LLMUsedFlagRecorded(t *testing.T) {
	st := &memStore{}
	extractor := analysis.NewExtractor()
	orch := NewOrchestrator(extractor, st, &staticSuggester{text: "llm says hi", llmUsed: true}, nil, Options{})

	model, err := analysis.TrainSeedModel(extractor, analysis.TrainConfig{MinExamples: 5})
	require.NoError(t, err)
	orch.SetModel(model)

	sub, err := orch.Analyze(context.Background(), binarySearchCode, "", "python")
	require.NoError(t, err)
	assert.True(t, sub.LLMUsed)
}

func TestStats(t *testing.T) {
	st := &memStore{}
	orch := newTestOrchestrator(t, st)

	_, err := orch.Analyze(context.Background(), binarySearchCode, "", "python")
	require.NoError(t, err)

	counts, total, version, err := orch.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), counts["Binary Search"])
	assert.Equal(t, 1, version)
}
