package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := TrainSeedModel(NewExtractor(), TrainConfig{
		Labels:      DefaultLabels,
		MinExamples: 5,
		TieEpsilon:  0.05,
	})
	require.NoError(t, err)
	return model
}

func TestTrain_InsufficientData(t *testing.T) {
	extractor := NewExtractor()
	examples := []Example{
		{Features: extractor.Extract("x = 1", "python"), Label: "General Programming"},
		{Features: extractor.Extract("y = 2", "python"), Label: "General Programming"},
	}

	_, err := Train(1, examples, TrainConfig{MinExamples: 5})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrain_UnknownLabel(t *testing.T) {
	extractor := NewExtractor()
	examples := []Example{
		{Features: extractor.Extract("x = 1", "python"), Label: "Quantum Sorcery"},
	}

	_, err := Train(1, examples, TrainConfig{MinExamples: 1})

	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestTrain_ProducesImmutableVersionedModel(t *testing.T) {
	model := trainTestModel(t)

	assert.Equal(t, 1, model.Version)
	assert.False(t, model.TrainedAt.IsZero())
	assert.Equal(t, DefaultLabels, model.Labels())
	assert.Equal(t, len(seedCorpus), model.ExampleCount())

	// Labels() hands out a copy, not internal state.
	labels := model.Labels()
	labels[0] = "mutated"
	assert.Equal(t, DefaultLabels[0], model.Labels()[0])
}

func TestClassify_SeedConcepts(t *testing.T) {
	extractor := NewExtractor()
	model := trainTestModel(t)

	tests := []struct {
		name     string
		code     string
		language string
		want     string
	}{
		{
			name:     "binary search",
			code:     "def bsearch(arr, target):\n    left, right = 0, len(arr)-1\n    while left <= right:\n        mid = (left + right) // 2\n        if arr[mid] < target:\n            left = mid + 1",
			language: "python",
			want:     "Binary Search",
		},
		{
			name:     "dynamic programming",
			code:     "dp = [0] * (n+1)\nfor i in range(2, n+1):\n    dp[i] = dp[i-1] + dp[i-2]",
			language: "python",
			want:     "Dynamic Programming",
		},
		{
			name:     "graph traversal",
			code:     "def dfs(graph, node, visited):\n    visited.add(node)\n    for neighbor in graph[node]:\n        if neighbor not in visited:\n            dfs(graph, neighbor, visited)",
			language: "python",
			want:     "Graph Traversal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := model.Classify(extractor.Extract(tt.code, tt.language))
			require.NoError(t, err)

			assert.Equal(t, tt.want, pred.Label)
			assert.GreaterOrEqual(t, pred.Confidence, 0.0)
			assert.LessOrEqual(t, pred.Confidence, 1.0)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	extractor := NewExtractor()
	model := trainTestModel(t)
	fv := extractor.Extract("arr.sort()\nfor i in range(len(arr)):\n    print(arr[i])", "python")

	first, err := model.Classify(fv)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := model.Classify(fv)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassify_SchemaMismatch(t *testing.T) {
	model := trainTestModel(t)

	tests := []struct {
		name string
		fv   FeatureVector
	}{
		{
			name: "wrong schema version",
			fv:   FeatureVector{Schema: FeatureSchema + 1, Values: make([]float64, featureDim)},
		},
		{
			name: "wrong dimension",
			fv:   FeatureVector{Schema: FeatureSchema, Values: make([]float64, 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Classify(tt.fv)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestClassify_TieBreakPrefersMoreExamples(t *testing.T) {
	extractor := NewExtractor()
	fv := extractor.Extract("x = 1", "python")

	// Identical features under two labels, one with more examples. With
	// a full-width epsilon every label ties, so the example count must
	// decide the winner.
	examples := []Example{
		{Features: fv, Label: "Sorting"},
		{Features: fv, Label: "Greedy Algorithm"},
		{Features: fv, Label: "Greedy Algorithm"},
		{Features: fv, Label: "Greedy Algorithm"},
		{Features: fv, Label: "Sorting"},
	}

	model, err := Train(2, examples, TrainConfig{
		Labels:      []string{"Sorting", "Greedy Algorithm"},
		MinExamples: 1,
		TieEpsilon:  1.0,
	})
	require.NoError(t, err)

	pred, err := model.Classify(fv)
	require.NoError(t, err)
	assert.Equal(t, "Greedy Algorithm", pred.Label)
}

func TestTrain_DoesNotMutatePriorModel(t *testing.T) {
	extractor := NewExtractor()
	v1 := trainTestModel(t)
	fv := extractor.Extract("while left <= right:\n    mid = (left + right) // 2", "python")

	before, err := v1.Classify(fv)
	require.NoError(t, err)

	// Retrain a heavily skewed v2; v1 predictions must be unchanged.
	skewed := make([]Example, 0, 20)
	for i := 0; i < 20; i++ {
		skewed = append(skewed, Example{Features: fv, Label: "Mathematics"})
	}
	v2, err := Train(2, skewed, TrainConfig{Labels: DefaultLabels, MinExamples: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	after, err := v1.Classify(fv)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
