package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db)
}

func TestNewDB_AppliesWALPragmas(t *testing.T) {
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestRepository_AppendAssignsIncreasingIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		s := &Submission{
			Code:           "print('hi')",
			Language:       "python",
			Concept:        "General Programming",
			Confidence:     0.5,
			Suggestion:     "keep going",
			ProcessingTime: 1.2,
		}
		id, err := repo.Append(ctx, s)
		require.NoError(t, err)
		assert.Greater(t, id, last)
		assert.Equal(t, id, s.ID)
		last = id
	}
}

func TestRepository_AppendRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	in := &Submission{
		Code:           "while left <= right:\n    mid = (left + right) // 2",
		Error:          "IndexError: list index out of range",
		Language:       "python",
		Concept:        "Binary Search",
		Confidence:     0.91,
		Suggestion:     "Check your bounds.",
		LLMUsed:        true,
		ProcessingTime: 42.5,
		CreatedAt:      created,
	}

	id, err := repo.Append(ctx, in)
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Code, got.Code)
	assert.Equal(t, in.Error, got.Error)
	assert.Equal(t, in.Language, got.Language)
	assert.Equal(t, in.Concept, got.Concept)
	assert.InDelta(t, in.Confidence, got.Confidence, 1e-9)
	assert.Equal(t, in.Suggestion, got.Suggestion)
	assert.True(t, got.LLMUsed)
	assert.InDelta(t, in.ProcessingTime, got.ProcessingTime, 1e-9)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestRepository_ListAllInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	concepts := []string{"Sorting", "Binary Search", "Sorting", "Graph Traversal"}
	for _, c := range concepts {
		_, err := repo.Append(ctx, &Submission{
			Code:       "code",
			Language:   "python",
			Concept:    c,
			Suggestion: "s",
		})
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(concepts))

	for i, s := range all {
		assert.Equal(t, concepts[i], s.Concept)
		if i > 0 {
			assert.Greater(t, s.ID, all[i-1].ID)
		}
	}
}

func TestRepository_ConceptCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	counts, total, err := repo.ConceptCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, counts)

	for _, c := range []string{"Sorting", "Sorting", "Binary Search"} {
		_, err := repo.Append(ctx, &Submission{
			Code:       "code",
			Language:   "python",
			Concept:    c,
			Suggestion: "s",
		})
		require.NoError(t, err)
	}

	counts, total, err = repo.ConceptCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), counts["Sorting"])
	assert.Equal(t, int64(1), counts["Binary Search"])
}
