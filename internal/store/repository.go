package store

import (
	"context"
	"fmt"
	"time"
)

// Repository provides append and read access to stored submissions.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Append persists a submission and returns its assigned id.
func (r *Repository) Append(ctx context.Context, s *Submission) (int64, error) {
	stmt, err := r.db.stmt("insert_submission")
	if err != nil {
		return 0, err
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	result, err := stmt.ExecContext(ctx,
		s.Code, s.Error, s.Language, s.Concept, s.Confidence,
		s.Suggestion, s.LLMUsed, s.ProcessingTime, s.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get submission id: %w", err)
	}
	s.ID = id

	return id, nil
}

// ListAll returns every stored submission in insertion order.
func (r *Repository) ListAll(ctx context.Context) ([]Submission, error) {
	stmt, err := r.db.stmt("list_submissions")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var submissions []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.Code, &s.Error, &s.Language, &s.Concept,
			&s.Confidence, &s.Suggestion, &s.LLMUsed, &s.ProcessingTime, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

// ConceptCounts returns the number of submissions per predicted concept
// and the total count.
func (r *Repository) ConceptCounts(ctx context.Context) (map[string]int64, int64, error) {
	stmt, err := r.db.stmt("concept_counts")
	if err != nil {
		return nil, 0, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query concept counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	var total int64
	for rows.Next() {
		var concept string
		var count int64
		if err := rows.Scan(&concept, &count); err != nil {
			return nil, 0, fmt.Errorf("failed to scan concept count: %w", err)
		}
		counts[concept] = count
		total += count
	}

	return counts, total, rows.Err()
}
