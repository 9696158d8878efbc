package store

import "time"

// Submission is one analyzed code sample together with the verdict the
// pipeline produced for it. Rows are append-only.
type Submission struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Error          string    `json:"error,omitempty"`
	Language       string    `json:"language"`
	Concept        string    `json:"concept"`
	Confidence     float64   `json:"confidence"`
	Suggestion     string    `json:"suggestion"`
	LLMUsed        bool      `json:"llm_used"`
	ProcessingTime float64   `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}
