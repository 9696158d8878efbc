package types

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Code     string `json:"code" binding:"required"`
	Error    string `json:"error"`
	Language string `json:"language"`
}

// AnalyzeResponse is returned for a successful analysis.
type AnalyzeResponse struct {
	ID             int64   `json:"id"`
	Concept        string  `json:"concept"`
	Confidence     float64 `json:"confidence"`
	Suggestion     string  `json:"suggestion"`
	ProcessingTime float64 `json:"processing_time"`
	LLMUsed        bool    `json:"llm_used"`
}

// RetrainResponse reports the outcome of a retrain request.
type RetrainResponse struct {
	Success bool   `json:"success"`
	Version int    `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatsResponse aggregates the submission store for the dashboard.
type StatsResponse struct {
	TotalSubmissions int64            `json:"total_submissions"`
	ConceptCounts    map[string]int64 `json:"concept_counts"`
	ModelVersion     int              `json:"model_version"`
}
