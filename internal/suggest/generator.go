package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LLMClient is the language-generation collaborator contract. Calls may
// fail or time out; the Generator treats every failure as non-fatal.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request carries everything the generator needs for one suggestion.
type Request struct {
	Concept    string
	Code       string
	Error      string
	Language   string
	Confidence float64
}

// Result is an attributable suggestion: LLMUsed distinguishes
// model-generated text from the deterministic templates.
type Result struct {
	Text    string
	LLMUsed bool
}

// Generator produces suggestions in two tiers: a templated tier that
// always succeeds, and an LLM tier bounded by a timeout that falls back
// to the templates on any failure.
type Generator struct {
	llm     LLMClient
	timeout time.Duration
}

// NewGenerator creates a suggestion generator. A nil client disables
// the augmented tier entirely.
func NewGenerator(llm LLMClient, timeout time.Duration) *Generator {
	return &Generator{llm: llm, timeout: timeout}
}

// Suggest returns advice for the request. It never fails.
func (g *Generator) Suggest(ctx context.Context, req Request) Result {
	fallback := Result{
		Text:    Fallback(req.Concept, req.Code, req.Error, req.Language),
		LLMUsed: false,
	}

	if g.llm == nil {
		return fallback
	}

	llmCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(req.Concept, req.Code, req.Error, req.Language, req.Confidence)

	text, err := g.llm.Generate(llmCtx, prompt)
	if err != nil {
		slog.Warn("LLM suggestion failed, using templated fallback",
			"concept", req.Concept, "error", err)
		return fallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("LLM returned empty suggestion, using templated fallback",
			"concept", req.Concept)
		return fallback
	}

	return Result{Text: text, LLMUsed: true}
}
