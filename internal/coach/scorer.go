package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/practice"
)

// LLMScorer implements practice.Scorer with an LLM provider.
type LLMScorer struct {
	provider llm.Provider
	config   Config
}

// NewScorer creates an LLMScorer.
func NewScorer(provider llm.Provider, cfg Config) *LLMScorer {
	return &LLMScorer{provider: provider, config: cfg}
}

// Score assesses req.Utterance and returns the in-character reply.
func (s *LLMScorer) Score(ctx context.Context, req practice.TurnRequest) (*practice.Assessment, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return nil, fmt.Errorf("score turn: empty utterance")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeTurnScore)

	lenient := !s.config.StructuredOutput
	llmReq := llm.Request{
		System: buildScorerSystem(req.Scene, lenient),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildTurnMessage(req.History, req.Utterance, s.config.HistoryTurns)},
		},
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}
	if !lenient {
		llmReq.Schema = TurnSchema
	}

	resp, err := s.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("score turn: %w", err)
	}

	content := resp.Content
	if lenient {
		repaired, _, ok := llm.RepairJSON(content)
		if !ok {
			return nil, fmt.Errorf("score turn: %w: unparseable output", ErrMalformedResult)
		}
		content = repaired
	}

	a, err := parseAssessment(content)
	if err != nil {
		return nil, fmt.Errorf("score turn: %w", err)
	}
	return a, nil
}
