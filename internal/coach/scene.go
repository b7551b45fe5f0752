package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/practice"
)

// maxRecentTitles bounds the titles sent to avoid repeats.
const maxRecentTitles = 8

// LLMSceneGenerator implements practice.SceneGenerator with an LLM provider.
type LLMSceneGenerator struct {
	provider llm.Provider
	config   Config

	mu     sync.Mutex
	recent []string
}

// NewSceneGenerator creates an LLMSceneGenerator.
func NewSceneGenerator(provider llm.Provider, cfg Config) *LLMSceneGenerator {
	return &LLMSceneGenerator{provider: provider, config: cfg}
}

type sceneOutput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Context     string `json:"context"`
	Goal        string `json:"goal"`
	Difficulty  string `json:"difficulty"`
	OpeningLine string `json:"opening_line"`
}

// Generate produces a scene for the requested difficulty. A difficulty
// echoed back by the model that does not match is replaced by the
// requested one.
func (g *LLMSceneGenerator) Generate(ctx context.Context, difficulty practice.Difficulty) (*practice.SceneInfo, error) {
	if !difficulty.Valid() {
		return nil, fmt.Errorf("generate scene: unknown difficulty %q", difficulty)
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeSceneGen)

	lenient := !g.config.StructuredOutput
	req := llm.Request{
		System: buildSceneSystem(lenient),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildSceneMessage(difficulty, g.recentTitles())},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if !lenient {
		req.Schema = SceneSchema
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate scene: %w", err)
	}

	content := resp.Content
	if lenient {
		repaired, _, ok := llm.RepairJSON(content)
		if !ok {
			return nil, fmt.Errorf("generate scene: %w: unparseable output", ErrMalformedResult)
		}
		content = repaired
	}

	var out sceneOutput
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, fmt.Errorf("generate scene: %w: %v", ErrMalformedResult, err)
	}
	if strings.TrimSpace(out.Title) == "" {
		return nil, fmt.Errorf("generate scene: %w: missing title", ErrMalformedResult)
	}

	scene := &practice.SceneInfo{
		Title:       strings.TrimSpace(out.Title),
		Description: strings.TrimSpace(out.Description),
		Context:     strings.TrimSpace(out.Context),
		Goal:        strings.TrimSpace(out.Goal),
		Difficulty:  difficulty,
		Opening:     strings.TrimSpace(out.OpeningLine),
	}
	g.remember(scene.Title)
	return scene, nil
}

func (g *LLMSceneGenerator) recentTitles() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.recent...)
}

func (g *LLMSceneGenerator) remember(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recent = append(g.recent, title)
	if len(g.recent) > maxRecentTitles {
		g.recent = g.recent[len(g.recent)-maxRecentTitles:]
	}
}
