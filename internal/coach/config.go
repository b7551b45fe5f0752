package coach

// Config controls the LLM-backed collaborators.
type Config struct {
	// MaxTokens is the token budget for each LLM response.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`

	// HistoryTurns bounds how many earlier turns are sent with each
	// scoring request. A turn is one user message plus its reply.
	HistoryTurns int `yaml:"history_turns"`

	// StructuredOutput sends the response schema to the provider. When
	// false the format is described in the prompt and the reply is
	// repaired and extracted leniently.
	StructuredOutput bool `yaml:"structured_output"`
}

// DefaultConfig returns the recommended collaborator settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        600,
		Temperature:      0.7,
		HistoryTurns:     6,
		StructuredOutput: true,
	}
}
