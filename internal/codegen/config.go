package codegen

// Config controls token budgets and sampling for the three calls.
type Config struct {
	GenerateMaxTokens int
	EvaluateMaxTokens int
	QuestionMaxTokens int
	Temperature       float64
}

// DefaultConfig mirrors the budgets the hosted prompts were tuned for.
func DefaultConfig() Config {
	return Config{
		GenerateMaxTokens: 4096,
		EvaluateMaxTokens: 256,
		QuestionMaxTokens: 256,
		Temperature:       0.4,
	}
}
