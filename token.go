package docpkg

import "context"

// TokenCounter counts tokens in text using a fixed subword tokenizer.
// Implementations must be deterministic across runs.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
