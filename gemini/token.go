package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/docpkg"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ docpkg.TokenCounter = (*TokenCounter)(nil)

// DefaultChunkSize bounds the bytes handed to the tokenizer in one call.
const DefaultChunkSize = 64 * 1024

// TokenCounter counts document tokens offline with the Gemini tokenizer.
// Documents larger than the chunk size are counted in line-aligned chunks
// and summed. It is safe for concurrent use.
type TokenCounter struct {
	mu        sync.Mutex
	tok       *tokenizer.LocalTokenizer
	chunkSize int
}

// NewTokenCounter loads the tokenizer for model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, docpkg.Wrap(err, "load tokenizer for %s", model)
	}
	return &TokenCounter{tok: tok, chunkSize: DefaultChunkSize}, nil
}

// CountTokens returns the token count of text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	total := 0
	for _, chunk := range Chunks(text, tc.chunkSize) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := tc.count(chunk)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (tc *TokenCounter) count(text string) (int, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}

// Chunks splits text into pieces of at most size bytes, breaking after a
// newline where one exists. A single line longer than size is split at size.
func Chunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	for len(text) > size {
		cut := strings.LastIndexByte(text[:size], '\n') + 1
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
