package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fwojciec/docpkg"
	"google.golang.org/genai"
)

// DefaultModel is used for enrichment when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// MaxAnalysisChars bounds the document content sent for analysis.
const MaxAnalysisChars = 15000

// Ensure Analyzer implements docpkg.Analyzer at compile time.
var _ docpkg.Analyzer = (*Analyzer)(nil)

// Analyzer implements docpkg.Analyzer using Google Gemini with JSON output.
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer creates a new Analyzer. An empty model selects DefaultModel.
func NewAnalyzer(client *genai.Client, model string) *Analyzer {
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{client: client, model: model}
}

// Analyze returns a summary, tags and section summaries for content.
func (a *Analyzer) Analyze(ctx context.Context, content string) (*docpkg.Analysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, docpkg.Errorf(docpkg.EINVALID, "content required")
	}
	if a.client == nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "gemini client not configured")
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildAnalysisPrompt(content)}},
		}},
		BuildAnalysisConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, docpkg.Errorf(docpkg.EINTERNAL, "gemini returned nil result")
	}

	return ParseAnalysis(result.Text())
}

// BuildAnalysisConfig returns the GenerateContentConfig for analysis calls.
func BuildAnalysisConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a technical documentation assistant. You analyze documentation and reply with JSON only.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}

// BuildAnalysisPrompt builds the analysis prompt, truncating content to
// MaxAnalysisChars characters.
func BuildAnalysisPrompt(content string) string {
	if r := []rune(content); len(r) > MaxAnalysisChars {
		content = string(r[:MaxAnalysisChars])
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following documentation content.\n")
	sb.WriteString("Return a JSON object with:\n")
	sb.WriteString(`1. "summary": A concise summary of the document (max 50 words).` + "\n")
	sb.WriteString(`2. "tags": An array of 3-5 relevant semantic tags (lowercase, kebab-case).` + "\n")
	sb.WriteString(`3. "sections": An array of objects with "title" and "summary" for major sections if they exist.` + "\n\n")
	sb.WriteString("<content>\n")
	sb.WriteString(content)
	sb.WriteString("\n</content>")
	return sb.String()
}

// ParseAnalysis decodes a model reply. A surrounding markdown code fence is
// tolerated.
func ParseAnalysis(text string) (*docpkg.Analysis, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var a docpkg.Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, docpkg.Errorf(docpkg.EINTERNAL, "malformed analysis response: %v", err)
	}
	for i, tag := range a.Tags {
		a.Tags[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	return &a, nil
}
