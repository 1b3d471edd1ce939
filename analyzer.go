package docpkg

import (
	"context"
	"time"
)

// Analysis is what an AI service returns for one document.
type Analysis struct {
	Summary  string      `json:"summary"`
	Tags     []string    `json:"tags"`
	Sections []AISection `json:"sections"`
}

// AISection is a generated summary of one section of a document.
type AISection struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Analyzer annotates documentation with generated summaries and tags.
type Analyzer interface {
	// Analyze returns a summary, tags and section summaries for content.
	Analyze(ctx context.Context, content string) (*Analysis, error)
}

// ApplyAnalysis merges a into f: the summary replaces the description when
// non-empty, tags are unioned preserving order, and the enrichment flag and
// timestamp are stamped.
func ApplyAnalysis(f *FileEntry, a *Analysis, now time.Time) {
	if a == nil {
		return
	}
	if a.Summary != "" {
		f.Description = a.Summary
	}
	f.Tags = UnionTags(f.Tags, a.Tags)
	if len(a.Sections) > 0 {
		f.AISections = a.Sections
	}
	f.AIEnriched = true
	f.AIEnrichedAt = &now
}

// UnionTags returns the tags of a followed by those of b not already present.
func UnionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
