package index

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/docpkg"
)

// Enricher annotates index entries with AI-generated summaries and tags.
type Enricher struct {
	Analyzer docpkg.Analyzer

	// Force re-analyzes files that are already enriched.
	Force bool

	Logger *slog.Logger
	Now    func() time.Time
}

// EnrichResult counts the outcome of an enrichment pass.
type EnrichResult struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Enrich analyzes each eligible file in idx and merges the analysis into it.
// Per-file failures are logged and counted. The tag aggregation of idx is
// rebuilt afterwards.
func (e *Enricher) Enrich(ctx context.Context, idx *docpkg.Index) (*EnrichResult, error) {
	logger := e.logger()
	result := &EnrichResult{}

	for _, f := range idx.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if (f.AIEnriched && !e.Force) || f.AbsolutePath == "" {
			result.Skipped++
			continue
		}

		data, err := os.ReadFile(f.AbsolutePath)
		if err != nil {
			logger.Warn("failed to read file", "path", f.Path, "error", err)
			result.Failed++
			continue
		}

		analysis, err := e.Analyzer.Analyze(ctx, string(data))
		if err != nil {
			logger.Warn("failed to enrich file", "path", f.Path, "error", err)
			result.Failed++
			continue
		}

		docpkg.ApplyAnalysis(f, analysis, e.now())
		logger.Debug("enriched", "path", f.Path, "tags", len(f.Tags))
		result.Enriched++
	}

	idx.RebuildTags()
	return result, nil
}

func (e *Enricher) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}
