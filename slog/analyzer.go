package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docpkg"
)

// Ensure LoggingAnalyzer implements docpkg.Analyzer at compile time.
var _ docpkg.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with logging.
type LoggingAnalyzer struct {
	next   docpkg.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next docpkg.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs the size of the input
// and the number of tags returned.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, content string) (analysis *docpkg.Analysis, err error) {
	defer func(begin time.Time) {
		tags := 0
		if analysis != nil {
			tags = len(analysis.Tags)
		}
		a.logger.Info("analyze",
			"bytes", len(content),
			"tags", tags,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Analyze(ctx, content)
}
