// Package slog decorates docpkg services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docpkg"
)

// Ensure LoggingAdapter implements docpkg.Adapter at compile time.
var _ docpkg.Adapter = (*LoggingAdapter)(nil)

// LoggingAdapter wraps an Adapter with logging of each pipeline stage.
type LoggingAdapter struct {
	next   docpkg.Adapter
	logger *slog.Logger
}

// NewLoggingAdapter creates a new LoggingAdapter.
func NewLoggingAdapter(next docpkg.Adapter, logger *slog.Logger) *LoggingAdapter {
	return &LoggingAdapter{next: next, logger: logger}
}

// Type delegates to the wrapped adapter.
func (a *LoggingAdapter) Type() docpkg.SourceType {
	return a.next.Type()
}

// Parse delegates to the wrapped adapter. Parse is called for every adapter
// on every spec, so it is not logged.
func (a *LoggingAdapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	return a.next.Parse(spec)
}

// Resolve delegates to the wrapped adapter and logs the pinned source.
func (a *LoggingAdapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (resolved *docpkg.ResolvedSource, err error) {
	defer func(begin time.Time) {
		pinned := ""
		if resolved != nil {
			pinned = resolved.Resolved
		}
		a.logger.Info("resolve",
			"type", string(a.next.Type()),
			"spec", src.Original,
			"resolved", pinned,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Resolve(ctx, src)
}

// Fetch delegates to the wrapped adapter and logs the cache path.
func (a *LoggingAdapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (path string, err error) {
	defer func(begin time.Time) {
		a.logger.Info("fetch",
			"type", string(a.next.Type()),
			"spec", src.Resolved,
			"path", path,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Fetch(ctx, src, cacheDir)
}

// Extract delegates to the wrapped adapter and logs the target directory.
func (a *LoggingAdapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) (err error) {
	defer func(begin time.Time) {
		a.logger.Info("extract",
			"type", string(a.next.Type()),
			"spec", src.Resolved,
			"target", targetDir,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Extract(ctx, cachedPath, targetDir, src)
}

// WrapAdapters wraps each adapter with a LoggingAdapter, preserving order.
func WrapAdapters(adapters []docpkg.Adapter, logger *slog.Logger) []docpkg.Adapter {
	out := make([]docpkg.Adapter, len(adapters))
	for i, a := range adapters {
		out[i] = NewLoggingAdapter(a, logger)
	}
	return out
}
