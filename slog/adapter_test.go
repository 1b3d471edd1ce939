package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/mock"
	docslog "github.com/fwojciec/docpkg/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInner() *mock.Adapter {
	return &mock.Adapter{
		TypeFn: func() docpkg.SourceType { return docpkg.SourceRemote },
		ParseFn: func(spec string) (*docpkg.ParsedSource, bool) {
			return &docpkg.ParsedSource{Type: docpkg.SourceRemote, Original: spec}, true
		},
		ResolveFn: func(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
			return &docpkg.ResolvedSource{Type: docpkg.SourceRemote, Resolved: src.Original}, nil
		},
		FetchFn: func(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
			return "/cache/http/abc", nil
		},
		ExtractFn: func(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
			return errors.New("disk full")
		},
	}
}

func TestLoggingAdapter(t *testing.T) {
	t.Parallel()

	t.Run("logs resolve with type and pinned spec", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		a := docslog.NewLoggingAdapter(newInner(), logger)

		resolved, err := a.Resolve(context.Background(), &docpkg.ParsedSource{Original: "remote:https://example.com/a.md"})

		require.NoError(t, err)
		assert.Equal(t, "remote:https://example.com/a.md", resolved.Resolved)
		output := buf.String()
		assert.Contains(t, output, "msg=resolve")
		assert.Contains(t, output, "type=remote")
		assert.Contains(t, output, "resolved=remote:https://example.com/a.md")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs fetch path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		a := docslog.NewLoggingAdapter(newInner(), logger)

		path, err := a.Fetch(context.Background(), &docpkg.ResolvedSource{Resolved: "remote:x"}, "/cache")

		require.NoError(t, err)
		assert.Equal(t, "/cache/http/abc", path)
		assert.Contains(t, buf.String(), "path=/cache/http/abc")
	})

	t.Run("logs error on extract failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		a := docslog.NewLoggingAdapter(newInner(), logger)

		err := a.Extract(context.Background(), "/cache/http/abc", "/docs/a", &docpkg.ResolvedSource{Resolved: "remote:x"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "err=\"disk full\"")
	})

	t.Run("parse is not logged", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		a := docslog.NewLoggingAdapter(newInner(), logger)

		_, ok := a.Parse("remote:x")

		assert.True(t, ok)
		assert.Empty(t, buf.String())
	})
}

func TestWrapAdapters(t *testing.T) {
	t.Parallel()

	inner := []docpkg.Adapter{newInner(), newInner()}

	wrapped := docslog.WrapAdapters(inner, slog.New(slog.DiscardHandler))

	require.Len(t, wrapped, 2)
	for _, a := range wrapped {
		assert.IsType(t, &docslog.LoggingAdapter{}, a)
		assert.Equal(t, docpkg.SourceRemote, a.Type())
	}
}

func TestLoggingAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, content string) (*docpkg.Analysis, error) {
			return &docpkg.Analysis{Tags: []string{"a", "b"}}, nil
		},
	}

	a := docslog.NewLoggingAnalyzer(inner, logger)
	analysis, err := a.Analyze(context.Background(), "# Title")

	require.NoError(t, err)
	assert.Len(t, analysis.Tags, 2)
	output := buf.String()
	assert.Contains(t, output, "msg=analyze")
	assert.Contains(t, output, "bytes=7")
	assert.Contains(t, output, "tags=2")
}
