package http

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
	"github.com/fwojciec/docpkg/fs"
)

// Ensure Adapter implements docpkg.Adapter at compile time.
var _ docpkg.Adapter = (*Adapter)(nil)

// DefaultFilename is used when a URL path has no final segment.
const DefaultFilename = "download"

// Adapter installs a single remote file. When a Converter is set, HTML
// files also get a markdown sidecar so they can be indexed.
type Adapter struct {
	client    *Client
	converter docpkg.Converter
	logger    *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithConverter sets the converter used for HTML sidecars.
func WithConverter(c docpkg.Converter) AdapterOption {
	return func(a *Adapter) {
		a.converter = c
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter creates a remote-file Adapter downloading through client.
func NewAdapter(client *Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client: client,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() docpkg.SourceType { return docpkg.SourceRemote }

// Parse claims "remote:<url>" and bare http(s) URLs.
func (a *Adapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	raw, ok := docpkg.TrimScheme(spec, "remote:")
	if !ok {
		if !strings.HasPrefix(spec, "http://") && !strings.HasPrefix(spec, "https://") {
			return nil, false
		}
		raw = spec
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}

	filename := Filename(u)
	return &docpkg.ParsedSource{
		Type:     docpkg.SourceRemote,
		Name:     stem(filename),
		URL:      raw,
		Filename: filename,
		Original: spec,
	}, true
}

// Filename returns the last path segment of u, or DefaultFilename.
func Filename(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return DefaultFilename
	}
	return name
}

func stem(filename string) string {
	name := strings.TrimSuffix(filename, path.Ext(filename))
	if name == "" {
		return DefaultFilename
	}
	return name
}

// Resolve pins the URL itself. No network access is performed.
func (a *Adapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
	return &docpkg.ResolvedSource{
		Type:     docpkg.SourceRemote,
		Name:     src.Name,
		URL:      src.URL,
		Filename: src.Filename,
		Resolved: "remote:" + src.URL,
	}, nil
}

// Fetch downloads the file into <cacheDir>/http/<key>/<filename> unless it
// is already there, and returns the entry directory.
func (a *Adapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
	dir := cache.Dir(cacheDir, "http", src.URL)
	file := filepath.Join(dir, src.Filename)
	if cache.Exists(file) {
		a.logger.Debug("using cached file", "path", file)
		return dir, nil
	}

	if err := a.client.Download(ctx, src.URL, file); err != nil {
		return "", docpkg.Wrap(err, "failed to download %s", src.URL)
	}
	return dir, nil
}

// Extract copies the cached file into targetDir under its filename.
func (a *Adapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
	srcFile := filepath.Join(cachedPath, src.Filename)
	if err := fs.CopyFile(srcFile, filepath.Join(targetDir, src.Filename)); err != nil {
		return docpkg.Wrap(err, "failed to extract %s", src.URL)
	}

	if a.converter == nil || !isHTML(src.Filename) {
		return nil
	}
	html, err := os.ReadFile(srcFile)
	if err != nil {
		return err
	}
	md, err := a.converter.Convert(string(html))
	if err != nil {
		a.logger.Warn("markdown conversion failed", "url", src.URL, "error", err)
		return nil
	}
	return os.WriteFile(filepath.Join(targetDir, stem(src.Filename)+".md"), []byte(md), 0644)
}

func isHTML(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".html", ".htm":
		return true
	}
	return false
}
