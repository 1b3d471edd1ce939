// Package index builds the documentation index.
// It walks installed (or source-repository) trees, extracts per-document
// metadata, merges precomputed metadata shipped by sources, and renders
// filtered bundles.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docpkg"
)

// DefaultSourceName names the documentation set in source-authoring mode
// when the manifest declares no name.
const DefaultSourceName = "local"

// SourceTypeAuthoring is the index source type used in source-authoring mode.
const SourceTypeAuthoring = "source"

// UnknownVersion is recorded for sources with neither version nor ref.
const UnknownVersion = "unknown"

// Indexer generates the documentation index.
type Indexer struct {
	Ledger       docpkg.LedgerStore
	FrontMatter  docpkg.FrontMatterParser
	TokenCounter docpkg.TokenCounter
	Store        docpkg.IndexStore

	// Root is the project root. Ledger paths and file paths are relative to it.
	Root string

	Logger *slog.Logger
	Now    func() time.Time
}

// Options selects the generation mode.
type Options struct {
	// Manifest switches to source-authoring mode: the manifest's docs path is
	// scanned and every file is attributed to the manifest's name.
	Manifest *docpkg.Manifest
}

// precomputedIndex is the shape of a source's shipped metadata file.
type precomputedIndex struct {
	Files []*docpkg.FileEntry `json:"files"`
}

// Generate builds a fresh index.
func (ix *Indexer) Generate(ctx context.Context, opts Options) (*docpkg.Index, error) {
	idx := docpkg.NewIndex(ix.now())
	if opts.Manifest != nil {
		if err := ix.generateSource(ctx, idx, opts.Manifest); err != nil {
			return nil, err
		}
		return idx, nil
	}

	ledger, err := ix.Ledger.Load(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range ledger.Names() {
		entry, _ := ledger.Entry(name)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		version := entry.Version
		if version == "" {
			version = entry.Ref
		}
		if version == "" {
			version = UnknownVersion
		}

		idx.Sources = append(idx.Sources, docpkg.IndexSource{
			Name:    name,
			Type:    string(entry.Type),
			Version: version,
			Path:    entry.ExtractedPath,
		})

		// Installed sources stay listed even when their files are gone.
		dir := ix.resolve(entry.ExtractedPath)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			ix.logger().Warn("source path not found, skipping", "source", name, "path", entry.ExtractedPath)
			continue
		}

		precomputed := ix.readPrecomputed(name, dir)
		if err := ix.scanSource(ctx, idx, name, dir, precomputed); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (ix *Indexer) generateSource(ctx context.Context, idx *docpkg.Index, m *docpkg.Manifest) error {
	name := m.Name
	if name == "" {
		name = DefaultSourceName
	}
	docsPath := docpkg.SanitizePath(m.DocsPath)
	if docsPath == "" {
		docsPath = "."
	}

	idx.Sources = append(idx.Sources, docpkg.IndexSource{
		Name:    name,
		Type:    SourceTypeAuthoring,
		Version: m.Version,
		Path:    docsPath,
	})

	dir := ix.resolve(docsPath)
	if _, err := os.Stat(dir); err != nil {
		ix.logger().Warn("docs path not found", "path", docsPath)
		return nil
	}
	return ix.scanSource(ctx, idx, name, dir, nil)
}

// scanSource adds every markdown file under dir to idx, attributed to name.
func (ix *Indexer) scanSource(ctx context.Context, idx *docpkg.Index, name, dir string, precomputed []*docpkg.FileEntry) error {
	files, err := ScanFiles(dir)
	if err != nil {
		return err
	}
	rels := make([]string, len(files))
	for i, abs := range files {
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			return err
		}
		rels[i] = filepath.ToSlash(rel)
	}
	shipped := MatchPrecomputed(precomputed, rels)

	for i, abs := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := shipped[rels[i]]
		if f == nil {
			if f, err = ix.ExtractMetadata(ctx, abs); err != nil {
				ix.logger().Warn("failed to read file", "source", name, "path", abs, "error", err)
				continue
			}
		}
		f.Path = ix.relative(abs)
		f.Source = name
		f.AbsolutePath = abs
		idx.AddFile(f)
	}
	return nil
}

// Precomputed match strength, strongest first.
const (
	matchExact = iota
	matchPath
	matchAbsolute
	matchNone
)

// MatchPrecomputed pairs shipped entries with the local files at rels
// (source-relative, slash separated) and returns a copy of the winning entry
// per file. Each entry is assigned to a single file: the one its path names
// exactly, else the longest rel that its path ends with at a segment
// boundary, else the same test against its absolute path. A file claimed by
// several entries takes the exact match, then the shortest claiming path.
func MatchPrecomputed(precomputed []*docpkg.FileEntry, rels []string) map[string]*docpkg.FileEntry {
	type claim struct {
		entry    *docpkg.FileEntry
		strength int
		length   int
	}
	best := make(map[string]claim)
	for _, p := range precomputed {
		if p == nil {
			continue
		}
		rel, strength := claimedFile(p, rels)
		if strength == matchNone {
			continue
		}
		length := len(p.Path)
		if strength == matchAbsolute {
			length = len(p.AbsolutePath)
		}
		if cur, ok := best[rel]; ok && (cur.strength < strength || (cur.strength == strength && cur.length <= length)) {
			continue
		}
		best[rel] = claim{entry: p, strength: strength, length: length}
	}

	out := make(map[string]*docpkg.FileEntry, len(best))
	for rel, c := range best {
		f := *c.entry
		if f.Tags == nil {
			f.Tags = []string{}
		}
		if f.Sections == nil {
			f.Sections = []docpkg.Section{}
		}
		out[rel] = &f
	}
	return out
}

func claimedFile(p *docpkg.FileEntry, rels []string) (string, int) {
	for _, rel := range rels {
		if p.Path == rel {
			return rel, matchExact
		}
	}
	if rel := longestSuffix(p.Path, rels); rel != "" {
		return rel, matchPath
	}
	if p.AbsolutePath != "" {
		if rel := longestSuffix(filepath.ToSlash(p.AbsolutePath), rels); rel != "" {
			return rel, matchAbsolute
		}
	}
	return "", matchNone
}

// longestSuffix returns the longest rel that p ends with after a "/".
func longestSuffix(p string, rels []string) string {
	var found string
	for _, rel := range rels {
		if len(rel) > len(found) && strings.HasSuffix(p, "/"+rel) {
			found = rel
		}
	}
	return found
}

// readPrecomputed loads the precomputed metadata shipped at dir, if any.
func (ix *Indexer) readPrecomputed(name, dir string) []*docpkg.FileEntry {
	data, err := os.ReadFile(filepath.Join(dir, docpkg.PrecomputedIndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		ix.logger().Warn("failed to read precomputed index", "source", name, "error", err)
		return nil
	}
	var pre precomputedIndex
	if err := json.Unmarshal(data, &pre); err != nil {
		ix.logger().Warn("malformed precomputed index", "source", name, "error", err)
		return nil
	}
	return pre.Files
}

// ScanFiles returns the markdown files below dir in lexical walk order.
func ScanFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsMarkdown(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// ExtractMetadata reads the file at path and computes its metadata. Path and
// Source are left for the caller to fill in.
func (ix *Indexer) ExtractMetadata(ctx context.Context, path string) (*docpkg.FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	fm, body := ix.parse(path, content)

	sections := docpkg.ExtractSections(body)
	title := fm.Title
	if title == "" {
		title, _ = docpkg.FirstTitle(sections, 1)
	}
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}

	tokens := 0
	if ix.TokenCounter != nil {
		if tokens, err = ix.TokenCounter.CountTokens(ctx, content); err != nil {
			ix.logger().Warn("failed to count tokens", "path", path, "error", err)
			tokens = 0
		}
	}

	return &docpkg.FileEntry{
		Title:        title,
		Description:  fm.Description,
		Tags:         tags,
		Category:     fm.Category,
		LastModified: info.ModTime().UTC().Truncate(time.Second),
		WordCount:    len(strings.Fields(body)),
		TokenCount:   tokens,
		Sections:     sections,
	}, nil
}

// parse splits content into front matter and body. A malformed block is
// treated as body text.
func (ix *Indexer) parse(path, content string) (*docpkg.FrontMatter, string) {
	if ix.FrontMatter == nil {
		return &docpkg.FrontMatter{}, content
	}
	fm, body, err := ix.FrontMatter.ParseFrontMatter(content)
	if err != nil {
		ix.logger().Warn("malformed front matter", "path", path, "error", err)
		return &docpkg.FrontMatter{}, content
	}
	return fm, body
}

// Save writes idx through the configured store.
func (ix *Indexer) Save(ctx context.Context, idx *docpkg.Index) error {
	if ix.Store == nil {
		return docpkg.Errorf(docpkg.EINTERNAL, "index store not configured")
	}
	return ix.Store.SaveIndex(ctx, idx)
}

// Bundle generates the index and renders the files passing bf as a single
// document. It returns false when no file passes the filter.
func (ix *Indexer) Bundle(ctx context.Context, opts Options, bf docpkg.BundleFilter) (string, bool, error) {
	idx, err := ix.Generate(ctx, opts)
	if err != nil {
		return "", false, err
	}

	files := docpkg.FilterFiles(idx.Files, bf)
	if len(files) == 0 {
		return "", false, nil
	}

	sections := make([]docpkg.BundleSection, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.AbsolutePath)
		if err != nil {
			ix.logger().Warn("failed to read file for bundle", "path", f.Path, "error", err)
			continue
		}
		_, body := ix.parse(f.AbsolutePath, string(data))
		sections = append(sections, docpkg.BundleSection{File: f, Body: body})
	}
	if len(sections) == 0 {
		return "", false, nil
	}
	return docpkg.FormatBundle(idx.GeneratedAt, sections), true, nil
}

func (ix *Indexer) resolve(path string) string {
	p := filepath.FromSlash(path)
	if filepath.IsAbs(p) {
		return p
	}
	root := ix.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(filepath.Join(root, p))
	if err != nil {
		return filepath.Join(root, p)
	}
	return abs
}

func (ix *Indexer) relative(path string) string {
	root := ix.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (ix *Indexer) now() time.Time {
	if ix.Now != nil {
		return ix.Now().UTC()
	}
	return time.Now().UTC()
}

func (ix *Indexer) logger() *slog.Logger {
	if ix.Logger != nil {
		return ix.Logger
	}
	return slog.New(slog.DiscardHandler)
}
