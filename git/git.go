// Package git implements the version-control source adapter by driving the
// git command line through a Runner.
package git

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
	"github.com/fwojciec/docpkg/fs"
)

// DefaultRef is checked out when a spec names no ref.
const DefaultRef = "HEAD"

var commitRe = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// Ensure Adapter implements docpkg.Adapter at compile time.
var _ docpkg.Adapter = (*Adapter)(nil)

// Adapter installs documentation from git repositories. Clones are cached
// per repository URL and refreshed on every fetch.
type Adapter struct {
	runner Runner
	copier docpkg.GlobCopier
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter creates a vcs Adapter.
func NewAdapter(runner Runner, copier docpkg.GlobCopier, opts ...Option) *Adapter {
	a := &Adapter{
		runner: runner,
		copier: copier,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() docpkg.SourceType { return docpkg.SourceVCS }

// Parse claims "vcs:<url>[#<ref>]" and the "git:" alias. A git:// URL is
// taken as is.
func (a *Adapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	var payload string
	if strings.HasPrefix(spec, "git://") {
		payload = spec
	} else if p, ok := docpkg.TrimScheme(spec, "vcs:", "git:"); ok {
		payload = p
	} else {
		return nil, false
	}

	u, ref, _ := strings.Cut(payload, "#")
	if ref == "" {
		ref = DefaultRef
	}
	return &docpkg.ParsedSource{
		Type:     docpkg.SourceVCS,
		Name:     RepoName(u),
		URL:      u,
		Ref:      ref,
		Original: spec,
	}, true
}

// RepoName returns the last segment of a repository URL without ".git".
func RepoName(u string) string {
	u = strings.TrimRight(u, "/")
	base := path.Base(u)
	if i := strings.LastIndex(base, ":"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".git")
}

// Resolve pins the ref to the commit it currently points at. A 40 character
// hex ref that the remote does not list is accepted as a commit unverified.
func (a *Adapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
	if src.URL == "" || strings.HasPrefix(src.URL, "-") {
		return nil, docpkg.Errorf(docpkg.EINVALID, "invalid repository URL %q", src.URL)
	}

	out, err := a.runner.Run(ctx, "", "ls-remote", src.URL, src.Ref)
	if err != nil {
		return nil, docpkg.Wrap(err, "failed to resolve %s", src.URL)
	}

	commit := firstHash(string(out))
	if commit == "" {
		if !commitRe.MatchString(src.Ref) {
			return nil, docpkg.Errorf(docpkg.ENOTFOUND, "ref %q not found in %s", src.Ref, src.URL)
		}
		commit = src.Ref
	}

	return &docpkg.ResolvedSource{
		Type:     docpkg.SourceVCS,
		Name:     src.Name,
		URL:      src.URL,
		Ref:      src.Ref,
		Commit:   commit,
		Resolved: "vcs:" + src.URL + "#" + commit,
	}, nil
}

// firstHash returns the hash on the first line of ls-remote output.
func firstHash(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// Fetch clones the repository into <cacheDir>/git/<key>, or refreshes an
// existing clone. A failed refresh is logged and the cached clone reused.
func (a *Adapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
	dir := cache.Dir(cacheDir, "git", src.URL)

	if cache.Exists(filepath.Join(dir, ".git")) {
		if _, err := a.runner.Run(ctx, dir, "fetch", "origin"); err != nil {
			a.logger.Warn("failed to fetch updates, using cached clone", "url", src.URL, "error", err)
		}
		return dir, nil
	}

	// A directory without .git is a leftover from an interrupted clone.
	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return "", err
	}
	if _, err := a.runner.Run(ctx, "", "clone", "--quiet", "--", src.URL, dir); err != nil {
		os.RemoveAll(dir)
		return "", docpkg.Wrap(err, "failed to clone %s", src.URL)
	}
	return dir, nil
}

// Extract checks out the pinned commit in the cached clone and copies the
// documentation subtree into targetDir.
func (a *Adapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
	if _, err := a.runner.Run(ctx, cachedPath, "checkout", "--quiet", src.Commit); err != nil {
		return docpkg.Wrap(err, "failed to check out %s in %s", src.Commit, src.URL)
	}

	n, err := fs.ExtractDocs(ctx, a.copier, cachedPath, targetDir)
	if err != nil {
		return docpkg.Wrap(err, "failed to extract from %s", src.URL)
	}
	if n == 0 {
		a.logger.Warn("no docs extracted", "url", src.URL)
	}
	return nil
}
