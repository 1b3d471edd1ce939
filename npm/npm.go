// Package npm implements the registry source adapter on top of the npm
// registry HTTP API and package tarballs.
package npm

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"hash"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
	"github.com/fwojciec/docpkg/fs"
	dochttp "github.com/fwojciec/docpkg/http"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// Ensure Adapter implements docpkg.Adapter at compile time.
var _ docpkg.Adapter = (*Adapter)(nil)

// Adapter installs documentation shipped inside npm packages.
type Adapter struct {
	client   *dochttp.Client
	copier   docpkg.GlobCopier
	registry string
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRegistry sets the registry base URL.
// Defaults to DefaultRegistry if not specified.
func WithRegistry(u string) Option {
	return func(a *Adapter) {
		a.registry = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter creates a registry Adapter. copier selects the documentation
// subtree out of an unpacked package.
func NewAdapter(client *dochttp.Client, copier docpkg.GlobCopier, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		copier:   copier,
		registry: DefaultRegistry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() docpkg.SourceType { return docpkg.SourceRegistry }

// Parse claims "registry:<name>[@<version>]" and the "npm:" alias.
// Scoped names keep their leading "@".
func (a *Adapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	payload, ok := docpkg.TrimScheme(spec, "registry:", "npm:")
	if !ok {
		return nil, false
	}
	name, version := SplitNameVersion(payload)
	return &docpkg.ParsedSource{
		Type:     docpkg.SourceRegistry,
		Name:     name,
		Version:  version,
		Original: spec,
	}, true
}

// SplitNameVersion splits "<name>[@<version>]", defaulting the version to
// "latest".
func SplitNameVersion(s string) (name, version string) {
	offset := 0
	if strings.HasPrefix(s, "@") {
		offset = 1
	}
	name, version = s, ""
	if i := strings.Index(s[offset:], "@"); i >= 0 {
		name, version = s[:offset+i], s[offset+i+1:]
	}
	if version == "" {
		version = "latest"
	}
	return name, version
}

// packageVersion is the subset of a registry version document docpkg uses.
type packageVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dist    struct {
		Tarball   string `json:"tarball"`
		Integrity string `json:"integrity"`
		Shasum    string `json:"shasum"`
	} `json:"dist"`
}

// Resolve asks the registry for the exact version matching the requested
// version or tag.
func (a *Adapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
	if src.Name == "" {
		return nil, docpkg.Errorf(docpkg.EINVALID, "package name required: %s", src.Original)
	}

	u := a.registry + "/" + url.PathEscape(src.Name) + "/" + url.PathEscape(src.Version)
	body, err := a.client.Get(ctx, u)
	if err != nil {
		return nil, docpkg.Wrap(err, "failed to resolve %s@%s", src.Name, src.Version)
	}

	var pv packageVersion
	if err := json.Unmarshal(body, &pv); err != nil {
		return nil, docpkg.Errorf(docpkg.EINTERNAL, "failed to resolve %s@%s: malformed registry response: %v", src.Name, src.Version, err)
	}
	if pv.Name == "" || pv.Version == "" || pv.Dist.Tarball == "" {
		return nil, docpkg.Errorf(docpkg.EINTERNAL, "failed to resolve %s@%s: incomplete registry response", src.Name, src.Version)
	}

	integrity := pv.Dist.Integrity
	if integrity == "" && pv.Dist.Shasum != "" {
		integrity = "sha1-" + pv.Dist.Shasum
	}

	return &docpkg.ResolvedSource{
		Type:      docpkg.SourceRegistry,
		Name:      pv.Name,
		Version:   pv.Version,
		Tarball:   pv.Dist.Tarball,
		Integrity: integrity,
		Resolved:  "registry:" + pv.Name + "@" + pv.Version,
	}, nil
}

// TarballName returns the cache file name for a package version.
func TarballName(name, version string) string {
	return strings.Replace(name, "/", "-", 1) + "-" + version + ".tgz"
}

// Fetch downloads the tarball into <cacheDir>/npm unless it is already
// cached. A downloaded tarball not matching the recorded integrity is
// discarded.
func (a *Adapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
	path := filepath.Join(cacheDir, "npm", TarballName(src.Name, src.Version))
	if cache.Exists(path) {
		a.logger.Debug("using cached tarball", "path", path)
		return path, nil
	}

	if err := a.client.Download(ctx, src.Tarball, path); err != nil {
		return "", docpkg.Wrap(err, "failed to fetch %s", src.Resolved)
	}
	if err := VerifyIntegrity(path, src.Integrity); err != nil {
		os.Remove(path)
		return "", docpkg.Wrap(err, "failed to fetch %s", src.Resolved)
	}
	return path, nil
}

// VerifyIntegrity checks the file at path against a subresource integrity
// string ("sha512-<base64>" or "sha1-<base64 or hex>"). Unknown algorithms
// and empty strings are accepted.
func VerifyIntegrity(path, integrity string) error {
	algo, want, ok := strings.Cut(integrity, "-")
	if !ok {
		return nil
	}
	var h hash.Hash
	switch algo {
	case "sha512":
		h = sha512.New()
	case "sha1":
		h = sha1.New()
	default:
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	sum := h.Sum(nil)

	if want == base64.StdEncoding.EncodeToString(sum) || want == hex.EncodeToString(sum) {
		return nil
	}
	return docpkg.Errorf(docpkg.EINVALID, "integrity mismatch for %s", filepath.Base(path))
}

// Extract unpacks the tarball into a scratch directory, then copies the
// documentation subtree declared by the package manifest into targetDir.
// The scratch directory is removed even on failure.
func (a *Adapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
	scratch, err := os.MkdirTemp("", "docpkg-npm-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	if err := Untar(cachedPath, scratch); err != nil {
		return docpkg.Wrap(err, "failed to unpack %s", src.Resolved)
	}

	n, err := fs.ExtractDocs(ctx, a.copier, scratch, targetDir)
	if err != nil {
		return docpkg.Wrap(err, "failed to extract %s", src.Resolved)
	}
	if n == 0 {
		a.logger.Warn("no docs extracted", "source", src.Resolved)
	}
	return nil
}
