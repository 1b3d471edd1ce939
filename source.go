package docpkg

import (
	"context"
	"path"
	"strings"
)

// SourceType identifies which adapter owns a source.
type SourceType string

// SourceType constants. The order of declaration is the adapter priority
// order used when matching a spec.
const (
	SourceRegistry SourceType = "registry"
	SourceVCS      SourceType = "vcs"
	SourceRemote   SourceType = "remote"
	SourceLocal    SourceType = "local"
)

// ParsedSource is the result of claiming a spec string. Only the fields
// relevant to Type are populated.
type ParsedSource struct {
	Type     SourceType `json:"type"`
	Name     string     `json:"name"`
	Version  string     `json:"version,omitempty"`
	URL      string     `json:"url,omitempty"`
	Ref      string     `json:"ref,omitempty"`
	Path     string     `json:"path,omitempty"`
	Filename string     `json:"filename,omitempty"`
	Original string     `json:"original"`
}

// ResolvedSource pins a ParsedSource to an immutable artifact.
// Resolved re-parses to a spec of the same scheme naming the same artifact.
type ResolvedSource struct {
	Type      SourceType `json:"type"`
	Name      string     `json:"name,omitempty"`
	Version   string     `json:"version,omitempty"`
	URL       string     `json:"url,omitempty"`
	Ref       string     `json:"ref,omitempty"`
	Commit    string     `json:"commit,omitempty"`
	Tarball   string     `json:"tarball,omitempty"`
	Integrity string     `json:"integrity,omitempty"`
	Path      string     `json:"path,omitempty"`
	Filename  string     `json:"filename,omitempty"`
	Resolved  string     `json:"resolved"`
}

// Adapter implements the four-stage protocol for one source scheme.
type Adapter interface {
	// Type returns the source type this adapter owns.
	Type() SourceType

	// Parse claims spec if it carries this adapter's scheme.
	// It must not perform I/O.
	Parse(spec string) (*ParsedSource, bool)

	// Resolve pins the parsed source to an exact version.
	// May perform network or filesystem checks.
	Resolve(ctx context.Context, src *ParsedSource) (*ResolvedSource, error)

	// Fetch writes or reuses a cache entry under cacheDir and returns its path.
	Fetch(ctx context.Context, src *ResolvedSource, cacheDir string) (string, error)

	// Extract materializes the documentation subtree into targetDir.
	// targetDir may already exist and be non-empty.
	Extract(ctx context.Context, cachedPath, targetDir string, src *ResolvedSource) error
}

// MatchAdapter returns the first adapter in adapters that claims spec.
func MatchAdapter(adapters []Adapter, spec string) (Adapter, *ParsedSource, bool) {
	for _, a := range adapters {
		if parsed, ok := a.Parse(spec); ok {
			return a, parsed, true
		}
	}
	return nil, nil, false
}

// TrimScheme returns the payload of spec if it starts with any of the given
// scheme prefixes.
func TrimScheme(spec string, schemes ...string) (string, bool) {
	for _, scheme := range schemes {
		if strings.HasPrefix(spec, scheme) {
			return spec[len(scheme):], true
		}
	}
	return "", false
}

// ValidateSourceName returns an error if name cannot be used as an install
// directory below the install path. Scoped names like "@scope/pkg" are allowed.
func ValidateSourceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Errorf(EINVALID, "source name required")
	}
	if strings.Contains(name, `\`) || path.IsAbs(name) {
		return Errorf(EINVALID, "invalid source name %q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return Errorf(EINVALID, "invalid source name %q", name)
		}
	}
	return nil
}
