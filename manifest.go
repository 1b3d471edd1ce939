package docpkg

import (
	"path"
	"regexp"
	"strings"
)

// DefaultDocsPath is used when a source declares no manifest.
const DefaultDocsPath = "docs"

// Manifest is a source-side declaration of which files constitute its
// distributable documentation.
type Manifest struct {
	Name     string           `json:"name"`
	Version  string           `json:"version,omitempty"`
	Type     string           `json:"type,omitempty"`
	DocsPath string           `json:"docsPath,omitempty"`
	Files    []string         `json:"files,omitempty"`
	Metadata ManifestMetadata `json:"metadata"`
}

// ManifestMetadata describes the documentation set as a whole.
type ManifestMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate returns an error if the manifest contains invalid fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return Errorf(EINVALID, "manifest name required")
	}
	return nil
}

var traversalPrefixRe = regexp.MustCompile(`^(\.\.(/|\\|$))+`)

// SanitizePath strips leading "../" segments and leading slashes from a
// declared path or pattern so it cannot escape the source root.
func SanitizePath(p string) string {
	p = traversalPrefixRe.ReplaceAllString(p, "")
	return strings.TrimLeft(p, "/")
}

// Selection returns the glob patterns and base path to extract with.
// A nil manifest selects the conventional docs subtree.
func (m *Manifest) Selection() (patterns []string, basePath string) {
	patterns = []string{DefaultDocsPath + "/**"}
	basePath = DefaultDocsPath
	if m == nil {
		return patterns, basePath
	}

	docsPath := SanitizePath(m.DocsPath)
	if docsPath != "" {
		docsPath = path.Clean(docsPath)
	}
	if docsPath == "." {
		// The whole source root is documentation.
		patterns, basePath = []string{"**"}, ""
		docsPath = ""
	}
	if len(m.Files) > 0 {
		patterns = make([]string, 0, len(m.Files))
		for _, f := range m.Files {
			if f = SanitizePath(f); f != "" {
				patterns = append(patterns, f)
			}
		}
	} else if docsPath != "" {
		patterns = []string{docsPath + "/**"}
	}
	if docsPath != "" {
		basePath = docsPath
	}
	return patterns, basePath
}
