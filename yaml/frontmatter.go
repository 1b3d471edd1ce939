// Package yaml implements YAML-backed parts of docpkg: document front
// matter and the .docpkg.yaml configuration format.
package yaml

import (
	"fmt"
	"strings"

	"github.com/fwojciec/docpkg"
	"gopkg.in/yaml.v3"
)

// Ensure FrontMatterParser implements docpkg.FrontMatterParser at compile time.
var _ docpkg.FrontMatterParser = (*FrontMatterParser)(nil)

// FrontMatterParser parses a "---" delimited YAML block at the start of a
// markdown document.
type FrontMatterParser struct{}

// NewFrontMatterParser creates a new FrontMatterParser.
func NewFrontMatterParser() *FrontMatterParser {
	return &FrontMatterParser{}
}

// ParseFrontMatter splits content into front matter and body. Tags may be a
// YAML list or a comma separated string.
func (p *FrontMatterParser) ParseFrontMatter(content string) (*docpkg.FrontMatter, string, error) {
	fm := &docpkg.FrontMatter{Data: map[string]any{}}

	block, body, ok := splitFrontMatter(content)
	if !ok {
		return fm, content, nil
	}
	if err := yaml.Unmarshal([]byte(block), &fm.Data); err != nil {
		return fm, content, docpkg.Errorf(docpkg.EINVALID, "malformed front matter: %v", err)
	}
	if fm.Data == nil {
		fm.Data = map[string]any{}
	}

	fm.Title = stringValue(fm.Data["title"])
	fm.Description = stringValue(fm.Data["description"])
	fm.Category = stringValue(fm.Data["category"])
	fm.Tags = tagsValue(fm.Data["tags"])
	return fm, body, nil
}

// splitFrontMatter returns the YAML block and the remaining body.
func splitFrontMatter(content string) (block, body string, ok bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	rest, found := strings.CutPrefix(content, "---\n")
	if !found {
		if rest, found = strings.CutPrefix(content, "---\r\n"); !found {
			return "", content, false
		}
	}

	// The block may be empty, in which case the closing fence comes first.
	if after, found := strings.CutPrefix(rest, "---"); found && (after == "" || after[0] == '\n' || after[0] == '\r') {
		return "", trimLeadingNewline(after), true
	}

	for _, fence := range []string{"\n---\n", "\n---\r\n"} {
		if i := strings.Index(rest, fence); i >= 0 {
			return rest[:i], rest[i+len(fence):], true
		}
	}
	if strings.HasSuffix(rest, "\n---") {
		return strings.TrimSuffix(rest, "\n---"), "", true
	}
	return "", content, false
}

func trimLeadingNewline(s string) string {
	s = strings.TrimPrefix(s, "\r")
	return strings.TrimPrefix(s, "\n")
}

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func tagsValue(v any) []string {
	var raw []string
	switch v := v.(type) {
	case string:
		raw = docpkg.SplitList(v)
	case []any:
		for _, item := range v {
			raw = append(raw, strings.TrimSpace(stringValue(item)))
		}
	}
	return docpkg.UnionTags(raw, nil)
}
