package docpkg

import (
	"strings"
	"time"
)

// BundleFilter selects files for a bundle. Categories compose with AND;
// values within a category compose with OR. Empty categories match all.
type BundleFilter struct {
	Sources []string
	Tags    []string

	// Include is a substring that must appear in the file path.
	Include string
}

// Match reports whether f passes the filter.
func (bf BundleFilter) Match(f *FileEntry) bool {
	if len(bf.Sources) > 0 && !contains(bf.Sources, f.Source) {
		return false
	}
	if len(bf.Tags) > 0 && !f.HasAnyTag(bf.Tags) {
		return false
	}
	if bf.Include != "" && !strings.Contains(f.Path, bf.Include) {
		return false
	}
	return true
}

// FilterFiles returns the files passing bf, preserving order.
func FilterFiles(files []*FileEntry, bf BundleFilter) []*FileEntry {
	var out []*FileEntry
	for _, f := range files {
		if bf.Match(f) {
			out = append(out, f)
		}
	}
	return out
}

// BundleSection pairs a file with its body (front matter stripped).
type BundleSection struct {
	File *FileEntry
	Body string
}

// FormatBundle renders sections as a single markdown document.
func FormatBundle(generatedAt time.Time, sections []BundleSection) string {
	var b strings.Builder
	b.WriteString("# Documentation Context\n")
	b.WriteString("Generated by docpkg at ")
	b.WriteString(generatedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n\n")
	for _, s := range sections {
		b.WriteString("---\n")
		b.WriteString("## Source: ")
		b.WriteString(s.File.Source)
		b.WriteString("\nFile: ")
		b.WriteString(s.File.Path)
		b.WriteString("\n")
		if len(s.File.Tags) > 0 {
			b.WriteString("Tags: ")
			b.WriteString(strings.Join(s.File.Tags, ", "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}
	return b.String()
}

// SplitList splits a comma-separated flag value, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
