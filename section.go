package docpkg

import (
	"regexp"
	"strings"
)

// Section represents a heading in a markdown document.
type Section struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

var headingRe = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)

// ExtractSections scans body line by line and returns all H1-H3 headings in
// document order.
func ExtractSections(body string) []Section {
	sections := []Section{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		match := headingRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		sections = append(sections, Section{
			Title: strings.TrimSpace(match[2]),
			Level: len(match[1]),
		})
	}
	return sections
}

// FirstTitle returns the title of the first section at level, if any.
func FirstTitle(sections []Section, level int) (string, bool) {
	for _, s := range sections {
		if s.Level == level {
			return s.Title, true
		}
	}
	return "", false
}
