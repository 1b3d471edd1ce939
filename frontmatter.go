package docpkg

// FrontMatter is the structured metadata block at the top of a document.
type FrontMatter struct {
	Title       string
	Description string
	Tags        []string
	Category    string

	// Data holds every key found in the block.
	Data map[string]any
}

// FrontMatterParser separates a document's front matter from its body.
type FrontMatterParser interface {
	// ParseFrontMatter returns the parsed block and the remaining body.
	// Content without a block yields an empty FrontMatter and the full content.
	ParseFrontMatter(content string) (*FrontMatter, string, error)
}
