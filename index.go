package docpkg

import (
	"context"
	"time"
)

// Index is the generated metadata catalog over installed (or
// source-declared) documentation files. It is rebuilt on every generation.
type Index struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Sources     []IndexSource       `json:"sources"`
	Files       []*FileEntry        `json:"files"`
	Tags        map[string][]string `json:"tags"`
}

// NewIndex returns an empty index stamped with generatedAt.
func NewIndex(generatedAt time.Time) *Index {
	return &Index{
		GeneratedAt: generatedAt,
		Sources:     []IndexSource{},
		Files:       []*FileEntry{},
		Tags:        make(map[string][]string),
	}
}

// IndexSource describes one source contributing files to an index.
type IndexSource struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path"`
}

// FileEntry holds the metadata of one documentation file.
type FileEntry struct {
	// Path is relative to the project root, slash separated.
	Path   string `json:"path"`
	Source string `json:"source"`

	// AbsolutePath is only meaningful on the machine that generated it.
	AbsolutePath string `json:"absolutePath,omitempty"`

	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Category     string    `json:"category,omitempty"`
	LastModified time.Time `json:"lastModified"`
	WordCount    int       `json:"wordCount"`
	TokenCount   int       `json:"tokenCount"`
	Sections     []Section `json:"sections"`

	AIEnriched   bool        `json:"aiEnriched,omitempty"`
	AIEnrichedAt *time.Time  `json:"aiEnrichedAt,omitempty"`
	AISections   []AISection `json:"aiSections,omitempty"`
}

// HasAnyTag reports whether the file carries at least one of tags.
func (f *FileEntry) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range f.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// AddFile appends f and records its path under each of its tags.
func (idx *Index) AddFile(f *FileEntry) {
	idx.Files = append(idx.Files, f)
	if idx.Tags == nil {
		idx.Tags = make(map[string][]string)
	}
	for _, tag := range f.Tags {
		idx.Tags[tag] = append(idx.Tags[tag], f.Path)
	}
}

// RebuildTags recomputes the tag index from the files, in file order.
func (idx *Index) RebuildTags() {
	idx.Tags = make(map[string][]string)
	for _, f := range idx.Files {
		for _, tag := range f.Tags {
			idx.Tags[tag] = append(idx.Tags[tag], f.Path)
		}
	}
}

// IndexStore persists a generated index.
type IndexStore interface {
	SaveIndex(ctx context.Context, idx *Index) error
}

// SearchOptions configures search behavior.
type SearchOptions struct {
	// Filter results to specific source names.
	Sources []string

	// Maximum number of results to return.
	Limit int
}

// SearchResult represents a search match.
type SearchResult struct {
	File    *FileEntry `json:"file"`
	Snippet string     `json:"snippet"`
	Score   float64    `json:"score"`
}

// SearchService provides full-text search over an indexed documentation set.
type SearchService interface {
	// Search returns files ordered by relevance to the query.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}
