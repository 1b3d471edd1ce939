package mock

import "github.com/fwojciec/docpkg"

var _ docpkg.FrontMatterParser = (*FrontMatterParser)(nil)

// FrontMatterParser is a mock implementation of docpkg.FrontMatterParser.
type FrontMatterParser struct {
	ParseFrontMatterFn func(content string) (*docpkg.FrontMatter, string, error)
}

func (p *FrontMatterParser) ParseFrontMatter(content string) (*docpkg.FrontMatter, string, error) {
	return p.ParseFrontMatterFn(content)
}
