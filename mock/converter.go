package mock

import "github.com/fwojciec/docpkg"

var _ docpkg.Converter = (*Converter)(nil)

// Converter is a mock implementation of docpkg.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
