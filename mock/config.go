package mock

import "github.com/fwojciec/docpkg"

var _ docpkg.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a mock implementation of docpkg.ConfigStore.
type ConfigStore struct {
	LoadFn   func() (*docpkg.Config, error)
	SaveFn   func(cfg *docpkg.Config) error
	ExistsFn func() bool
	PathFn   func() string
}

func (s *ConfigStore) Load() (*docpkg.Config, error) {
	return s.LoadFn()
}

func (s *ConfigStore) Save(cfg *docpkg.Config) error {
	return s.SaveFn(cfg)
}

func (s *ConfigStore) Exists() bool {
	return s.ExistsFn()
}

func (s *ConfigStore) Path() string {
	return s.PathFn()
}
