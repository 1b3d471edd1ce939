package yaml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"gopkg.in/yaml.v3"
)

// Config file names in discovery order.
const (
	JSONConfigFile    = "docpkg.json"
	PackageConfigFile = "package.json"
	YAMLConfigFile    = ".docpkg.yaml"
)

// Format identifies the file a configuration was loaded from.
type Format string

// Format constants.
const (
	FormatJSON    Format = "json"
	FormatPackage Format = "package.json"
	FormatYAML    Format = "yaml"
)

// Ensure ConfigStore implements docpkg.ConfigStore at compile time.
var _ docpkg.ConfigStore = (*ConfigStore)(nil)

// ConfigStore discovers project configuration in docpkg.json, then the
// "docs" field of package.json, then .docpkg.yaml. Values found are merged
// over the defaults. Save writes back in the same format.
type ConfigStore struct {
	root string
	home string

	path   string
	format Format
	found  bool
}

// NewConfigStore creates a ConfigStore for the project at root. home is
// used for the default cache location.
func NewConfigStore(root, home string) *ConfigStore {
	return &ConfigStore{
		root:   root,
		home:   home,
		path:   filepath.Join(root, JSONConfigFile),
		format: FormatJSON,
	}
}

// UseFormat selects the file Save creates when no configuration was found.
func (s *ConfigStore) UseFormat(f Format) {
	s.format = f
	switch f {
	case FormatYAML:
		s.path = filepath.Join(s.root, YAMLConfigFile)
	case FormatPackage:
		s.path = filepath.Join(s.root, PackageConfigFile)
	default:
		s.path = filepath.Join(s.root, JSONConfigFile)
	}
}

// Format returns the format of the discovered configuration.
func (s *ConfigStore) Format() Format { return s.format }

func (s *ConfigStore) Exists() bool { return s.found }

func (s *ConfigStore) Path() string { return s.path }

func (s *ConfigStore) Load() (*docpkg.Config, error) {
	cfg := docpkg.DefaultConfig(s.home)

	// docpkg.json
	jsonPath := filepath.Join(s.root, JSONConfigFile)
	if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", jsonPath, err)
		}
		s.discovered(jsonPath, FormatJSON)
		return normalize(cfg), nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// package.json "docs"
	pkgPath := filepath.Join(s.root, PackageConfigFile)
	if data, err := os.ReadFile(pkgPath); err == nil {
		var pkg struct {
			Docs json.RawMessage `json:"docs"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", pkgPath, err)
		}
		if len(pkg.Docs) > 0 && !bytes.Equal(pkg.Docs, []byte("null")) {
			if err := json.Unmarshal(pkg.Docs, cfg); err != nil {
				return nil, docpkg.Errorf(docpkg.EINVALID, "malformed docs field in %s: %v", pkgPath, err)
			}
			s.discovered(pkgPath, FormatPackage)
			return normalize(cfg), nil
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// .docpkg.yaml
	yamlPath := filepath.Join(s.root, YAMLConfigFile)
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", yamlPath, err)
		}
		s.discovered(yamlPath, FormatYAML)
		return normalize(cfg), nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return cfg, nil
}

func (s *ConfigStore) discovered(path string, f Format) {
	s.path = path
	s.format = f
	s.found = true
}

func normalize(cfg *docpkg.Config) *docpkg.Config {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	return cfg
}

func (s *ConfigStore) Save(cfg *docpkg.Config) error {
	var data []byte
	var err error
	switch s.format {
	case FormatYAML:
		data, err = yaml.Marshal(cfg)
	case FormatPackage:
		data, err = s.packageWithDocs(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return err
	}
	s.found = true
	return nil
}

// packageWithDocs rewrites the "docs" field of package.json, keeping every
// other top-level field in its original order.
func (s *ConfigStore) packageWithDocs(cfg *docpkg.Config) ([]byte, error) {
	docs, err := json.MarshalIndent(cfg, "  ", "  ")
	if err != nil {
		return nil, err
	}

	var fields []orderedField
	if data, err := os.ReadFile(s.path); err == nil {
		if fields, err = decodeOrdered(data); err != nil {
			return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", s.path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	replaced := false
	for i := range fields {
		if fields[i].key == "docs" {
			fields[i].value = docs
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, orderedField{key: "docs", value: docs})
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, f := range fields {
		key, _ := json.Marshal(f.key)
		fmt.Fprintf(&buf, "  %s: %s", key, f.value)
		if i < len(fields)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

type orderedField struct {
	key   string
	value []byte
}

// decodeOrdered returns the top-level fields of a JSON object in document
// order, each value re-indented for a two-space nested position.
func decodeOrdered(data []byte) ([]orderedField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var fields []orderedField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "  ", "  "); err != nil {
			return nil, err
		}
		fields = append(fields, orderedField{key: key, value: buf.Bytes()})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return fields, nil
}
