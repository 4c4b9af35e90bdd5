package importer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_mapping.yaml
var defaultMappingYAML []byte

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version  int                    `yaml:"version"`
	Defaults map[string]string      `yaml:"defaults"`
	Sheets   map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig maps asset fields to the spreadsheet headers that carry them.
type SheetConfig struct {
	Columns map[string]ColumnConfig `yaml:"columns"`
}

// ColumnConfig describes one asset field. A trailing "?" on Type marks the
// column optional.
type ColumnConfig struct {
	Type    string   `yaml:"type"`
	Headers []string `yaml:"headers"`
}

func (c ColumnConfig) optional() bool {
	return strings.HasSuffix(c.Type, "?")
}

func (c ColumnConfig) baseType() string {
	return strings.ToUpper(strings.TrimSuffix(c.Type, "?"))
}

var knownFields = map[string]bool{
	"name": true, "description": true, "category": true, "serial_number": true,
	"purchase_date": true, "purchase_price": true, "status": true,
}

var knownTypes = map[string]bool{"TEXT": true, "DATE": true, "DECIMAL": true, "STATUS": true}

// DefaultMapping returns the built-in mapping.
func DefaultMapping() (*MappingConfig, error) {
	return parseMapping(defaultMappingYAML)
}

// LoadMapping reads a mapping file. An empty path yields DefaultMapping.
func LoadMapping(path string) (*MappingConfig, error) {
	if path == "" {
		return DefaultMapping()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return parseMapping(data)
}

func parseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(m.Sheets) == 0 {
		return nil, fmt.Errorf("mapping has no sheets")
	}
	for sheet, sc := range m.Sheets {
		for field, col := range sc.Columns {
			if !knownFields[field] {
				return nil, fmt.Errorf("sheet %q: unknown field %q", sheet, field)
			}
			if !knownTypes[col.baseType()] {
				return nil, fmt.Errorf("sheet %q: field %q has unknown type %q", sheet, field, col.Type)
			}
		}
	}
	return &m, nil
}

// forSheet returns the config for a sheet name, falling back to "*".
func (m *MappingConfig) forSheet(name string) (SheetConfig, bool) {
	if sc, ok := m.Sheets[name]; ok {
		return sc, true
	}
	sc, ok := m.Sheets["*"]
	return sc, ok
}

// resolveHeaders maps header text (case-insensitive) to field names.
func (sc SheetConfig) resolveHeaders() map[string]string {
	out := make(map[string]string)
	for field, col := range sc.Columns {
		out[normalizeHeader(field)] = field
		for _, h := range col.Headers {
			out[normalizeHeader(h)] = field
		}
	}
	return out
}

func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}
