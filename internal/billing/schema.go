package billing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchemaYAML []byte

// FieldType selects how a raw record value is parsed
type FieldType string

const (
	TypeText       FieldType = "text"
	TypeDate       FieldType = "date"
	TypeDecimal    FieldType = "decimal"
	TypePercentage FieldType = "percentage"
)

// DisplayFormat is the number format a cell is rendered with
type DisplayFormat string

const (
	FormatPlain      DisplayFormat = "plain"
	FormatPercentage DisplayFormat = "0.00%"
	FormatDate       DisplayFormat = "dd.MM.yyyy"
)

// FieldSpec places one record field on the template
type FieldSpec struct {
	Key      string    `yaml:"key"`
	Cell     string    `yaml:"cell"`
	Type     FieldType `yaml:"type"`
	Prefix   string    `yaml:"prefix,omitempty"`
	Suffix   string    `yaml:"suffix,omitempty"`
	Required bool      `yaml:"required,omitempty"`
}

// Format returns the display format implied by the field type
func (f FieldSpec) Format() DisplayFormat {
	switch f.Type {
	case TypePercentage:
		return FormatPercentage
	case TypeDate:
		return FormatDate
	default:
		return FormatPlain
	}
}

// Schema is the field → cell → type table for one template layout
type Schema struct {
	Sheet  string      `yaml:"sheet"`
	Fields []FieldSpec `yaml:"fields"`
}

// DefaultSchema returns the layout of the bundled tax invoice template
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchemaYAML)
}

// LoadSchema reads a schema from a YAML file. An empty path yields DefaultSchema.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a YAML schema
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every entry names a known field, a usable cell and a
// known type, and that no key or cell is used twice.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}

	keys := make(map[string]bool, len(s.Fields))
	cells := make(map[string]string, len(s.Fields))

	for i := range s.Fields {
		f := &s.Fields[i]
		f.Cell = strings.ToUpper(strings.TrimSpace(f.Cell))

		if !IsKnownField(f.Key) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidSchema, f.Key)
		}
		if keys[f.Key] {
			return fmt.Errorf("%w: field %q mapped twice", ErrInvalidSchema, f.Key)
		}
		keys[f.Key] = true

		if _, _, err := excelize.CellNameToCoordinates(f.Cell); err != nil {
			return fmt.Errorf("%w: field %q has bad cell %q: %v", ErrInvalidSchema, f.Key, f.Cell, err)
		}
		if other, ok := cells[f.Cell]; ok {
			return fmt.Errorf("%w: cell %s used by %q and %q", ErrInvalidSchema, f.Cell, other, f.Key)
		}
		cells[f.Cell] = f.Key

		switch f.Type {
		case TypeText, TypeDate, TypeDecimal, TypePercentage:
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidSchema, f.Key, f.Type)
		}
	}

	return nil
}

// RequiredKeys lists the keys marked required, in schema order
func (s *Schema) RequiredKeys() []string {
	var keys []string
	for _, f := range s.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Lookup returns the field definition for key
func (s *Schema) Lookup(key string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}
