package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gst-billing/internal/words"
)

const (
	isoDateLayout     = "2006-01-02"
	displayDateLayout = "02.01.2006"
)

var hundred = decimal.NewFromInt(100)

// ValueKind is the type of value written into a cell
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueDecimal
	ValueDate
)

// CellAssignment is one resolved value at a fixed template address
type CellAssignment struct {
	Field   string
	Address string
	Kind    ValueKind
	Text    string
	Number  decimal.Decimal
	Date    time.Time
	Format  DisplayFormat
}

// Value returns what is stored in the cell. Dates are stored as dd.MM.yyyy
// text because the invoice template formats that cell as text.
func (a CellAssignment) Value() interface{} {
	switch a.Kind {
	case ValueDecimal:
		return a.Number.InexactFloat64()
	case ValueDate:
		return a.Date.Format(displayDateLayout)
	default:
		return a.Text
	}
}

// Resolution is the output of FieldMapper.Resolve
type Resolution struct {
	Assignments []CellAssignment
	// Omitted holds numeric fields dropped because they did not parse
	Omitted []*FieldError
}

// OmittedKeys returns the field keys in Omitted
func (r *Resolution) OmittedKeys() []string {
	keys := make([]string, 0, len(r.Omitted))
	for _, e := range r.Omitted {
		keys = append(keys, e.Field)
	}
	return keys
}

// FieldMapper projects invoice records onto a template schema
type FieldMapper struct {
	schema *Schema
}

// NewFieldMapper creates a mapper for schema
func NewFieldMapper(schema *Schema) *FieldMapper {
	return &FieldMapper{schema: schema}
}

// Schema returns the schema the mapper resolves against
func (m *FieldMapper) Schema() *Schema {
	return m.schema
}

// Resolve turns record into cell assignments in schema order.
// A bad invoice date fails the whole resolution; a bad decimal or percentage
// only drops that field and is reported in Resolution.Omitted.
func (m *FieldMapper) Resolve(record InvoiceRecord) (*Resolution, error) {
	res := &Resolution{
		Assignments: make([]CellAssignment, 0, len(m.schema.Fields)),
	}

	for _, field := range m.schema.Fields {
		raw := record.Get(field.Key)

		switch field.Type {
		case TypeDate:
			date, err := time.Parse(isoDateLayout, strings.TrimSpace(raw))
			if err != nil {
				return nil, newError(KindDateParse, "resolve", field.Key, err)
			}
			res.Assignments = append(res.Assignments, CellAssignment{
				Field:   field.Key,
				Address: field.Cell,
				Kind:    ValueDate,
				Date:    date,
				Format:  FormatDate,
			})

		case TypeDecimal, TypePercentage:
			if strings.TrimSpace(raw) == "" {
				continue
			}
			value, err := words.Parse(raw)
			if err != nil {
				res.Omitted = append(res.Omitted, newError(KindNumericParse, "resolve", field.Key, err))
				continue
			}
			if field.Type == TypePercentage {
				value = value.Div(hundred)
			}
			res.Assignments = append(res.Assignments, CellAssignment{
				Field:   field.Key,
				Address: field.Cell,
				Kind:    ValueDecimal,
				Number:  value,
				Format:  field.Format(),
			})

		default:
			res.Assignments = append(res.Assignments, CellAssignment{
				Field:   field.Key,
				Address: field.Cell,
				Kind:    ValueText,
				Text:    field.Prefix + raw + field.Suffix,
				Format:  FormatPlain,
			})
		}
	}

	return res, nil
}
