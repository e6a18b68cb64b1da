package models

import "time"

// GenerationRecord is one successfully generated bill in the ledger
type GenerationRecord struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	TemplateName  string    `json:"template_name"`
	OutputPath    string    `json:"output_path"`
	OmittedFields []string  `json:"omitted_fields,omitempty"` // numeric fields dropped as unparsable
	GeneratedAt   time.Time `json:"generated_at"`
	CreatedAt     time.Time `json:"created_at"`
}
