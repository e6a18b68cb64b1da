package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/models"
)

// GenerationRepository stores the bill generation ledger
type GenerationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *sql.DB, logger *zap.Logger) *GenerationRepository {
	return &GenerationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts record, assigning an ID when it has none
func (r *GenerationRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO bill_generations (
			id, invoice_number, template_name, output_path, omitted_fields, generated_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.InvoiceNumber,
		record.TemplateName,
		record.OutputPath,
		strings.Join(record.OmittedFields, ","),
		record.GeneratedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to record bill generation",
			zap.String("invoice_number", record.InvoiceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create generation record: %w", err)
	}

	return nil
}

// ListRecent returns up to limit records, newest first
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]*models.GenerationRecord, error) {
	query := `
		SELECT id, invoice_number, template_name, output_path, omitted_fields, generated_at, created_at
		FROM bill_generations
		ORDER BY generated_at DESC, created_at DESC
		LIMIT ?
	`
	return r.query(ctx, query, limit)
}

// ListByInvoiceNumber returns every generation of one invoice, newest first
func (r *GenerationRepository) ListByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]*models.GenerationRecord, error) {
	query := `
		SELECT id, invoice_number, template_name, output_path, omitted_fields, generated_at, created_at
		FROM bill_generations
		WHERE invoice_number = ?
		ORDER BY generated_at DESC, created_at DESC
	`
	return r.query(ctx, query, invoiceNumber)
}

func (r *GenerationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query generation records", zap.Error(err))
		return nil, fmt.Errorf("failed to query generation records: %w", err)
	}
	defer rows.Close()

	var records []*models.GenerationRecord
	for rows.Next() {
		var record models.GenerationRecord
		var omitted string
		if err := rows.Scan(
			&record.ID,
			&record.InvoiceNumber,
			&record.TemplateName,
			&record.OutputPath,
			&omitted,
			&record.GeneratedAt,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		if omitted != "" {
			record.OmittedFields = strings.Split(omitted, ",")
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
