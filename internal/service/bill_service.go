// Package service orchestrates bill generation for the HTTP and CLI front ends.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/billing"
	"github.com/garyjia/gst-billing/internal/gst"
	"github.com/garyjia/gst-billing/internal/metrics"
	"github.com/garyjia/gst-billing/internal/models"
	"github.com/garyjia/gst-billing/internal/storage"
	"github.com/garyjia/gst-billing/internal/words"
)

const defaultHistoryLimit = 50

// TemplateSource lists and locates bill templates
type TemplateSource interface {
	List() ([]string, error)
	Resolve(name string) (string, error)
}

// BillSource lists and locates generated bills
type BillSource interface {
	List() ([]storage.BillFile, error)
	Path(name string) (string, error)
}

// GenerationRecorder persists the generation ledger
type GenerationRecorder interface {
	Create(ctx context.Context, record *models.GenerationRecord) error
	ListRecent(ctx context.Context, limit int) ([]*models.GenerationRecord, error)
	ListByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]*models.GenerationRecord, error)
}

// GenerateRequest is one bill to produce
type GenerateRequest struct {
	TemplateName string            `json:"template_name" yaml:"template_name"`
	Fields       map[string]string `json:"fields" yaml:"fields"`
}

// GenerateResult describes the bill written for a GenerateRequest
type GenerateResult struct {
	FileName      string    `json:"file_name"`
	Path          string    `json:"path"`
	GeneratedAt   time.Time `json:"generated_at"`
	AmountInWords string    `json:"amount_in_words,omitempty"`
	OmittedFields []string  `json:"omitted_fields,omitempty"`
	LedgerID      string    `json:"ledger_id,omitempty"`
}

// BillService generates bills and answers the form's helper queries
type BillService struct {
	templates   TemplateSource
	bills       BillSource
	synthesizer *billing.Synthesizer
	ledger      GenerationRecorder
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewBillService creates a BillService. ledger and m may be nil.
func NewBillService(
	templates TemplateSource,
	bills BillSource,
	synthesizer *billing.Synthesizer,
	ledger GenerationRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		templates:   templates,
		bills:       bills,
		synthesizer: synthesizer,
		ledger:      ledger,
		metrics:     m,
		logger:      logger,
	}
}

// Generate resolves the template, validates the record and writes the bill.
// A ledger failure is logged and does not fail a bill that was written.
func (s *BillService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	s.logger.Info("Generating bill",
		zap.String("template", req.TemplateName),
		zap.String("invoice_number", req.Fields[billing.FieldInvoiceNumber]))

	result, err := s.generate(ctx, req)
	if s.metrics != nil {
		s.metrics.ObserveGenerate(start)
	}
	if err != nil {
		s.logger.Error("Bill generation failed",
			zap.String("template", req.TemplateName),
			zap.Stringer("kind", billing.KindOf(err)),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.IncrementFailure(billing.KindOf(err).String())
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementGenerated()
		for _, field := range result.OmittedFields {
			s.metrics.IncrementOmitted(field)
		}
	}

	s.logger.Info("Bill generated",
		zap.String("file", result.FileName),
		zap.Strings("omitted_fields", result.OmittedFields),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *BillService) generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	record := billing.NewInvoiceRecord(req.Fields)
	schema := s.synthesizer.Mapper().Schema()

	if strings.TrimSpace(req.TemplateName) == "" {
		return nil, billing.Validate(record, "", schema)
	}

	templatePath, err := s.templates.Resolve(req.TemplateName)
	if err != nil {
		return nil, templateError(req.TemplateName, err)
	}

	if err := billing.Validate(record, templatePath, schema); err != nil {
		return nil, err
	}

	res, err := s.synthesizer.Synthesize(ctx, templatePath, record)
	if err != nil {
		return nil, err
	}

	out := &GenerateResult{
		FileName:      res.FileName,
		Path:          res.Path,
		GeneratedAt:   res.GeneratedAt,
		AmountInWords: amountInWords(schema, res.Assignments),
		OmittedFields: omittedKeys(res.Omitted),
	}

	if s.ledger != nil {
		entry := &models.GenerationRecord{
			InvoiceNumber: record.Get(billing.FieldInvoiceNumber),
			TemplateName:  req.TemplateName,
			OutputPath:    res.Path,
			OmittedFields: out.OmittedFields,
			GeneratedAt:   res.GeneratedAt,
		}
		if err := s.ledger.Create(ctx, entry); err != nil {
			s.logger.Warn("Failed to record bill in ledger",
				zap.String("file", res.FileName),
				zap.Error(err))
		} else {
			out.LedgerID = entry.ID
		}
	}

	return out, nil
}

// Templates returns the available template names
func (s *BillService) Templates() ([]string, error) {
	return s.templates.List()
}

// Bills returns the generated bills, newest first
func (s *BillService) Bills() ([]storage.BillFile, error) {
	return s.bills.List()
}

// BillPath returns the on-disk path of a generated bill
func (s *BillService) BillPath(name string) (string, error) {
	return s.bills.Path(name)
}

// History returns the most recent ledger entries.
// A non-positive limit uses the default page size.
func (s *BillService) History(ctx context.Context, limit int) ([]*models.GenerationRecord, error) {
	if s.ledger == nil {
		return []*models.GenerationRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := s.ledger.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation history: %w", err)
	}
	if records == nil {
		records = []*models.GenerationRecord{}
	}
	return records, nil
}

// InvoiceHistory returns every generation of one invoice number, newest first
func (s *BillService) InvoiceHistory(ctx context.Context, invoiceNumber string) ([]*models.GenerationRecord, error) {
	if s.ledger == nil {
		return []*models.GenerationRecord{}, nil
	}

	records, err := s.ledger.ListByInvoiceNumber(ctx, strings.TrimSpace(invoiceNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to load history for invoice %s: %w", invoiceNumber, err)
	}
	if records == nil {
		records = []*models.GenerationRecord{}
	}
	return records, nil
}

// AmountInWords renders a rupee amount the way the bill prints it
func (s *BillService) AmountInWords(raw string) (string, error) {
	amount, err := words.Parse(raw)
	if err != nil {
		return "", &billing.SynthesisError{
			Kind:  billing.KindNumericParse,
			Stage: "amount in words",
			Field: billing.FieldRoundOff,
			Err:   err,
		}
	}
	return words.ToIndianCurrencyWords(amount), nil
}

// Totals computes the GST breakdown for the form's amount and rates
func (s *BillService) Totals(fields map[string]string) gst.Totals {
	return gst.ComputeRaw(
		fields[billing.FieldTotalAmount],
		fields[billing.FieldCGST],
		fields[billing.FieldSGST],
		fields[billing.FieldIGST],
	)
}

// ValidateTemplate checks one catalogued template against the cell schema
func (s *BillService) ValidateTemplate(name string) error {
	path, err := s.templates.Resolve(name)
	if err != nil {
		return templateError(name, err)
	}
	return s.synthesizer.ValidateTemplate(path)
}

// ValidateTemplates checks every catalogued template against the cell schema
// and returns the problems keyed by template name.
func (s *BillService) ValidateTemplates() (map[string]error, error) {
	names, err := s.templates.List()
	if err != nil {
		return nil, err
	}

	problems := make(map[string]error)
	for _, name := range names {
		if err := s.ValidateTemplate(name); err != nil {
			problems[name] = err
		}
	}
	return problems, nil
}

// templateError classifies a catalog lookup failure as a missing template
func templateError(name string, err error) error {
	if errors.Is(err, billing.ErrTemplateNotFound) {
		// the sentinel is already carried by the Kind
		err = fmt.Errorf("%q", name)
	}
	return &billing.SynthesisError{
		Kind:  billing.KindTemplateNotFound,
		Stage: "resolve template",
		Err:   err,
	}
}

// amountInWords returns the phrase written to the bill without its cell decoration
func amountInWords(schema *billing.Schema, assignments []billing.CellAssignment) string {
	field, ok := schema.Lookup(billing.FieldAmountInWords)
	if !ok {
		return ""
	}
	for _, a := range assignments {
		if a.Field == billing.FieldAmountInWords {
			return strings.TrimPrefix(strings.TrimSuffix(a.Text, field.Suffix), field.Prefix)
		}
	}
	return ""
}

func omittedKeys(omitted []*billing.FieldError) []string {
	if len(omitted) == 0 {
		return nil
	}
	keys := make([]string, 0, len(omitted))
	for _, fe := range omitted {
		keys = append(keys, fe.Field)
	}
	return keys
}

// IsClientError reports whether err was caused by the request rather than the server
func IsClientError(err error) bool {
	return errors.Is(err, billing.ErrValidation) || errors.Is(err, billing.ErrDateParse) || errors.Is(err, billing.ErrNumericParse)
}
