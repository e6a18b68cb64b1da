package billing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/words"
)

const fileDateLayout = "2006-01-02"

var unsafeFileChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	"\"", "-", "<", "-", ">", "-", "|", "-",
)

// Synthesizer fills a bill template with an invoice record and writes a new workbook
type Synthesizer struct {
	mapper    *FieldMapper
	outputDir string
	now       func() time.Time
	logger    *zap.Logger
}

// Option customizes a Synthesizer
type Option func(*Synthesizer)

// WithClock overrides the generation date source
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// NewSynthesizer creates a Synthesizer that writes bills into outputDir
func NewSynthesizer(schema *Schema, outputDir string, logger *zap.Logger, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		mapper:    NewFieldMapper(schema),
		outputDir: outputDir,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a generated bill
type Result struct {
	Path        string
	FileName    string
	GeneratedAt time.Time
	Assignments []CellAssignment
	Omitted     []*FieldError
}

// OutputDir returns the directory bills are written to
func (s *Synthesizer) OutputDir() string {
	return s.outputDir
}

// Mapper returns the field mapper used for every synthesis
func (s *Synthesizer) Mapper() *FieldMapper {
	return s.mapper
}

// Synthesize fills the template at templatePath with record and saves the
// result as Bill-<invoice_number>-<yyyy-MM-dd>.xlsx in the output directory.
// The template itself is never written. Nothing is left on disk on failure.
func (s *Synthesizer) Synthesize(ctx context.Context, templatePath string, record InvoiceRecord) (*Result, error) {
	generatedAt := s.now()

	s.logger.Info("Generating bill",
		zap.String("invoice_number", record.Get(FieldInvoiceNumber)),
		zap.String("template", templatePath))

	file, err := openTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sheet, err := s.sheetName(file)
	if err != nil {
		return nil, newError(KindTemplateNotFound, "select_sheet", "", err)
	}

	// The round-off amount is the authoritative total, so its words replace
	// whatever the caller typed.
	record = withAmountInWords(record)

	res, err := s.mapper.Resolve(record)
	if err != nil {
		s.logger.Warn("Bill record rejected",
			zap.String("invoice_number", record.Get(FieldInvoiceNumber)),
			zap.Error(err))
		return nil, err
	}

	for _, omitted := range res.Omitted {
		s.logger.Warn("Numeric field omitted from bill",
			zap.String("field", omitted.Field),
			zap.String("value", record.Get(omitted.Field)),
			zap.Error(omitted.Err))
	}

	for _, a := range res.Assignments {
		if err := s.apply(file, sheet, a); err != nil {
			return nil, newError(KindWrite, "apply", a.Field, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bill generation cancelled: %w", err)
	}

	fileName := BillFileName(record.Get(FieldInvoiceNumber), generatedAt)
	outputPath := filepath.Join(s.outputDir, fileName)

	if err := s.save(file, outputPath); err != nil {
		return nil, err
	}

	s.logger.Info("Bill generated successfully",
		zap.String("output_path", outputPath),
		zap.Int("cell_count", len(res.Assignments)),
		zap.Int("omitted_count", len(res.Omitted)))

	return &Result{
		Path:        outputPath,
		FileName:    fileName,
		GeneratedAt: generatedAt,
		Assignments: res.Assignments,
		Omitted:     res.Omitted,
	}, nil
}

// BillFileName returns Bill-<invoice_number>-<yyyy-MM-dd>.xlsx for the generation date
func BillFileName(invoiceNumber string, generatedAt time.Time) string {
	safe := unsafeFileChars.Replace(strings.TrimSpace(invoiceNumber))
	return fmt.Sprintf("Bill-%s-%s.xlsx", safe, generatedAt.Format(fileDateLayout))
}

func withAmountInWords(record InvoiceRecord) InvoiceRecord {
	if !record.Has(FieldRoundOff) {
		return record
	}
	amount, err := words.Parse(record.Get(FieldRoundOff))
	if err != nil {
		return record
	}
	return record.With(FieldAmountInWords, words.ToIndianCurrencyWords(amount))
}

func openTemplate(path string) (*excelize.File, error) {
	if path == "" {
		return nil, newError(KindTemplateNotFound, "open_template", "", errors.New("no template selected"))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, newError(KindTemplateNotFound, "open_template", "", err)
	}
	if info.IsDir() {
		return nil, newError(KindTemplateNotFound, "open_template", "", fmt.Errorf("%s is a directory", path))
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, newError(KindTemplateNotFound, "open_template", "", err)
	}
	return file, nil
}

func (s *Synthesizer) sheetName(file *excelize.File) (string, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("template has no sheets")
	}

	want := s.mapper.schema.Sheet
	if want == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == want {
			return name, nil
		}
	}
	return "", fmt.Errorf("template missing expected sheet: %s", want)
}

func (s *Synthesizer) apply(file *excelize.File, sheet string, a CellAssignment) error {
	if err := file.SetCellValue(sheet, a.Address, a.Value()); err != nil {
		return err
	}
	if a.Format == FormatPercentage {
		return setNumberFormat(file, sheet, a.Address, string(FormatPercentage))
	}
	return nil
}

// setNumberFormat layers a custom number format over the cell's existing
// style so template borders and fonts survive.
func setNumberFormat(file *excelize.File, sheet, cell, numFmt string) error {
	style := &excelize.Style{}

	if styleID, err := file.GetCellStyle(sheet, cell); err == nil {
		if existing, err := file.GetStyle(styleID); err == nil && existing != nil {
			style = existing
		}
	}

	style.CustomNumFmt = &numFmt

	styleID, err := file.NewStyle(style)
	if err != nil {
		return fmt.Errorf("failed to create number format style: %w", err)
	}
	return file.SetCellStyle(sheet, cell, cell, styleID)
}

// save writes to a temporary file beside outputPath and renames it into place.
func (s *Synthesizer) save(file *excelize.File, outputPath string) error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return newError(KindWrite, "create_output_dir", "", err)
	}

	tmp, err := os.CreateTemp(s.outputDir, ".bill-*.xlsx")
	if err != nil {
		return newError(KindWrite, "create_output_file", "", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("Failed to remove temporary bill file",
				zap.String("path", tmpPath),
				zap.Error(rmErr))
		}
	}

	if err := file.Write(tmp); err != nil {
		tmp.Close()
		cleanup()
		return newError(KindWrite, "write_output_file", "", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return newError(KindWrite, "write_output_file", "", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return newError(KindWrite, "write_output_file", "", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		cleanup()
		return newError(KindWrite, "rename_output_file", "", err)
	}

	return nil
}
