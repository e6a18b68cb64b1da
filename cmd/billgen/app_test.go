package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/gst-billing/internal/billing"
)

var fixedNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

// setupRoot lays out a billing root with one template and returns the config path
func setupRoot(t *testing.T) (root, configPath string) {
	t.Helper()

	root = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Templates"), 0755))
	writeTemplate(t, filepath.Join(root, "Templates", "Tax Invoice.xlsx"))

	configPath = filepath.Join(root, "config.yaml")
	content := fmt.Sprintf("billing:\n  root_dir: %q\nlogger:\n  format: console\n", root)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return root, configPath
}

func writeTemplate(t *testing.T, path string, merges ...[2]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "TAX INVOICE"))
	for _, m := range merges {
		require.NoError(t, f.MergeCell(sheet, m[0], m[1]))
	}
	require.NoError(t, f.SaveAs(path))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := newApp(&out, billing.WithClock(func() time.Time { return fixedNow })).
		Run(append([]string{"billgen"}, args...))
	return out.String(), err
}

func TestWords(t *testing.T) {
	out, err := run(t, "words", "1,00,000")
	require.NoError(t, err)
	assert.Equal(t, "One Lakh Rupees Only\n", out)

	out, err = run(t, "words", "0")
	require.NoError(t, err)
	assert.Equal(t, "Zero Rupees Only\n", out)

	_, err = run(t, "words")
	assert.Error(t, err)

	_, err = run(t, "words", "ten")
	assert.Error(t, err)
}

func TestTotals(t *testing.T) {
	out, err := run(t, "totals", "--amount", "100000", "--cgst", "9", "--sgst", "9")
	require.NoError(t, err)

	assert.Contains(t, out, "₹9,000.00")
	assert.Contains(t, out, "₹1,18,000.00")

	_, err = run(t, "totals", "--cgst", "9")
	assert.Error(t, err, "amount is required")
}

func TestGenerate(t *testing.T) {
	root, configPath := setupRoot(t)

	out, err := run(t, "--config", configPath, "generate",
		"--template", "Tax Invoice.xlsx",
		"--field", "invoice_number=117",
		"--field", "invoice_date=2026-03-14",
		"--field", "description_of_goods=Glass wool insulation rolls",
		"--field", "hsn_code=7019",
		"--field", "quantity=120 Nos",
		"--field", "total_amount=54660",
		"--field", "rate=n/a",
		"--field", "roff=64498.80",
		"--field", "declaration=We declare that the particulars are true, and correct.",
	)
	require.NoError(t, err)

	billPath := filepath.Join(root, "GeneratedBills", "Bill-117-2026-03-15.xlsx")
	assert.Contains(t, out, "Bill written: "+billPath)
	assert.Contains(t, out, "Amount in words: ")
	assert.Contains(t, out, "Skipped unparsable fields: rate")
	require.FileExists(t, billPath)

	f, err := excelize.OpenFile(billPath)
	require.NoError(t, err)
	defer f.Close()
	declaration, err := f.GetCellValue(f.GetSheetName(0), "A56")
	require.NoError(t, err)
	assert.Equal(t, "We declare that the particulars are true, and correct.", declaration)

	t.Run("listed", func(t *testing.T) {
		out, err := run(t, "--config", configPath, "bills")
		require.NoError(t, err)
		assert.Contains(t, out, "Bill-117-2026-03-15.xlsx")
	})

	t.Run("in history", func(t *testing.T) {
		out, err := run(t, "--config", configPath, "history", "--limit", "5")
		require.NoError(t, err)
		assert.Contains(t, out, "117")
		assert.Contains(t, out, "rate")

		out, err = run(t, "--config", configPath, "history", "--invoice", "999")
		require.NoError(t, err)
		assert.NotContains(t, out, "117")
	})
}

func TestGenerate_FromRecordFile(t *testing.T) {
	root, configPath := setupRoot(t)

	record := `
template_name: Tax Invoice.xlsx
fields:
  invoice_number: 118
  invoice_date: 2026-03-15
  description_of_goods: Mineral wool slabs
  hsn_code: 6806
  quantity: 40 Nos
  total_amount: 18000
  cgst: 9
  sgst: 9
  roff: 21240
  declaration: Goods once sold will not be taken back.
`
	recordPath := filepath.Join(root, "bill-118.yaml")
	require.NoError(t, os.WriteFile(recordPath, []byte(record), 0644))

	// the flag overrides the invoice number in the file
	out, err := run(t, "--config", configPath, "generate", "--record", recordPath, "--field", "invoice_number=118A")
	require.NoError(t, err)
	assert.Contains(t, out, "Bill-118A-2026-03-15.xlsx")
	assert.FileExists(t, filepath.Join(root, "GeneratedBills", "Bill-118A-2026-03-15.xlsx"))
}

func TestGenerate_Errors(t *testing.T) {
	_, configPath := setupRoot(t)

	_, err := run(t, "--config", configPath, "generate", "--template", "Tax Invoice.xlsx", "--field", "invoice_number")
	assert.ErrorContains(t, err, "want key=value")

	_, err = run(t, "--config", configPath, "generate", "--template", "Tax Invoice.xlsx", "--field", "gstin=27AAA")
	assert.ErrorContains(t, err, "unknown field")

	_, err = run(t, "--config", configPath, "generate", "--template", "Tax Invoice.xlsx", "--field", "invoice_number=1")
	assert.ErrorIs(t, err, billing.ErrValidation)

	_, err = run(t, "--config", configPath, "generate", "--template", "Missing.xlsx")
	assert.ErrorIs(t, err, billing.ErrTemplateNotFound)
}

func TestTemplatesAndValidation(t *testing.T) {
	root, configPath := setupRoot(t)
	writeTemplate(t, filepath.Join(root, "Templates", "Merged.xlsx"), [2]string{"E31", "E32"})

	out, err := run(t, "--config", configPath, "templates")
	require.NoError(t, err)
	assert.Equal(t, "Merged.xlsx\nTax Invoice.xlsx\n", out)

	out, err = run(t, "--config", configPath, "validate-template", "Tax Invoice.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Tax Invoice.xlsx: ok\n", out)

	_, err = run(t, "--config", configPath, "validate-template", "Merged.xlsx")
	assert.ErrorIs(t, err, billing.ErrInvalidSchema)

	out, err = run(t, "--config", configPath, "validate-template")
	assert.ErrorContains(t, err, "1 of 2 templates")
	assert.Contains(t, out, "Tax Invoice.xlsx: ok")
	assert.Contains(t, out, "Merged.xlsx: ")
}
