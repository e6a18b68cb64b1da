package billing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 15, 11, 45, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// writeTemplate builds a small stand-in for the tax invoice template
func writeTemplate(t *testing.T, dir string, merges ...[2]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "TAX INVOICE"))
	require.NoError(t, f.SetCellValue(sheet, "E14", "Invoice No."))
	require.NoError(t, f.SetCellValue(sheet, "G14", "Dated"))
	require.NoError(t, f.SetCellValue(sheet, "A45", "Output CGST"))

	for _, m := range merges {
		require.NoError(t, f.MergeCell(sheet, m[0], m[1]))
	}

	path := filepath.Join(dir, "GST Invoice.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func fullRecord() InvoiceRecord {
	return NewInvoiceRecord(map[string]string{
		FieldInvoiceNumber:      "117",
		FieldInvoiceDate:        "2026-03-14",
		FieldEWayBill:           "EWB-441200981",
		FieldLRNumber:           "LR-5521",
		FieldVehicleNo:          "MH12AB1234",
		FieldDescriptionOfGoods: "Glass wool insulation rolls",
		FieldPacking1:           "40 rolls",
		FieldPacking2:           "2 bundles",
		FieldPacking3:           "unused",
		FieldPacking4:           "1 pallet",
		FieldHSNCode:            "7019",
		FieldQuantity:           "120 Nos",
		FieldRate:               "455.50",
		FieldTotalAmount:        "54660",
		FieldAmountInWords:      "typed by hand",
		FieldCGST:               "9",
		FieldSGST:               "9",
		FieldIGST:               "",
		FieldRoundOff:           "64498.80",
		FieldDeclaration:        "We declare that this invoice shows the actual price of the goods described.",
	})
}

func newTestSynthesizer(t *testing.T, outputDir string) *Synthesizer {
	t.Helper()

	schema, err := DefaultSchema()
	require.NoError(t, err)

	return NewSynthesizer(schema, outputDir, zap.NewNop(), WithClock(fixedClock))
}
