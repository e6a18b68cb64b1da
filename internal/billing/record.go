package billing

import "strings"

// Field keys captured by the bill form
const (
	FieldInvoiceNumber      = "invoice_number"
	FieldInvoiceDate        = "invoice_date"
	FieldEWayBill           = "e_way_bill"
	FieldLRNumber           = "lr_number"
	FieldVehicleNo          = "vehicle_no"
	FieldDescriptionOfGoods = "description_of_goods"
	FieldPacking1           = "packing1"
	FieldPacking2           = "packing2"
	FieldPacking3           = "packing3"
	FieldPacking4           = "packing4"
	FieldHSNCode            = "hsn_code"
	FieldQuantity           = "quantity"
	FieldRate               = "rate"
	FieldTotalAmount        = "total_amount"
	FieldAmountInWords      = "amount_in_words"
	FieldCGST               = "cgst"
	FieldSGST               = "sgst"
	FieldIGST               = "igst"
	FieldRoundOff           = "roff"
	FieldDeclaration        = "declaration"
)

// FieldKeys lists every record key in form order
var FieldKeys = []string{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldEWayBill,
	FieldLRNumber,
	FieldVehicleNo,
	FieldDescriptionOfGoods,
	FieldPacking1,
	FieldPacking2,
	FieldPacking3,
	FieldPacking4,
	FieldHSNCode,
	FieldQuantity,
	FieldRate,
	FieldTotalAmount,
	FieldAmountInWords,
	FieldCGST,
	FieldSGST,
	FieldIGST,
	FieldRoundOff,
	FieldDeclaration,
}

var knownKeys = func() map[string]bool {
	m := make(map[string]bool, len(FieldKeys))
	for _, k := range FieldKeys {
		m[k] = true
	}
	return m
}()

// IsKnownField reports whether key is one of FieldKeys
func IsKnownField(key string) bool {
	return knownKeys[key]
}

// InvoiceRecord holds the raw string values of one bill.
// It is immutable; With returns a modified copy.
type InvoiceRecord struct {
	values map[string]string
}

// NewInvoiceRecord copies the known keys out of fields. Unknown keys are dropped.
func NewInvoiceRecord(fields map[string]string) InvoiceRecord {
	values := make(map[string]string, len(FieldKeys))
	for k, v := range fields {
		if knownKeys[k] {
			values[k] = v
		}
	}
	return InvoiceRecord{values: values}
}

// Get returns the value for key, or "" when absent
func (r InvoiceRecord) Get(key string) string {
	return r.values[key]
}

// Has reports whether key holds a non-blank value
func (r InvoiceRecord) Has(key string) bool {
	return strings.TrimSpace(r.values[key]) != ""
}

// With returns a copy of r with key set to value
func (r InvoiceRecord) With(key, value string) InvoiceRecord {
	values := make(map[string]string, len(r.values)+1)
	for k, v := range r.values {
		values[k] = v
	}
	if knownKeys[key] {
		values[key] = value
	}
	return InvoiceRecord{values: values}
}

// Fields returns a copy holding every known key, absent ones as "".
func (r InvoiceRecord) Fields() map[string]string {
	out := make(map[string]string, len(FieldKeys))
	for _, k := range FieldKeys {
		out[k] = r.values[k]
	}
	return out
}
