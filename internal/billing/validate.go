package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/gst-billing/internal/words"
)

// Validate performs the checks the bill form made before generating:
// a template is chosen, every required field is filled, and some amount in
// words is available either directly or from a parsable round-off.
func Validate(record InvoiceRecord, templatePath string, schema *Schema) error {
	if strings.TrimSpace(templatePath) == "" {
		return newError(KindValidation, "validate", "", errors.New("please select a valid bill template"))
	}

	var missing []string
	for _, key := range schema.RequiredKeys() {
		if !record.Has(key) {
			missing = append(missing, key)
		}
	}

	if !record.Has(FieldAmountInWords) {
		if _, err := words.Parse(record.Get(FieldRoundOff)); err != nil {
			missing = append(missing, FieldAmountInWords)
		}
	}

	if len(missing) > 0 {
		return newError(KindValidation, "validate", strings.Join(missing, ","),
			fmt.Errorf("required fields are empty: %s", strings.Join(missing, ", ")))
	}

	return nil
}
