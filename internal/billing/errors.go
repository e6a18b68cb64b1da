package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a record rejected before synthesis
	ErrValidation = errors.New("validation failed")

	// ErrTemplateNotFound marks a template that is missing or unreadable
	ErrTemplateNotFound = errors.New("template file not found")

	// ErrDateParse marks an invoice date that is not yyyy-MM-dd
	ErrDateParse = errors.New("invalid invoice date")

	// ErrNumericParse marks a decimal or percentage field that did not parse.
	// It never aborts a synthesis.
	ErrNumericParse = errors.New("invalid numeric value")

	// ErrWrite marks a failure to create the output directory or file
	ErrWrite = errors.New("failed to write bill")

	// ErrInvalidSchema marks a field schema that cannot be used
	ErrInvalidSchema = errors.New("invalid field schema")
)

// Kind classifies a SynthesisError
type Kind int

const (
	KindValidation Kind = iota + 1
	KindTemplateNotFound
	KindDateParse
	KindNumericParse
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTemplateNotFound:
		return "template_not_found"
	case KindDateParse:
		return "date_parse"
	case KindNumericParse:
		return "numeric_parse"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTemplateNotFound:
		return ErrTemplateNotFound
	case KindDateParse:
		return ErrDateParse
	case KindNumericParse:
		return ErrNumericParse
	case KindWrite:
		return ErrWrite
	default:
		return nil
	}
}

// SynthesisError reports which stage of bill generation failed.
// errors.Is matches it against the sentinel for its Kind.
type SynthesisError struct {
	Kind  Kind
	Stage string
	Field string
	Err   error
}

func (e *SynthesisError) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	if e.Field != "" {
		fmt.Fprintf(&b, " [%s]", e.Field)
	}
	b.WriteString(": ")
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

func (e *SynthesisError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// FieldError is a SynthesisError scoped to one record field
type FieldError = SynthesisError

func newError(kind Kind, stage, field string, err error) *SynthesisError {
	return &SynthesisError{Kind: kind, Stage: stage, Field: field, Err: err}
}

// KindOf returns the Kind carried by err, or 0 when err is not a SynthesisError.
func KindOf(err error) Kind {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
