package pit

import (
	"fmt"

	"github.com/etnz/pit/date"
)

// ValidationError reports a malformed record: a required field is missing or
// violates the rules of its transaction type. The caller must fix the input.
type ValidationError struct {
	Field  string // Field is the name of the offending field.
	Reason string // Reason describes the rule that was violated.
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnknownTransactionTypeError reports a transaction type tag outside of
// Buy, Sell, Dividend and Fee.
type UnknownTransactionTypeError struct {
	Type string
}

func (e *UnknownTransactionTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type %q", e.Type)
}

// InsufficientHoldingsError reports a sell of more units than held at that
// point of the ledger. It is never auto-corrected.
type InsufficientHoldingsError struct {
	Asset     int64
	Date      date.Date
	Held      Quantity
	Requested Quantity
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("on %s, cannot sell %s units of asset %d: only %s held", e.Date, e.Requested, e.Asset, e.Held)
}

// MissingRateError reports a conversion between two currencies without any
// known exchange rate on or before the date.
type MissingRateError struct {
	From, To string
	Date     date.Date
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no %s/%s exchange rate on or before %s", e.From, e.To, e.Date)
}
