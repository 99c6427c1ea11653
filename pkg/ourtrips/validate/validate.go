// Package validate holds the input checks shared by the trip service and its
// pure helpers. Every failure wraps ErrInvalidInput.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidInput marks a request rejected before any work was done.
var ErrInvalidInput = errors.New("invalid input")

// FieldError names the field that failed a check.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Required rejects values that are empty after trimming surrounding spaces.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// Email checks for a bare local@domain.tld address.
func Email(value string) error {
	if err := Required("email", value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return invalid("email", "is not a valid address")
	}
	at := strings.LastIndex(value, "@")
	domain := value[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("email", "domain must contain a dot")
	}
	return nil
}

// DateRange requires both dates and rejects an end before the start. A
// single-day trip ends on its start date.
func DateRange(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start_date", "is required")
	}
	if end.IsZero() {
		return invalid("end_date", "is required")
	}
	if end.Before(start) {
		return invalid("end_date", "cannot be before the start date")
	}
	return nil
}

// MessageText rejects plan messages made only of whitespace.
func MessageText(text string) error {
	if strings.IndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		return invalid("text", "is empty")
	}
	return nil
}

// Entry reports a malformed element of a collection.
func Entry(collection string, index int, reason string) error {
	return invalid(fmt.Sprintf("%s[%d]", collection, index), reason)
}
