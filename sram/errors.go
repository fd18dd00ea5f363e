package sram

import (
	"fmt"
)

// FormatError indicates that a file is not a loadable F-Zero SRAM image
// (wrong length, or a missing "FZERO" signature).
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "bad save file: " + e.Reason
}

// LookupError indicates an unknown field or record identifier.
type LookupError struct {
	Kind string // "field", "league", "track", "rank"
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %v: %v", e.Kind, e.Name)
}

// DecodeError indicates that stored bytes do not represent a legal value
// under strict decoding.  The usual causes are a non-decimal nibble where
// BCD is expected, or a league checksum that does not match its records.
type DecodeError struct {
	What   string
	Detail string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %v: %v", e.What, e.Detail)
}

// EncodeError indicates a value outside the representable range of its
// target field.  Encoding fails without touching the image.
type EncodeError struct {
	Field string
	Value int
	Max   int
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("value %v is out of range for %v (0-%v)", e.Value, e.Field, e.Max)
}
