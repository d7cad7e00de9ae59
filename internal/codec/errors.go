package codec

import (
	"errors"
	"fmt"
)

// ErrTooManyRecords is returned by Encode for a list longer than the format
// maximum.
var ErrTooManyRecords = errors.New("too many records")

// FormatError is a fatal decode failure. No partial snapshot accompanies it.
type FormatError struct {
	// Code identifies the error category.
	Code FormatErrorCode

	// Message is a human-readable description.
	Message string

	// Offset is the byte offset at which decoding failed.
	Offset int64

	// Err is the underlying cause, if any.
	Err error
}

// FormatErrorCode categorizes format errors.
type FormatErrorCode string

const (
	// ErrCodeBadMagic indicates the stream is not a duplicator file.
	ErrCodeBadMagic FormatErrorCode = "BAD_MAGIC"

	// ErrCodeUnknownVersion indicates a version byte with no decoder.
	ErrCodeUnknownVersion FormatErrorCode = "UNKNOWN_VERSION"

	// ErrCodeTruncated indicates the stream ended inside a record.
	ErrCodeTruncated FormatErrorCode = "TRUNCATED"

	// ErrCodeBadValueTag indicates an unknown extension value tag.
	ErrCodeBadValueTag FormatErrorCode = "BAD_VALUE_TAG"

	// ErrCodeBadKind indicates an unknown constraint kind tag. The tail
	// length is unknown, so the stream cannot be resynchronised.
	ErrCodeBadKind FormatErrorCode = "BAD_KIND"

	// ErrCodeStringTooLong indicates a string length above MaxStringLen.
	ErrCodeStringTooLong FormatErrorCode = "STRING_TOO_LONG"

	// ErrCodeBadText indicates malformed text encoding input.
	ErrCodeBadText FormatErrorCode = "BAD_TEXT"
)

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %s (offset %d)", e.Code, e.Message, e.Offset)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError returns true if err is a FormatError.
// Uses errors.As to handle wrapped errors.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// HasCode returns true if err is a FormatError with the given code.
func HasCode(err error, code FormatErrorCode) bool {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
