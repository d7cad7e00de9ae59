package snapshot

import (
	"errors"
	"fmt"
)

// RecordError is a local, recoverable failure tied to one object or
// constraint record. Capture and replay log it, skip the record and carry on;
// it never aborts the surrounding operation.
type RecordError struct {
	// Code identifies the error category.
	Code RecordErrorCode

	// Record is "object" or "constraint".
	Record string

	// Position is the record's position in its list, or -1 when unknown.
	Position int

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// RecordErrorCode categorizes record errors.
type RecordErrorCode string

const (
	// ErrCodeUnknownKind indicates a joint type with no constraint kind.
	ErrCodeUnknownKind RecordErrorCode = "UNKNOWN_KIND"

	// ErrCodeMissingObject indicates a constraint endpoint that is not in
	// the snapshot or was never spawned.
	ErrCodeMissingObject RecordErrorCode = "MISSING_OBJECT"

	// ErrCodeMissingBody indicates a bone index with no matching body.
	ErrCodeMissingBody RecordErrorCode = "MISSING_BODY"

	// ErrCodeSpawnFailed indicates the runtime could not instantiate an object.
	ErrCodeSpawnFailed RecordErrorCode = "SPAWN_FAILED"

	// ErrCodeJointFailed indicates the runtime could not create a joint.
	ErrCodeJointFailed RecordErrorCode = "JOINT_FAILED"
)

// Error implements the error interface.
func (e *RecordError) Error() string {
	msg := fmt.Sprintf("%s: %s %d: %s", e.Code, e.Record, e.Position, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// IsRecordError returns true if err is a RecordError.
// Uses errors.As to handle wrapped errors.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}

// HasCode returns true if err is a RecordError with the given code.
func HasCode(err error, code RecordErrorCode) bool {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewMissingObjectError creates a RecordError for a dangling constraint
// endpoint.
func NewMissingObjectError(position int, index int32) *RecordError {
	return &RecordError{
		Code:     ErrCodeMissingObject,
		Record:   "constraint",
		Position: position,
		Message:  fmt.Sprintf("object index %d not available", index),
	}
}
