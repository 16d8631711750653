package errs

import "errors"

// Domain-specific sentinel errors shared by the command and query sides.
// Engine-level conditions (slot full, busy, invariant violation) live in
// internal/engine.
var (
	// Lookup errors
	ErrSlotNotFound        = errors.New("slot not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// Request errors
	ErrSlotServiceMismatch = errors.New("slot does not belong to requested service")

	// State errors
	ErrAlreadyTerminal = errors.New("appointment already cancelled or completed")
	ErrNotOwner        = errors.New("appointment belongs to another user")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
