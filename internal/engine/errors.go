package engine

import (
	"fmt"

	"smartqueue/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	// ErrSlotFull is expected under load: capacity is exhausted and the
	// caller should offer alternative slots.
	ErrSlotFull = errs.New("slot is full")

	// ErrSlotUnknown means the ledger was asked about a slot it never
	// hydrated; callers hydrate before reserving.
	ErrSlotUnknown = errs.New("slot not tracked by ledger")

	// ErrBusy is a lock-acquisition timeout on a slot's section; retryable.
	ErrBusy = errs.New("slot is busy, retry later")

	// ErrInvariantViolation marks detected ledger/allocator inconsistency.
	// It is a defect signal: the operation aborts and state is left as-is.
	ErrInvariantViolation = errs.New("queue invariant violation")
)

func errsMarkInvariant(msg string, slotID uuid.UUID, bookedCount, capacity int) error {
	return errs.Mark(
		errs.New(fmt.Sprintf("%s: slot=%s booked=%d capacity=%d", msg, slotID, bookedCount, capacity)),
		ErrInvariantViolation,
	)
}
