package commands

import (
	"context"
	"time"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/domain/catalog"
	"smartqueue/internal/domain/slot"
	"smartqueue/internal/engine"
	"smartqueue/internal/pubsub"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Pool is the transaction-starting subset of *pgxpool.Pool; narrowed so tests
// can stand in for it.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PositionUpdate is one renumbered appointment to persist after a removal
// earlier in its slot's queue.
type PositionUpdate struct {
	AppointmentID        uuid.UUID
	QueuePosition        int
	EstimatedWaitMinutes int
}

type AppointmentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, a *appointment.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	ApplyPositions(ctx context.Context, tx pgx.Tx, updates []PositionUpdate) error
	// ConfirmedBySlot returns CONFIRMED appointments ordered by queue position;
	// used to hydrate the engine after a restart.
	ConfirmedBySlot(ctx context.Context, slotID uuid.UUID) ([]*appointment.Appointment, error)
}

type SlotWriteRepository interface {
	SetOccupancy(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, bookedCount int, status slot.Status) error
}

type ThroughputRepository interface {
	Upsert(ctx context.Context, sample engine.ThroughputSample) error
	FindByService(ctx context.Context, serviceID uuid.UUID) (*engine.ThroughputSample, error)
}

// Catalog is the external slot/service reference store; read-mostly, cached,
// invalidated when this service changes a slot's occupancy.
type Catalog interface {
	Slot(ctx context.Context, id uuid.UUID) (*slot.Slot, error)
	Service(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	InvalidateSlot(ctx context.Context, id uuid.UUID)
}

type EventPublisher interface {
	Publish(topic string, ev pubsub.Event)
}
