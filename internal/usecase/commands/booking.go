package commands

import (
	"context"
	"log/slog"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/domain/catalog"
	"smartqueue/internal/domain/identity"
	"smartqueue/internal/engine"
	"smartqueue/internal/infra"
	"smartqueue/internal/pkg/bookingref"
	"smartqueue/internal/pkg/clock"
	"smartqueue/internal/pkg/errs"
	"smartqueue/internal/pubsub"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookResult is what the handler returns straight after a committed booking.
type BookResult struct {
	AppointmentID        uuid.UUID
	SlotID               uuid.UUID
	ServiceID            uuid.UUID
	BookingReference     string
	QueuePosition        int
	EstimatedWaitMinutes int
	Status               appointment.Status
}

// BookingCommands is the coordinator: the only writer of ledger and allocator
// state. Book and Cancel run inside the target slot's exclusive section and
// acknowledge only after the mutation is durable; event fan-out happens after
// the section is released so a slow subscriber can never stretch booking
// latency.
type BookingCommands interface {
	Book(ctx context.Context, userID, slotID, serviceID uuid.UUID) (*BookResult, error)
	Cancel(ctx context.Context, appointmentID, callerID uuid.UUID, role identity.Role) error
	// Complete is the external time-keeper's feed: it retires a confirmed
	// appointment and folds the observed duration into the wait estimator.
	Complete(ctx context.Context, appointmentID uuid.UUID, durationMinutes float64) error
}

type topicEvent struct {
	topic string
	event pubsub.Event
}

type bookingCommandsImpl struct {
	guard        *engine.SlotGuard
	ledger       *engine.SlotLedger
	allocator    *engine.QueueAllocator
	estimator    *engine.WaitEstimator
	publisher    EventPublisher
	appointments AppointmentRepository
	slots        SlotWriteRepository
	throughput   ThroughputRepository
	catalog      Catalog
	db           Pool
	clock        clock.Clock
}

func NewBookingCommands(
	guard *engine.SlotGuard,
	ledger *engine.SlotLedger,
	allocator *engine.QueueAllocator,
	estimator *engine.WaitEstimator,
	publisher EventPublisher,
	appointments AppointmentRepository,
	slots SlotWriteRepository,
	throughput ThroughputRepository,
	cat Catalog,
	db Pool,
	clk clock.Clock,
) BookingCommands {
	return &bookingCommandsImpl{
		guard:        guard,
		ledger:       ledger,
		allocator:    allocator,
		estimator:    estimator,
		publisher:    publisher,
		appointments: appointments,
		slots:        slots,
		throughput:   throughput,
		catalog:      cat,
		db:           db,
		clock:        clk,
	}
}

func (c *bookingCommandsImpl) Book(ctx context.Context, userID, slotID, serviceID uuid.UUID) (*BookResult, error) {
	svc, err := c.findService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	result, events, err := c.bookInSection(ctx, svc, userID, slotID, serviceID)
	if err != nil {
		return nil, err
	}

	c.emit(events)
	return result, nil
}

func (c *bookingCommandsImpl) bookInSection(ctx context.Context, svc *catalog.Service, userID, slotID, serviceID uuid.UUID) (*BookResult, []topicEvent, error) {
	release, err := c.guard.Acquire(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	if err := c.ensureSlotLoaded(ctx, slotID); err != nil {
		return nil, nil, err
	}

	if ledgerSvc, ok := c.ledger.ServiceID(slotID); !ok || ledgerSvc != serviceID {
		return nil, nil, errs.Mark(errs.New("slot/service mismatch"), errs.ErrSlotServiceMismatch)
	}

	if err := c.ledger.TryReserve(slotID); err != nil {
		return nil, nil, err
	}
	// The reservation is committed in-memory from here; every failure path
	// below must hand it back.

	ref, err := bookingref.New()
	if err != nil {
		c.mustRelease(slotID)
		return nil, nil, errs.Wrap(err, "failed to generate booking reference")
	}

	position := c.allocator.Len(slotID) + 1
	wait := c.estimator.Estimate(serviceID, position, svc.AvgDurationMinutes())

	appt, err := appointment.NewAppointment(slotID, serviceID, userID, ref, position, wait, c.clock.Now())
	if err != nil {
		c.mustRelease(slotID)
		return nil, nil, err
	}

	if assigned := c.allocator.Assign(slotID, appt.ID(), userID); assigned != position {
		c.rollbackAssignment(slotID, appt.ID())
		return nil, nil, errs.Mark(
			errs.New("allocator and ledger disagree on queue length"),
			engine.ErrInvariantViolation,
		)
	}

	if err := c.persistBooking(ctx, appt); err != nil {
		c.rollbackAssignment(slotID, appt.ID())
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.catalog.InvalidateSlot(ctx, slotID)

	result := &BookResult{
		AppointmentID:        appt.ID(),
		SlotID:               slotID,
		ServiceID:            serviceID,
		BookingReference:     appt.BookingReference(),
		QueuePosition:        appt.QueuePosition(),
		EstimatedWaitMinutes: appt.EstimatedWaitMinutes(),
		Status:               appt.Status(),
	}

	events := c.slotEvents(slotID)
	events = append(events, topicEvent{
		topic: pubsub.UserTopic(userID),
		event: pubsub.NewAppointmentUpdate(appt.ID(), appt.QueuePosition(), appointment.StatusConfirmed),
	})
	return result, events, nil
}

func (c *bookingCommandsImpl) Cancel(ctx context.Context, appointmentID, callerID uuid.UUID, role identity.Role) error {
	appt, err := c.findAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !role.IsAdmin() && appt.UserID() != callerID {
		return errs.ErrNotOwner
	}
	if appt.Status().IsTerminal() {
		return errs.ErrAlreadyTerminal
	}

	svc, err := c.findService(ctx, appt.ServiceID())
	if err != nil {
		return err
	}

	events, err := c.removeInSection(ctx, appt, svc, appointment.StatusCancelled)
	if err != nil {
		return err
	}

	c.emit(events)
	return nil
}

func (c *bookingCommandsImpl) Complete(ctx context.Context, appointmentID uuid.UUID, durationMinutes float64) error {
	appt, err := c.findAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status().IsTerminal() {
		return errs.ErrAlreadyTerminal
	}

	svc, err := c.findService(ctx, appt.ServiceID())
	if err != nil {
		return err
	}

	events, err := c.removeInSection(ctx, appt, svc, appointment.StatusCompleted)
	if err != nil {
		return err
	}

	// Sample updates stay outside the slot section: the estimator has its own
	// per-service synchronization and must not nest under a slot lock.
	c.estimator.RecordCompletion(appt.ServiceID(), durationMinutes)
	if sample, ok := c.estimator.Sample(appt.ServiceID()); ok {
		if err := c.throughput.Upsert(ctx, sample); err != nil {
			slog.Warn("failed to persist throughput sample",
				"service_id", appt.ServiceID(), "error", err.Error())
		}
	}

	c.emit(events)
	return nil
}

// removeInSection takes a confirmed appointment out of its slot's queue:
// release occupancy, close the position gap, persist, and report every
// position that moved. Shared by Cancel and Complete.
func (c *bookingCommandsImpl) removeInSection(ctx context.Context, appt *appointment.Appointment, svc *catalog.Service, target appointment.Status) ([]topicEvent, error) {
	slotID := appt.SlotID()

	release, err := c.guard.Acquire(ctx, slotID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.ensureSlotLoaded(ctx, slotID); err != nil {
		return nil, err
	}

	// A concurrent cancel may have won between the read and this section.
	if _, ok := c.allocator.PositionOf(slotID, appt.ID()); !ok {
		return nil, errs.ErrAlreadyTerminal
	}

	snapshot := c.allocator.Snapshot(slotID)

	changes, err := c.allocator.Remove(slotID, appt.ID())
	if err != nil {
		return nil, err
	}
	if err := c.ledger.Release(slotID); err != nil {
		c.allocator.Restore(slotID, snapshot)
		return nil, err
	}

	now := c.clock.Now()
	var transitionErr error
	switch target {
	case appointment.StatusCancelled:
		transitionErr = appt.Cancel(now)
	case appointment.StatusCompleted:
		transitionErr = appt.Complete(now)
	default:
		transitionErr = appointment.ErrInvalidStatus
	}
	if transitionErr != nil {
		c.restoreRemoval(slotID, snapshot)
		return nil, errs.Mark(transitionErr, errs.ErrAlreadyTerminal)
	}

	updates := make([]PositionUpdate, 0, len(changes))
	for _, change := range changes {
		updates = append(updates, PositionUpdate{
			AppointmentID:        change.AppointmentID,
			QueuePosition:        change.Position,
			EstimatedWaitMinutes: c.estimator.Estimate(appt.ServiceID(), change.Position, svc.AvgDurationMinutes()),
		})
	}

	if err := c.persistRemoval(ctx, appt, target, updates); err != nil {
		c.restoreRemoval(slotID, snapshot)
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.catalog.InvalidateSlot(ctx, slotID)

	events := c.slotEvents(slotID)
	events = append(events, topicEvent{
		topic: pubsub.UserTopic(appt.UserID()),
		event: pubsub.NewAppointmentUpdate(appt.ID(), 0, target),
	})
	for _, change := range changes {
		events = append(events, topicEvent{
			topic: pubsub.UserTopic(change.UserID),
			event: pubsub.NewAppointmentUpdate(change.AppointmentID, change.Position, appointment.StatusConfirmed),
		})
	}
	return events, nil
}

func (c *bookingCommandsImpl) persistBooking(ctx context.Context, appt *appointment.Appointment) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			slog.Debug("transaction rollback after commit", "error", rollbackErr.Error())
		}
	}()

	if err := c.appointments.Create(ctx, tx, appt); err != nil {
		return err
	}
	if err := c.writeOccupancy(ctx, tx, appt.SlotID()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *bookingCommandsImpl) persistRemoval(ctx context.Context, appt *appointment.Appointment, target appointment.Status, updates []PositionUpdate) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			slog.Debug("transaction rollback after commit", "error", rollbackErr.Error())
		}
	}()

	switch target {
	case appointment.StatusCancelled:
		err = c.appointments.MarkCancelled(ctx, tx, appt.ID(), *appt.CancelledAt())
	case appointment.StatusCompleted:
		err = c.appointments.MarkCompleted(ctx, tx, appt.ID(), *appt.CompletedAt())
	}
	if err != nil {
		return err
	}

	if len(updates) > 0 {
		if err := c.appointments.ApplyPositions(ctx, tx, updates); err != nil {
			return err
		}
	}
	if err := c.writeOccupancy(ctx, tx, appt.SlotID()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *bookingCommandsImpl) writeOccupancy(ctx context.Context, tx pgx.Tx, slotID uuid.UUID) error {
	booked, _, ok := c.ledger.Occupancy(slotID)
	status, statusOK := c.ledger.Status(slotID)
	if !ok || !statusOK {
		return engine.ErrSlotUnknown
	}
	return c.slots.SetOccupancy(ctx, tx, slotID, booked, status)
}

// ensureSlotLoaded lazily hydrates the engine for a slot from the catalog and
// the persisted confirmed queue. Idempotent; called inside the slot's section.
func (c *bookingCommandsImpl) ensureSlotLoaded(ctx context.Context, slotID uuid.UUID) error {
	if c.ledger.Hydrated(slotID) {
		return nil
	}

	record, err := c.catalog.Slot(ctx, slotID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrSlotNotFound)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	confirmed, err := c.appointments.ConfirmedBySlot(ctx, slotID)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	entries := make([]engine.QueueEntry, 0, len(confirmed))
	for _, a := range confirmed {
		entries = append(entries, engine.QueueEntry{
			AppointmentID: a.ID(),
			UserID:        a.UserID(),
		})
	}

	if record.BookedCount() != len(entries) {
		slog.Warn("slot occupancy diverged from confirmed appointments; trusting appointments",
			"slot_id", slotID, "slot_booked_count", record.BookedCount(), "confirmed", len(entries))
	}

	if err := c.ledger.Hydrate(slotID, record.ServiceID(), record.Capacity(), len(entries)); err != nil {
		return err
	}
	c.allocator.Hydrate(slotID, entries)

	if sample, err := c.throughput.FindByService(ctx, record.ServiceID()); err == nil && sample != nil {
		c.estimator.Seed(*sample)
	}
	return nil
}

func (c *bookingCommandsImpl) findService(ctx context.Context, serviceID uuid.UUID) (*catalog.Service, error) {
	svc, err := c.catalog.Service(ctx, serviceID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrServiceNotFound)
	}
	if !svc.IsActive() {
		return nil, errs.Mark(catalog.ErrInactiveService, errs.ErrServiceNotFound)
	}
	return svc, nil
}

func (c *bookingCommandsImpl) findAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	appt, err := c.appointments.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrAppointmentNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return appt, nil
}

// rollbackAssignment compensates a booking whose persistence failed: the
// in-memory claim is handed back before the section is released.
func (c *bookingCommandsImpl) rollbackAssignment(slotID, appointmentID uuid.UUID) {
	if _, err := c.allocator.Remove(slotID, appointmentID); err != nil {
		slog.Error("failed to compensate allocator after persist failure",
			"slot_id", slotID, "appointment_id", appointmentID, "error", err.Error())
	}
	c.mustRelease(slotID)
}

func (c *bookingCommandsImpl) restoreRemoval(slotID uuid.UUID, snapshot []engine.QueueEntry) {
	c.allocator.Restore(slotID, snapshot)
	if err := c.ledger.TryReserve(slotID); err != nil {
		slog.Error("failed to compensate ledger after persist failure",
			"slot_id", slotID, "error", err.Error())
	}
}

func (c *bookingCommandsImpl) mustRelease(slotID uuid.UUID) {
	if err := c.ledger.Release(slotID); err != nil {
		slog.Error("failed to release ledger reservation",
			"slot_id", slotID, "error", err.Error())
	}
}

func (c *bookingCommandsImpl) slotEvents(slotID uuid.UUID) []topicEvent {
	booked, _, ok := c.ledger.Occupancy(slotID)
	status, statusOK := c.ledger.Status(slotID)
	if !ok || !statusOK {
		return nil
	}
	ev := pubsub.NewSlotUpdate(slotID, booked, status)
	return []topicEvent{
		{topic: pubsub.SlotTopic(slotID), event: ev},
		{topic: pubsub.TopicAdmin, event: ev},
	}
}

func (c *bookingCommandsImpl) emit(events []topicEvent) {
	for _, te := range events {
		c.publisher.Publish(te.topic, te.event)
	}
}
