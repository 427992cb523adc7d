package store

import (
	"context"
	"time"

	"rehabook/backend/internal/domain"
)

// ScheduleTx is the transaction-scoped face of the store. Implementations
// hand it to callbacks running under a per-day advisory lock, which is what
// makes the check-then-act pairs in booking and day-toggling safe.
type ScheduleTx interface {
	FindAppointmentBySlot(ctx context.Context, date time.Time, slotTime string) (*domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)

	IsDayBlocked(ctx context.Context, date time.Time) (bool, error)
	InsertBlockedDay(ctx context.Context, date time.Time) error
	DeleteBlockedDay(ctx context.Context, date time.Time) (bool, error)
}
