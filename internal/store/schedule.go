package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rehabook/backend/internal/domain"
)

type ScheduleRepository interface {
	// CreateAppointment books a slot. It owns the whole conflict decision:
	// the slot check, the blocked-day check and the insert run inside one
	// day-scoped transaction, so two concurrent requests for the same slot
	// can never both succeed.
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	FindAppointmentBySlot(ctx context.Context, date time.Time, slotTime string) (*domain.Appointment, error)
	ListAppointments(ctx context.Context) ([]domain.Appointment, error)
	ListSlots(ctx context.Context) ([]domain.Slot, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// ToggleBlockedDay blocks the date if it is free and unblocks it if it
	// is blocked, reporting the resulting state. Atomic with respect to its
	// own check-then-act.
	ToggleBlockedDay(ctx context.Context, date time.Time) (blocked bool, err error)
	ListBlockedDays(ctx context.Context) ([]time.Time, error)
}
