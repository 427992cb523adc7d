package scheduling

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rehabook/backend/internal/domain"
	"rehabook/backend/internal/notify"
	"rehabook/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// HolidayProvider yields the public holidays for a year. Implementations are
// best-effort and return an empty set on failure.
type HolidayProvider interface {
	Holidays(ctx context.Context, year int) []time.Time
}

type Service struct {
	repo     store.ScheduleRepository
	holidays HolidayProvider
	notifier notify.Sender
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo store.ScheduleRepository, holidays HolidayProvider, notifier notify.Sender, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		holidays: holidays,
		notifier: notifier,
		log:      log.With(slog.String("component", "scheduling")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type BookingFields struct {
	Date           string
	Time           string
	ProcedureName  string
	ProcedurePrice string
	ChildName      string
	Diagnosis      string
	ParentName     string
	Phone          string
	Email          string
	SourceInfo     string
}

type CreateBookingInput struct {
	BookingFields
	Attachment *notify.Attachment
}

// CreateBooking runs the whole booking workflow: field validation, the
// conflict and blocked-day checks (inside the store's day transaction), the
// insert, and a best-effort notification. Booking success is defined purely
// by the database write; notification failures are logged and swallowed.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Appointment, error) {
	appt, err := parseBookingFields(in.BookingFields)
	if err != nil {
		return domain.Appointment{}, err
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	if s.notifier != nil {
		subject := notify.BookingSubject(created)
		body := notify.BookingSummary(created)
		if err := s.notifier.Send(ctx, subject, body, in.Attachment); err != nil {
			s.log.Warn(
				"booking notification failed",
				slog.Any("err", err),
				slog.String("appointment_id", created.ID.String()),
			)
		}
	}

	return created, nil
}

func (s *Service) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	return s.repo.ListSlots(ctx)
}

// Availability merges taken slots, admin-blocked days and current-year public
// holidays into the single view the booking calendar renders from. Holidays
// degrade to an empty set when the upstream is down, so the view is always at
// least as restrictive as the blocked-day table.
func (s *Service) Availability(ctx context.Context) (domain.AvailabilityView, error) {
	slots, err := s.repo.ListSlots(ctx)
	if err != nil {
		return domain.AvailabilityView{}, err
	}

	blocked, err := s.repo.ListBlockedDays(ctx)
	if err != nil {
		return domain.AvailabilityView{}, err
	}

	var holidays []time.Time
	if s.holidays != nil {
		holidays = s.holidays.Holidays(ctx, s.now().Year())
	}

	return domain.AvailabilityView{
		Appointments: slots,
		BlockedDates: domain.MergeBlockedDates(blocked, holidays),
	}, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	return s.repo.ListAppointments(ctx)
}

// UpdateAppointment overwrites the editable fields of an existing booking.
// It does not re-check blocked days: admin edits bypass availability, which
// matches how the clinic actually uses it (rescheduling onto days the public
// cannot book). The store still rejects landing on an occupied slot.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in BookingFields) error {
	if id == uuid.Nil {
		return validationError("id is required")
	}
	appt, err := parseBookingFields(in)
	if err != nil {
		return err
	}
	appt.ID = id
	return s.repo.UpdateAppointment(ctx, appt)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("id is required")
	}
	return s.repo.DeleteAppointment(ctx, id)
}

func (s *Service) ToggleBlockedDay(ctx context.Context, date string) (time.Time, bool, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, false, validationError("date is required")
	}
	d, err := domain.ParseDate(trimmed)
	if err != nil {
		return time.Time{}, false, validationError("invalid date")
	}

	blocked, err := s.repo.ToggleBlockedDay(ctx, d)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, blocked, nil
}

func (s *Service) ListBlockedDays(ctx context.Context) ([]time.Time, error) {
	return s.repo.ListBlockedDays(ctx)
}

func parseBookingFields(in BookingFields) (domain.Appointment, error) {
	required := []struct {
		name  string
		value string
	}{
		{"date", in.Date},
		{"time", in.Time},
		{"procedure_name", in.ProcedureName},
		{"procedure_price", in.ProcedurePrice},
		{"child_name", in.ChildName},
		{"parent_name", in.ParentName},
		{"phone", in.Phone},
		{"email", in.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return domain.Appointment{}, validationError(f.name + " is required")
		}
	}

	date, err := domain.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return domain.Appointment{}, validationError("invalid date")
	}

	slotTime, err := domain.ParseSlotTime(strings.TrimSpace(in.Time))
	if err != nil {
		return domain.Appointment{}, validationError("invalid time")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.ProcedurePrice))
	if err != nil {
		return domain.Appointment{}, validationError("invalid procedure_price")
	}
	if price.IsNegative() {
		return domain.Appointment{}, validationError("procedure_price must not be negative")
	}

	return domain.Appointment{
		Date:           date,
		Time:           slotTime,
		ProcedureName:  strings.TrimSpace(in.ProcedureName),
		ProcedurePrice: price,
		ChildName:      strings.TrimSpace(in.ChildName),
		Diagnosis:      strings.TrimSpace(in.Diagnosis),
		ParentName:     strings.TrimSpace(in.ParentName),
		Phone:          strings.TrimSpace(in.Phone),
		Email:          strings.TrimSpace(in.Email),
		SourceInfo:     strings.TrimSpace(in.SourceInfo),
	}, nil
}
