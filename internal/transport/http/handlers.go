package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"rehabook/backend/internal/domain"
	"rehabook/backend/internal/notify"
	"rehabook/backend/internal/service/scheduling"
	"rehabook/backend/internal/store"
)

// maxAttachmentBytes bounds the optional booking upload (referrals, reports).
const maxAttachmentBytes = 10 << 20

type schedulingService interface {
	CreateBooking(ctx context.Context, in scheduling.CreateBookingInput) (domain.Appointment, error)
	ListSlots(ctx context.Context) ([]domain.Slot, error)
	Availability(ctx context.Context) (domain.AvailabilityView, error)
	ListAppointments(ctx context.Context) ([]domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, in scheduling.BookingFields) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ToggleBlockedDay(ctx context.Context, date string) (time.Time, bool, error)
	ListBlockedDays(ctx context.Context) ([]time.Time, error)
}

type Handler struct {
	svc      schedulingService
	log      *slog.Logger
	validate *validator.Validate
}

func NewHandler(svc schedulingService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:      svc,
		log:      log.With(slog.String("component", "http")),
		validate: validator.New(),
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type slotResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type availabilityResponse struct {
	Appointments []slotResponse `json:"appointments"`
	BlockedDates []string       `json:"blocked_dates"`
}

type appointmentResponse struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	ProcedureName  string `json:"procedure_name"`
	ProcedurePrice string `json:"procedure_price"`
	ChildName      string `json:"child_name"`
	Diagnosis      string `json:"diagnosis"`
	ParentName     string `json:"parent_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	SourceInfo     string `json:"source_info"`
	PaymentStatus  string `json:"payment_status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// priceField accepts a JSON number or a JSON string; booking forms send
// either depending on how the front-end serializes the form.
type priceField string

func (p *priceField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = priceField(n.String())
	return nil
}

type bookingRequest struct {
	Date           string     `json:"date" validate:"required"`
	Time           string     `json:"time" validate:"required"`
	ProcedureName  string     `json:"procedure_name" validate:"required"`
	ProcedurePrice priceField `json:"procedure_price" validate:"required"`
	ChildName      string     `json:"child_name" validate:"required"`
	Diagnosis      string     `json:"diagnosis"`
	ParentName     string     `json:"parent_name" validate:"required"`
	Phone          string     `json:"phone" validate:"required"`
	Email          string     `json:"email" validate:"required"`
	SourceInfo     string     `json:"source_info"`
}

type toggleBlockRequest struct {
	Date string `json:"date" validate:"required"`
}

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "ListSlots"))

	slots, err := h.svc.ListSlots(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "GetAvailability"))

	view, err := h.svc.Availability(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	blocked := make([]string, 0, len(view.BlockedDates))
	for _, d := range view.BlockedDates {
		blocked = append(blocked, domain.FormatDate(d))
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Appointments: toSlotResponses(view.Appointments),
		BlockedDates: blocked,
	})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "CreateBooking"))

	in, err := h.decodeBookingRequest(r)
	if err != nil {
		log.Warn("invalid booking request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt, err := h.svc.CreateBooking(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info(
		"booking created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("date", domain.FormatDate(appt.Date)),
		slog.String("time", appt.Time),
	)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "booking created"})
}

func (h *Handler) AdminListAppointments(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "AdminListAppointments"))

	appts, err := h.svc.ListAppointments(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AdminUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "AdminUpdateAppointment"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, missingFieldMessage(err))
		return
	}

	if err := h.svc.UpdateAppointment(r.Context(), id, req.fields()); err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("appointment updated", slog.String("appointment_id", id.String()))
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "appointment updated"})
}

func (h *Handler) AdminDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "AdminDeleteAppointment"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	if err := h.svc.DeleteAppointment(r.Context(), id); err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("appointment deleted", slog.String("appointment_id", id.String()))
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "appointment deleted"})
}

func (h *Handler) AdminToggleBlockedDay(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "AdminToggleBlockedDay"))

	var req toggleBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, missingFieldMessage(err))
		return
	}

	date, blocked, err := h.svc.ToggleBlockedDay(r.Context(), req.Date)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	log.Info("blocked day toggled", slog.String("date", domain.FormatDate(date)), slog.String("state", state))
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: domain.FormatDate(date) + " " + state,
	})
}

func (h *Handler) AdminListBlockedDays(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "AdminListBlockedDays"))

	days, err := h.svc.ListBlockedDays(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, domain.FormatDate(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "ok"})
}

// decodeBookingRequest accepts either a JSON body or a multipart form; the
// public site posts multipart when the parent attaches a referral file.
func (h *Handler) decodeBookingRequest(r *http.Request) (scheduling.CreateBookingInput, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.decodeBookingForm(r)
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return scheduling.CreateBookingInput{}, errors.New("invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return scheduling.CreateBookingInput{}, errors.New(missingFieldMessage(err))
	}
	return scheduling.CreateBookingInput{BookingFields: req.fields()}, nil
}

func (h *Handler) decodeBookingForm(r *http.Request) (scheduling.CreateBookingInput, error) {
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		return scheduling.CreateBookingInput{}, errors.New("invalid multipart form")
	}

	req := bookingRequest{
		Date:           r.FormValue("date"),
		Time:           r.FormValue("time"),
		ProcedureName:  r.FormValue("procedure_name"),
		ProcedurePrice: priceField(r.FormValue("procedure_price")),
		ChildName:      r.FormValue("child_name"),
		Diagnosis:      r.FormValue("diagnosis"),
		ParentName:     r.FormValue("parent_name"),
		Phone:          r.FormValue("phone"),
		Email:          r.FormValue("email"),
		SourceInfo:     r.FormValue("source_info"),
	}
	if err := h.validate.Struct(req); err != nil {
		return scheduling.CreateBookingInput{}, errors.New(missingFieldMessage(err))
	}

	in := scheduling.CreateBookingInput{BookingFields: req.fields()}

	file, header, err := r.FormFile("attachment")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, nil
	case err != nil:
		return scheduling.CreateBookingInput{}, errors.New("invalid attachment")
	}
	defer file.Close()

	att, err := readAttachment(file, header)
	if err != nil {
		return scheduling.CreateBookingInput{}, err
	}
	in.Attachment = att
	return in, nil
}

func readAttachment(file multipart.File, header *multipart.FileHeader) (*notify.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes+1))
	if err != nil {
		return nil, errors.New("invalid attachment")
	}
	if len(data) > maxAttachmentBytes {
		return nil, errors.New("attachment too large")
	}
	return &notify.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (r bookingRequest) fields() scheduling.BookingFields {
	return scheduling.BookingFields{
		Date:           r.Date,
		Time:           r.Time,
		ProcedureName:  r.ProcedureName,
		ProcedurePrice: string(r.ProcedurePrice),
		ChildName:      r.ChildName,
		Diagnosis:      r.Diagnosis,
		ParentName:     r.ParentName,
		Phone:          r.Phone,
		Email:          r.Email,
		SourceInfo:     r.SourceInfo,
	}
}

func toSlotResponses(slots []domain.Slot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{Date: domain.FormatDate(s.Date), Time: s.Time})
	}
	return out
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID.String(),
		Date:           domain.FormatDate(a.Date),
		Time:           a.Time,
		ProcedureName:  a.ProcedureName,
		ProcedurePrice: a.ProcedurePrice.String(),
		ChildName:      a.ChildName,
		Diagnosis:      a.Diagnosis,
		ParentName:     a.ParentName,
		Phone:          a.Phone,
		Email:          a.Email,
		SourceInfo:     a.SourceInfo,
		PaymentStatus:  a.PaymentStatus,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func missingFieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		// Report the wire name, not the Go field name.
		return toSnakeCase(field) + " is required"
	}
	return "invalid request"
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, store.ErrSlotTaken):
		log.Info("booking conflict", slog.String("reason", "slot_taken"))
		writeError(w, http.StatusConflict, "this slot is already taken")
	case errors.Is(err, store.ErrDayBlocked):
		log.Info("booking conflict", slog.String("reason", "day_blocked"))
		writeError(w, http.StatusConflict, "this day is not available for booking")
	case errors.Is(err, store.ErrNotFound):
		log.Warn("not found", slog.Any("err", err))
		writeError(w, http.StatusNotFound, "appointment not found")
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, statusResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
