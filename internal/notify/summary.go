package notify

import (
	"fmt"
	"strings"

	"rehabook/backend/internal/domain"
)

// BookingSubject is what the clinic mailbox filters new-booking mail on.
func BookingSubject(appt domain.Appointment) string {
	return fmt.Sprintf("New booking: %s %s", domain.FormatDate(appt.Date), appt.Time)
}

// BookingSummary renders the human-readable notification body for a new
// booking. Optional fields are omitted rather than printed empty.
func BookingSummary(appt domain.Appointment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s\n", domain.FormatDate(appt.Date))
	fmt.Fprintf(&b, "Time: %s\n", appt.Time)
	fmt.Fprintf(&b, "Procedure: %s (%s)\n", appt.ProcedureName, appt.ProcedurePrice.String())
	fmt.Fprintf(&b, "Child: %s\n", appt.ChildName)
	if appt.Diagnosis != "" {
		fmt.Fprintf(&b, "Diagnosis: %s\n", appt.Diagnosis)
	}
	fmt.Fprintf(&b, "Parent: %s\n", appt.ParentName)
	fmt.Fprintf(&b, "Phone: %s\n", appt.Phone)
	fmt.Fprintf(&b, "Email: %s\n", appt.Email)
	if appt.SourceInfo != "" {
		fmt.Fprintf(&b, "Heard about us: %s\n", appt.SourceInfo)
	}

	return b.String()
}
