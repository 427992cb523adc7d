package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PaymentStatusAwaiting is the state every new booking starts in. Nothing in
// the API mutates it yet; the admin front-end only displays it.
const PaymentStatusAwaiting = "awaiting payment"

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID             uuid.UUID       `bun:"id,pk,type:uuid"`
	Date           time.Time       `bun:"date,notnull,type:date"`
	Time           string          `bun:"time,notnull"`
	ProcedureName  string          `bun:"procedure_name,notnull"`
	ProcedurePrice decimal.Decimal `bun:"procedure_price,notnull,type:numeric"`
	ChildName      string          `bun:"child_name,notnull"`
	Diagnosis      string          `bun:"diagnosis"`
	ParentName     string          `bun:"parent_name,notnull"`
	Phone          string          `bun:"phone,notnull"`
	Email          string          `bun:"email,notnull"`
	SourceInfo     string          `bun:"source_info"`
	PaymentStatus  string          `bun:"payment_status,notnull"`
	CreatedAt      time.Time       `bun:"created_at,notnull"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.PaymentStatus == "" {
			a.PaymentStatus = PaymentStatusAwaiting
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// Slot is the public projection of an appointment: which (date, time) pairs
// are taken, and nothing else about who took them.
type Slot struct {
	Date time.Time
	Time string
}

func (a Appointment) Slot() Slot {
	return Slot{Date: a.Date, Time: a.Time}
}
