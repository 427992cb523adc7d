package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlockedDay marks a date the clinic does not take bookings on. Rows only
// ever come and go through the admin toggle; they are never updated in place.
type BlockedDay struct {
	bun.BaseModel `bun:"table:blocked_days"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Date      time.Time `bun:"date,notnull,type:date,unique"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (b *BlockedDay) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}
