package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CheckIn is one row of the append-only check-in log. A unique index on
// ticket_id guarantees at most one entry per ticket; its existence is the
// sole source of truth for "already used".
type CheckIn struct {
	bun.BaseModel `bun:"table:check_ins"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	TicketID    string    `bun:"ticket_id,unique,notnull" json:"ticket_id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	BookingID   string    `bun:"booking_id,notnull" json:"booking_id"`
	CheckedInBy string    `bun:"checked_in_by,notnull" json:"checked_in_by"`
	CheckedInAt time.Time `bun:"checked_in_at,notnull" json:"checked_in_at"`
}
