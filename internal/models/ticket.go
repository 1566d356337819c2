package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket status values. The check_ins table, not this column, is the
// authority for "used"; the column is a display cache.
const (
	TicketValid       = "valid"
	TicketUsed        = "used"
	TicketCancelled   = "cancelled"
	TicketTransferred = "transferred"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID     string    `bun:"ticket_id,pk" json:"ticket_id"`
	BookingID    string    `bun:"booking_id,notnull" json:"booking_id"`
	EventID      string    `bun:"event_id,notnull" json:"event_id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	TicketNumber string    `bun:"ticket_number,notnull" json:"ticket_number"`
	Status       string    `bun:"status,notnull" json:"status"`
	QRCode       []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	QRPayload    string    `bun:"qr_payload" json:"qr_payload,omitempty"`
	IssuedAt     time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

// TicketPayload is the canonical QR wire format. Field set and order are
// frozen: previously issued tickets must keep validating, and the checksum
// is recomputed from ticketId/eventId/userId exactly as embedded here.
type TicketPayload struct {
	TicketID     string `json:"ticketId"`
	BookingID    string `json:"bookingId"`
	EventID      string `json:"eventId"`
	UserID       string `json:"userId"`
	TicketNumber string `json:"ticketNumber"`
	IssuedAt     string `json:"issuedAt"`
	Checksum     string `json:"checksum"`
}
