package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment status values for a booking.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Booking status values.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCheckedIn = "checked_in"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID     string    `bun:"booking_id,pk" json:"booking_id"`
	UserID        string    `bun:"user_id,notnull" json:"user_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Quantity      int       `bun:"quantity,notnull" json:"quantity"`
	TotalAmount   float64   `bun:"total_amount" json:"total_amount"`
	Currency      string    `bun:"currency" json:"currency"`
	PaymentMethod string    `bun:"payment_method" json:"payment_method,omitempty"`
	PaymentID     string    `bun:"payment_id" json:"payment_id,omitempty"`
	PaymentStatus string    `bun:"payment_status,notnull" json:"payment_status"`
	Status        string    `bun:"status,notnull" json:"status"`
	Reference     string    `bun:"reference,unique,notnull" json:"reference"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`

	Tickets []Ticket `bun:"-" json:"tickets,omitempty"`
}

type BookingRequest struct {
	EventID       string  `json:"event_id"`
	Quantity      int     `json:"quantity"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	PaymentID     string  `json:"payment_id,omitempty"`
}

// BookingAudit is an append-only trail of booking lifecycle actions.
type BookingAudit struct {
	bun.BaseModel `bun:"table:booking_audit"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	BookingID string    `bun:"booking_id,notnull" json:"booking_id"`
	Action    string    `bun:"action,notnull" json:"action"`
	Reason    string    `bun:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// CapacityInfo summarizes how full an event is.
type CapacityInfo struct {
	EventID   string `json:"event_id"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}
