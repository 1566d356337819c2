package models

import "errors"

// Booking lifecycle errors.
var (
	ErrCapacityExceeded      = errors.New("event capacity exceeded")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyCancelled      = errors.New("booking is already cancelled")
	ErrCannotCancelCheckedIn = errors.New("booking has checked-in tickets and cannot be cancelled")
	ErrInvalidQuantity       = errors.New("ticket quantity must be at least 1")
	ErrEventBusy             = errors.New("event is processing other bookings, please retry")
)

// Scan/validation reason strings. These are user-facing: the scanner UI
// shows them verbatim, so the wording is part of the contract.
const (
	ReasonInvalidFormat      = "Invalid QR code format"
	ReasonChecksumMismatch   = "Invalid ticket checksum"
	ReasonBookingUnavailable = "Booking not found or cancelled"
	ReasonEventNotFound      = "Event not found"
	ReasonUserNotFound       = "User not found"
	ReasonAlreadyUsed        = "Ticket already used"
	ReasonBeforeEventDate    = "Ticket cannot be used before event date"
)
