package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- LOOKUPS ----------------

func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) GetEvent(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetUser(id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------------- CHECK-IN LOG ----------------

// GetCheckInByTicket returns the log entry for a ticket, or nil when the
// ticket has never been checked in.
func (d *DB) GetCheckInByTicket(ticketID string) (*models.CheckIn, error) {
	var entry models.CheckIn
	err := d.Bun.NewSelect().
		Model(&entry).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// InsertCheckIn appends a log entry for the ticket. The unique index on
// ticket_id turns a race between two scans of the same ticket into exactly
// one insert; the loser sees inserted=false, never a second row.
func (d *DB) InsertCheckIn(entry models.CheckIn) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(&entry).
		On("CONFLICT (ticket_id) DO NOTHING").
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) CountCheckInsByBooking(bookingID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.CheckIn)(nil)).
		Where("booking_id = ?", bookingID).
		Count(context.Background())
}

// ---------------- STATUS CACHES ----------------

// SetTicketUsed updates the display status of a ticket. The check-in log
// stays authoritative; this column only exists for listings.
func (d *DB) SetTicketUsed(ticketID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketUsed).
		Where("ticket_id = ?", ticketID).
		Exec(context.Background())
	return err
}

func (d *DB) SetBookingCheckedIn(bookingID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", models.BookingCheckedIn).
		Where("booking_id = ?", bookingID).
		Exec(context.Background())
	return err
}
