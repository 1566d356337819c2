package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

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

// ---------------- BOOKINGS ----------------

func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

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

// GetBookingForUser scopes the lookup to the owning user so one customer
// cannot act on another's booking.
func (d *DB) GetBookingForUser(id, userID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Where("user_id = ?", userID).
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

func (d *DB) GetBookingsByUser(userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (d *DB) UpdateBookingStatus(id, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// CommittedCount sums ticket quantities over every non-cancelled booking
// of the event. This is the capacity ledger's single source of truth.
func (d *DB) CommittedCount(eventID string) (int, error) {
	var committed int
	err := d.Bun.NewSelect().
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Model((*models.Booking)(nil)).
		Where("event_id = ?", eventID).
		Where("status != ?", models.BookingCancelled).
		Scan(context.Background(), &committed)
	if err != nil {
		return 0, err
	}
	return committed, nil
}

// CancelBooking flips the booking to cancelled inside one transaction that
// re-checks the check-in log, so a concurrent check-in cannot slip past the
// guard between the service-level status check and the write.
func (d *DB) CancelBooking(id, reason string) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		used, err := tx.NewSelect().
			Model((*models.CheckIn)(nil)).
			Where("booking_id = ?", id).
			Count(ctx)
		if err != nil {
			return err
		}
		if used > 0 {
			return models.ErrCannotCancelCheckedIn
		}

		if _, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("status = ?", models.BookingCancelled).
			Where("booking_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("status = ?", models.TicketCancelled).
			Where("booking_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		audit := models.BookingAudit{
			BookingID: id,
			Action:    "cancelled",
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
		}
		_, err = tx.NewInsert().Model(&audit).Exec(ctx)
		return err
	})
}

// ---------------- TICKETS ----------------

func (d *DB) CreateTickets(tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tickets).Exec(context.Background())
	return err
}

func (d *DB) GetTicketsByBooking(bookingID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("booking_id = ?", bookingID).
		Order("issued_at").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
