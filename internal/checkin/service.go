package checkin

import (
	"errors"
	"fmt"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/checksum"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/qr"
)

type DBLayer interface {
	GetBookingByID(id string) (*models.Booking, error)
	GetEvent(id string) (*models.Event, error)
	GetUser(id string) (*models.User, error)
	GetCheckInByTicket(ticketID string) (*models.CheckIn, error)
	InsertCheckIn(entry models.CheckIn) (bool, error)
	CountCheckInsByBooking(bookingID string) (int, error)
	SetTicketUsed(ticketID string) error
	SetBookingCheckedIn(bookingID string) error
}

type Publisher interface {
	PublishTicketCheckedIn(entry models.CheckIn) error
}

type Notifier interface {
	SendCheckInComplete(bookingID string)
}

// TicketContext is what the scanner UI shows about the scanned ticket.
// It is included even on several invalid outcomes (already used, too
// early) so the operator can see who the ticket belonged to.
type TicketContext struct {
	TicketID     string     `json:"ticket_id"`
	TicketNumber string     `json:"ticket_number"`
	Status       string     `json:"status"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
}

// ValidationResult is the structured outcome of a scan. Invalid scans are
// routine traffic, not exceptions: the Error field carries the operator-
// facing reason and nothing ever panics on bad input.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Error  string         `json:"error,omitempty"`
	Ticket *TicketContext `json:"ticket,omitempty"`
	Event  *models.Event  `json:"event,omitempty"`
	User   *models.User   `json:"user,omitempty"`
}

// Service is the ticket validation and check-in state machine. A ticket
// moves from unseen to checked_in exactly once; the check-in log's unique
// ticket_id constraint enforces the transition, not any in-memory state.
type Service struct {
	DB       DBLayer
	Codec    *qr.Codec
	Kafka    Publisher
	Notifier Notifier
	Logger   *logger.Logger
}

func NewService(db DBLayer, codec *qr.Codec, kafka Publisher, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Codec:    codec,
		Kafka:    kafka,
		Notifier: notifier,
		Logger:   log,
	}
}

func invalid(reason string) *ValidationResult {
	return &ValidationResult{Valid: false, Error: reason}
}

// Validate runs the scan pipeline without recording anything. The returned
// error is reserved for infrastructure failures; every business outcome,
// valid or not, arrives as a ValidationResult.
func (s *Service) Validate(qrText string) (*ValidationResult, error) {
	result, _, _, err := s.validate(qrText)
	return result, err
}

func (s *Service) validate(qrText string) (*ValidationResult, *models.TicketPayload, *models.Booking, error) {
	payload, err := s.Codec.Decode(qrText)
	if err != nil {
		return invalid(models.ReasonInvalidFormat), nil, nil, nil
	}

	// Checksum first: forged payloads are rejected before any database
	// lookup.
	if !checksum.Matches(payload.Checksum, payload.TicketID, payload.EventID, payload.UserID) {
		s.Logger.LogCheckIn("REJECTED", payload.TicketID, "checksum mismatch")
		return invalid(models.ReasonChecksumMismatch), nil, nil, nil
	}

	booking, err := s.DB.GetBookingByID(payload.BookingID)
	if errors.Is(err, models.ErrBookingNotFound) {
		return invalid(models.ReasonBookingUnavailable), nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("booking lookup failed: %w", err)
	}
	if booking.Status == models.BookingCancelled {
		return invalid(models.ReasonBookingUnavailable), nil, nil, nil
	}

	event, err := s.DB.GetEvent(payload.EventID)
	if errors.Is(err, models.ErrEventNotFound) {
		return invalid(models.ReasonEventNotFound), nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("event lookup failed: %w", err)
	}

	user, err := s.DB.GetUser(payload.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return invalid(models.ReasonUserNotFound), nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("user lookup failed: %w", err)
	}

	ticket := &TicketContext{
		TicketID:     payload.TicketID,
		TicketNumber: payload.TicketNumber,
		Status:       models.TicketValid,
	}

	entry, err := s.DB.GetCheckInByTicket(payload.TicketID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("check-in log lookup failed: %w", err)
	}
	if entry != nil {
		usedAt := entry.CheckedInAt
		ticket.Status = models.TicketUsed
		ticket.UsedAt = &usedAt
		return &ValidationResult{
			Valid:  false,
			Error:  models.ReasonAlreadyUsed,
			Ticket: ticket,
			Event:  event,
			User:   user,
		}, nil, nil, nil
	}

	// Tickets become scannable at the start of the event's calendar day.
	eventDay := time.Date(event.Date.Year(), event.Date.Month(), event.Date.Day(), 0, 0, 0, 0, event.Date.Location())
	if time.Now().Before(eventDay) {
		return &ValidationResult{
			Valid:  false,
			Error:  models.ReasonBeforeEventDate,
			Ticket: ticket,
			Event:  event,
			User:   user,
		}, nil, nil, nil
	}

	return &ValidationResult{
		Valid:  true,
		Ticket: ticket,
		Event:  event,
		User:   user,
	}, payload, booking, nil
}

// CheckIn validates the scan and, when valid, appends the check-in log
// entry. Re-scanning an already-used ticket returns the validation outcome
// untouched and never writes a second row.
func (s *Service) CheckIn(qrText, checkedInBy string) (*ValidationResult, error) {
	result, payload, booking, err := s.validate(qrText)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, nil
	}

	now := time.Now().UTC()
	entry := models.CheckIn{
		TicketID:    payload.TicketID,
		EventID:     payload.EventID,
		BookingID:   payload.BookingID,
		CheckedInBy: checkedInBy,
		CheckedInAt: now,
	}

	inserted, err := s.DB.InsertCheckIn(entry)
	if err != nil {
		s.Logger.Warn("CHECKIN", fmt.Sprintf("Check-in insert failed, retrying once: %v", err))
		inserted, err = s.DB.InsertCheckIn(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to record check-in: %w", err)
		}
	}
	if !inserted {
		// Lost the race against a simultaneous scan of the same ticket.
		existing, err := s.DB.GetCheckInByTicket(payload.TicketID)
		if err != nil {
			return nil, fmt.Errorf("check-in log lookup failed: %w", err)
		}
		result.Valid = false
		result.Error = models.ReasonAlreadyUsed
		result.Ticket.Status = models.TicketUsed
		if existing != nil {
			usedAt := existing.CheckedInAt
			result.Ticket.UsedAt = &usedAt
		}
		return result, nil
	}

	if err := s.DB.SetTicketUsed(payload.TicketID); err != nil {
		s.Logger.Error("CHECKIN", fmt.Sprintf("Failed to update ticket %s status cache: %v", payload.TicketID, err))
	}

	used, err := s.DB.CountCheckInsByBooking(payload.BookingID)
	if err != nil {
		s.Logger.Error("CHECKIN", fmt.Sprintf("Failed to count check-ins for booking %s: %v", payload.BookingID, err))
	} else if used >= booking.Quantity {
		if err := s.DB.SetBookingCheckedIn(payload.BookingID); err != nil {
			s.Logger.Error("CHECKIN", fmt.Sprintf("Failed to mark booking %s checked in: %v", payload.BookingID, err))
		} else {
			s.Logger.LogBooking("CHECKED_IN", payload.BookingID, "all tickets used")
			go s.Notifier.SendCheckInComplete(payload.BookingID)
		}
	}

	if err := s.Kafka.PublishTicketCheckedIn(entry); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (ticket checked in): %v", err))
	}

	s.Logger.LogCheckIn("ACCEPTED", payload.TicketID, "checked in by "+checkedInBy)

	result.Ticket.Status = models.TicketUsed
	result.Ticket.UsedAt = &now
	return result, nil
}
