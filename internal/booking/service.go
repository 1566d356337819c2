package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/utils"
	"github.com/google/uuid"
)

type DBLayer interface {
	GetEvent(id string) (*models.Event, error)
	CreateBooking(booking models.Booking) error
	GetBookingByID(id string) (*models.Booking, error)
	GetBookingForUser(id, userID string) (*models.Booking, error)
	GetBookingsByUser(userID string) ([]models.Booking, error)
	CommittedCount(eventID string) (int, error)
	CancelBooking(id, reason string) error
	CreateTickets(tickets []models.Ticket) error
	GetTicketsByBooking(bookingID string) ([]models.Ticket, error)
}

type EventLock interface {
	LockEvent(eventID, ownerID string) (bool, error)
	UnlockEvent(eventID, ownerID string) error
}

type TicketIssuer interface {
	Issue(booking models.Booking) ([]models.Ticket, error)
}

type Publisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

type Notifier interface {
	SendBookingConfirmation(bookingID string)
}

type Service struct {
	DB       DBLayer
	Lock     EventLock
	Issuer   TicketIssuer
	Kafka    Publisher
	Notifier Notifier
	Logger   *logger.Logger
}

func NewService(db DBLayer, lock EventLock, issuer TicketIssuer, kafka Publisher, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Lock:     lock,
		Issuer:   issuer,
		Kafka:    kafka,
		Notifier: notifier,
		Logger:   log,
	}
}

const (
	lockAttempts  = 5
	lockRetryWait = 100 * time.Millisecond
)

// CreateBooking reserves capacity for the event, persists the booking and
// issues its tickets. Capacity check and insert run under the per-event
// lock so concurrent requests for the same event cannot jointly oversell.
func (s *Service) CreateBooking(userID string, req models.BookingRequest) (*models.Booking, error) {
	if req.Quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}

	event, err := s.DB.GetEvent(req.EventID)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New().String()

	locked := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := s.Lock.LockEvent(event.ID, bookingID)
		if err != nil {
			return nil, fmt.Errorf("event lock error: %w", err)
		}
		if ok {
			locked = true
			break
		}
		time.Sleep(lockRetryWait)
	}
	if !locked {
		return nil, models.ErrEventBusy
	}
	defer func() {
		if err := s.Lock.UnlockEvent(event.ID, bookingID); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Failed to release capacity lock for event %s: %v", event.ID, err))
		}
	}()

	committed, err := s.DB.CommittedCount(event.ID)
	if err != nil {
		return nil, fmt.Errorf("capacity lookup failed: %w", err)
	}
	if committed+req.Quantity > event.Capacity {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Capacity exceeded for event %s: %d committed, %d requested, %d capacity",
			event.ID, committed, req.Quantity, event.Capacity))
		return nil, models.ErrCapacityExceeded
	}

	paymentStatus := models.PaymentPending
	if req.PaymentID != "" {
		paymentStatus = models.PaymentCompleted
	}

	booking := models.Booking{
		BookingID:     bookingID,
		UserID:        userID,
		EventID:       event.ID,
		Quantity:      req.Quantity,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		PaymentID:     req.PaymentID,
		PaymentStatus: paymentStatus,
		Status:        models.BookingConfirmed,
		Reference:     utils.NewBookingReference(),
		CreatedAt:     time.Now().UTC(),
	}

	// One retry at the transaction boundary for transient store failures.
	if err := s.DB.CreateBooking(booking); err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Booking insert failed, retrying once: %v", err))
		if err := s.DB.CreateBooking(booking); err != nil {
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}
	}

	tickets, err := s.Issuer.Issue(booking)
	if err != nil {
		s.releaseFailedBooking(booking.BookingID)
		return nil, fmt.Errorf("failed to issue tickets: %w", err)
	}
	if err := s.DB.CreateTickets(tickets); err != nil {
		s.releaseFailedBooking(booking.BookingID)
		return nil, fmt.Errorf("failed to store tickets: %w", err)
	}
	booking.Tickets = tickets

	s.Logger.LogBooking("CREATED", booking.BookingID,
		fmt.Sprintf("%d ticket(s) for event %s, ref %s", booking.Quantity, booking.EventID, booking.Reference))

	if err := s.Kafka.PublishBookingCreated(booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (booking created): %v", err))
	}
	// Confirmation email is fire-and-forget; a delivery failure never
	// rolls back the booking.
	go s.Notifier.SendBookingConfirmation(booking.BookingID)

	return &booking, nil
}

// releaseFailedBooking cancels a booking whose tickets never materialized.
// A confirmed booking without tickets would hold event capacity forever, so
// the insert is undone before the error reaches the caller.
func (s *Service) releaseFailedBooking(bookingID string) {
	if err := s.DB.CancelBooking(bookingID, "ticket issuance failed"); err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("Failed to release booking %s after issuance failure: %v", bookingID, err))
	}
}

// CancelBooking moves a confirmed booking to cancelled. Bookings with any
// checked-in ticket stay as they are; the store re-checks the check-in log
// transactionally to close the race against a concurrent scan.
func (s *Service) CancelBooking(bookingID, userID, reason string) error {
	booking, err := s.DB.GetBookingForUser(bookingID, userID)
	if err != nil {
		return err
	}

	switch booking.Status {
	case models.BookingCancelled:
		return models.ErrAlreadyCancelled
	case models.BookingCheckedIn:
		return models.ErrCannotCancelCheckedIn
	}

	if err := s.DB.CancelBooking(bookingID, reason); err != nil {
		if errors.Is(err, models.ErrCannotCancelCheckedIn) {
			return err
		}
		return fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}

	s.Logger.LogBooking("CANCELLED", bookingID, "reason: "+reason)

	booking.Status = models.BookingCancelled
	if err := s.Kafka.PublishBookingCancelled(*booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (booking cancelled): %v", err))
	}
	return nil
}

// GetBooking returns a user's booking together with its tickets.
func (s *Service) GetBooking(bookingID, userID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingForUser(bookingID, userID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.DB.GetTicketsByBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for booking %s: %w", bookingID, err)
	}
	booking.Tickets = tickets
	return booking, nil
}

func (s *Service) ListBookings(userID string) ([]models.Booking, error) {
	return s.DB.GetBookingsByUser(userID)
}

// GetEventCapacityInfo reports how many tickets the event has committed
// and how many remain.
func (s *Service) GetEventCapacityInfo(eventID string) (*models.CapacityInfo, error) {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	committed, err := s.DB.CommittedCount(eventID)
	if err != nil {
		return nil, fmt.Errorf("capacity lookup failed: %w", err)
	}

	available := event.Capacity - committed
	if available < 0 {
		available = 0
	}

	return &models.CapacityInfo{
		EventID:   event.ID,
		Capacity:  event.Capacity,
		Booked:    committed,
		Available: available,
	}, nil
}
