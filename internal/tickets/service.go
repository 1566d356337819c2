package tickets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/checksum"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/qr"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/utils"
	"github.com/google/uuid"
)

// Issuer builds the per-unit tickets of a booking: canonical payload,
// checksum, QR image. It holds no mutable state beyond the codec, so one
// instance is shared by every booking request.
type Issuer struct {
	Codec *qr.Codec
}

func NewIssuer(codec *qr.Codec) *Issuer {
	return &Issuer{Codec: codec}
}

// Issue creates one ticket record per unit of the booking. Each ticket
// gets a fresh id, a batch-unique ticket number and a QR image embedding
// the canonical payload with its checksum.
func (i *Issuer) Issue(booking models.Booking) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, booking.Quantity)

	for seq := 0; seq < booking.Quantity; seq++ {
		ticketID := uuid.New().String()
		issuedAt := time.Now().UTC()

		payload := models.TicketPayload{
			TicketID:     ticketID,
			BookingID:    booking.BookingID,
			EventID:      booking.EventID,
			UserID:       booking.UserID,
			TicketNumber: utils.NewTicketNumber(booking.EventID, seq),
			IssuedAt:     issuedAt.Format(time.RFC3339),
			Checksum:     checksum.Compute(ticketID, booking.EventID, booking.UserID),
		}

		png, err := i.Codec.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("issue ticket %d/%d: %w", seq+1, booking.Quantity, err)
		}

		rawPayload, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("issue ticket %d/%d: %w", seq+1, booking.Quantity, err)
		}

		tickets = append(tickets, models.Ticket{
			TicketID:     ticketID,
			BookingID:    booking.BookingID,
			EventID:      booking.EventID,
			UserID:       booking.UserID,
			TicketNumber: payload.TicketNumber,
			Status:       models.TicketValid,
			QRCode:       png,
			QRPayload:    string(rawPayload),
			IssuedAt:     issuedAt,
		})
	}

	return tickets, nil
}
