// Package qr encodes canonical ticket payloads into scannable images and
// parses scanned text back into structured payloads.
package qr

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/skip2/go-qrcode"
)

// ErrInvalidFormat is returned for any scanned text that does not parse
// into a complete ticket payload. Scanners surface it verbatim; internal
// parse details never leak to the operator.
var ErrInvalidFormat = errors.New("invalid QR code format")

const imageSize = 256

type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Encode renders the payload as a PNG QR image. Medium error correction
// keeps codes readable on creased or partially smudged printouts.
func (c *Codec) Encode(payload models.TicketPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ticket payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode QR image: %w", err)
	}
	return png, nil
}

// Decode parses scanned QR text into a payload. Malformed input of any
// kind comes back as ErrInvalidFormat, never as a panic or a raw
// json error.
func (c *Codec) Decode(scanned string) (*models.TicketPayload, error) {
	if scanned == "" {
		return nil, ErrInvalidFormat
	}

	var payload models.TicketPayload
	if err := json.Unmarshal([]byte(scanned), &payload); err != nil {
		return nil, ErrInvalidFormat
	}

	if payload.TicketID == "" || payload.BookingID == "" ||
		payload.EventID == "" || payload.UserID == "" || payload.Checksum == "" {
		return nil, ErrInvalidFormat
	}

	return &payload, nil
}
