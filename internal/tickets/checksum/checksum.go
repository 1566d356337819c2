// Package checksum derives the short integrity tag embedded in ticket QR
// payloads. The tag binds a ticket to its booking/event/user triple so a
// scanner can reject corrupted or naively edited payloads before touching
// the database. It is not a cryptographic signature: anyone who knows the
// three identifiers can recompute it.
package checksum

import "strconv"

// Compute returns the integrity tag for a ticket. The algorithm must stay
// stable across processes and releases: tickets issued by one instance are
// validated by another, possibly years later. 32-bit polynomial rolling
// hash over ticketID+eventID+userID, absolute value, base36.
func Compute(ticketID, eventID, userID string) string {
	raw := ticketID + eventID + userID
	var h int32
	for i := 0; i < len(raw); i++ {
		h = (h << 5) - h + int32(raw[i])
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// Matches reports whether the embedded tag is the one Compute derives from
// the plain identifiers.
func Matches(embedded, ticketID, eventID, userID string) bool {
	return embedded == Compute(ticketID, eventID, userID)
}
