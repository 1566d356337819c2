package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const referencePrefix = "BJE"

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingReference returns a human-shareable booking reference of the
// shape BJE-<base36 timestamp>-<5 random uppercase chars>. The timestamp
// plus randomness makes collisions vanishingly unlikely.
func NewBookingReference() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", referencePrefix, ts, randomUpper(5))
}

// NewTicketNumber derives a display code for one ticket of a batch from the
// event id suffix, a base36 timestamp and the unit's sequence index.
// Uniqueness inside a batch comes from the index; it is not a primary key.
func NewTicketNumber(eventID string, sequence int) string {
	suffix := eventID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("TKT-%s-%s-%03d", strings.ToUpper(suffix), ts, sequence+1)
}

func randomUpper(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			// The platform RNG failing means no safe reference can be made
			panic(fmt.Sprintf("reference generation: %v", err))
		}
		b[i] = referenceAlphabet[idx.Int64()]
	}
	return string(b)
}
