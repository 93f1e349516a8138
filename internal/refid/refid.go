// Package refid generates the human-readable reference IDs carried by funnel
// records, e.g. S-2025-AB12CD. Uniqueness is enforced by the store; callers
// retry on duplicate-key errors rather than trusting the generator.
package refid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Prefixes for the funnel record kinds.
const (
	PrefixSuspect  = "S"
	PrefixProspect = "P"
	PrefixLead     = "L"
)

// Ambiguous characters (0/O, 1/I) are excluded.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const suffixLen = 6

// New returns a reference ID of the form <prefix>-<year>-<random6>.
func New(prefix string, now time.Time) string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable in practice
		panic(fmt.Sprintf("refid: rand.Read: %v", err))
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UTC().Year(), string(buf))
}
