package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sidSuffixLen is how much uuid-derived entropy is appended to the ordered
// timestamp prefix. Enough to make same-instant collisions implausible while
// keeping ids short in Redis field names.
const sidSuffixLen = 8

// NewSessionID returns a session id whose lexical order equals issuance
// order: a zero-padded unix-nanosecond prefix followed by a uuid-derived
// suffix that disambiguates same-instant logins. The store's oldest-first
// eviction sorts on exactly this ordering.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:sidSuffixLen]
	return fmt.Sprintf("%020d-%s", now.UnixNano(), suffix)
}
