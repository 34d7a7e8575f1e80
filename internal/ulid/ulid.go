// Package ulid provides a thin wrapper around github.com/oklog/ulid/v2 for
// generating request IDs and branch name suffixes.
//
// ULIDs are lexicographically sortable, URL safe, and monotonic within a
// millisecond, which makes suffixes derived from them collision free even for
// branches created in the same millisecond.
package ulid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// PrefixRequest is the prefix for request IDs
	PrefixRequest = "req"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"

	// suffixLen is the number of trailing ULID characters used for branch
	// name suffixes; the trailing characters carry the entropy component.
	suffixLen = 8
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID with the current timestamp.
func Generate() ulid.ULID {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyLock.Unlock()
	return id
}

// GenerateWithPrefix creates a new ULID string with the given prefix,
// e.g. "req-01AN4Z07BY79KA1307SR9X4MV3".
func GenerateWithPrefix(prefix string) string {
	return prefix + PrefixSeparator + Generate().String()
}

// RequestID generates a new ULID with the request prefix
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest)
}

// Suffix returns a short lowercase entropy suffix suitable for making
// timestamp-based names unique under concurrency.
func Suffix() string {
	s := Generate().String()
	return strings.ToLower(s[len(s)-suffixLen:])
}

// Validate checks if a string is a valid ULID, ignoring any prefix.
func Validate(id string) bool {
	parts := strings.Split(id, PrefixSeparator)
	raw := parts[len(parts)-1]
	_, err := ulid.Parse(raw)
	return err == nil
}
