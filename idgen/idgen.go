// Package idgen produces short, time-ordered identifiers for history
// rows: a base36 time bucket followed by random suffix characters, with
// a bounded recently-seen set to detect collisions and an escalation
// path (longer random suffix, then a UUID) when they occur.
package idgen

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// epoch anchors the time bucket. Any fixed point works; this one keeps
// buckets small for IDs generated across the life of this project.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// bucketDuration divides a roughly three-year horizon across the 36^4
// values a 4-character base36 time bucket can hold (~56s/bucket).
const timeBucketChars = 4

var bucketDuration = (3 * 365 * 24 * time.Hour) / durationUnits(timeBucketChars)

func durationUnits(chars int) time.Duration {
	n := int64(1)
	for i := 0; i < chars; i++ {
		n *= int64(len(alphabet))
	}
	return time.Duration(n)
}

const (
	maxCollisionAttempts = 10
	shortRandomChars     = 3 // default 7-char ID: 4 time + 3 random
	longRandomChars      = 5 // escalated 9-char ID: 4 time + 5 random
	escalateAfterAttempt = 3 // switch to the longer variant after this many collisions
	seenSetCapacity      = 50000
)

// seenSet is the advisory recently-seen cache. It is never authoritative
// (the recorder may accept database-assigned keys too); it just makes a
// same-bucket collision unlikely to slip through unnoticed.
type seenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var recentlySeen = &seenSet{seen: make(map[string]struct{}, seenSetCapacity)}

// checkAndAdd reports whether id was already present, adding it either
// way. The set is cleared outright once it grows past capacity rather
// than maintaining true LRU eviction — collisions are rare enough that
// losing old entries early is harmless.
func (s *seenSet) checkAndAdd(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) > seenSetCapacity {
		s.seen = make(map[string]struct{}, seenSetCapacity)
	}
	_, exists := s.seen[id]
	s.seen[id] = struct{}{}
	return exists
}

// randomSuffix is overridable in tests to force deterministic collisions.
var randomSuffix = cryptoRandomSuffix

func cryptoRandomSuffix(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is effectively unrecoverable on any
			// real target; fall back to a fixed index rather than panic.
			buf[i] = alphabet[0]
			continue
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}

func timeBucket(t time.Time) string {
	elapsed := t.Sub(epoch)
	if elapsed < 0 {
		elapsed = 0
	}
	bucketIndex := int64(elapsed / bucketDuration)
	return encodeBase36(bucketIndex, timeBucketChars)
}

func encodeBase36(n int64, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = alphabet[n%int64(len(alphabet))]
		n /= int64(len(alphabet))
	}
	return string(buf)
}

// New generates a compact history-row ID. It tries up to
// maxCollisionAttempts random suffixes against the recently-seen set,
// switching from a 7-character to a 9-character variant partway
// through, and falls back to a UUID if every attempt collides.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a compact ID as if it were minted at t. Exposed
// separately so callers and tests can pin the time bucket.
func NewAt(t time.Time) string {
	bucket := timeBucket(t)
	for attempt := 1; attempt <= maxCollisionAttempts; attempt++ {
		randChars := shortRandomChars
		if attempt > escalateAfterAttempt {
			randChars = longRandomChars
		}
		candidate := bucket + randomSuffix(randChars)
		if !recentlySeen.checkAndAdd(candidate) {
			return candidate
		}
	}
	return uuid.New().String()
}

// BucketTime decodes the time bucket embedded in a compact ID minted by
// New/NewAt. It returns false for UUID-shaped fallback IDs, which carry
// no time bucket.
func BucketTime(id string) (time.Time, bool) {
	if len(id) < timeBucketChars {
		return time.Time{}, false
	}
	if _, err := uuid.Parse(id); err == nil {
		return time.Time{}, false
	}
	bucketStr := id[:timeBucketChars]
	var n int64
	for _, c := range bucketStr {
		idx := indexOf(alphabet, byte(c))
		if idx < 0 {
			return time.Time{}, false
		}
		n = n*int64(len(alphabet)) + int64(idx)
	}
	return epoch.Add(time.Duration(n) * bucketDuration), true
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
