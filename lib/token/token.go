// Package token tracks challenge tokens: the server-side half of one
// verification attempt. A token is minted when a challenge is issued, lives
// in a TTL store, and walks a one-way state machine:
//
//	issued -> completed (the challenge was passed)
//	issued -> expired   (the TTL lapsed first)
//
// Nothing leaves completed or expired. Expiry is decided by the token's own
// deadline, checked lazily on read; the backing store's TTL only handles
// eviction and gets a grace window on top so a freshly expired token still
// reads back as expired instead of vanishing outright.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/sortcha/sortcha/lib/game"
)

type State string

const (
	StateIssued    State = "issued"
	StateCompleted State = "completed"
	StateExpired   State = "expired"
)

// Token is the stored record for one challenge. The ID is the only handle
// clients ever see; everything else stays server-side.
type Token struct {
	ID         string          `json:"id"`
	GameID     string          `json:"gameId,omitempty"`
	Difficulty game.Difficulty `json:"difficulty"`
	State      State           `json:"state"`
	IssuedAt   time.Time       `json:"issuedAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// ExpiredBy reports whether the token is unusable at the given instant.
// Tokens die at their deadline, not after it.
func (t Token) ExpiredBy(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// newID returns a fresh token id with 128 bits of entropy.
func newID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}
