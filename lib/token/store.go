package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sortcha/sortcha/lib/game"
	"github.com/sortcha/sortcha/lib/store"
)

var (
	// ErrExpired is returned when a token's TTL has lapsed. Tokens the backend
	// already evicted surface as store.ErrNotFound instead.
	ErrExpired = errors.New("token: challenge token expired")
)

const keyPrefix = "token:"

// lockStripes is the size of the keyed lock table. Two tokens may share a
// stripe; that only serializes a little more than strictly needed.
const lockStripes = 256

// Store keeps tokens in a storage backend and owns their state transitions.
// The issued -> completed transition is serialized per token through a striped
// lock table, so concurrent verify calls racing on one token see exactly one
// winner.
type Store struct {
	data  store.JSON[Token]
	grace time.Duration
	locks [lockStripes]sync.Mutex
}

// NewStore wraps a storage backend. grace is how long past its deadline a
// token stays readable (and therefore reports expired instead of not found).
func NewStore(backing store.Interface, grace time.Duration) *Store {
	return &Store{
		data: store.JSON[Token]{
			Underlying: backing,
			Prefix:     keyPrefix,
		},
		grace: grace,
	}
}

func (s *Store) lockFor(id string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(id)%lockStripes]
}

// Mint creates and persists a fresh token in state issued, bound to a game
// and difficulty, expiring after ttl.
func (s *Store) Mint(ctx context.Context, gameID string, difficulty game.Difficulty, ttl time.Duration) (Token, error) {
	now := time.Now()
	tok := Token{
		ID:         newID(),
		GameID:     gameID,
		Difficulty: difficulty,
		State:      StateIssued,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := s.data.Set(ctx, tok.ID, tok, ttl+s.grace); err != nil {
		return Token{}, fmt.Errorf("can't persist token: %w", err)
	}

	return tok, nil
}

// Get fetches a token by id. A token past its deadline is reported in state
// expired no matter what the stored record says; the stored record is not
// rewritten, the deadline alone is authoritative.
func (s *Store) Get(ctx context.Context, id string) (Token, error) {
	tok, err := s.data.Get(ctx, id)
	if err != nil {
		return Token{}, err
	}

	if tok.ExpiredBy(time.Now()) {
		tok.State = StateExpired
	}

	return tok, nil
}

// MarkCompleted transitions an issued token to completed. The returned bool
// reports whether this call performed the transition; a token that is already
// completed is an idempotent success with transitioned=false. Expired tokens
// return ErrExpired, missing ones store.ErrNotFound.
func (s *Store) MarkCompleted(ctx context.Context, id string) (Token, bool, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	tok, err := s.data.Get(ctx, id)
	if err != nil {
		return Token{}, false, err
	}

	if tok.ExpiredBy(time.Now()) {
		return Token{}, false, fmt.Errorf("%w: %q", ErrExpired, id)
	}

	switch tok.State {
	case StateCompleted:
		return tok, false, nil
	case StateIssued:
		tok.State = StateCompleted
		if err := s.data.Set(ctx, tok.ID, tok, time.Until(tok.ExpiresAt)+s.grace); err != nil {
			return Token{}, false, fmt.Errorf("can't persist completed token: %w", err)
		}
		return tok, true, nil
	default:
		return Token{}, false, fmt.Errorf("[unexpected] token %q is in state %q", id, tok.State)
	}
}
