// Package lib is the verification service: the only surface the surrounding
// application talks to. It issues challenge tokens against the game catalog
// and turns claimed outcomes into a verified / not-verified decision.
package lib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sortcha/sortcha"
	"github.com/sortcha/sortcha/lib/game"
	"github.com/sortcha/sortcha/lib/store"
	"github.com/sortcha/sortcha/lib/token"
)

// Reasons reported in verify decisions. These are part of the wire contract;
// the consumer shows them to users.
const (
	ReasonAlreadyVerified = "already verified"
	ReasonExpired         = "expired"
	ReasonFailed          = "challenge failed"
	ReasonInvalidToken    = "invalid token"
)

type Options struct {
	// Catalog is the read-only set of games this instance offers.
	Catalog *game.Catalog

	// Store holds challenge tokens.
	Store store.Interface

	// TTL bounds how long an issued token stays usable. Zero means
	// sortcha.DefaultTTL.
	TTL time.Duration

	// BasePrefix is prepended to every route, e.g. "/verify".
	BasePrefix string
}

type Server struct {
	mux     *http.ServeMux
	catalog *game.Catalog
	tokens  *token.Store
	ttl     time.Duration
	opts    Options
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("lib: Options.Store is required")
	}
	if opts.Catalog == nil || opts.Catalog.Len() == 0 {
		return nil, errors.New("lib: Options.Catalog is required and must not be empty")
	}
	if opts.TTL == 0 {
		opts.TTL = sortcha.DefaultTTL
	}

	sortcha.BasePrefix = opts.BasePrefix

	result := &Server{
		catalog: opts.Catalog,
		tokens:  token.NewStore(opts.Store, sortcha.StoreGrace),
		ttl:     opts.TTL,
		opts:    opts,
	}

	mux := http.NewServeMux()

	prefix := strings.TrimSuffix(opts.BasePrefix, "/")
	mux.HandleFunc("POST "+prefix+sortcha.APIPrefix+"/generate", result.handleGenerate)
	mux.HandleFunc("POST "+prefix+sortcha.APIPrefix+"/verify", result.handleVerify)
	mux.HandleFunc("GET "+prefix+"/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	result.mux = mux

	return result, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// IssuedChallenge is everything the consumer needs to run one challenge: the
// token to hand back later, the resolved game, and the freshly generated
// puzzle to render.
type IssuedChallenge struct {
	Token            string          `json:"token"`
	GameID           string          `json:"gameId"`
	Difficulty       game.Difficulty `json:"difficulty"`
	TimeLimitSeconds int             `json:"timeLimitSeconds,omitempty"`
	State            game.State      `json:"state"`
}

// IssueChallenge resolves a game (by id when given, else uniformly at the
// requested difficulty), generates a puzzle, and mints a token bound to the
// selection.
func (s *Server) IssueChallenge(ctx context.Context, gameID string, difficulty game.Difficulty) (*IssuedChallenge, error) {
	var (
		descriptor *game.Descriptor
		err        error
	)

	if gameID != "" {
		descriptor, err = s.catalog.ByID(gameID)
	} else {
		descriptor, err = s.catalog.Random(difficulty)
	}
	if err != nil {
		return nil, err
	}

	engine, ok := game.GetEngine(descriptor.Engine)
	if !ok {
		// the catalog is validated at load, this means someone built a
		// Catalog by hand and skipped Register
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownEngine, descriptor.Engine)
	}

	state, err := engine.Generate(descriptor.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("can't generate %s: %w", descriptor.ID, err)
	}

	tok, err := s.tokens.Mint(ctx, descriptor.ID, descriptor.Difficulty, s.ttl)
	if err != nil {
		return nil, err
	}

	challengesIssued.WithLabelValues(descriptor.ID).Inc()

	return &IssuedChallenge{
		Token:            tok.ID,
		GameID:           descriptor.ID,
		Difficulty:       descriptor.Difficulty,
		TimeLimitSeconds: descriptor.TimeLimitSeconds,
		State:            state,
	}, nil
}

// VerifyResult is the decision the protected action gates on.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

func (v VerifyResult) metricsReason() string {
	if v.Reason == "" {
		return "ok"
	}
	return v.Reason
}

// Verify settles a claimed outcome against a token.
//
// A failed claim leaves the token issued so the user can retry the same
// challenge until the TTL runs out. A completed token stays verified forever
// (well, until eviction), so a page reload does not re-fail an already passed
// gate. An error return means the store broke, not that verification failed.
func (s *Server) Verify(ctx context.Context, id string, outcome Outcome) (VerifyResult, error) {
	result, err := s.verify(ctx, id, outcome)
	if err != nil {
		verifications.WithLabelValues("error").Inc()
		return result, err
	}

	verifications.WithLabelValues(result.metricsReason()).Inc()
	return result, nil
}

func (s *Server) verify(ctx context.Context, id string, outcome Outcome) (VerifyResult, error) {
	tok, err := s.tokens.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return VerifyResult{Verified: false, Reason: ReasonInvalidToken}, nil
	case err != nil:
		return VerifyResult{}, err
	}

	switch tok.State {
	case token.StateExpired:
		return VerifyResult{Verified: false, Reason: ReasonExpired}, nil
	case token.StateCompleted:
		return VerifyResult{Verified: true, Reason: ReasonAlreadyVerified}, nil
	}

	reportedMoves.Observe(float64(outcome.Moves))

	if !outcome.Success {
		return VerifyResult{Verified: false, Reason: ReasonFailed}, nil
	}

	_, transitioned, err := s.tokens.MarkCompleted(ctx, id)
	switch {
	case errors.Is(err, token.ErrExpired):
		// the deadline passed between Get and MarkCompleted
		return VerifyResult{Verified: false, Reason: ReasonExpired}, nil
	case errors.Is(err, store.ErrNotFound):
		return VerifyResult{Verified: false, Reason: ReasonInvalidToken}, nil
	case err != nil:
		return VerifyResult{}, err
	}

	if !transitioned {
		// another verify call on the same token won the race
		return VerifyResult{Verified: true, Reason: ReasonAlreadyVerified}, nil
	}

	return VerifyResult{Verified: true}, nil
}
