// Package game holds the catalog of verification puzzles sortcha can hand
// out: which puzzle engines exist, how hard each configured game is, and how
// to pick one for a challenge.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sortcha/sortcha/internal"
)

var (
	ErrDuplicateGame  = errors.New("game: a game with this id is already registered")
	ErrUnknownGame    = errors.New("game: no game with this id")
	ErrNoEligibleGame = errors.New("game: no game matches the requested difficulty")
	ErrUnknownEngine  = errors.New("game: no engine with this name")
	ErrBadDifficulty  = errors.New("game: difficulty is not one of easy, medium, hard")
	ErrBadDescriptor  = errors.New("game: descriptor is invalid")
)

// Difficulty is the coarse tier a game is configured at. It scales both the
// puzzle parameters and the client-side time budget.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a difficulty string from config or a request
// body. The empty string is not a difficulty; callers decide what "none
// requested" means.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadDifficulty, s)
	}
}

// State is one puzzle instance. Engines return concrete states that marshal
// to JSON for the client; the service itself only needs the win check.
type State interface {
	json.Marshaler

	// Solved reports whether the win condition holds.
	Solved() bool
}

// Engine is the pure rule-set for one puzzle family. Implementations must be
// safe for concurrent use: every call to Generate returns a state owned
// entirely by the caller.
type Engine interface {
	// Generate builds a fresh puzzle scaled to the given difficulty.
	Generate(difficulty Difficulty) (State, error)
}

var (
	engines map[string]Engine = map[string]Engine{}
	regLock sync.RWMutex
)

// RegisterEngine adds a puzzle engine under a family name. Engine packages
// call this from init.
func RegisterEngine(name string, impl Engine) {
	regLock.Lock()
	defer regLock.Unlock()

	engines[name] = impl
}

func GetEngine(name string) (Engine, bool) {
	regLock.RLock()
	defer regLock.RUnlock()
	result, ok := engines[name]
	return result, ok
}

// Descriptor is one entry in the game catalog: an engine bound to a
// difficulty tier and a client time budget. Descriptors are immutable once
// the catalog is loaded.
type Descriptor struct {
	ID          string     `json:"id" yaml:"id"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	Engine      string     `json:"engine" yaml:"engine"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`

	// TimeLimitSeconds bounds the client-side session; zero means no limit.
	// The interaction surface enforces it, the server only reports it.
	TimeLimitSeconds int `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds,omitempty"`
}

// Valid checks a descriptor against the engine registry.
func (d *Descriptor) Valid() error {
	var errs []error

	if d.ID == "" {
		errs = append(errs, fmt.Errorf("%w: id is missing", ErrBadDescriptor))
	}

	if _, err := ParseDifficulty(string(d.Difficulty)); err != nil {
		errs = append(errs, err)
	}

	if _, ok := GetEngine(d.Engine); !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownEngine, d.Engine))
	}

	if d.TimeLimitSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: timeLimitSeconds is negative", ErrBadDescriptor))
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Hash is a short checksum of the descriptor for log lines and error codes.
func (d *Descriptor) Hash() string {
	return internal.FastHash(fmt.Sprintf("%s::%s::%s::%d", d.ID, d.Engine, d.Difficulty, d.TimeLimitSeconds))
}
