// Package liquidsort implements the liquid-sorting puzzle: colored units
// stacked in containers, poured around until every container holds a single
// color. Seen in every mobile app store as "water sort".
//
// All operations are pure. Pour returns a new state and never mutates its
// receiver, so a session can hold onto earlier states for undo.
package liquidsort

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sortcha/sortcha/lib/game"
)

var (
	ErrIllegalMove = errors.New("liquidsort: move is not legal")
)

func init() {
	game.RegisterEngine("liquidsort", Impl{})
}

// params are the generation knobs per difficulty tier.
type params struct {
	colors   int
	capacity int
}

var tiers = map[game.Difficulty]params{
	game.DifficultyEasy:   {colors: 4, capacity: 4},
	game.DifficultyMedium: {colors: 6, capacity: 4},
	game.DifficultyHard:   {colors: 8, capacity: 5},
}

type Impl struct{}

// Generate builds a puzzle with n colors of capacity units each, uniformly
// shuffled and dealt round-robin into n full containers plus one empty
// container.
//
// Solvability of the result is NOT verified. The shuffle can (rarely) deal an
// unsolvable instance; that is accepted behavior, and the session-level time
// limit bounds how long a player can be stuck on one.
func (Impl) Generate(difficulty game.Difficulty) (game.State, error) {
	tier, ok := tiers[difficulty]
	if !ok {
		return nil, fmt.Errorf("%w: %q", game.ErrBadDifficulty, difficulty)
	}

	units := make([]Color, 0, tier.colors*tier.capacity)
	for c := range tier.colors {
		for range tier.capacity {
			units = append(units, Color(c))
		}
	}

	rand.Shuffle(len(units), func(i, j int) {
		units[i], units[j] = units[j], units[i]
	})

	containers := make([][]Color, tier.colors+1)
	for i := range tier.colors {
		containers[i] = make([]Color, 0, tier.capacity)
	}
	for i, unit := range units {
		idx := i % tier.colors
		containers[idx] = append(containers[idx], unit)
	}
	containers[tier.colors] = make([]Color, 0, tier.capacity)

	return &State{
		Capacity:   tier.capacity,
		Containers: containers,
	}, nil
}

// Color identifies one color in the palette, 0 through colors-1. The palette
// itself (what 0 looks like) is a client concern.
type Color uint8

// State is one puzzle position: every container's stack, bottom to top.
type State struct {
	Capacity   int
	Containers [][]Color
}

func (s *State) MarshalJSON() ([]byte, error) {
	containers := s.Containers
	if containers == nil {
		containers = [][]Color{}
	}
	return json.Marshal(struct {
		Capacity   int       `json:"capacity"`
		Containers [][]Color `json:"containers"`
	}{
		Capacity:   s.Capacity,
		Containers: containers,
	})
}

func (s *State) top(i int) Color {
	stack := s.Containers[i]
	return stack[len(stack)-1]
}

// runLen is the length of the same-colored run at the top of container i.
func (s *State) runLen(i int) int {
	stack := s.Containers[i]
	if len(stack) == 0 {
		return 0
	}

	color := stack[len(stack)-1]
	n := 0
	for j := len(stack) - 1; j >= 0 && stack[j] == color; j-- {
		n++
	}
	return n
}

// Legal reports whether pouring source into target is allowed: source must be
// non-empty, target must have spare capacity, and target must be empty or
// show the same color on top as source.
func (s *State) Legal(source, target int) bool {
	if source < 0 || source >= len(s.Containers) || target < 0 || target >= len(s.Containers) {
		return false
	}
	if source == target {
		return false
	}

	src, dst := s.Containers[source], s.Containers[target]

	if len(src) == 0 {
		return false
	}
	if len(dst) >= s.Capacity {
		return false
	}
	if len(dst) > 0 && s.top(target) != s.top(source) {
		return false
	}

	return true
}

// Pour moves the maximal same-colored run from the top of source into target,
// bounded by target's spare capacity, and returns the resulting state. The
// receiver is left untouched; an illegal move returns ErrIllegalMove and no
// state.
func (s *State) Pour(source, target int) (*State, error) {
	if !s.Legal(source, target) {
		return nil, fmt.Errorf("%w: %d -> %d", ErrIllegalMove, source, target)
	}

	n := s.runLen(source)
	if space := s.Capacity - len(s.Containers[target]); n > space {
		n = space
	}

	next := s.clone()
	src := next.Containers[source]
	moved := src[len(src)-n:]
	next.Containers[target] = append(next.Containers[target], moved...)
	next.Containers[source] = src[:len(src)-n]

	return next, nil
}

// Solved reports the win condition: every container is either empty or full
// of a single color.
func (s *State) Solved() bool {
	for i, stack := range s.Containers {
		if len(stack) == 0 {
			continue
		}
		if len(stack) != s.Capacity {
			return false
		}
		color := s.top(i)
		for _, unit := range stack {
			if unit != color {
				return false
			}
		}
	}
	return true
}

func (s *State) clone() *State {
	containers := make([][]Color, len(s.Containers))
	for i, stack := range s.Containers {
		dup := make([]Color, len(stack), s.Capacity)
		copy(dup, stack)
		containers[i] = dup
	}
	return &State{
		Capacity:   s.Capacity,
		Containers: containers,
	}
}
