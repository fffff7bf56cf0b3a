package liquidsort

import (
	"encoding/json"
	"testing"

	"github.com/sortcha/sortcha/lib/game"
)

// mkState builds a state with capacity 4 unless noted otherwise.
func mkState(containers ...[]Color) *State {
	return &State{Capacity: 4, Containers: containers}
}

func countColors(t *testing.T, s *State) map[Color]int {
	t.Helper()
	counts := map[Color]int{}
	for _, stack := range s.Containers {
		if len(stack) > s.Capacity {
			t.Errorf("container holds %d units, capacity is %d", len(stack), s.Capacity)
		}
		for _, unit := range stack {
			counts[unit]++
		}
	}
	return counts
}

func TestGenerate(t *testing.T) {
	for difficulty, tier := range tiers {
		t.Run(string(difficulty), func(t *testing.T) {
			for range 64 {
				st, err := Impl{}.Generate(difficulty)
				if err != nil {
					t.Fatal(err)
				}

				s, ok := st.(*State)
				if !ok {
					t.Fatalf("Generate returned a %T, not a *State", st)
				}

				if len(s.Containers) != tier.colors+1 {
					t.Fatalf("wanted %d containers, got: %d", tier.colors+1, len(s.Containers))
				}

				var empty int
				for _, stack := range s.Containers {
					if len(stack) == 0 {
						empty++
					}
				}
				if empty != 1 {
					t.Errorf("wanted exactly one empty container, got: %d", empty)
				}

				counts := countColors(t, s)
				if len(counts) != tier.colors {
					t.Errorf("wanted %d colors in play, got: %d", tier.colors, len(counts))
				}
				for color, n := range counts {
					if n != tier.capacity {
						t.Errorf("color %d appears %d times, wanted %d", color, n, tier.capacity)
					}
				}

				// a fresh state always has a legal move: any filled
				// container can pour into the empty one
				if !s.Solved() {
					var legal bool
					for src := range s.Containers {
						for dst := range s.Containers {
							if s.Legal(src, dst) {
								legal = true
							}
						}
					}
					if !legal {
						t.Error("fresh state has no legal move at all")
					}
				}
			}
		})
	}
}

func TestGenerateUnknownDifficulty(t *testing.T) {
	if _, err := (Impl{}).Generate(game.Difficulty("nightmare")); err == nil {
		t.Error("wanted Generate to reject an unknown difficulty, it did not")
	}
}

func TestLegal(t *testing.T) {
	// 0: red/green mix, 1: full of red, 2: green top, 3: empty
	s := mkState(
		[]Color{0, 1},
		[]Color{0, 0, 0, 0},
		[]Color{0, 1, 1},
		[]Color{},
	)

	for _, tt := range []struct {
		name           string
		source, target int
		want           bool
	}{
		{name: "onto empty", source: 0, target: 3, want: true},
		{name: "matching top with room", source: 0, target: 2, want: true},
		{name: "from empty", source: 3, target: 0, want: false},
		{name: "onto full", source: 0, target: 1, want: false},
		{name: "mismatched top", source: 1, target: 2, want: false},
		{name: "onto itself", source: 0, target: 0, want: false},
		{name: "source out of range", source: 9, target: 3, want: false},
		{name: "target out of range", source: 0, target: -1, want: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Legal(tt.source, tt.target); got != tt.want {
				t.Errorf("Legal(%d, %d) = %v, wanted %v", tt.source, tt.target, got, tt.want)
			}
		})
	}
}

func TestPourMovesMaximalRun(t *testing.T) {
	s := mkState(
		[]Color{0, 1, 1},
		[]Color{},
	)

	next, err := s.Pour(0, 1)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(next.Containers[0]); got != 1 {
		t.Errorf("wanted 1 unit left in source, got: %d", got)
	}
	if got := len(next.Containers[1]); got != 2 {
		t.Errorf("wanted 2 units in target, got: %d", got)
	}

	// the receiver must be untouched
	if got := len(s.Containers[0]); got != 3 {
		t.Errorf("Pour mutated its receiver, source now holds %d units", got)
	}
}

func TestPourBoundedByCapacity(t *testing.T) {
	s := mkState(
		[]Color{1, 1, 1},
		[]Color{0, 0, 1},
	)

	next, err := s.Pour(0, 1)
	if err != nil {
		t.Fatal(err)
	}

	// only one slot free in the target, so only one unit moves
	if got := len(next.Containers[0]); got != 2 {
		t.Errorf("wanted 2 units left in source, got: %d", got)
	}
	if got := len(next.Containers[1]); got != 4 {
		t.Errorf("wanted a full target, got: %d units", got)
	}
}

func TestPourIllegal(t *testing.T) {
	s := mkState(
		[]Color{0},
		[]Color{1, 1},
	)

	if _, err := s.Pour(0, 1); err == nil {
		t.Error("wanted mismatched pour to fail, it did not")
	}
	if got := len(s.Containers[1]); got != 2 {
		t.Errorf("rejected pour mutated the state, target holds %d units", got)
	}
}

func equal(a, b *State) bool {
	if len(a.Containers) != len(b.Containers) {
		return false
	}
	for i := range a.Containers {
		if len(a.Containers[i]) != len(b.Containers[i]) {
			return false
		}
		for j := range a.Containers[i] {
			if a.Containers[i][j] != b.Containers[i][j] {
				return false
			}
		}
	}
	return true
}

func TestPourRoundTrip(t *testing.T) {
	t.Run("homogeneous run onto empty", func(t *testing.T) {
		before := mkState(
			[]Color{2, 2},
			[]Color{},
		)

		mid, err := before.Pour(0, 1)
		if err != nil {
			t.Fatal(err)
		}

		after, err := mid.Pour(1, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !equal(before, after) {
			t.Errorf("round trip did not restore the state: %v -> %v", before.Containers, after.Containers)
		}
	})

	t.Run("capacity-bounded partial pour", func(t *testing.T) {
		before := mkState(
			[]Color{2, 2, 2, 2},
			[]Color{2},
		)

		// three slots free in the target: moves three units
		mid, err := before.Pour(0, 1)
		if err != nil {
			t.Fatal(err)
		}

		// pour back is bounded by the three free slots in the source
		after, err := mid.Pour(1, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !equal(before, after) {
			t.Errorf("round trip did not restore the state: %v -> %v", before.Containers, after.Containers)
		}
	})
}

func TestSolved(t *testing.T) {
	for _, tt := range []struct {
		name string
		s    *State
		want bool
	}{
		{
			name: "all homogeneous and full",
			s: mkState(
				[]Color{0, 0, 0, 0},
				[]Color{1, 1, 1, 1},
				[]Color{},
			),
			want: true,
		},
		{
			name: "all empty",
			s:    mkState([]Color{}, []Color{}),
			want: true,
		},
		{
			name: "homogeneous but not full",
			s: mkState(
				[]Color{0, 0, 0},
				[]Color{0},
			),
			want: false,
		},
		{
			name: "full but mixed",
			s: mkState(
				[]Color{0, 0, 1, 0},
				[]Color{1, 1, 0, 1},
			),
			want: false,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Solved(); got != tt.want {
				t.Errorf("Solved() = %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestInvariantsSurvivePours(t *testing.T) {
	st, err := Impl{}.Generate(game.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	s := st.(*State)

	want := countColors(t, s)

	// random-walk legal moves, checking the color census after every pour
	moves := 0
	for range 256 {
		var found bool
		for src := range s.Containers {
			for dst := range s.Containers {
				if !s.Legal(src, dst) {
					continue
				}
				next, err := s.Pour(src, dst)
				if err != nil {
					t.Fatal(err)
				}
				s = next
				found = true
				break
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
		moves++

		got := countColors(t, s)
		for color, n := range want {
			if got[color] != n {
				t.Fatalf("after %d moves color %d count is %d, wanted %d", moves, color, got[color], n)
			}
		}
	}

	if moves == 0 {
		t.Error("random walk found no legal move in a fresh state")
	}
}

func TestStateJSON(t *testing.T) {
	s := mkState(
		[]Color{0, 1},
		[]Color{},
	)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	want := `{"capacity":4,"containers":[[0,1],[]]}`
	if string(data) != want {
		t.Errorf("wanted %s, got: %s", want, data)
	}
}
