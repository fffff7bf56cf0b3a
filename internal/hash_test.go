package internal

import (
	"fmt"
	"testing"
)

func TestFastHashFormat(t *testing.T) {
	testCases := []string{
		"",
		"liquidsort",
		"liquid-sort-easy::easy::120",
		"liquid-sort-hard::hard::300",
	}

	for _, input := range testCases {
		hash := FastHash(input)

		if len(hash) == 0 {
			t.Errorf("Empty hash for input %q", input)
		}

		// xxhash is 64-bit so max 16 hex chars
		if len(hash) > 16 {
			t.Errorf("Hash too long for input %q: %s (length %d)", input, hash, len(hash))
		}

		for _, char := range hash {
			if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f')) {
				t.Errorf("Non-hex character %c in hash %s for input %q", char, hash, input)
			}
		}
	}
}

func TestFastHashCollisions(t *testing.T) {
	seen := make(map[string]string)

	for _, pattern := range []string{"game-%d", "liquid-sort-%d", "catalog-%016x"} {
		for i := 0; i < 10000; i++ {
			input := fmt.Sprintf(pattern, i)
			hash := FastHash(input)
			if existing, exists := seen[hash]; exists {
				t.Errorf("collision: %q and %q both hash to %s", input, existing, hash)
			}
			seen[hash] = input
		}
	}
}
