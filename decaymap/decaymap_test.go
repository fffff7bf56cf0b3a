package decaymap

import (
	"testing"
	"time"
)

func TestImpl(t *testing.T) {
	m := New[string, int]()

	m.Set("answer", 42, time.Minute)

	val, ok := m.Get("answer")
	if !ok {
		t.Fatal("wanted answer to be present but it is not")
	}
	if val != 42 {
		t.Fatalf("wanted 42, got: %d", val)
	}

	if !m.Delete("answer") {
		t.Error("Delete on a present key reported absent")
	}
	if m.Delete("answer") {
		t.Error("Delete on an absent key reported present")
	}
}

func TestExpiry(t *testing.T) {
	m := New[string, int]()

	m.Set("fleeting", 1, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	if _, ok := m.Get("fleeting"); ok {
		t.Error("wanted fleeting to have decayed but it is still there")
	}

	m.Set("fleeting", 1, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Cleanup()

	if m.Len() != 0 {
		t.Errorf("wanted an empty map after Cleanup, got %d entries", m.Len())
	}
}
