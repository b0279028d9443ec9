package cache

import (
	"strings"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("hello world")
	b := Key("hello world")
	if a != b {
		t.Errorf("same text produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	for _, r := range a {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("key contains non-hex character %q", r)
		}
	}
}

func TestKeyDistinct(t *testing.T) {
	if Key("hello") == Key("hello ") {
		t.Error("trailing whitespace should change the key")
	}
	if Key("a") == Key("b") {
		t.Error("different text produced the same key")
	}
}

func TestKeyEmptyString(t *testing.T) {
	empty := Key("")
	if empty == "" {
		t.Fatal("empty input must still yield a key")
	}
	if empty == Key("x") {
		t.Error("empty input key collides with non-empty input")
	}
}

func TestCompositeKey(t *testing.T) {
	chunkA := Key("chunk a")
	chunkB := Key("chunk b")
	desc := Key("a slow pan over a fjord")

	// Same description under different chunks must not collide.
	if CompositeKey(chunkA, desc) == CompositeKey(chunkB, desc) {
		t.Error("composite keys for different chunks collided")
	}
	if got, want := CompositeKey(chunkA, desc), chunkA+"_"+desc; got != want {
		t.Errorf("composite key = %s, want %s", got, want)
	}
}
