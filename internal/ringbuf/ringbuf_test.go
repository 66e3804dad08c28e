package ringbuf

import (
	"fmt"
	"testing"
)

func TestAppend_BelowCapacityKeepsAll(t *testing.T) {
	b := New(3)
	b.Append("a")
	b.Append("b")
	got := b.Items()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected items: %v", got)
	}
}

func TestAppend_PastCapacityEvictsOldest(t *testing.T) {
	b := New(3)
	for i := 0; i < 5; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}
	got := b.Items()
	want := []string{"line-2", "line-3", "line-4"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestReset_EmptiesBufferButKeepsCapacity(t *testing.T) {
	b := New(2)
	b.Append("x")
	b.Append("y")
	b.Append("z")
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d items", b.Len())
	}
	if b.Cap() != 2 {
		t.Fatalf("expected capacity 2, got %d", b.Cap())
	}
	b.Append("w")
	got := b.Items()
	if len(got) != 1 || got[0] != "w" {
		t.Fatalf("unexpected items after reset: %v", got)
	}
}

func TestNew_ClampsZeroCapacity(t *testing.T) {
	b := New(0)
	b.Append("only")
	b.Append("kept")
	got := b.Items()
	if len(got) != 1 || got[0] != "kept" {
		t.Fatalf("unexpected items: %v", got)
	}
}
