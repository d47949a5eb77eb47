package ranking

import (
	"fmt"
	"testing"
)

// TestSkipListOrdering verifies score-descending, key-ascending order
func TestSkipListOrdering(t *testing.T) {
	sl := NewSkipList(1)
	sl.Set("carol", 30)
	sl.Set("alice", 50)
	sl.Set("bob", 30)
	sl.Set("dave", 10)

	got := sl.Range(1, 10)
	want := []string{"alice", "bob", "carol", "dave"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Key != want[i] {
			t.Errorf("Position %d: got %s, want %s", i+1, e.Key, want[i])
		}
		if r := sl.Rank(e.Key); r != i+1 {
			t.Errorf("Rank(%s) = %d, want %d", e.Key, r, i+1)
		}
	}
}

// TestSkipListUpdate verifies Set moves an existing key
func TestSkipListUpdate(t *testing.T) {
	sl := NewSkipList(1)
	sl.Set("a", 1)
	sl.Set("b", 2)
	sl.Set("a", 3)

	if sl.Len() != 2 {
		t.Fatalf("Update must not duplicate, len = %d", sl.Len())
	}
	if sl.Rank("a") != 1 || sl.Rank("b") != 2 {
		t.Errorf("Ranks after update: a=%d b=%d", sl.Rank("a"), sl.Rank("b"))
	}
	if s, ok := sl.Score("a"); !ok || s != 3 {
		t.Errorf("Score(a) = %v, %v", s, ok)
	}
}

// TestSkipListRemove verifies removal and ranks of missing keys
func TestSkipListRemove(t *testing.T) {
	sl := NewSkipList(1)
	for i := 0; i < 5; i++ {
		sl.Set(fmt.Sprintf("k%d", i), float64(i))
	}

	if !sl.Remove("k4") {
		t.Fatal("Remove of a present key should succeed")
	}
	if sl.Remove("k4") {
		t.Error("Second remove should report false")
	}
	if sl.Rank("k4") != 0 {
		t.Error("A removed key has no rank")
	}
	if sl.Rank("k3") != 1 {
		t.Errorf("k3 should lead, got rank %d", sl.Rank("k3"))
	}

	sl.Clear()
	if sl.Len() != 0 || sl.Range(1, 5) != nil {
		t.Error("Clear should empty the list")
	}
}

// TestSkipListLarge verifies spans stay correct over many inserts
func TestSkipListLarge(t *testing.T) {
	sl := NewSkipList(7)
	const n = 1000
	for i := 0; i < n; i++ {
		sl.Set(fmt.Sprintf("p%04d", i), float64(i%97))
	}
	if sl.Len() != n {
		t.Fatalf("Expected %d keys, got %d", n, sl.Len())
	}

	all := sl.Range(1, n)
	for i, e := range all {
		if r := sl.Rank(e.Key); r != i+1 {
			t.Fatalf("Rank(%s) = %d, want %d", e.Key, r, i+1)
		}
		if i > 0 && before(e, all[i-1]) {
			t.Fatalf("Entries %d and %d out of order", i, i+1)
		}
	}

	page := sl.Range(101, 110)
	if len(page) != 10 || page[0] != all[100] {
		t.Errorf("Range(101, 110) did not match the full listing")
	}
}
