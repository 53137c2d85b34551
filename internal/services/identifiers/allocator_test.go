package identifiers

import "testing"

func TestAllocator_ContiguousAcrossCategories(t *testing.T) {
	alloc := NewAllocator()

	// First category discovers three links.
	var got []int
	for position := 1; position <= 3; position++ {
		got = append(got, alloc.Stamp(position))
	}
	alloc.CompleteCategory(3)

	// Second category discovers two links.
	for position := 1; position <= 2; position++ {
		got = append(got, alloc.Stamp(position))
	}
	alloc.CompleteCategory(2)

	want := []int{1, 2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("identifier %d = %d, want %d", i, got[i], want[i])
		}
	}
	if alloc.Allocated() != 5 {
		t.Fatalf("Allocated() = %d, want 5", alloc.Allocated())
	}
}

func TestAllocator_SkipDoesNotShiftBase(t *testing.T) {
	alloc := NewAllocator()

	// Two links discovered, the second one's fetch fails downstream. The
	// base still advances by the link count, not the save count.
	alloc.Stamp(1)
	alloc.Stamp(2)
	alloc.CompleteCategory(2)

	if id := alloc.Stamp(1); id != 3 {
		t.Fatalf("first id of next category = %d, want 3", id)
	}
}

func TestAllocator_StampIsRepeatable(t *testing.T) {
	alloc := NewAllocator()
	if a, b := alloc.Stamp(1), alloc.Stamp(1); a != b {
		t.Fatalf("Stamp mutated state: %d != %d", a, b)
	}
}
