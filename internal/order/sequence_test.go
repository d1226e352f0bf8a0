package order

import "testing"

func TestSequenceFiltersEmptyShipments(t *testing.T) {
	// S1 has an allocation, S2 does not: exactly one element is presented.
	s := NewShipmentSequence([]PendingShipment{
		{ID: "SH-0001", Allocations: 1},
		{ID: "SH-0002", Allocations: 0},
	})

	if s.Empty() {
		t.Fatal("sequence should not be empty")
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "SH-0001" {
		t.Fatalf("expected SH-0001 first, got %+v ok=%v", cur, ok)
	}

	s.Confirm()
	if !s.Done() {
		t.Error("confirming the only element should finish the sequence")
	}
	if _, ok := s.Current(); ok {
		t.Error("no element should be presented after the sequence is done")
	}
	if s.Confirmed() != 1 || s.Skipped() != 0 {
		t.Errorf("confirmed=%d skipped=%d", s.Confirmed(), s.Skipped())
	}
}

func TestSequenceSkip(t *testing.T) {
	s := NewShipmentSequence([]PendingShipment{
		{ID: "SH-0001", Allocations: 2},
		{ID: "SH-0002", Allocations: 1},
	})

	s.Skip()
	cur, ok := s.Current()
	if !ok || cur.ID != "SH-0002" {
		t.Fatalf("expected SH-0002 after skip, got %+v", cur)
	}
	s.Confirm()
	if !s.Done() {
		t.Error("expected sequence done")
	}
	if s.Confirmed() != 1 || s.Skipped() != 1 {
		t.Errorf("confirmed=%d skipped=%d", s.Confirmed(), s.Skipped())
	}
}

func TestSequenceNothingToDo(t *testing.T) {
	s := NewShipmentSequence([]PendingShipment{{ID: "SH-0001", Allocations: 0}})
	if !s.Empty() || !s.Done() {
		t.Error("all-empty input should produce an empty, done sequence")
	}
}

func TestSequenceOneAtATime(t *testing.T) {
	s := NewShipmentSequence([]PendingShipment{
		{ID: "a", Allocations: 1},
		{ID: "b", Allocations: 1},
		{ID: "c", Allocations: 1},
	})

	seen := []string{}
	for !s.Done() {
		cur, _ := s.Current()
		seen = append(seen, cur.ID)
		s.Confirm()
	}
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("unexpected presentation order: %v", seen)
	}
	if s.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", s.Remaining())
	}
}
