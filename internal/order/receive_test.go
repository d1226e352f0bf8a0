package order

import "testing"

func TestReceiptDefaultQuantity(t *testing.T) {
	c := ReceiptCandidate{Line: POLineState{Quantity: 10, Received: 4}}
	if got := c.DefaultQuantity(); got != 6 {
		t.Errorf("expected 6, got %v", got)
	}

	// Never negative even if received has overrun the order.
	c = ReceiptCandidate{Line: POLineState{Quantity: 10, Received: 12}}
	if got := c.DefaultQuantity(); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestPackSizeDisplayOnly(t *testing.T) {
	// pack_size=5, quantity=10, received=0, user receives 2 packs:
	// transmitted quantity stays 2, displayed equivalent is 10 units.
	c := ReceiptCandidate{LineItem: 7, Line: POLineState{Quantity: 10}, PackSize: 5}
	if got := c.DisplayQuantity(2); got != 10 {
		t.Errorf("display quantity = %v, want 10", got)
	}

	req := PlanReceipt("", []ReceiptCandidate{c}, 10)
	if len(req.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(req.Items))
	}
	if req.Items[0].Quantity != 10 {
		t.Errorf("transmitted quantity = %v, want full remaining 10", req.Items[0].Quantity)
	}
}

func TestPlanReceiptExcludesFullyReceived(t *testing.T) {
	req := PlanReceipt("A-01", []ReceiptCandidate{
		{LineItem: 1, Line: POLineState{Quantity: 10, Received: 10}},
		{LineItem: 2, Line: POLineState{Quantity: 10, Received: 3}},
	}, 10)

	if req.Location != "A-01" {
		t.Errorf("location not carried: %q", req.Location)
	}
	if len(req.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(req.Items))
	}
	if req.Items[0].LineItem != 2 || req.Items[0].Quantity != 7 {
		t.Errorf("unexpected item: %+v", req.Items[0])
	}
	if req.Items[0].Status != 10 {
		t.Errorf("expected default OK status, got %d", req.Items[0].Status)
	}
}

func TestPackQuantityFallback(t *testing.T) {
	// Missing pack size behaves as 1.
	if got := PackQuantity(3, 0); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}
