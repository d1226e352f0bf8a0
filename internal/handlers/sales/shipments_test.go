package sales

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/testutil"
)

func createShipment(t *testing.T, h *Handler, token string, s models.Shipment) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(s)
	w := httptest.NewRecorder()
	h.CreateShipment(w, testutil.AuthedRequest("POST", "/api/order/so/shipment", body, token))
	return w
}

func TestCreateShipmentReferences(t *testing.T) {
	h, db, token := newTestHandler(t)
	created := createOrder(t, h, token, models.SalesOrder{Customer: "Initech"})

	// the default shipment took reference "1"
	w := createShipment(t, h, token, models.Shipment{OrderID: created.ID})
	testutil.AssertStatus(t, w, 200)
	var second models.Shipment
	testutil.DecodeEnvelope(t, w, &second)
	if second.Reference != "2" {
		t.Errorf("Expected reference 2, got %s", second.Reference)
	}
	if second.ShipmentDate != nil {
		t.Errorf("Expected new shipment to be pending")
	}

	// duplicate reference on the same order is a field error
	w = createShipment(t, h, token, models.Shipment{OrderID: created.ID, Reference: "2"})
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if errs["reference"] != "already exists on this order" {
		t.Errorf("Expected duplicate reference error, got %v", errs)
	}

	// the same reference on another order is fine
	other := createOrder(t, h, token, models.SalesOrder{Customer: "Globex"})
	w = createShipment(t, h, token, models.Shipment{OrderID: other.ID, Reference: "2"})
	testutil.AssertStatus(t, w, 200)

	var n int
	db.QueryRow("SELECT COUNT(*) FROM shipments").Scan(&n)
	if n != 4 {
		t.Errorf("Expected 4 shipments, got %d", n)
	}
}

func TestShipShipment(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-9001", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-9001", "A1", 20, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-9001", Quantity: 10}},
	})
	ship := defaultShipment(t, db, created.ID)

	// empty shipment cannot go out
	w := httptest.NewRecorder()
	h.ShipShipment(w, testutil.AuthedRequest("POST", "/api/order/so/shipment/"+ship+"/ship", []byte(`{}`), token), ship)
	testutil.AssertStatus(t, w, 400)

	allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items:    []order.AllocationItem{{LineItem: created.Lines[0].ID, StockItem: stock, Quantity: 10}},
	})

	body := []byte(`{"tracking_number":"TRK-42","invoice_number":"INV-7"}`)
	w = httptest.NewRecorder()
	h.ShipShipment(w, testutil.AuthedRequest("POST", "/api/order/so/shipment/"+ship+"/ship", body, token), ship)
	testutil.AssertStatus(t, w, 200)

	var shipped models.Shipment
	testutil.DecodeEnvelope(t, w, &shipped)
	if shipped.ShipmentDate == nil {
		t.Errorf("Expected shipment_date to be stamped")
	}
	if shipped.TrackingNumber != "TRK-42" || shipped.InvoiceNumber != "INV-7" {
		t.Errorf("Expected tracking details recorded, got %+v", shipped)
	}

	// stock left the system and the line advanced
	var qty, allocated float64
	db.QueryRow("SELECT quantity, allocated FROM stock_items WHERE id=?", stock).Scan(&qty, &allocated)
	if qty != 10 || allocated != 0 {
		t.Errorf("Expected stock 10/0 after ship, got %g/%g", qty, allocated)
	}
	var lineShipped float64
	db.QueryRow("SELECT shipped FROM so_lines WHERE id=?", created.Lines[0].ID).Scan(&lineShipped)
	if lineShipped != 10 {
		t.Errorf("Expected line shipped 10, got %g", lineShipped)
	}

	// shipping twice is rejected
	w = httptest.NewRecorder()
	h.ShipShipment(w, testutil.AuthedRequest("POST", "/api/order/so/shipment/"+ship+"/ship", []byte(`{}`), token), ship)
	testutil.AssertStatus(t, w, 400)
}

func TestDeleteShipmentGuards(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-9101", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-9101", "A1", 10, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-9101", Quantity: 5}},
	})
	ship := defaultShipment(t, db, created.ID)
	allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items:    []order.AllocationItem{{LineItem: created.Lines[0].ID, StockItem: stock, Quantity: 5}},
	})

	w := httptest.NewRecorder()
	h.DeleteShipment(w, testutil.AuthedRequest("DELETE", "/api/order/so/shipment/"+ship, nil, token), ship)
	testutil.AssertStatus(t, w, 400)
}

func TestShipPendingSequence(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-9201", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-9201", "A1", 30, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-9201", Quantity: 20}},
	})
	first := defaultShipment(t, db, created.ID)

	w := createShipment(t, h, token, models.Shipment{OrderID: created.ID})
	var second models.Shipment
	testutil.DecodeEnvelope(t, w, &second)
	// a third shipment with no allocations is filtered from the sequence
	createShipment(t, h, token, models.Shipment{OrderID: created.ID})

	line := created.Lines[0].ID
	allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: first,
		Items:    []order.AllocationItem{{LineItem: line, StockItem: stock, Quantity: 8}},
	})
	allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: second.ID,
		Items:    []order.AllocationItem{{LineItem: line, StockItem: stock, Quantity: 12}},
	})

	// decisions out of sequence are rejected
	body, _ := json.Marshal(shipPendingRequest{Decisions: []shipPendingDecision{
		{Shipment: second.ID, Action: "confirm"},
	}})
	w = httptest.NewRecorder()
	h.ShipPending(w, testutil.AuthedRequest("POST", "/api/order/so/"+created.ID+"/ship-pending", body, token), created.ID)
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["decisions[0].shipment"]; !ok {
		t.Errorf("Expected sequence mismatch error, got %v", errs)
	}

	// skip the first, confirm the second
	body, _ = json.Marshal(shipPendingRequest{Decisions: []shipPendingDecision{
		{Shipment: first, Action: "skip"},
		{Shipment: second.ID, Action: "confirm"},
	}})
	w = httptest.NewRecorder()
	h.ShipPending(w, testutil.AuthedRequest("POST", "/api/order/so/"+created.ID+"/ship-pending", body, token), created.ID)
	testutil.AssertStatus(t, w, 200)

	var resp models.SalesOrder
	testutil.DecodeEnvelope(t, w, &resp)
	if resp.Lines[0].Shipped != 12 {
		t.Errorf("Expected 12 shipped via the confirmed shipment, got %g", resp.Lines[0].Shipped)
	}
	if resp.Lines[0].Allocated != 8 {
		t.Errorf("Expected the skipped shipment's 8 still allocated, got %g", resp.Lines[0].Allocated)
	}

	var firstDate, secondDate interface{}
	db.QueryRow("SELECT shipment_date FROM shipments WHERE id=?", first).Scan(&firstDate)
	db.QueryRow("SELECT shipment_date FROM shipments WHERE id=?", second.ID).Scan(&secondDate)
	if firstDate != nil {
		t.Errorf("Expected skipped shipment to stay pending")
	}
	if secondDate == nil {
		t.Errorf("Expected confirmed shipment to be dated")
	}
}
