package sales

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/testutil"
)

func TestAllocateStock(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-4001", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-4001", "A1", 100, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-4001", Quantity: 10}},
	})
	ship := defaultShipment(t, db, created.ID)

	w := allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items:    []order.AllocationItem{{LineItem: created.Lines[0].ID, StockItem: stock, Quantity: 10}},
	})
	testutil.AssertStatus(t, w, 200)

	var resp models.SalesOrder
	testutil.DecodeEnvelope(t, w, &resp)
	if resp.Lines[0].Allocated != 10 {
		t.Errorf("Expected line allocated 10, got %g", resp.Lines[0].Allocated)
	}
	if len(resp.Lines[0].Items) != 1 {
		t.Errorf("Expected one allocation on the line, got %d", len(resp.Lines[0].Items))
	}

	var allocated float64
	db.QueryRow("SELECT allocated FROM stock_items WHERE id=?", stock).Scan(&allocated)
	if allocated != 10 {
		t.Errorf("Expected stock allocated 10, got %g", allocated)
	}
}

func TestAllocateValidation(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-5001", "Widget", false)
	testutil.CreatePart(t, db, "W-5002", "Other widget", false)
	small := testutil.CreateStockItem(t, db, "W-5001", "A1", 5, 0)
	other := testutil.CreateStockItem(t, db, "W-5002", "A1", 50, 0)
	db.Exec("INSERT INTO stock_items (part, location, quantity, serial) VALUES ('W-5001','A1',1,'SER-1')")
	var serialized int
	db.QueryRow("SELECT id FROM stock_items WHERE serial='SER-1'").Scan(&serialized)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-5001", Quantity: 20}},
	})
	ship := defaultShipment(t, db, created.ID)
	line := created.Lines[0].ID

	w := allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items: []order.AllocationItem{
			{LineItem: line, StockItem: other, Quantity: 1},
			{LineItem: line, StockItem: small, Quantity: 8},
			{LineItem: line, StockItem: serialized, Quantity: 3},
			{LineItem: 999, StockItem: small, Quantity: 1},
		},
	})
	testutil.AssertStatus(t, w, 400)

	errs := testutil.FieldErrors(t, w)
	if errs["items[0].stock_item"] != "part does not match the line item" {
		t.Errorf("Expected part mismatch error, got %v", errs)
	}
	if _, ok := errs["items[1].quantity"]; !ok {
		t.Errorf("Expected over-allocation error, got %v", errs)
	}
	if errs["items[2].quantity"] != "must be 1 for serialized stock" {
		t.Errorf("Expected serialized quantity error, got %v", errs)
	}
	if _, ok := errs["items[3].line_item"]; !ok {
		t.Errorf("Expected unknown line error, got %v", errs)
	}

	// nothing was reserved
	var allocated float64
	db.QueryRow("SELECT allocated FROM stock_items WHERE id=?", small).Scan(&allocated)
	if allocated != 0 {
		t.Errorf("Expected no reservation after failed allocate, got %g", allocated)
	}
}

func TestAllocateCumulativeAcrossRows(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-6001", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-6001", "A1", 10, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-6001", Quantity: 20}},
	})
	ship := defaultShipment(t, db, created.ID)
	line := created.Lines[0].ID

	// two rows against the same item exceeding it together
	w := allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items: []order.AllocationItem{
			{LineItem: line, StockItem: stock, Quantity: 7},
			{LineItem: line, StockItem: stock, Quantity: 7},
		},
	})
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["items[1].quantity"]; !ok {
		t.Errorf("Expected cumulative availability error, got %v", errs)
	}
}

func TestAllocateSerials(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "SN-7001", "Board", true)
	for _, serial := range []string{"B-1", "B-2", "B-3"} {
		db.Exec("INSERT INTO stock_items (part, location, quantity, serial) VALUES ('SN-7001','A1',1,?)", serial)
	}

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "SN-7001", Quantity: 3}},
	})
	ship := defaultShipment(t, db, created.ID)

	body, _ := json.Marshal(serialAllocationRequest{
		LineItem:      created.Lines[0].ID,
		Shipment:      ship,
		SerialNumbers: []string{"B-1", "B-3"},
	})
	w := httptest.NewRecorder()
	h.AllocateSerials(w, testutil.AuthedRequest("POST", "/api/order/so/"+created.ID+"/allocate-serials", body, token), created.ID)
	testutil.AssertStatus(t, w, 200)

	var resp models.SalesOrder
	testutil.DecodeEnvelope(t, w, &resp)
	if resp.Lines[0].Allocated != 2 {
		t.Errorf("Expected 2 allocated, got %g", resp.Lines[0].Allocated)
	}

	// unknown serial reports an indexed error
	body, _ = json.Marshal(serialAllocationRequest{
		LineItem:      created.Lines[0].ID,
		Shipment:      ship,
		SerialNumbers: []string{"B-2", "NOPE"},
	})
	w = httptest.NewRecorder()
	h.AllocateSerials(w, testutil.AuthedRequest("POST", "/api/order/so/"+created.ID+"/allocate-serials", body, token), created.ID)
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["serial_numbers[1].serial"]; !ok {
		t.Errorf("Expected unknown serial error, got %v", errs)
	}
}

func TestUpdateAndDeleteAllocation(t *testing.T) {
	h, db, token := newTestHandler(t)
	testutil.CreatePart(t, db, "W-8001", "Widget", false)
	stock := testutil.CreateStockItem(t, db, "W-8001", "A1", 10, 0)

	created := createOrder(t, h, token, models.SalesOrder{
		Customer: "Initech",
		Lines:    []models.SOLine{{Part: "W-8001", Quantity: 10}},
	})
	ship := defaultShipment(t, db, created.ID)
	allocate(t, h, token, created.ID, order.AllocationRequest{
		Shipment: ship,
		Items:    []order.AllocationItem{{LineItem: created.Lines[0].ID, StockItem: stock, Quantity: 4}},
	})

	var allocID int
	db.QueryRow("SELECT id FROM allocations").Scan(&allocID)

	// grow within availability
	w := httptest.NewRecorder()
	h.UpdateAllocation(w, testutil.AuthedRequest("PATCH", "/api/order/so-allocation/1", []byte(`{"quantity":9}`), token), allocID)
	testutil.AssertStatus(t, w, 200)
	var allocated float64
	db.QueryRow("SELECT allocated FROM stock_items WHERE id=?", stock).Scan(&allocated)
	if allocated != 9 {
		t.Errorf("Expected stock allocated 9 after update, got %g", allocated)
	}

	// beyond availability is rejected
	w = httptest.NewRecorder()
	h.UpdateAllocation(w, testutil.AuthedRequest("PATCH", "/api/order/so-allocation/1", []byte(`{"quantity":11}`), token), allocID)
	testutil.AssertStatus(t, w, 400)

	w = httptest.NewRecorder()
	h.DeleteAllocation(w, testutil.AuthedRequest("DELETE", "/api/order/so-allocation/1", nil, token), allocID)
	testutil.AssertStatus(t, w, 200)
	db.QueryRow("SELECT allocated FROM stock_items WHERE id=?", stock).Scan(&allocated)
	if allocated != 0 {
		t.Errorf("Expected stock released on delete, got %g", allocated)
	}
}
