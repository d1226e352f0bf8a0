package purchase

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *sql.DB, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })
	token := testutil.LoginAdmin(t, db)
	return &Handler{DB: db, DefaultLocation: "Receiving"}, db, token
}

func createOrder(t *testing.T, h *Handler, token string, po models.PurchaseOrder) models.PurchaseOrder {
	t.Helper()
	body, _ := json.Marshal(po)
	req := testutil.AuthedRequest("POST", "/api/order/po", body, token)
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)
	testutil.AssertStatus(t, w, 200)
	var created models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &created)
	return created
}

func issueOrder(t *testing.T, h *Handler, token, id string) {
	t.Helper()
	req := testutil.AuthedRequest("POST", "/api/order/po/"+id+"/issue", nil, token)
	w := httptest.NewRecorder()
	h.IssueOrder(w, req, id)
	testutil.AssertStatus(t, w, 200)
}

func TestCreatePurchaseOrder(t *testing.T) {
	h, _, token := newTestHandler(t)
	testutil.CreatePart(t, h.DB, "R-1001", "Resistor 10k", false)

	created := createOrder(t, h, token, models.PurchaseOrder{
		Supplier: "Acme Components",
		Lines: []models.POLine{
			{Part: "R-1001", Quantity: 100, PurchasePrice: 0.02},
		},
	})

	if created.ID != "PO-0001" {
		t.Errorf("Expected PO-0001, got %s", created.ID)
	}
	if created.Status != "pending" {
		t.Errorf("Expected pending status, got %s", created.Status)
	}
	if created.Reference != "PO-0001" {
		t.Errorf("Expected reference to default to the id, got %s", created.Reference)
	}
	if len(created.Lines) != 1 || created.Lines[0].Quantity != 100 {
		t.Errorf("Expected one line of 100, got %+v", created.Lines)
	}
	if created.IssueDate != nil {
		t.Errorf("Expected nil issue_date on a pending order")
	}
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	h, _, token := newTestHandler(t)

	body, _ := json.Marshal(models.PurchaseOrder{
		Lines: []models.POLine{{Part: "", Quantity: -5}},
	})
	req := testutil.AuthedRequest("POST", "/api/order/po", body, token)
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)
	testutil.AssertStatus(t, w, 400)

	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["supplier"]; !ok {
		t.Errorf("Expected supplier error, got %v", errs)
	}
	if _, ok := errs["lines[0].part"]; !ok {
		t.Errorf("Expected indexed part error, got %v", errs)
	}
	if _, ok := errs["lines[0].quantity"]; !ok {
		t.Errorf("Expected indexed quantity error, got %v", errs)
	}
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	h, _, token := newTestHandler(t)
	testutil.CreatePart(t, h.DB, "C-2001", "Capacitor", false)

	created := createOrder(t, h, token, models.PurchaseOrder{
		Supplier: "Acme Components",
		Lines:    []models.POLine{{Part: "C-2001", Quantity: 10}},
	})

	// receive before issue is rejected
	w := httptest.NewRecorder()
	h.ReceiveItems(w, testutil.AuthedRequest("POST", "/api/order/po/"+created.ID+"/receive", []byte(`{"items":[{"line_item":1,"quantity":1}]}`), token), created.ID)
	testutil.AssertStatus(t, w, 400)

	issueOrder(t, h, token, created.ID)

	w = httptest.NewRecorder()
	h.GetOrder(w, testutil.AuthedRequest("GET", "/api/order/po/"+created.ID, nil, token), created.ID)
	var placed models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &placed)
	if placed.Status != "placed" {
		t.Errorf("Expected placed, got %s", placed.Status)
	}
	if placed.IssueDate == nil {
		t.Errorf("Expected issue_date to be set on issue")
	}

	// complete with outstanding lines needs accept_incomplete
	w = httptest.NewRecorder()
	h.CompleteOrder(w, testutil.AuthedRequest("POST", "/api/order/po/"+created.ID+"/complete", []byte(`{}`), token), created.ID)
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["accept_incomplete"]; !ok {
		t.Errorf("Expected accept_incomplete error, got %v", errs)
	}

	w = httptest.NewRecorder()
	h.CompleteOrder(w, testutil.AuthedRequest("POST", "/api/order/po/"+created.ID+"/complete", []byte(`{"accept_incomplete":true}`), token), created.ID)
	testutil.AssertStatus(t, w, 200)
	var done models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &done)
	if done.Status != "complete" {
		t.Errorf("Expected complete, got %s", done.Status)
	}
	if done.CompleteDate == nil {
		t.Errorf("Expected complete_date to be set")
	}
}

func TestCancelPurchaseOrder(t *testing.T) {
	h, _, token := newTestHandler(t)
	created := createOrder(t, h, token, models.PurchaseOrder{Supplier: "Acme"})

	w := httptest.NewRecorder()
	h.CancelOrder(w, testutil.AuthedRequest("POST", "/api/order/po/"+created.ID+"/cancel", nil, token), created.ID)
	testutil.AssertStatus(t, w, 200)
	var cancelled models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &cancelled)
	if cancelled.Status != "cancelled" {
		t.Errorf("Expected cancelled, got %s", cancelled.Status)
	}

	// cancelled orders can't be issued
	w = httptest.NewRecorder()
	h.IssueOrder(w, testutil.AuthedRequest("POST", "/api/order/po/"+created.ID+"/issue", nil, token), created.ID)
	testutil.AssertStatus(t, w, 400)
}

func TestDeletePlacedOrderBlocked(t *testing.T) {
	h, _, token := newTestHandler(t)
	created := createOrder(t, h, token, models.PurchaseOrder{Supplier: "Acme"})
	issueOrder(t, h, token, created.ID)

	w := httptest.NewRecorder()
	h.DeleteOrder(w, testutil.AuthedRequest("DELETE", "/api/order/po/"+created.ID, nil, token), created.ID)
	testutil.AssertStatus(t, w, 400)
}

func TestUpdatePurchaseOrderRejectsStatus(t *testing.T) {
	h, _, token := newTestHandler(t)
	created := createOrder(t, h, token, models.PurchaseOrder{Supplier: "Acme"})

	w := httptest.NewRecorder()
	h.UpdateOrder(w, testutil.AuthedRequest("PATCH", "/api/order/po/"+created.ID, []byte(`{"status":"complete"}`), token), created.ID)
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["status"]; !ok {
		t.Errorf("Expected status error, got %v", errs)
	}
}

func TestListOrdersFilters(t *testing.T) {
	h, _, token := newTestHandler(t)
	a := createOrder(t, h, token, models.PurchaseOrder{Supplier: "Acme"})
	createOrder(t, h, token, models.PurchaseOrder{Supplier: "Bolt Supply"})
	issueOrder(t, h, token, a.ID)

	w := httptest.NewRecorder()
	h.ListOrders(w, testutil.AuthedRequest("GET", "/api/order/po?status=placed", nil, token))
	var placed []models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &placed)
	if len(placed) != 1 || placed[0].ID != a.ID {
		t.Errorf("Expected only %s placed, got %+v", a.ID, placed)
	}

	w = httptest.NewRecorder()
	h.ListOrders(w, testutil.AuthedRequest("GET", "/api/order/po?supplier=bolt", nil, token))
	var bySupplier []models.PurchaseOrder
	testutil.DecodeEnvelope(t, w, &bySupplier)
	if len(bySupplier) != 1 || bySupplier[0].Supplier != "Bolt Supply" {
		t.Errorf("Expected supplier filter to match Bolt Supply, got %+v", bySupplier)
	}
}
