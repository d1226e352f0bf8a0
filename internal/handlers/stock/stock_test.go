package stock

import (
	"net/http/httptest"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/testutil"
)

func TestListStockAvailability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	token := testutil.LoginAdmin(t, db)
	h := &Handler{DB: db}

	testutil.CreatePart(t, db, "W-1", "Widget", false)
	testutil.CreateStockItem(t, db, "W-1", "A1", 10, 4)
	testutil.CreateStockItem(t, db, "W-1", "A2", 5, 5)

	w := httptest.NewRecorder()
	h.List(w, testutil.AuthedRequest("GET", "/api/stock?part=W-1", nil, token))
	testutil.AssertStatus(t, w, 200)
	var items []models.StockItem
	testutil.DecodeEnvelope(t, w, &items)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Available != 6 {
		t.Errorf("Expected available 6, got %g", items[0].Available)
	}
	if items[1].Available != 0 {
		t.Errorf("Expected available 0 for fully allocated item, got %g", items[1].Available)
	}

	// available filter excludes the fully allocated item
	w = httptest.NewRecorder()
	h.List(w, testutil.AuthedRequest("GET", "/api/stock?part=W-1&available=true", nil, token))
	var available []models.StockItem
	testutil.DecodeEnvelope(t, w, &available)
	if len(available) != 1 {
		t.Errorf("Expected 1 available item, got %d", len(available))
	}
}

func TestCreateStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	token := testutil.LoginAdmin(t, db)
	h := &Handler{DB: db}

	testutil.CreatePart(t, db, "W-2", "Widget", false)
	testutil.CreatePart(t, db, "SN-2", "Board", true)

	w := httptest.NewRecorder()
	h.Create(w, testutil.AuthedRequest("POST", "/api/stock", []byte(`{"part":"W-2","location":"A1","quantity":25}`), token))
	testutil.AssertStatus(t, w, 200)
	var item models.StockItem
	testutil.DecodeEnvelope(t, w, &item)
	if item.Quantity != 25 || item.Status != 10 {
		t.Errorf("Expected quantity 25 status 10, got %+v", item)
	}

	// serial on a non-trackable part is rejected
	w = httptest.NewRecorder()
	h.Create(w, testutil.AuthedRequest("POST", "/api/stock", []byte(`{"part":"W-2","serial":"X1"}`), token))
	testutil.AssertStatus(t, w, 400)
	errs := testutil.FieldErrors(t, w)
	if _, ok := errs["serial"]; !ok {
		t.Errorf("Expected serial error, got %v", errs)
	}

	// serialized stock defaults to quantity 1
	w = httptest.NewRecorder()
	h.Create(w, testutil.AuthedRequest("POST", "/api/stock", []byte(`{"part":"SN-2","serial":"X1"}`), token))
	testutil.AssertStatus(t, w, 200)
	testutil.DecodeEnvelope(t, w, &item)
	if item.Quantity != 1 || item.Serial != "X1" {
		t.Errorf("Expected serialized unit item, got %+v", item)
	}
}
