package company

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/testutil"
)

func TestGetSupplierPart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	token := testutil.LoginAdmin(t, db)
	h := &Handler{DB: db}

	testutil.CreatePart(t, db, "W-1", "Widget", false)
	sp := testutil.CreateSupplierPart(t, db, "W-1", "Acme", "ACME-1", 5)
	db.Exec("INSERT INTO supplier_price_breaks (supplier_part, quantity, price) VALUES (?, 1, 2.50)", sp)
	db.Exec("INSERT INTO supplier_price_breaks (supplier_part, quantity, price) VALUES (?, 100, 1.75)", sp)

	w := httptest.NewRecorder()
	h.GetSupplierPart(w, testutil.AuthedRequest("GET", fmt.Sprintf("/api/company/part/%d", sp), nil, token), sp)
	testutil.AssertStatus(t, w, 200)

	var got models.SupplierPart
	testutil.DecodeEnvelope(t, w, &got)
	if got.PackSize != 5 {
		t.Errorf("Expected pack_size 5, got %g", got.PackSize)
	}
	if len(got.PriceBreaks) != 2 {
		t.Errorf("Expected 2 price breaks, got %d", len(got.PriceBreaks))
	}
}

func TestPriceList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	token := testutil.LoginAdmin(t, db)
	h := &Handler{DB: db}

	testutil.CreatePart(t, db, "W-2", "Widget", false)
	sp := testutil.CreateSupplierPart(t, db, "W-2", "Acme", "ACME-2", 1)
	db.Exec("INSERT INTO supplier_price_breaks (supplier_part, quantity, price) VALUES (?, 1, 2.00)", sp)
	db.Exec("INSERT INTO supplier_price_breaks (supplier_part, quantity, price) VALUES (?, 50, 1.50)", sp)
	db.Exec("INSERT INTO supplier_price_breaks (supplier_part, quantity, price) VALUES (?, 200, 1.00)", sp)

	cases := []struct {
		quantity string
		unit     float64
	}{
		{"1", 2.00},
		{"49", 2.00},
		{"50", 1.50},
		{"199", 1.50},
		{"500", 1.00},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		h.PriceList(w, testutil.AuthedRequest("GET", fmt.Sprintf("/api/part/supplier/price-list?part=%d&quantity=%s", sp, tc.quantity), nil, token))
		testutil.AssertStatus(t, w, 200)
		var quote struct {
			UnitPrice float64 `json:"unit_price"`
		}
		testutil.DecodeEnvelope(t, w, &quote)
		if quote.UnitPrice != tc.unit {
			t.Errorf("quantity %s: expected unit price %g, got %g", tc.quantity, tc.unit, quote.UnitPrice)
		}
	}

	// no price breaks is a 404
	other := testutil.CreateSupplierPart(t, db, "W-2", "Bolt", "B-2", 1)
	w := httptest.NewRecorder()
	h.PriceList(w, testutil.AuthedRequest("GET", fmt.Sprintf("/api/part/supplier/price-list?part=%d", other), nil, token))
	testutil.AssertStatus(t, w, 404)
}
