// Package company serves supplier part records and tiered pricing.
package company

import (
	"database/sql"
	"net/http"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"stockflow/internal/models"
	"stockflow/internal/response"
)

// Handler holds dependencies for company handlers.
type Handler struct {
	DB *sql.DB
}

func (h *Handler) priceBreaks(supplierPart int) []models.PriceBreak {
	rows, err := h.DB.Query("SELECT id,supplier_part,quantity,price,COALESCE(currency,'USD') FROM supplier_price_breaks WHERE supplier_part=? ORDER BY quantity", supplierPart)
	if err != nil {
		return []models.PriceBreak{}
	}
	defer rows.Close()
	breaks := []models.PriceBreak{}
	for rows.Next() {
		var b models.PriceBreak
		rows.Scan(&b.ID, &b.SupplierPart, &b.Quantity, &b.Price, &b.Currency)
		breaks = append(breaks, b)
	}
	return breaks
}

// GetSupplierPart handles GET /api/company/part/{id}: the supplier part
// with its pack size and price breaks.
func (h *Handler) GetSupplierPart(w http.ResponseWriter, r *http.Request, id int) {
	var sp models.SupplierPart
	err := h.DB.QueryRow("SELECT id,part,supplier,COALESCE(sku,''),pack_size,COALESCE(note,'') FROM supplier_parts WHERE id=?", id).
		Scan(&sp.ID, &sp.Part, &sp.Supplier, &sp.SKU, &sp.PackSize, &sp.Note)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	sp.PriceBreaks = h.priceBreaks(id)
	response.JSON(w, sp)
}

// ListSupplierParts handles GET /api/company/part?part=&supplier=.
func (h *Handler) ListSupplierParts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT id,part,supplier,COALESCE(sku,''),pack_size,COALESCE(note,'') FROM supplier_parts WHERE 1=1"
	var args []interface{}
	if v := q.Get("part"); v != "" {
		query += " AND part=?"
		args = append(args, v)
	}
	if v := q.Get("supplier"); v != "" {
		query += " AND supplier LIKE ?"
		args = append(args, "%"+v+"%")
	}
	query += " ORDER BY id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	parts := []models.SupplierPart{}
	for rows.Next() {
		var sp models.SupplierPart
		rows.Scan(&sp.ID, &sp.Part, &sp.Supplier, &sp.SKU, &sp.PackSize, &sp.Note)
		sp.PriceBreaks = h.priceBreaks(sp.ID)
		parts = append(parts, sp)
	}
	response.JSON(w, parts)
}

// priceQuote is the tiered pricing answer for one supplier part and
// quantity.
type priceQuote struct {
	SupplierPart int     `json:"supplier_part"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
	Currency     string  `json:"currency"`
	Break        float64 `json:"break_quantity"`
}

// PriceList handles GET /api/part/supplier/price-list?part={id}&quantity={n}:
// the deepest price break whose quantity does not exceed the requested
// amount. Falls back to the smallest break when the quantity is below
// every tier.
func (h *Handler) PriceList(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("part"))
	if err != nil {
		response.Err(w, "part is required", 400)
		return
	}
	quantity, err := strconv.ParseFloat(r.URL.Query().Get("quantity"), 64)
	if err != nil || quantity <= 0 {
		quantity = 1
	}

	breaks := h.priceBreaks(id)
	if len(breaks) == 0 {
		response.Err(w, "no price breaks for supplier part", 404)
		return
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Quantity < breaks[j].Quantity })

	chosen := breaks[0]
	for _, b := range breaks {
		if b.Quantity <= quantity {
			chosen = b
		}
	}

	unit := decimal.NewFromFloat(chosen.Price)
	total, _ := unit.Mul(decimal.NewFromFloat(quantity)).Round(5).Float64()
	response.JSON(w, priceQuote{
		SupplierPart: id,
		Quantity:     quantity,
		UnitPrice:    chosen.Price,
		TotalPrice:   total,
		Currency:     chosen.Currency,
		Break:        chosen.Quantity,
	})
}
