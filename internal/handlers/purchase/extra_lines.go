package purchase

import (
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// ListExtraLines handles GET /api/order/po-extra-line?order=.
func (h *Handler) ListExtraLines(w http.ResponseWriter, r *http.Request) {
	query := "SELECT id,order_id,description,quantity,COALESCE(price,0),COALESCE(price_currency,'USD'),COALESCE(notes,'') FROM po_extra_lines"
	var args []interface{}
	if v := r.URL.Query().Get("order"); v != "" {
		query += " WHERE order_id=?"
		args = append(args, v)
	}
	query += " ORDER BY id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	lines := []models.ExtraLine{}
	for rows.Next() {
		var l models.ExtraLine
		rows.Scan(&l.ID, &l.OrderID, &l.Description, &l.Quantity, &l.Price, &l.PriceCurrency, &l.Notes)
		lines = append(lines, l)
	}
	response.JSON(w, lines)
}

// CreateExtraLine handles POST /api/order/po-extra-line.
func (h *Handler) CreateExtraLine(w http.ResponseWriter, r *http.Request) {
	var l models.ExtraLine
	if err := response.DecodeBody(r, &l); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "order", l.OrderID)
	validation.RequireField(ve, "description", l.Description)
	if l.Quantity == 0 {
		l.Quantity = 1
	}
	validation.ValidatePositiveFloat(ve, "quantity", l.Quantity)
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	var exists int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM purchase_orders WHERE id=?", l.OrderID).Scan(&exists); err != nil || exists == 0 {
		response.Err(w, "order not found", 404)
		return
	}
	if l.PriceCurrency == "" {
		l.PriceCurrency = "USD"
	}

	res, err := h.DB.Exec("INSERT INTO po_extra_lines (order_id,description,quantity,price,price_currency,notes) VALUES (?,?,?,?,?,?)",
		l.OrderID, l.Description, l.Quantity, l.Price, l.PriceCurrency, l.Notes)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	id, _ := res.LastInsertId()
	l.ID = int(id)

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", l.OrderID, "Added extra line to "+l.OrderID)
	response.JSON(w, l)
}

// GetExtraLine handles GET /api/order/po-extra-line/{id}.
func (h *Handler) GetExtraLine(w http.ResponseWriter, id int) {
	var l models.ExtraLine
	err := h.DB.QueryRow("SELECT id,order_id,description,quantity,COALESCE(price,0),COALESCE(price_currency,'USD'),COALESCE(notes,'') FROM po_extra_lines WHERE id=?", id).
		Scan(&l.ID, &l.OrderID, &l.Description, &l.Quantity, &l.Price, &l.PriceCurrency, &l.Notes)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	response.JSON(w, l)
}

// UpdateExtraLine handles PATCH /api/order/po-extra-line/{id}.
func (h *Handler) UpdateExtraLine(w http.ResponseWriter, r *http.Request, id int) {
	var l models.ExtraLine
	err := h.DB.QueryRow("SELECT id,order_id,description,quantity,COALESCE(price,0),COALESCE(price_currency,'USD'),COALESCE(notes,'') FROM po_extra_lines WHERE id=?", id).
		Scan(&l.ID, &l.OrderID, &l.Description, &l.Quantity, &l.Price, &l.PriceCurrency, &l.Notes)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}

	var patch struct {
		Description *string  `json:"description"`
		Quantity    *float64 `json:"quantity"`
		Price       *float64 `json:"price"`
		Currency    *string  `json:"price_currency"`
		Notes       *string  `json:"notes"`
	}
	if err := response.DecodeBody(r, &patch); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if patch.Description != nil {
		l.Description = *patch.Description
		validation.RequireField(ve, "description", l.Description)
	}
	if patch.Quantity != nil {
		l.Quantity = *patch.Quantity
		validation.ValidatePositiveFloat(ve, "quantity", l.Quantity)
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.Currency != nil {
		l.PriceCurrency = *patch.Currency
	}
	if patch.Notes != nil {
		l.Notes = *patch.Notes
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	_, err = h.DB.Exec("UPDATE po_extra_lines SET description=?,quantity=?,price=?,price_currency=?,notes=? WHERE id=?",
		l.Description, l.Quantity, l.Price, l.PriceCurrency, l.Notes, id)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", l.OrderID, "Updated extra line on "+l.OrderID)
	response.JSON(w, l)
}

// DeleteExtraLine handles DELETE /api/order/po-extra-line/{id}.
func (h *Handler) DeleteExtraLine(w http.ResponseWriter, r *http.Request, id int) {
	var orderID string
	if err := h.DB.QueryRow("SELECT order_id FROM po_extra_lines WHERE id=?", id).Scan(&orderID); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if _, err := h.DB.Exec("DELETE FROM po_extra_lines WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", orderID, "Removed extra line from "+orderID)
	response.JSON(w, map[string]int{"deleted": id})
}
