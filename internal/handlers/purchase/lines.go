package purchase

import (
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// ListLines handles GET /api/order/po-line. Filters: order, pending=true
// (lines with outstanding receipt), part.
func (h *Handler) ListLines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := `SELECT l.id,l.order_id,l.part,COALESCE(l.supplier_part,0),l.quantity,l.received,
		COALESCE(l.purchase_price,0),COALESCE(l.destination,''),COALESCE(l.notes,''),COALESCE(sp.pack_size,1)
		FROM po_lines l LEFT JOIN supplier_parts sp ON sp.id = l.supplier_part WHERE 1=1`
	var args []interface{}
	if v := q.Get("order"); v != "" {
		query += " AND l.order_id=?"
		args = append(args, v)
	}
	if v := q.Get("part"); v != "" {
		query += " AND l.part=?"
		args = append(args, v)
	}
	if q.Get("pending") == "true" {
		query += " AND l.received < l.quantity"
	}
	query += " ORDER BY l.id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	lines := []models.POLine{}
	for rows.Next() {
		var l models.POLine
		rows.Scan(&l.ID, &l.OrderID, &l.Part, &l.SupplierPart, &l.Quantity, &l.Received,
			&l.PurchasePrice, &l.Destination, &l.Notes, &l.PackSize)
		p := order.Progress(l.Received, l.Quantity)
		l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
		lines = append(lines, l)
	}
	response.JSON(w, lines)
}

// CreateLine handles POST /api/order/po-line. Lines can only be added
// while the order is pending.
func (h *Handler) CreateLine(w http.ResponseWriter, r *http.Request) {
	var l models.POLine
	if err := response.DecodeBody(r, &l); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "order", l.OrderID)
	validation.RequireField(ve, "part", l.Part)
	validation.ValidatePositiveFloat(ve, "quantity", l.Quantity)
	validation.ValidateMaxQuantity(ve, "quantity", l.Quantity)
	validation.ValidateNonNegativeFloat(ve, "purchase_price", l.PurchasePrice)
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	var status string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", l.OrderID).Scan(&status); err != nil {
		response.Err(w, "order not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "lines can only be added to a pending order", 400)
		return
	}
	if l.SupplierPart != 0 {
		var part string
		if err := h.DB.QueryRow("SELECT part FROM supplier_parts WHERE id=?", l.SupplierPart).Scan(&part); err != nil {
			ve.Add("supplier_part", "does not exist")
		} else if part != l.Part {
			ve.Add("supplier_part", "does not match the line part")
		}
		if ve.HasErrors() {
			response.FieldErrs(w, ve)
			return
		}
	}

	res, err := h.DB.Exec("INSERT INTO po_lines (order_id,part,supplier_part,quantity,purchase_price,destination,notes) VALUES (?,?,?,?,?,?,?)",
		l.OrderID, l.Part, nullableID(l.SupplierPart), l.Quantity, l.PurchasePrice, l.Destination, l.Notes)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	lineID, _ := res.LastInsertId()
	l.ID = int(lineID)

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", l.OrderID, "Added line to "+l.OrderID)
	h.GetLine(w, l.ID)
}

// GetLine handles GET /api/order/po-line/{id}.
func (h *Handler) GetLine(w http.ResponseWriter, id int) {
	var l models.POLine
	err := h.DB.QueryRow(`SELECT l.id,l.order_id,l.part,COALESCE(l.supplier_part,0),l.quantity,l.received,
		COALESCE(l.purchase_price,0),COALESCE(l.destination,''),COALESCE(l.notes,''),COALESCE(sp.pack_size,1)
		FROM po_lines l LEFT JOIN supplier_parts sp ON sp.id = l.supplier_part WHERE l.id=?`, id).
		Scan(&l.ID, &l.OrderID, &l.Part, &l.SupplierPart, &l.Quantity, &l.Received,
			&l.PurchasePrice, &l.Destination, &l.Notes, &l.PackSize)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	p := order.Progress(l.Received, l.Quantity)
	l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
	response.JSON(w, l)
}

// UpdateLine handles PATCH /api/order/po-line/{id}.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request, id int) {
	var orderID string
	var received float64
	if err := h.DB.QueryRow("SELECT order_id, received FROM po_lines WHERE id=?", id).Scan(&orderID, &received); err != nil {
		response.Err(w, "not found", 404)
		return
	}

	var patch struct {
		Quantity      *float64 `json:"quantity"`
		PurchasePrice *float64 `json:"purchase_price"`
		Destination   *string  `json:"destination"`
		Notes         *string  `json:"notes"`
	}
	if err := response.DecodeBody(r, &patch); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if patch.Quantity != nil {
		validation.ValidatePositiveFloat(ve, "quantity", *patch.Quantity)
		validation.ValidateMaxQuantity(ve, "quantity", *patch.Quantity)
		if *patch.Quantity < received {
			ve.Add("quantity", "cannot be lower than the received quantity")
		}
	}
	if patch.PurchasePrice != nil {
		validation.ValidateNonNegativeFloat(ve, "purchase_price", *patch.PurchasePrice)
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	if patch.Quantity != nil {
		h.DB.Exec("UPDATE po_lines SET quantity=? WHERE id=?", *patch.Quantity, id)
	}
	if patch.PurchasePrice != nil {
		h.DB.Exec("UPDATE po_lines SET purchase_price=? WHERE id=?", *patch.PurchasePrice, id)
	}
	if patch.Destination != nil {
		h.DB.Exec("UPDATE po_lines SET destination=? WHERE id=?", *patch.Destination, id)
	}
	if patch.Notes != nil {
		h.DB.Exec("UPDATE po_lines SET notes=? WHERE id=?", *patch.Notes, id)
	}

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", orderID, "Updated line on "+orderID)
	h.GetLine(w, id)
}

// DeleteLine handles DELETE /api/order/po-line/{id}. Lines with received
// stock cannot be removed.
func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request, id int) {
	var orderID string
	var received float64
	if err := h.DB.QueryRow("SELECT order_id, received FROM po_lines WHERE id=?", id).Scan(&orderID, &received); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if received > 0 {
		response.Err(w, "cannot delete a line that has received stock", 400)
		return
	}
	if _, err := h.DB.Exec("DELETE FROM po_lines WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", orderID, "Removed line from "+orderID)
	response.JSON(w, map[string]int{"deleted": id})
}
