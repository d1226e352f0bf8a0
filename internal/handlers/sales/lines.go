package sales

import (
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// ListLines handles GET /api/order/so-line. Filters: order, part,
// outstanding=true (lines with unmet demand).
func (h *Handler) ListLines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT id,order_id,part,quantity,shipped,COALESCE(sale_price,0),COALESCE(notes,'') FROM so_lines WHERE 1=1"
	var args []interface{}
	if v := q.Get("order"); v != "" {
		query += " AND order_id=?"
		args = append(args, v)
	}
	if v := q.Get("part"); v != "" {
		query += " AND part=?"
		args = append(args, v)
	}
	query += " ORDER BY id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	lines := []models.SOLine{}
	outstanding := q.Get("outstanding") == "true"
	for rows.Next() {
		var l models.SOLine
		rows.Scan(&l.ID, &l.OrderID, &l.Part, &l.Quantity, &l.Shipped, &l.SalePrice, &l.Notes)
		l.Allocated = h.lineAllocated(l.ID)
		state := order.SOLineState{Quantity: l.Quantity, Allocated: l.Allocated, Shipped: l.Shipped}
		if outstanding && state.Remaining() <= 0 {
			continue
		}
		p := order.Progress(l.Shipped, l.Quantity)
		l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
		lines = append(lines, l)
	}
	response.JSON(w, lines)
}

// CreateLine handles POST /api/order/so-line.
func (h *Handler) CreateLine(w http.ResponseWriter, r *http.Request) {
	var l models.SOLine
	if err := response.DecodeBody(r, &l); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "order", l.OrderID)
	validation.RequireField(ve, "part", l.Part)
	validation.ValidatePositiveFloat(ve, "quantity", l.Quantity)
	validation.ValidateMaxQuantity(ve, "quantity", l.Quantity)
	validation.ValidateNonNegativeFloat(ve, "sale_price", l.SalePrice)
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", l.OrderID).Scan(&status); err != nil {
		response.Err(w, "order not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "lines can only be added to a pending order", 400)
		return
	}
	var salable int
	if err := h.DB.QueryRow("SELECT salable FROM parts WHERE id=?", l.Part).Scan(&salable); err != nil {
		ve.Add("part", "does not exist")
	} else if salable == 0 {
		ve.Add("part", "is not salable")
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	res, err := h.DB.Exec("INSERT INTO so_lines (order_id,part,quantity,sale_price,notes) VALUES (?,?,?,?,?)",
		l.OrderID, l.Part, l.Quantity, l.SalePrice, l.Notes)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	id, _ := res.LastInsertId()

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", l.OrderID, "Added line to "+l.OrderID)
	h.GetLine(w, int(id))
}

// GetLine handles GET /api/order/so-line/{id}.
func (h *Handler) GetLine(w http.ResponseWriter, id int) {
	var l models.SOLine
	err := h.DB.QueryRow("SELECT id,order_id,part,quantity,shipped,COALESCE(sale_price,0),COALESCE(notes,'') FROM so_lines WHERE id=?", id).
		Scan(&l.ID, &l.OrderID, &l.Part, &l.Quantity, &l.Shipped, &l.SalePrice, &l.Notes)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	l.Allocated = h.lineAllocated(l.ID)
	p := order.Progress(l.Shipped, l.Quantity)
	l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
	l.Items = h.lineAllocations(l.ID)
	response.JSON(w, l)
}

// UpdateLine handles PATCH /api/order/so-line/{id}.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request, id int) {
	var orderID string
	var shipped float64
	if err := h.DB.QueryRow("SELECT order_id, shipped FROM so_lines WHERE id=?", id).Scan(&orderID, &shipped); err != nil {
		response.Err(w, "not found", 404)
		return
	}

	var patch struct {
		Quantity  *float64 `json:"quantity"`
		SalePrice *float64 `json:"sale_price"`
		Notes     *string  `json:"notes"`
	}
	if err := response.DecodeBody(r, &patch); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if patch.Quantity != nil {
		validation.ValidatePositiveFloat(ve, "quantity", *patch.Quantity)
		validation.ValidateMaxQuantity(ve, "quantity", *patch.Quantity)
		if *patch.Quantity < shipped {
			ve.Add("quantity", "cannot be lower than the shipped quantity")
		}
	}
	if patch.SalePrice != nil {
		validation.ValidateNonNegativeFloat(ve, "sale_price", *patch.SalePrice)
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	if patch.Quantity != nil {
		h.DB.Exec("UPDATE so_lines SET quantity=? WHERE id=?", *patch.Quantity, id)
	}
	if patch.SalePrice != nil {
		h.DB.Exec("UPDATE so_lines SET sale_price=? WHERE id=?", *patch.SalePrice, id)
	}
	if patch.Notes != nil {
		h.DB.Exec("UPDATE so_lines SET notes=? WHERE id=?", *patch.Notes, id)
	}

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", orderID, "Updated line on "+orderID)
	h.GetLine(w, id)
}

// DeleteLine handles DELETE /api/order/so-line/{id}. Lines with shipped
// or allocated stock cannot be removed.
func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request, id int) {
	var orderID string
	var shipped float64
	if err := h.DB.QueryRow("SELECT order_id, shipped FROM so_lines WHERE id=?", id).Scan(&orderID, &shipped); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if shipped > 0 {
		response.Err(w, "cannot delete a line that has shipped stock", 400)
		return
	}
	if h.lineAllocated(id) > 0 {
		response.Err(w, "cannot delete a line with allocated stock", 400)
		return
	}
	if _, err := h.DB.Exec("DELETE FROM so_lines WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", orderID, "Removed line from "+orderID)
	response.JSON(w, map[string]int{"deleted": id})
}
