package sales

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// ListOrders handles GET /api/order/so.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT " + soColumns + " FROM sales_orders"
	var conditions []string
	var args []interface{}

	if v := q.Get("status"); v != "" {
		conditions = append(conditions, "status=?")
		args = append(args, v)
	}
	if v := q.Get("customer"); v != "" {
		conditions = append(conditions, "customer LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if q.Get("outstanding") == "true" {
		conditions = append(conditions, "status = 'pending'")
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []models.SalesOrder
	for rows.Next() {
		s, err := scanSO(rows)
		if err != nil {
			continue
		}
		h.annotate(&s)
		items = append(items, s)
	}
	if items == nil {
		items = []models.SalesOrder{}
	}
	if q.Get("ordering") == "progress" {
		h.sortByProgress(items)
	}
	response.JSON(w, items)
}

func (h *Handler) sortByProgress(items []models.SalesOrder) {
	type totals struct{ shipped, quantity float64 }
	cache := make(map[string]totals, len(items))
	for _, s := range items {
		var t totals
		h.DB.QueryRow("SELECT COALESCE(SUM(shipped),0), COALESCE(SUM(quantity),0) FROM so_lines WHERE order_id=?", s.ID).
			Scan(&t.shipped, &t.quantity)
		cache[s.ID] = t
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := cache[items[i].ID], cache[items[j].ID]
		return order.CompareProgress(a.shipped, a.quantity, b.shipped, b.quantity) < 0
	})
}

func (h *Handler) annotate(s *models.SalesOrder) {
	s.LineItems = h.lineCount(s.ID)
	if s.TargetDate != "" && s.Status == "pending" {
		if td, err := time.Parse("2006-01-02", s.TargetDate); err == nil {
			s.Overdue = td.Before(time.Now())
		}
	}
}

// GetOrder handles GET /api/order/so/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, id string) {
	s, err := scanSO(h.DB.QueryRow("SELECT "+soColumns+" FROM sales_orders WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	h.annotate(&s)
	s.Lines = h.getLines(id)
	response.JSON(w, s)
}

// CreateOrder handles POST /api/order/so. A default shipment is created
// alongside the order so allocations have somewhere to land.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var s models.SalesOrder
	if err := response.DecodeBody(r, &s); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "customer", s.Customer)
	validation.ValidateDate(ve, "target_date", s.TargetDate)
	for i, l := range s.Lines {
		if l.Part == "" {
			ve.AddIndexed("lines", i, "part", "is required")
		}
		if l.Quantity <= 0 {
			ve.AddIndexed("lines", i, "quantity", "must be a positive number")
		}
		validation.ValidateMaxQuantity(ve, fmt.Sprintf("lines[%d].quantity", i), l.Quantity)
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}
	for i, l := range s.Lines {
		var salable int
		if err := h.DB.QueryRow("SELECT salable FROM parts WHERE id=?", l.Part).Scan(&salable); err != nil {
			ve.AddIndexed("lines", i, "part", "does not exist")
		} else if salable == 0 {
			ve.AddIndexed("lines", i, "part", "is not salable")
		}
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	s.ID = h.nextID("SO", "sales_orders", 4)
	if s.Reference == "" {
		s.Reference = s.ID
	}
	s.Status = "pending"
	now := time.Now().Format("2006-01-02 15:04:05")
	s.CreatedBy = audit.GetUsername(h.DB, r)
	_, err := h.DB.Exec("INSERT INTO sales_orders (id,reference,customer,status,target_date,notes,created_by,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)",
		s.ID, s.Reference, s.Customer, s.Status, s.TargetDate, s.Notes, s.CreatedBy, now, now)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	for _, l := range s.Lines {
		h.DB.Exec("INSERT INTO so_lines (order_id,part,quantity,sale_price,notes) VALUES (?,?,?,?,?)",
			s.ID, l.Part, l.Quantity, l.SalePrice, l.Notes)
	}

	shipID := h.nextID("SH", "shipments", 4)
	h.DB.Exec("INSERT INTO shipments (id,order_id,reference) VALUES (?,?,?)", shipID, s.ID, "1")

	audit.LogAudit(h.DB, h.Hub, s.CreatedBy, "created", "sales_order", s.ID, "Created "+s.ID+" for "+s.Customer)
	h.GetOrder(w, r, s.ID)
}

// UpdateOrder handles PATCH /api/order/so/{id}.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := scanSO(h.DB.QueryRow("SELECT "+soColumns+" FROM sales_orders WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}

	patch := map[string]*string{}
	if err := response.DecodeBody(r, &patch); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	apply := func(field string, dst *string) {
		if v, ok := patch[field]; ok && v != nil {
			*dst = *v
		}
	}
	apply("customer", &existing.Customer)
	apply("reference", &existing.Reference)
	apply("target_date", &existing.TargetDate)
	apply("notes", &existing.Notes)
	validation.RequireField(ve, "customer", existing.Customer)
	validation.ValidateDate(ve, "target_date", existing.TargetDate)
	if _, ok := patch["status"]; ok {
		ve.Add("status", "status changes via complete/cancel")
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	_, err = h.DB.Exec("UPDATE sales_orders SET customer=?,reference=?,target_date=?,notes=?,updated_at=? WHERE id=?",
		existing.Customer, existing.Reference, existing.TargetDate, existing.Notes, now, id)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", id, "Updated "+id)
	h.GetOrder(w, r, id)
}

// DeleteOrder handles DELETE /api/order/so/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status == "shipped" {
		response.Err(w, "cannot delete a shipped order", 400)
		return
	}
	h.releaseAllocations(id)
	if _, err := h.DB.Exec("DELETE FROM sales_orders WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "deleted", "sales_order", id, "Deleted "+id)
	response.JSON(w, map[string]string{"deleted": id})
}

// CompleteOrder handles POST /api/order/so/{id}/complete. The order can
// only be marked shipped once every shipment has gone out; lines with
// outstanding quantity require accept_incomplete.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, fmt.Sprintf("order must be pending (currently '%s')", status), 400)
		return
	}

	var body struct {
		AcceptIncomplete bool `json:"accept_incomplete"`
	}
	response.DecodeBody(r, &body)

	ve := &validation.ValidationErrors{}
	var pendingWithAllocs int
	h.DB.QueryRow(`SELECT COUNT(*) FROM shipments sh WHERE sh.order_id=? AND sh.shipment_date IS NULL
		AND EXISTS (SELECT 1 FROM allocations a WHERE a.shipment_id = sh.id)`, id).Scan(&pendingWithAllocs)
	if pendingWithAllocs > 0 {
		ve.Add("shipments", "order has pending shipments with allocated stock")
	}
	if !body.AcceptIncomplete {
		var incomplete int
		h.DB.QueryRow("SELECT COUNT(*) FROM so_lines WHERE order_id=? AND shipped < quantity", id).Scan(&incomplete)
		if incomplete > 0 {
			ve.Add("accept_incomplete", "order has incomplete line items")
		}
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	username := audit.GetUsername(h.DB, r)
	now := time.Now().Format("2006-01-02 15:04:05")
	h.DB.Exec("UPDATE sales_orders SET status='shipped',shipment_date=?,shipped_by=?,updated_at=? WHERE id=?",
		now[:10], username, now, id)
	audit.LogAudit(h.DB, h.Hub, username, "shipped", "sales_order", id, "Completed "+id)
	h.GetOrder(w, r, id)
}

// CancelOrder handles POST /api/order/so/{id}/cancel. Allocations are
// released back to stock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, fmt.Sprintf("order cannot be cancelled from status '%s'", status), 400)
		return
	}
	h.releaseAllocations(id)
	now := time.Now().Format("2006-01-02 15:04:05")
	h.DB.Exec("UPDATE sales_orders SET status='cancelled',updated_at=? WHERE id=?", now, id)
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "cancelled", "sales_order", id, "Cancelled "+id)
	h.GetOrder(w, r, id)
}

// releaseAllocations deletes every allocation on the order's pending
// shipments and gives the reserved quantity back to the stock items.
func (h *Handler) releaseAllocations(orderID string) {
	rows, err := h.DB.Query(`SELECT a.id, a.stock_item, a.quantity FROM allocations a
		JOIN shipments sh ON sh.id = a.shipment_id
		WHERE sh.order_id=? AND sh.shipment_date IS NULL`, orderID)
	if err != nil {
		return
	}
	type alloc struct {
		id, stockItem int
		quantity      float64
	}
	var allocs []alloc
	for rows.Next() {
		var a alloc
		rows.Scan(&a.id, &a.stockItem, &a.quantity)
		allocs = append(allocs, a)
	}
	rows.Close()
	for _, a := range allocs {
		h.DB.Exec("UPDATE stock_items SET allocated = MAX(allocated - ?, 0) WHERE id=?", a.quantity, a.stockItem)
		h.DB.Exec("DELETE FROM allocations WHERE id=?", a.id)
	}
}
