package purchase

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

// ListOrders handles GET /api/order/po.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	supplier := r.URL.Query().Get("supplier")
	outstanding := r.URL.Query().Get("outstanding")

	query := "SELECT " + poColumns + " FROM purchase_orders"
	var conditions []string
	var args []interface{}

	if status != "" {
		conditions = append(conditions, "status=?")
		args = append(args, status)
	}
	if supplier != "" {
		conditions = append(conditions, "supplier LIKE ?")
		args = append(args, "%"+supplier+"%")
	}
	if outstanding == "true" {
		conditions = append(conditions, "status IN ('pending','placed')")
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
	var items []models.PurchaseOrder
	for rows.Next() {
		p, err := scanPO(rows)
		if err != nil {
			continue
		}
		h.annotate(&p)
		items = append(items, p)
	}
	if items == nil {
		items = []models.PurchaseOrder{}
	}
	if r.URL.Query().Get("ordering") == "progress" {
		h.sortByProgress(items)
	}
	response.JSON(w, items)
}

// sortByProgress orders the list by received/quantity using the progress
// sort rule the tables rely on.
func (h *Handler) sortByProgress(items []models.PurchaseOrder) {
	type totals struct{ received, quantity float64 }
	cache := make(map[string]totals, len(items))
	for _, p := range items {
		var t totals
		h.DB.QueryRow("SELECT COALESCE(SUM(received),0), COALESCE(SUM(quantity),0) FROM po_lines WHERE order_id=?", p.ID).
			Scan(&t.received, &t.quantity)
		cache[p.ID] = t
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := cache[items[i].ID], cache[items[j].ID]
		return order.CompareProgress(a.received, a.quantity, b.received, b.quantity) < 0
	})
}

func (h *Handler) annotate(p *models.PurchaseOrder) {
	p.LineItems = h.lineCount(p.ID)
	if p.TargetDate != "" && (p.Status == "pending" || p.Status == "placed") {
		if td, err := time.Parse("2006-01-02", p.TargetDate); err == nil {
			p.Overdue = td.Before(time.Now())
		}
	}
}

// GetOrder handles GET /api/order/po/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, id string) {
	p, err := scanPO(h.DB.QueryRow("SELECT "+poColumns+" FROM purchase_orders WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	h.annotate(&p)
	p.Lines = h.getLines(id)
	response.JSON(w, p)
}

// CreateOrder handles POST /api/order/po.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var p models.PurchaseOrder
	if err := response.DecodeBody(r, &p); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "supplier", p.Supplier)
	validation.ValidateDate(ve, "target_date", p.TargetDate)
	if p.Status != "" {
		validation.ValidateEnum(ve, "status", p.Status, validation.ValidPOStatuses)
	}
	for i, l := range p.Lines {
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

	p.ID = h.nextID("PO", "purchase_orders", 4)
	if p.Reference == "" {
		p.Reference = p.ID
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	p.CreatedBy = audit.GetUsername(h.DB, r)
	_, err := h.DB.Exec("INSERT INTO purchase_orders (id,reference,supplier,status,target_date,notes,created_by,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)",
		p.ID, p.Reference, p.Supplier, p.Status, p.TargetDate, p.Notes, p.CreatedBy, now, now)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	for _, l := range p.Lines {
		h.DB.Exec("INSERT INTO po_lines (order_id,part,supplier_part,quantity,purchase_price,destination,notes) VALUES (?,?,?,?,?,?,?)",
			p.ID, l.Part, nullableID(l.SupplierPart), l.Quantity, l.PurchasePrice, l.Destination, l.Notes)
	}

	audit.LogAudit(h.DB, h.Hub, p.CreatedBy, "created", "purchase_order", p.ID, "Created "+p.ID+" for "+p.Supplier)
	h.GetOrder(w, r, p.ID)
}

func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// UpdateOrder handles PATCH /api/order/po/{id}. Only mutable fields are
// touched; status moves through the lifecycle endpoints instead.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := scanPO(h.DB.QueryRow("SELECT "+poColumns+" FROM purchase_orders WHERE id=?", id))
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
	apply("supplier", &existing.Supplier)
	apply("reference", &existing.Reference)
	apply("target_date", &existing.TargetDate)
	apply("notes", &existing.Notes)
	validation.RequireField(ve, "supplier", existing.Supplier)
	validation.ValidateDate(ve, "target_date", existing.TargetDate)
	if _, ok := patch["status"]; ok {
		ve.Add("status", "status changes via issue/complete/cancel")
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	_, err = h.DB.Exec("UPDATE purchase_orders SET supplier=?,reference=?,target_date=?,notes=?,updated_at=? WHERE id=?",
		existing.Supplier, existing.Reference, existing.TargetDate, existing.Notes, now, id)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "purchase_order", id, "Updated "+id)
	h.GetOrder(w, r, id)
}

// DeleteOrder handles DELETE /api/order/po/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status == "placed" || status == "complete" {
		response.Err(w, "cannot delete an order that has been placed", 400)
		return
	}
	if _, err := h.DB.Exec("DELETE FROM purchase_orders WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "deleted", "purchase_order", id, "Deleted "+id)
	response.JSON(w, map[string]string{"deleted": id})
}

// IssueOrder handles POST /api/order/po/{id}/issue. A pending order
// becomes placed; receipt is only possible afterwards.
func (h *Handler) IssueOrder(w http.ResponseWriter, r *http.Request, id string) {
	h.transition(w, r, id, "pending", "placed", func(now string) string {
		h.DB.Exec("UPDATE purchase_orders SET issue_date=? WHERE id=?", now[:10], id)
		return "Placed " + id
	})
}

// CompleteOrder handles POST /api/order/po/{id}/complete.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		AcceptIncomplete bool `json:"accept_incomplete"`
	}
	response.DecodeBody(r, &body)

	if !body.AcceptIncomplete && h.pendingLineCount(id) > 0 {
		ve := &validation.ValidationErrors{}
		ve.Add("accept_incomplete", "order has incomplete line items")
		response.FieldErrs(w, ve)
		return
	}
	h.transition(w, r, id, "placed", "complete", func(now string) string {
		h.DB.Exec("UPDATE purchase_orders SET complete_date=? WHERE id=?", now[:10], id)
		return "Completed " + id
	})
}

// CancelOrder handles POST /api/order/po/{id}/cancel. Allowed while the
// order is pending or placed.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" && status != "placed" {
		response.Err(w, fmt.Sprintf("order cannot be cancelled from status '%s'", status), 400)
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	h.DB.Exec("UPDATE purchase_orders SET status='cancelled',updated_at=? WHERE id=?", now, id)
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "cancelled", "purchase_order", id, "Cancelled "+id)
	h.GetOrder(w, r, id)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, id, from, to string, extra func(now string) string) {
	var current string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", id).Scan(&current); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if current != from {
		response.Err(w, fmt.Sprintf("order must be in '%s' status (currently '%s')", from, current), 400)
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	h.DB.Exec("UPDATE purchase_orders SET status=?,updated_at=? WHERE id=?", to, now, id)
	summary := extra(now)
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), to, "purchase_order", id, summary)
	h.GetOrder(w, r, id)
}
