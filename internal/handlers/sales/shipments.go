package sales

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockflow/internal/audit"
	"stockflow/internal/database"
	"stockflow/internal/models"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

const shipmentColumns = "id,order_id,reference,shipment_date,COALESCE(tracking_number,''),COALESCE(invoice_number,''),COALESCE(link,''),COALESCE(checked_by,''),COALESCE(notes,''),created_at"

func scanShipment(row interface{ Scan(...interface{}) error }) (models.Shipment, error) {
	var s models.Shipment
	var date sql.NullString
	err := row.Scan(&s.ID, &s.OrderID, &s.Reference, &date, &s.TrackingNumber,
		&s.InvoiceNumber, &s.Link, &s.CheckedBy, &s.Notes, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	s.ShipmentDate = database.SP(date)
	return s, nil
}

func (h *Handler) shipmentAllocations(shipmentID string) []models.Allocation {
	rows, err := h.DB.Query(`SELECT a.id,a.line_id,a.shipment_id,a.stock_item,a.quantity,
		si.part,COALESCE(si.location,''),COALESCE(si.serial,'')
		FROM allocations a JOIN stock_items si ON si.id = a.stock_item
		WHERE a.shipment_id=? ORDER BY a.id`, shipmentID)
	if err != nil {
		return []models.Allocation{}
	}
	defer rows.Close()
	allocs := []models.Allocation{}
	for rows.Next() {
		var a models.Allocation
		rows.Scan(&a.ID, &a.LineID, &a.ShipmentID, &a.StockItem, &a.Quantity, &a.Part, &a.Location, &a.Serial)
		allocs = append(allocs, a)
	}
	return allocs
}

// ListShipments handles GET /api/order/so/shipment. Filters: order,
// pending=true.
func (h *Handler) ListShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT " + shipmentColumns + " FROM shipments WHERE 1=1"
	var args []interface{}
	if v := q.Get("order"); v != "" {
		query += " AND order_id=?"
		args = append(args, v)
	}
	if q.Get("pending") == "true" {
		query += " AND shipment_date IS NULL"
	}
	query += " ORDER BY id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	shipments := []models.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			continue
		}
		s.Allocations = h.shipmentAllocations(s.ID)
		shipments = append(shipments, s)
	}
	response.JSON(w, shipments)
}

// GetShipment handles GET /api/order/so/shipment/{id}.
func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request, id string) {
	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	s.Allocations = h.shipmentAllocations(id)
	response.JSON(w, s)
}

// CreateShipment handles POST /api/order/so/shipment. The reference
// defaults to the next number in the order's shipment sequence; a
// duplicate reference on the same order is rejected by the database.
func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var s models.Shipment
	if err := response.DecodeBody(r, &s); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "order", s.OrderID)
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", s.OrderID).Scan(&status); err != nil {
		response.Err(w, "order not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "shipments can only be added to a pending order", 400)
		return
	}

	if s.Reference == "" {
		var n int
		h.DB.QueryRow("SELECT COUNT(*) FROM shipments WHERE order_id=?", s.OrderID).Scan(&n)
		s.Reference = strconv.Itoa(n + 1)
	}

	s.ID = h.nextID("SH", "shipments", 4)
	_, err := h.DB.Exec("INSERT INTO shipments (id,order_id,reference,tracking_number,invoice_number,link,notes) VALUES (?,?,?,?,?,?,?)",
		s.ID, s.OrderID, s.Reference, s.TrackingNumber, s.InvoiceNumber, s.Link, s.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			ve.Add("reference", "already exists on this order")
			response.FieldErrs(w, ve)
			return
		}
		response.Err(w, err.Error(), 500)
		return
	}

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", s.OrderID, "Added shipment "+s.Reference+" to "+s.OrderID)
	h.GetShipment(w, r, s.ID)
}

// UpdateShipment handles PATCH /api/order/so/shipment/{id}. Once a
// shipment has gone out only tracking, invoice and link may change.
func (h *Handler) UpdateShipment(w http.ResponseWriter, r *http.Request, id string) {
	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}

	var patch struct {
		Reference      *string `json:"reference"`
		TrackingNumber *string `json:"tracking_number"`
		InvoiceNumber  *string `json:"invoice_number"`
		Link           *string `json:"link"`
		Notes          *string `json:"notes"`
	}
	if err := response.DecodeBody(r, &patch); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	shipped := s.ShipmentDate != nil
	if patch.Reference != nil {
		if shipped {
			ve.Add("reference", "cannot change the reference of a shipped shipment")
		} else if strings.TrimSpace(*patch.Reference) == "" {
			ve.Add("reference", "is required")
		} else {
			s.Reference = *patch.Reference
		}
	}
	if patch.TrackingNumber != nil {
		s.TrackingNumber = *patch.TrackingNumber
	}
	if patch.InvoiceNumber != nil {
		s.InvoiceNumber = *patch.InvoiceNumber
	}
	if patch.Link != nil {
		s.Link = *patch.Link
	}
	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	_, err = h.DB.Exec("UPDATE shipments SET reference=?,tracking_number=?,invoice_number=?,link=?,notes=? WHERE id=?",
		s.Reference, s.TrackingNumber, s.InvoiceNumber, s.Link, s.Notes, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			ve.Add("reference", "already exists on this order")
			response.FieldErrs(w, ve)
			return
		}
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", s.OrderID, "Updated shipment "+s.Reference)
	h.GetShipment(w, r, id)
}

// DeleteShipment handles DELETE /api/order/so/shipment/{id}. Shipments
// that have gone out or carry allocations cannot be removed.
func (h *Handler) DeleteShipment(w http.ResponseWriter, r *http.Request, id string) {
	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if s.ShipmentDate != nil {
		response.Err(w, "cannot delete a shipped shipment", 400)
		return
	}
	var allocs int
	h.DB.QueryRow("SELECT COUNT(*) FROM allocations WHERE shipment_id=?", id).Scan(&allocs)
	if allocs > 0 {
		response.Err(w, "cannot delete a shipment with allocated stock", 400)
		return
	}
	if _, err := h.DB.Exec("DELETE FROM shipments WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", s.OrderID, "Removed shipment "+s.Reference)
	response.JSON(w, map[string]string{"deleted": id})
}

// shipmentPatch carries the optional fields recorded when a shipment is
// completed.
type shipmentPatch struct {
	ShipmentDate   string `json:"shipment_date"`
	TrackingNumber string `json:"tracking_number"`
	InvoiceNumber  string `json:"invoice_number"`
	Link           string `json:"link"`
}

// ShipShipment handles POST /api/order/so/shipment/{id}/ship.
func (h *Handler) ShipShipment(w http.ResponseWriter, r *http.Request, id string) {
	var body shipmentPatch
	response.DecodeBody(r, &body)

	username := audit.GetUsername(h.DB, r)
	if ve := h.completeShipment(id, body, username); ve != nil {
		response.FieldErrs(w, ve)
		return
	}

	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	audit.LogAudit(h.DB, h.Hub, username, "shipped", "sales_order", s.OrderID, "Shipped "+s.Reference+" on "+s.OrderID)
	s.Allocations = h.shipmentAllocations(id)
	response.JSON(w, s)
}

// completeShipment dispatches a pending shipment: stock leaves the
// system, each line's shipped quantity grows by its allocated amount and
// the shipment date is stamped. Returns field errors when the shipment
// cannot go out.
func (h *Handler) completeShipment(id string, patch shipmentPatch, username string) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}

	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", id))
	if err != nil {
		ve.Add("shipment", "does not exist")
		return ve
	}
	if s.ShipmentDate != nil {
		ve.Add("shipment", "has already been shipped")
		return ve
	}
	allocs := h.shipmentAllocations(id)
	if len(allocs) == 0 {
		ve.Add("shipment", "has no allocated stock")
		return ve
	}

	date := patch.ShipmentDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		ve.Add("shipment_date", "must be a valid date (YYYY-MM-DD)")
		return ve
	}

	tx, err := h.DB.Begin()
	if err != nil {
		ve.Add("shipment", err.Error())
		return ve
	}
	defer tx.Rollback()

	for _, a := range allocs {
		if _, err := tx.Exec("UPDATE stock_items SET quantity = quantity - ?, allocated = allocated - ? WHERE id=?",
			a.Quantity, a.Quantity, a.StockItem); err != nil {
			ve.Add("shipment", err.Error())
			return ve
		}
		if _, err := tx.Exec("UPDATE so_lines SET shipped = shipped + ? WHERE id=?", a.Quantity, a.LineID); err != nil {
			ve.Add("shipment", err.Error())
			return ve
		}
	}

	tracking := patch.TrackingNumber
	if tracking == "" {
		tracking = s.TrackingNumber
	}
	invoice := patch.InvoiceNumber
	if invoice == "" {
		invoice = s.InvoiceNumber
	}
	link := patch.Link
	if link == "" {
		link = s.Link
	}
	if _, err := tx.Exec("UPDATE shipments SET shipment_date=?,tracking_number=?,invoice_number=?,link=?,checked_by=? WHERE id=?",
		date, tracking, invoice, link, username, id); err != nil {
		ve.Add("shipment", err.Error())
		return ve
	}
	if err := tx.Commit(); err != nil {
		ve.Add("shipment", err.Error())
		return ve
	}
	return nil
}
