// Package stock implements the stock item endpoints.
package stock

import (
	"database/sql"
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
	"stockflow/internal/websocket"
)

// Handler holds dependencies for stock handlers.
type Handler struct {
	DB  *sql.DB
	Hub *websocket.Hub
}

const stockColumns = "id,part,COALESCE(location,''),quantity,allocated,COALESCE(batch,''),COALESCE(serial,''),status,COALESCE(supplier_part,0),COALESCE(purchase_order,''),created_at"

func scanStock(row interface{ Scan(...interface{}) error }) (models.StockItem, error) {
	var s models.StockItem
	err := row.Scan(&s.ID, &s.Part, &s.Location, &s.Quantity, &s.Allocated,
		&s.Batch, &s.Serial, &s.Status, &s.SupplierPart, &s.PurchaseOrder, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	s.Available = order.StockAvailable(s.Quantity, s.Allocated)
	return s, nil
}

// List handles GET /api/stock. Filters: part, location, available=true
// (items with unallocated quantity), serial.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT " + stockColumns + " FROM stock_items WHERE 1=1"
	var args []interface{}
	if v := q.Get("part"); v != "" {
		query += " AND part=?"
		args = append(args, v)
	}
	if v := q.Get("location"); v != "" {
		query += " AND location=?"
		args = append(args, v)
	}
	if v := q.Get("serial"); v != "" {
		query += " AND serial=?"
		args = append(args, v)
	}
	if q.Get("available") == "true" {
		query += " AND quantity > allocated"
	}
	query += " ORDER BY id"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []models.StockItem{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			continue
		}
		items = append(items, s)
	}
	response.JSON(w, items)
}

// Get handles GET /api/stock/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, id int) {
	s, err := scanStock(h.DB.QueryRow("SELECT "+stockColumns+" FROM stock_items WHERE id=?", id))
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	response.JSON(w, s)
}

// Create handles POST /api/stock for manual stock intake outside the
// purchase order flow.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var s models.StockItem
	if err := response.DecodeBody(r, &s); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "part", s.Part)
	if s.Serial != "" {
		if s.Quantity == 0 {
			s.Quantity = 1
		}
		if s.Quantity != 1 {
			ve.Add("quantity", "must be 1 for serialized stock")
		}
	} else {
		validation.ValidatePositiveFloat(ve, "quantity", s.Quantity)
		validation.ValidateMaxQuantity(ve, "quantity", s.Quantity)
	}
	if s.Status == 0 {
		s.Status = validation.StockStatusOK
	}
	validation.ValidateStockStatus(ve, "status", s.Status)
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	var trackable int
	if err := h.DB.QueryRow("SELECT trackable FROM parts WHERE id=?", s.Part).Scan(&trackable); err != nil {
		ve.Add("part", "does not exist")
		response.FieldErrs(w, ve)
		return
	}
	if s.Serial != "" && trackable == 0 {
		ve.Add("serial", "part is not trackable")
		response.FieldErrs(w, ve)
		return
	}

	res, err := h.DB.Exec("INSERT INTO stock_items (part,location,quantity,batch,serial,status) VALUES (?,?,?,?,?,?)",
		s.Part, s.Location, order.RoundQuantity(s.Quantity), s.Batch, s.Serial, s.Status)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	id, _ := res.LastInsertId()

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "created", "stock", s.Part, "Added stock for "+s.Part)
	h.Get(w, r, int(id))
}
