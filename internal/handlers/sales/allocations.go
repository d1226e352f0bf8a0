package sales

import (
	"database/sql"
	"fmt"
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// allocStock is the stock item state consulted while validating an
// allocation.
type allocStock struct {
	id        int
	part      string
	quantity  float64
	allocated float64
	serial    string
}

func (h *Handler) stockItem(id int) (allocStock, bool) {
	var s allocStock
	err := h.DB.QueryRow("SELECT id,part,quantity,allocated,COALESCE(serial,'') FROM stock_items WHERE id=?", id).
		Scan(&s.id, &s.part, &s.quantity, &s.allocated, &s.serial)
	return s, err == nil
}

// Allocate handles POST /api/order/so/{id}/allocate. Each item reserves
// stock against one line of the order, within the named shipment.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "stock can only be allocated against a pending order", 400)
		return
	}

	var req order.AllocationRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if len(req.Items) == 0 {
		ve.Add("items", order.ErrNoItems.Error())
		response.FieldErrs(w, ve)
		return
	}
	if !h.validShipment(ve, req.Shipment, id) {
		response.FieldErrs(w, ve)
		return
	}

	// pending allocations per stock item, so multiple rows against the
	// same item in one request are checked cumulatively
	reserved := map[int]float64{}
	for i, item := range req.Items {
		var linePart string
		var lineOrder string
		if err := h.DB.QueryRow("SELECT part, order_id FROM so_lines WHERE id=?", item.LineItem).Scan(&linePart, &lineOrder); err != nil {
			ve.AddIndexed("items", i, "line_item", "does not exist")
			continue
		}
		if lineOrder != id {
			ve.AddIndexed("items", i, "line_item", "does not belong to this order")
			continue
		}
		stock, ok := h.stockItem(item.StockItem)
		if !ok {
			ve.AddIndexed("items", i, "stock_item", "does not exist")
			continue
		}
		if stock.part != linePart {
			ve.AddIndexed("items", i, "stock_item", "part does not match the line item")
			continue
		}
		if item.Quantity <= 0 {
			ve.AddIndexed("items", i, "quantity", "must be a positive number")
			continue
		}
		if stock.serial != "" && item.Quantity != 1 {
			ve.AddIndexed("items", i, "quantity", "must be 1 for serialized stock")
			continue
		}
		available := order.StockAvailable(stock.quantity, stock.allocated) - reserved[stock.id]
		if item.Quantity > available {
			ve.AddIndexed("items", i, "quantity", fmt.Sprintf("exceeds available stock (%g)", available))
			continue
		}
		reserved[stock.id] += item.Quantity
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	for _, item := range req.Items {
		if _, err := tx.Exec("INSERT INTO allocations (line_id,shipment_id,stock_item,quantity) VALUES (?,?,?,?)",
			item.LineItem, req.Shipment, item.StockItem, item.Quantity); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
		if _, err := tx.Exec("UPDATE stock_items SET allocated = allocated + ? WHERE id=?",
			item.Quantity, item.StockItem); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", id,
		fmt.Sprintf("Allocated %d item(s) on %s", len(req.Items), id))
	h.GetOrder(w, r, id)
}

// serialAllocationRequest asks for specific serialized units against one
// line item.
type serialAllocationRequest struct {
	LineItem      int      `json:"line_item"`
	Shipment      string   `json:"shipment"`
	SerialNumbers []string `json:"serial_numbers"`
}

// AllocateSerials handles POST /api/order/so/{id}/allocate-serials. Each
// named serial resolves to one unit allocation.
func (h *Handler) AllocateSerials(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "stock can only be allocated against a pending order", 400)
		return
	}

	var req serialAllocationRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if len(req.SerialNumbers) == 0 {
		ve.Add("serial_numbers", "at least one serial number is required")
		response.FieldErrs(w, ve)
		return
	}

	var linePart, lineOrder string
	if err := h.DB.QueryRow("SELECT part, order_id FROM so_lines WHERE id=?", req.LineItem).Scan(&linePart, &lineOrder); err != nil {
		ve.Add("line_item", "does not exist")
		response.FieldErrs(w, ve)
		return
	}
	if lineOrder != id {
		ve.Add("line_item", "does not belong to this order")
		response.FieldErrs(w, ve)
		return
	}
	if !h.validShipment(ve, req.Shipment, id) {
		response.FieldErrs(w, ve)
		return
	}

	var items []order.AllocationItem
	for i, serial := range req.SerialNumbers {
		var stock allocStock
		err := h.DB.QueryRow("SELECT id,part,quantity,allocated,COALESCE(serial,'') FROM stock_items WHERE part=? AND serial=?",
			linePart, serial).Scan(&stock.id, &stock.part, &stock.quantity, &stock.allocated, &stock.serial)
		if err != nil {
			ve.AddIndexed("serial_numbers", i, "serial", fmt.Sprintf("no stock item with serial '%s'", serial))
			continue
		}
		if order.StockAvailable(stock.quantity, stock.allocated) < 1 {
			ve.AddIndexed("serial_numbers", i, "serial", fmt.Sprintf("serial '%s' is not available", serial))
			continue
		}
		items = append(items, order.AllocationItem{LineItem: req.LineItem, StockItem: stock.id, Quantity: 1})
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	for _, item := range items {
		if _, err := tx.Exec("INSERT INTO allocations (line_id,shipment_id,stock_item,quantity) VALUES (?,?,?,1)",
			item.LineItem, req.Shipment, item.StockItem); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
		if _, err := tx.Exec("UPDATE stock_items SET allocated = allocated + 1 WHERE id=?", item.StockItem); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", id,
		fmt.Sprintf("Allocated %d serialized item(s) on %s", len(items), id))
	h.GetOrder(w, r, id)
}

// validShipment checks the named shipment exists, belongs to the order
// and has not gone out yet.
func (h *Handler) validShipment(ve *validation.ValidationErrors, shipmentID, orderID string) bool {
	if shipmentID == "" {
		ve.Add("shipment", "is required")
		return false
	}
	s, err := scanShipment(h.DB.QueryRow("SELECT "+shipmentColumns+" FROM shipments WHERE id=?", shipmentID))
	if err != nil {
		ve.Add("shipment", "does not exist")
		return false
	}
	if s.OrderID != orderID {
		ve.Add("shipment", "does not belong to this order")
		return false
	}
	if s.ShipmentDate != nil {
		ve.Add("shipment", "has already been shipped")
		return false
	}
	return true
}

// UpdateAllocation handles PATCH /api/order/so-allocation/{id}. Only the
// quantity may change, and only while the shipment is pending.
// GetAllocation handles GET /api/order/so-allocation/{id}.
func (h *Handler) GetAllocation(w http.ResponseWriter, id int) {
	var a models.Allocation
	err := h.DB.QueryRow(`SELECT a.id,a.line_id,a.shipment_id,a.stock_item,a.quantity,
		si.part,COALESCE(si.location,''),COALESCE(si.serial,'')
		FROM allocations a JOIN stock_items si ON si.id = a.stock_item
		WHERE a.id=?`, id).
		Scan(&a.ID, &a.LineID, &a.ShipmentID, &a.StockItem, &a.Quantity, &a.Part, &a.Location, &a.Serial)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	response.JSON(w, a)
}

func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request, id int) {
	var lineID, stockID int
	var shipmentID string
	var current float64
	err := h.DB.QueryRow("SELECT line_id,shipment_id,stock_item,quantity FROM allocations WHERE id=?", id).
		Scan(&lineID, &shipmentID, &stockID, &current)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}

	ve := &validation.ValidationErrors{}
	if h.shipmentShipped(shipmentID) {
		ve.Add("shipment", "has already been shipped")
		response.FieldErrs(w, ve)
		return
	}

	var patch struct {
		Quantity *float64 `json:"quantity"`
	}
	if err := response.DecodeBody(r, &patch); err != nil || patch.Quantity == nil {
		response.Err(w, "invalid body", 400)
		return
	}
	quantity := order.RoundQuantity(*patch.Quantity)

	stock, ok := h.stockItem(stockID)
	if !ok {
		response.Err(w, "stock item not found", 404)
		return
	}
	if quantity <= 0 {
		ve.Add("quantity", "must be a positive number")
	}
	if stock.serial != "" && quantity != 1 {
		ve.Add("quantity", "must be 1 for serialized stock")
	}
	// the item's own reservation is given back before comparing
	if available := order.StockAvailable(stock.quantity, stock.allocated) + current; quantity > available {
		ve.Add("quantity", fmt.Sprintf("exceeds available stock (%g)", available))
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	if _, err := tx.Exec("UPDATE allocations SET quantity=? WHERE id=?", quantity, id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	if _, err := tx.Exec("UPDATE stock_items SET allocated = allocated + ? WHERE id=?", quantity-current, stockID); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	orderID := h.allocationOrder(shipmentID)
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", orderID, "Adjusted allocation on "+orderID)
	h.GetOrder(w, r, orderID)
}

// DeleteAllocation handles DELETE /api/order/so-allocation/{id}.
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request, id int) {
	var stockID int
	var shipmentID string
	var quantity float64
	err := h.DB.QueryRow("SELECT shipment_id,stock_item,quantity FROM allocations WHERE id=?", id).
		Scan(&shipmentID, &stockID, &quantity)
	if err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if h.shipmentShipped(shipmentID) {
		response.Err(w, "cannot remove an allocation from a shipped shipment", 400)
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM allocations WHERE id=?", id); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	if _, err := tx.Exec("UPDATE stock_items SET allocated = MAX(allocated - ?, 0) WHERE id=?", quantity, stockID); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	orderID := h.allocationOrder(shipmentID)
	audit.LogAudit(h.DB, h.Hub, audit.GetUsername(h.DB, r), "updated", "sales_order", orderID, "Removed allocation from "+orderID)
	response.JSON(w, map[string]int{"deleted": id})
}

func (h *Handler) shipmentShipped(shipmentID string) bool {
	var date sql.NullString
	h.DB.QueryRow("SELECT shipment_date FROM shipments WHERE id=?", shipmentID).Scan(&date)
	return date.Valid
}

func (h *Handler) allocationOrder(shipmentID string) string {
	var orderID string
	h.DB.QueryRow("SELECT order_id FROM shipments WHERE id=?", shipmentID).Scan(&orderID)
	return orderID
}
