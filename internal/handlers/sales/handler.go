// Package sales implements the sales order endpoints: CRUD, stock
// allocation, shipments and the pending-shipment completion flow.
package sales

import (
	"database/sql"

	"stockflow/internal/database"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/websocket"
)

// Handler holds dependencies for sales order handlers.
type Handler struct {
	DB  *sql.DB
	Hub *websocket.Hub
}

func (h *Handler) nextID(prefix, table string, digits int) string {
	return database.NextID(h.DB, prefix, table, digits)
}

const soColumns = "id,reference,customer,status,COALESCE(target_date,''),shipment_date,COALESCE(shipped_by,''),COALESCE(notes,''),COALESCE(created_by,''),created_at,updated_at"

func scanSO(row interface{ Scan(...interface{}) error }) (models.SalesOrder, error) {
	var s models.SalesOrder
	var shipped sql.NullString
	err := row.Scan(&s.ID, &s.Reference, &s.Customer, &s.Status, &s.TargetDate,
		&shipped, &s.ShippedBy, &s.Notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.ShipmentDate = database.SP(shipped)
	return s, nil
}

// lineAllocated returns the quantity reserved against the line on
// shipments that have not gone out yet. Allocations on completed
// shipments are already reflected in the line's shipped column.
func (h *Handler) lineAllocated(lineID int) float64 {
	var total float64
	h.DB.QueryRow(`SELECT COALESCE(SUM(a.quantity),0) FROM allocations a
		JOIN shipments sh ON sh.id = a.shipment_id
		WHERE a.line_id=? AND sh.shipment_date IS NULL`, lineID).Scan(&total)
	return total
}

func (h *Handler) getLines(orderID string) []models.SOLine {
	rows, err := h.DB.Query(`SELECT id,order_id,part,quantity,shipped,COALESCE(sale_price,0),COALESCE(notes,'')
		FROM so_lines WHERE order_id=? ORDER BY id`, orderID)
	if err != nil {
		return []models.SOLine{}
	}
	defer rows.Close()
	var lines []models.SOLine
	for rows.Next() {
		var l models.SOLine
		rows.Scan(&l.ID, &l.OrderID, &l.Part, &l.Quantity, &l.Shipped, &l.SalePrice, &l.Notes)
		l.Allocated = h.lineAllocated(l.ID)
		p := order.Progress(l.Shipped, l.Quantity)
		l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
		l.Items = h.lineAllocations(l.ID)
		lines = append(lines, l)
	}
	if lines == nil {
		lines = []models.SOLine{}
	}
	return lines
}

func (h *Handler) lineAllocations(lineID int) []models.Allocation {
	rows, err := h.DB.Query(`SELECT a.id,a.line_id,a.shipment_id,a.stock_item,a.quantity,
		si.part,COALESCE(si.location,''),COALESCE(si.serial,'')
		FROM allocations a JOIN stock_items si ON si.id = a.stock_item
		WHERE a.line_id=? ORDER BY a.id`, lineID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var allocs []models.Allocation
	for rows.Next() {
		var a models.Allocation
		rows.Scan(&a.ID, &a.LineID, &a.ShipmentID, &a.StockItem, &a.Quantity, &a.Part, &a.Location, &a.Serial)
		allocs = append(allocs, a)
	}
	return allocs
}

func (h *Handler) lineCount(orderID string) int {
	var n int
	h.DB.QueryRow("SELECT COUNT(*) FROM so_lines WHERE order_id=?", orderID).Scan(&n)
	return n
}

// pendingShipmentCount counts shipments on the order that have not been
// dispatched yet.
func (h *Handler) pendingShipmentCount(orderID string) int {
	var n int
	h.DB.QueryRow("SELECT COUNT(*) FROM shipments WHERE order_id=? AND shipment_date IS NULL", orderID).Scan(&n)
	return n
}
