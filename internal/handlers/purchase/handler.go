// Package purchase implements the purchase order endpoints: CRUD,
// lifecycle transitions and receipt of line items into stock.
package purchase

import (
	"database/sql"

	"stockflow/internal/database"
	"stockflow/internal/models"
	"stockflow/internal/order"
	"stockflow/internal/websocket"
)

// Handler holds dependencies for purchase order handlers.
type Handler struct {
	DB  *sql.DB
	Hub *websocket.Hub

	// DefaultLocation receives stock when neither the request nor the
	// line names a destination.
	DefaultLocation string
}

func (h *Handler) nextID(prefix, table string, digits int) string {
	return database.NextID(h.DB, prefix, table, digits)
}

const poColumns = "id,reference,supplier,status,COALESCE(target_date,''),issue_date,complete_date,COALESCE(received_by,''),COALESCE(notes,''),COALESCE(created_by,''),created_at,updated_at"

func scanPO(row interface{ Scan(...interface{}) error }) (models.PurchaseOrder, error) {
	var p models.PurchaseOrder
	var issued, completed sql.NullString
	err := row.Scan(&p.ID, &p.Reference, &p.Supplier, &p.Status, &p.TargetDate,
		&issued, &completed, &p.ReceivedBy, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.IssueDate = database.SP(issued)
	p.CompleteDate = database.SP(completed)
	return p, nil
}

func (h *Handler) getLines(orderID string) []models.POLine {
	rows, err := h.DB.Query(`SELECT l.id,l.order_id,l.part,COALESCE(l.supplier_part,0),l.quantity,l.received,
		COALESCE(l.purchase_price,0),COALESCE(l.destination,''),COALESCE(l.notes,''),COALESCE(sp.pack_size,1)
		FROM po_lines l LEFT JOIN supplier_parts sp ON sp.id = l.supplier_part
		WHERE l.order_id=? ORDER BY l.id`, orderID)
	if err != nil {
		return []models.POLine{}
	}
	defer rows.Close()
	var lines []models.POLine
	for rows.Next() {
		var l models.POLine
		rows.Scan(&l.ID, &l.OrderID, &l.Part, &l.SupplierPart, &l.Quantity, &l.Received,
			&l.PurchasePrice, &l.Destination, &l.Notes, &l.PackSize)
		p := order.Progress(l.Received, l.Quantity)
		l.Progress = models.Progress{Percent: p.Percent, Over: p.Over, Under: p.Under}
		lines = append(lines, l)
	}
	if lines == nil {
		lines = []models.POLine{}
	}
	return lines
}

func (h *Handler) lineCount(orderID string) int {
	var n int
	h.DB.QueryRow("SELECT COUNT(*) FROM po_lines WHERE order_id=?", orderID).Scan(&n)
	return n
}

// pendingLineCount returns the number of lines still awaiting receipt.
func (h *Handler) pendingLineCount(orderID string) int {
	var n int
	h.DB.QueryRow("SELECT COUNT(*) FROM po_lines WHERE order_id=? AND received < quantity", orderID).Scan(&n)
	return n
}
