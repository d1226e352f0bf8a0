package purchase

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"stockflow/internal/audit"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// receiveLine carries the DB state needed to validate and apply one
// receipt row.
type receiveLine struct {
	id           int
	part         string
	quantity     float64
	received     float64
	destination  string
	packSize     float64
	trackable    bool
	partDefault  string
	supplierPart sql.NullInt64
}

// ReceiveCandidates handles GET /api/order/po/{id}/receive. It returns
// the proposed receipt for the order's outstanding lines so the client
// can prefill the receive form.
func (h *Handler) ReceiveCandidates(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	lines, err := h.receiveLines(id)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	var candidates []order.ReceiptCandidate
	for _, l := range lines {
		candidates = append(candidates, order.ReceiptCandidate{
			LineItem:  l.id,
			Line:      order.POLineState{Quantity: l.quantity, Received: l.received},
			PackSize:  l.packSize,
			Trackable: l.trackable,
		})
	}
	response.JSON(w, order.PlanReceipt(h.DefaultLocation, candidates, validation.StockStatusOK))
}

// ReceiveItems handles POST /api/order/po/{id}/receive. Quantities are
// in ordered units; stock is created in physical units by multiplying
// with the supplier part's pack size. Trackable parts receive one stock
// item per serial number. The order auto-completes when every line is
// fully received.
func (h *Handler) ReceiveItems(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM purchase_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "placed" {
		response.Err(w, fmt.Sprintf("items can only be received against a placed order (currently '%s')", status), 400)
		return
	}

	var req order.ReceiptRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	if len(req.Items) == 0 {
		ve.Add("items", "at least one line item is required")
		response.FieldErrs(w, ve)
		return
	}

	lines, err := h.receiveLines(id)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	byID := make(map[int]receiveLine, len(lines))
	for _, l := range lines {
		byID[l.id] = l
	}

	for i, item := range req.Items {
		line, ok := byID[item.LineItem]
		if !ok {
			ve.AddIndexed("items", i, "line_item", "does not belong to this order")
			continue
		}
		if item.Quantity <= 0 {
			ve.AddIndexed("items", i, "quantity", "must be a positive number")
		}
		validation.ValidateMaxQuantity(ve, fmt.Sprintf("items[%d].quantity", i), item.Quantity)
		if item.Status != 0 {
			validation.ValidateStockStatus(ve, fmt.Sprintf("items[%d].status", i), item.Status)
		}
		if len(item.SerialNumbers) > 0 {
			if !line.trackable {
				ve.AddIndexed("items", i, "serial_numbers", "part is not trackable")
			} else if physical := order.PackQuantity(item.Quantity, line.packSize); float64(len(item.SerialNumbers)) != physical {
				ve.AddIndexed("items", i, "serial_numbers",
					fmt.Sprintf("expected %g serial numbers, got %d", physical, len(item.SerialNumbers)))
			}
		}
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

	username := audit.GetUsername(h.DB, r)
	for _, item := range req.Items {
		line := byID[item.LineItem]
		location := h.resolveLocation(item.Location, req.Location, line)
		stockStatus := item.Status
		if stockStatus == 0 {
			stockStatus = validation.StockStatusOK
		}
		physical := order.PackQuantity(item.Quantity, line.packSize)

		if len(item.SerialNumbers) > 0 {
			for _, serial := range item.SerialNumbers {
				if _, err := tx.Exec(`INSERT INTO stock_items (part,location,quantity,batch,serial,status,supplier_part,purchase_order)
					VALUES (?,?,1,?,?,?,?,?)`,
					line.part, location, item.BatchCode, serial, stockStatus, line.supplierPart, id); err != nil {
					response.Err(w, err.Error(), 500)
					return
				}
			}
		} else {
			if _, err := tx.Exec(`INSERT INTO stock_items (part,location,quantity,batch,status,supplier_part,purchase_order)
				VALUES (?,?,?,?,?,?,?)`,
				line.part, location, physical, item.BatchCode, stockStatus, line.supplierPart, id); err != nil {
				response.Err(w, err.Error(), 500)
				return
			}
		}

		// received stays in ordered units regardless of pack size
		if _, err := tx.Exec("UPDATE po_lines SET received = received + ? WHERE id=?",
			order.RoundQuantity(item.Quantity), item.LineItem); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
	}

	var pending int
	if err := tx.QueryRow("SELECT COUNT(*) FROM po_lines WHERE order_id=? AND received < quantity", id).Scan(&pending); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	if pending == 0 {
		if _, err := tx.Exec("UPDATE purchase_orders SET status='complete',complete_date=?,received_by=?,updated_at=? WHERE id=?",
			now[:10], username, now, id); err != nil {
			response.Err(w, err.Error(), 500)
			return
		}
	} else {
		tx.Exec("UPDATE purchase_orders SET received_by=?,updated_at=? WHERE id=?", username, now, id)
	}

	if err := tx.Commit(); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	audit.LogAudit(h.DB, h.Hub, username, "received", "purchase_order", id,
		fmt.Sprintf("Received %d line item(s) against %s", len(req.Items), id))
	h.GetOrder(w, r, id)
}

// resolveLocation picks the destination for received stock: item
// override, then request default, then the line destination, then the
// part's default location, then the configured fallback.
func (h *Handler) resolveLocation(item, request string, line receiveLine) string {
	for _, loc := range []string{item, request, line.destination, line.partDefault} {
		if loc != "" {
			return loc
		}
	}
	return h.DefaultLocation
}

func (h *Handler) receiveLines(orderID string) ([]receiveLine, error) {
	rows, err := h.DB.Query(`SELECT l.id,l.part,l.quantity,l.received,COALESCE(l.destination,''),l.supplier_part,
		COALESCE(sp.pack_size,1),COALESCE(p.trackable,0),COALESCE(p.default_location,'')
		FROM po_lines l
		LEFT JOIN supplier_parts sp ON sp.id = l.supplier_part
		LEFT JOIN parts p ON p.id = l.part
		WHERE l.order_id=? ORDER BY l.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []receiveLine
	for rows.Next() {
		var l receiveLine
		var trackable int
		if err := rows.Scan(&l.id, &l.part, &l.quantity, &l.received, &l.destination,
			&l.supplierPart, &l.packSize, &trackable, &l.partDefault); err != nil {
			return nil, err
		}
		l.trackable = trackable == 1
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
