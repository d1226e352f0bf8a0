package sales

import (
	"fmt"
	"net/http"

	"stockflow/internal/audit"
	"stockflow/internal/order"
	"stockflow/internal/response"
	"stockflow/internal/validation"
)

// shipPendingDecision resolves one element of the pending-shipment
// sequence.
type shipPendingDecision struct {
	Shipment string `json:"shipment"`
	Action   string `json:"action"`
	shipmentPatch
}

// shipPendingRequest walks the order's pending shipments in sequence
// order; every element needs a matching confirm or skip decision.
type shipPendingRequest struct {
	Decisions []shipPendingDecision `json:"decisions"`
}

// ShipPending handles POST /api/order/so/{id}/ship-pending. Pending
// shipments without allocations are filtered out up front; the rest are
// resolved strictly in order, one decision each. Processing stops at the
// first shipment that fails to go out, and the order is re-read exactly
// once, after the walk finishes.
func (h *Handler) ShipPending(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := h.DB.QueryRow("SELECT status FROM sales_orders WHERE id=?", id).Scan(&status); err != nil {
		response.Err(w, "not found", 404)
		return
	}
	if status != "pending" {
		response.Err(w, "order is not pending", 400)
		return
	}

	var req shipPendingRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}

	seq := order.NewShipmentSequence(h.pendingShipments(id))
	if seq.Empty() {
		response.Err(w, "order has no pending shipments with allocated stock", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	username := audit.GetUsername(h.DB, r)
	i := 0
	for !seq.Done() {
		current, _ := seq.Current()
		if i >= len(req.Decisions) {
			ve.Add("decisions", fmt.Sprintf("missing decision for shipment %s", current.Reference))
			break
		}
		d := req.Decisions[i]
		if d.Shipment != current.ID {
			ve.AddIndexed("decisions", i, "shipment", fmt.Sprintf("expected %s", current.ID))
			break
		}
		switch d.Action {
		case "skip":
			seq.Skip()
		case "confirm":
			if errs := h.completeShipment(current.ID, d.shipmentPatch, username); errs != nil {
				for _, e := range errs.Errors {
					ve.AddIndexed("decisions", i, e.Field, e.Message)
				}
			} else {
				seq.Confirm()
			}
		default:
			ve.AddIndexed("decisions", i, "action", "must be 'confirm' or 'skip'")
		}
		if ve.HasErrors() {
			break
		}
		i++
	}
	if ve.HasErrors() {
		response.FieldErrs(w, ve)
		return
	}

	audit.LogAudit(h.DB, h.Hub, username, "shipped", "sales_order", id,
		fmt.Sprintf("Shipped %d pending shipment(s) on %s (%d skipped)", seq.Confirmed(), id, seq.Skipped()))
	h.GetOrder(w, r, id)
}

func (h *Handler) pendingShipments(orderID string) []order.PendingShipment {
	rows, err := h.DB.Query(`SELECT sh.id, sh.reference,
		(SELECT COUNT(*) FROM allocations a WHERE a.shipment_id = sh.id)
		FROM shipments sh WHERE sh.order_id=? AND sh.shipment_date IS NULL ORDER BY sh.id`, orderID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var pending []order.PendingShipment
	for rows.Next() {
		var p order.PendingShipment
		rows.Scan(&p.ID, &p.Reference, &p.Allocations)
		pending = append(pending, p)
	}
	return pending
}
