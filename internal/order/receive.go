package order

// ReceiptCandidate is a purchase order line offered for receipt, together
// with the supplier-part pack size and part trackability needed to build
// the receive dialog.
type ReceiptCandidate struct {
	LineItem  int
	Line      POLineState
	PackSize  float64
	Trackable bool
}

// DefaultQuantity returns the proposed receive quantity for the line: the
// full remaining demand, clamped at zero.
func (c ReceiptCandidate) DefaultQuantity() float64 {
	return c.Line.Remaining()
}

// DisplayQuantity converts a receive quantity (ordered units) into the
// physical unit count shown to the user. The transmitted quantity is
// unaffected.
func (c ReceiptCandidate) DisplayQuantity(receive float64) float64 {
	return PackQuantity(receive, c.PackSize)
}

// ReceiptItem is one row of a receive request, in ordered units.
type ReceiptItem struct {
	LineItem      int      `json:"line_item"`
	Quantity      float64  `json:"quantity"`
	Status        int      `json:"status"`
	Location      string   `json:"location,omitempty"`
	BatchCode     string   `json:"batch_code,omitempty"`
	SerialNumbers []string `json:"serial_numbers,omitempty"`
}

// ReceiptRequest is the payload submitted to a purchase order's receive
// endpoint.
type ReceiptRequest struct {
	Location string        `json:"location,omitempty"`
	Items    []ReceiptItem `json:"items"`
}

// PlanReceipt proposes a receipt for the given candidate lines: fully
// received lines are excluded up front, each remaining line defaults to
// its full remaining quantity with an OK stock status. The caller adjusts
// quantities and optional attributes before submission.
func PlanReceipt(location string, candidates []ReceiptCandidate, okStatus int) ReceiptRequest {
	req := ReceiptRequest{Location: location}
	for _, c := range candidates {
		if c.Line.FullyReceived() {
			continue
		}
		req.Items = append(req.Items, ReceiptItem{
			LineItem: c.LineItem,
			Quantity: c.DefaultQuantity(),
			Status:   okStatus,
		})
	}
	return req
}
