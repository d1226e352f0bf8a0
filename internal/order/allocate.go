package order

import "errors"

// ErrNoItems is returned when an operation that requires at least one
// line item is attempted with an empty candidate set. This is a pure
// client-side guard: it fires before any database work.
var ErrNoItems = errors.New("at least one line item must be provided")

// DesiredQuantity proposes the default allocation quantity for a line
// item against a candidate stock item: the lesser of what the stock item
// has available and what the line still needs. A suggestion only - the
// caller may override it before submission.
func DesiredQuantity(stock StockItemState, line SOLineState) float64 {
	available := qty(StockAvailable(stock.Quantity, stock.Allocated))
	remaining := qty(line.Remaining())
	if available.LessThan(remaining) {
		f, _ := available.Float64()
		return f
	}
	f, _ := remaining.Float64()
	return f
}

// StockItemState holds the quantity fields of a candidate stock item.
type StockItemState struct {
	Quantity  float64
	Allocated float64
}

// AllocationItem is one resolved row of an allocation request.
type AllocationItem struct {
	LineItem  int     `json:"line_item"`
	StockItem int     `json:"stock_item"`
	Quantity  float64 `json:"quantity"`
}

// AllocationRequest is the payload submitted to an order's allocate
// endpoint.
type AllocationRequest struct {
	Shipment string           `json:"shipment,omitempty"`
	Items    []AllocationItem `json:"items"`
}

// AllocationInput is one candidate row as collected from the user. A nil
// Quantity means the row was left blank and is dropped from the request.
type AllocationInput struct {
	LineItem  int
	StockItem int
	Quantity  *float64
}

// BuildAllocationRequest assembles the allocation payload from candidate
// rows. Rows with a nil quantity are omitted; an empty resolved set is
// rejected with ErrNoItems before anything is submitted.
func BuildAllocationRequest(shipment string, rows []AllocationInput) (AllocationRequest, error) {
	req := AllocationRequest{Shipment: shipment}
	for _, row := range rows {
		if row.Quantity == nil {
			continue
		}
		req.Items = append(req.Items, AllocationItem{
			LineItem:  row.LineItem,
			StockItem: row.StockItem,
			Quantity:  RoundQuantity(*row.Quantity),
		})
	}
	if len(req.Items) == 0 {
		return AllocationRequest{}, ErrNoItems
	}
	return req, nil
}
