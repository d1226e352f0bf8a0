package order

// POLineState holds the authoritative quantity fields of a purchase order
// line, in ordered units.
type POLineState struct {
	Quantity float64
	Received float64
}

// Remaining returns the quantity still to be received. Never negative,
// even if received has somehow overrun the ordered quantity.
func (l POLineState) Remaining() float64 {
	f, _ := clampNonNegative(qty(l.Quantity).Sub(qty(l.Received))).Float64()
	return f
}

// FullyReceived reports whether nothing remains to be received.
func (l POLineState) FullyReceived() bool {
	return l.Received >= l.Quantity
}

// SOLineState holds the authoritative quantity fields of a sales order
// line.
type SOLineState struct {
	Quantity  float64
	Allocated float64
	Shipped   float64
}

// Remaining returns the outstanding demand on the line after allocation
// and shipment. A zero or missing quantity projects to zero, never a
// negative number.
func (l SOLineState) Remaining() float64 {
	d := qty(l.Quantity).Sub(qty(l.Allocated)).Sub(qty(l.Shipped))
	f, _ := clampNonNegative(d).Float64()
	return f
}

// StockAvailable returns the unallocated quantity of a stock item,
// floored at zero.
func StockAvailable(quantity, allocated float64) float64 {
	f, _ := clampNonNegative(qty(quantity).Sub(qty(allocated))).Float64()
	return f
}
