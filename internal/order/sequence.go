package order

// PendingShipment is one element of a shipment completion sequence.
type PendingShipment struct {
	ID          string
	Reference   string
	Allocations int
}

// ShipmentSequence walks pending shipments one at a time. Shipments with
// no allocations are filtered out when the sequence is built; each
// remaining element must be confirmed or skipped before the next is
// presented, and the caller refreshes dependent state exactly once, after
// the final element resolves. Restartable only by rebuilding the list.
type ShipmentSequence struct {
	shipments []PendingShipment
	pos       int
	confirmed int
	skipped   int
}

// NewShipmentSequence builds a sequence from the order's pending
// shipments, dropping any with zero allocations.
func NewShipmentSequence(pending []PendingShipment) *ShipmentSequence {
	s := &ShipmentSequence{}
	for _, sh := range pending {
		if sh.Allocations > 0 {
			s.shipments = append(s.shipments, sh)
		}
	}
	return s
}

// Empty reports whether there is nothing to do.
func (s *ShipmentSequence) Empty() bool {
	return len(s.shipments) == 0
}

// Current returns the shipment being presented, or false once the
// sequence is done.
func (s *ShipmentSequence) Current() (PendingShipment, bool) {
	if s.pos >= len(s.shipments) {
		return PendingShipment{}, false
	}
	return s.shipments[s.pos], true
}

// Confirm resolves the current shipment as completed and advances. A
// failed submission must not call Confirm: the same element stays
// current and is re-presented.
func (s *ShipmentSequence) Confirm() {
	if s.pos < len(s.shipments) {
		s.confirmed++
		s.pos++
	}
}

// Skip passes over the current shipment without completing it. Always
// available, including after a failed confirmation.
func (s *ShipmentSequence) Skip() {
	if s.pos < len(s.shipments) {
		s.skipped++
		s.pos++
	}
}

// Done reports whether every element has been resolved.
func (s *ShipmentSequence) Done() bool {
	return s.pos >= len(s.shipments)
}

// Confirmed returns the number of confirmed shipments so far.
func (s *ShipmentSequence) Confirmed() int { return s.confirmed }

// Skipped returns the number of skipped shipments so far.
func (s *ShipmentSequence) Skipped() int { return s.skipped }

// Remaining returns how many elements are still unresolved.
func (s *ShipmentSequence) Remaining() int {
	return len(s.shipments) - s.pos
}
