package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// PurchaseOrder lifecycle: pending -> placed -> complete, with cancel
// allowed while pending or placed.
type PurchaseOrder struct {
	ID           string   `json:"pk"`
	Reference    string   `json:"reference"`
	Supplier     string   `json:"supplier"`
	Status       string   `json:"status"`
	TargetDate   string   `json:"target_date"`
	IssueDate    *string  `json:"issue_date"`
	CompleteDate *string  `json:"complete_date"`
	ReceivedBy   string   `json:"received_by,omitempty"`
	Notes        string   `json:"notes"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	LineItems    int      `json:"line_items"`
	Overdue      bool     `json:"overdue"`
	Lines        []POLine `json:"lines,omitempty"`
}

// POLine is a purchase order line item. Quantity and Received are in
// ordered units ("number of packs"); the supplier part's pack size only
// applies when stock is created.
type POLine struct {
	ID            int      `json:"pk"`
	OrderID       string   `json:"order"`
	Part          string   `json:"part"`
	SupplierPart  int      `json:"supplier_part"`
	Quantity      float64  `json:"quantity"`
	Received      float64  `json:"received"`
	PurchasePrice float64  `json:"purchase_price"`
	Destination   string   `json:"destination"`
	Notes         string   `json:"notes"`
	PackSize      float64  `json:"pack_size,omitempty"`
	Progress      Progress `json:"progress"`
}

// ExtraLine is a non-part charge line on an order.
type ExtraLine struct {
	ID            int     `json:"pk"`
	OrderID       string  `json:"order"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	PriceCurrency string  `json:"price_currency"`
	Notes         string  `json:"notes"`
}

// SalesOrder lifecycle: pending -> shipped, with cancel allowed while
// pending.
type SalesOrder struct {
	ID           string   `json:"pk"`
	Reference    string   `json:"reference"`
	Customer     string   `json:"customer"`
	Status       string   `json:"status"`
	TargetDate   string   `json:"target_date"`
	ShipmentDate *string  `json:"shipment_date"`
	ShippedBy    string   `json:"shipped_by,omitempty"`
	Notes        string   `json:"notes"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	LineItems    int      `json:"line_items"`
	Overdue      bool     `json:"overdue"`
	Lines        []SOLine `json:"lines,omitempty"`
}

// SOLine is a sales order line item. Allocated is derived from the line's
// allocation rows; Shipped is bumped when a shipment completes.
type SOLine struct {
	ID        int          `json:"pk"`
	OrderID   string       `json:"order"`
	Part      string       `json:"part"`
	Quantity  float64      `json:"quantity"`
	Allocated float64      `json:"allocated"`
	Shipped   float64      `json:"shipped"`
	SalePrice float64      `json:"sale_price"`
	Notes     string       `json:"notes"`
	Progress  Progress     `json:"progress"`
	Items     []Allocation `json:"allocations,omitempty"`
}

// Shipment is a named batch of allocations dispatched together against a
// sales order. A nil ShipmentDate means the shipment is still pending.
type Shipment struct {
	ID             string       `json:"pk"`
	OrderID        string       `json:"order"`
	Reference      string       `json:"reference"`
	ShipmentDate   *string      `json:"shipment_date"`
	TrackingNumber string       `json:"tracking_number"`
	InvoiceNumber  string       `json:"invoice_number"`
	Link           string       `json:"link"`
	CheckedBy      string       `json:"checked_by"`
	Notes          string       `json:"notes"`
	CreatedAt      string       `json:"created_at"`
	Allocations    []Allocation `json:"allocations"`
}

// Allocation reserves quantity from one stock item against one sales
// order line, within one shipment.
type Allocation struct {
	ID         int     `json:"pk"`
	LineID     int     `json:"line"`
	ShipmentID string  `json:"shipment"`
	StockItem  int     `json:"item"`
	Quantity   float64 `json:"quantity"`
	Part       string  `json:"part,omitempty"`
	Location   string  `json:"location,omitempty"`
	Serial     string  `json:"serial,omitempty"`
}

// StockItem is a quantity of one part at one location. Available stock is
// quantity minus allocated, floored at zero.
type StockItem struct {
	ID            int     `json:"pk"`
	Part          string  `json:"part"`
	Location      string  `json:"location"`
	Quantity      float64 `json:"quantity"`
	Allocated     float64 `json:"allocated"`
	Available     float64 `json:"available"`
	Batch         string  `json:"batch"`
	Serial        string  `json:"serial"`
	Status        int     `json:"status"`
	SupplierPart  int     `json:"supplier_part,omitempty"`
	PurchaseOrder string  `json:"purchase_order,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// Part is the master record for a stocked or sold item.
type Part struct {
	ID              string `json:"pk"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Trackable       bool   `json:"trackable"`
	Salable         bool   `json:"salable"`
	DefaultLocation string `json:"default_location"`
}

// SupplierPart links a part to a supplier's catalogue entry. PackSize is
// the multiplier converting ordered units into physical received units.
type SupplierPart struct {
	ID          int          `json:"pk"`
	Part        string       `json:"part"`
	Supplier    string       `json:"supplier"`
	SKU         string       `json:"sku"`
	PackSize    float64      `json:"pack_size"`
	Note        string       `json:"note"`
	PriceBreaks []PriceBreak `json:"price_breaks,omitempty"`
}

// PriceBreak is one tier of a supplier part's quantity pricing.
type PriceBreak struct {
	ID           int     `json:"pk"`
	SupplierPart int     `json:"part"`
	Quantity     float64 `json:"quantity"`
	Price        float64 `json:"price"`
	Currency     string  `json:"price_currency"`
}

// Progress is a normalized completion indicator for a (value, maximum)
// pair, as computed by the order package.
type Progress struct {
	Percent float64 `json:"percent"`
	Over    bool    `json:"over,omitempty"`
	Under   bool    `json:"under,omitempty"`
}

// Attachment is a file stored against an order.
type Attachment struct {
	ID           int    `json:"pk"`
	Module       string `json:"module"`
	RecordID     string `json:"record_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
	Comment      string `json:"comment"`
	UploadedBy   string `json:"uploaded_by"`
	CreatedAt    string `json:"created_at"`
}
