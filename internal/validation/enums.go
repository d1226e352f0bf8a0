package validation

// Order status values - these MUST match DB CHECK constraints.
var (
	ValidPOStatuses = []string{"pending", "placed", "complete", "cancelled"}
	ValidSOStatuses = []string{"pending", "shipped", "cancelled"}
)

// Stock status codes carried on stock items and receipts.
const (
	StockStatusOK        = 10
	StockStatusAttention = 50
	StockStatusDamaged   = 55
	StockStatusRejected  = 65
	StockStatusQuarantine = 75
)

// ValidStockStatuses lists the accepted stock status codes.
var ValidStockStatuses = []int{
	StockStatusOK,
	StockStatusAttention,
	StockStatusDamaged,
	StockStatusRejected,
	StockStatusQuarantine,
}

// ValidateStockStatus checks a numeric stock status code.
func ValidateStockStatus(ve *ValidationErrors, field string, value int) {
	for _, s := range ValidStockStatuses {
		if value == s {
			return
		}
	}
	ve.Add(field, "invalid stock status code")
}
