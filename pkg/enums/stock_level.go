package enums

// StockLevel buckets a product's remaining stock for display.
type StockLevel string

const (
	StockLevelOut StockLevel = "out_of_stock"
	StockLevelLow StockLevel = "low_stock"
	StockLevelIn  StockLevel = "in_stock"
)

// LowStockThreshold is the first stock count considered comfortably in stock.
const LowStockThreshold = 10

// String implements fmt.Stringer.
func (s StockLevel) String() string {
	return string(s)
}

// StockLevelFor maps a stock count onto its display bucket.
func StockLevelFor(stock int) StockLevel {
	switch {
	case stock <= 0:
		return StockLevelOut
	case stock < LowStockThreshold:
		return StockLevelLow
	default:
		return StockLevelIn
	}
}
