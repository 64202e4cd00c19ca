package enums

import "fmt"

// LowStockThreshold is the first quantity considered fully in stock.
const LowStockThreshold = 10

// StockStatus is the display status derived from a product's stock.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "In Stock"
	StockStatusLowStock   StockStatus = "Low Stock"
	StockStatusOutOfStock StockStatus = "Out of Stock"
)

var validStockStatuses = []StockStatus{
	StockStatusInStock,
	StockStatusLowStock,
	StockStatusOutOfStock,
}

// StockStatusFor maps a stock quantity onto its status tier.
func StockStatusFor(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockStatusOutOfStock
	case stock < LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockStatus.
func (s StockStatus) IsValid() bool {
	for _, candidate := range validStockStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// StockFilter selects products by stock tier in catalog listings.
type StockFilter string

const (
	StockFilterAll StockFilter = ""
	StockFilterIn  StockFilter = "in"
	StockFilterLow StockFilter = "low"
	StockFilterOut StockFilter = "out"
)

// ParseStockFilter converts a query parameter into a StockFilter.
func ParseStockFilter(value string) (StockFilter, error) {
	switch StockFilter(value) {
	case StockFilterAll, StockFilterIn, StockFilterLow, StockFilterOut:
		return StockFilter(value), nil
	}
	return "", fmt.Errorf("invalid stock filter %q", value)
}
