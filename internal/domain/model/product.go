package model

// Product is a catalog entry cards are issued for. Price is in minor currency units.
type Product struct {
	ID     string
	Name   string
	Price  int64
	Active bool
}
