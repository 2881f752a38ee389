package model

// Stats is an inventory and order snapshot for operators.
type Stats struct {
	CardsTotal int64
	CardsUsed  int64
	Orders     map[OrderStatus]int64
}

// CardsAvailable returns the number of unused cards.
func (s Stats) CardsAvailable() int64 {
	return s.CardsTotal - s.CardsUsed
}
