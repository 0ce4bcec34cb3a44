package project

// ValidateLayoutType reports whether layout is one of grid1..grid4.
func ValidateLayoutType(layout LayoutType) error {
	switch layout {
	case LayoutGrid1, LayoutGrid2, LayoutGrid3, LayoutGrid4:
		return nil
	default:
		return ErrInvalidLayout
	}
}

// HasDenseOrder reports whether item orders are exactly 0..N-1 in slice order.
func HasDenseOrder(items []Item) bool {
	for i, item := range items {
		if item.Order != i {
			return false
		}
	}
	return true
}
