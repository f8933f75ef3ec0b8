package stock

// Key identifies one stock row: a (product, size, color) combination.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

type Record struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

// Line is one finalized order line the guard must cover.
type Line struct {
	ProductID string
	Name      string
	Size      string
	Color     string
	Quantity  int
}

func (l Line) key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}
