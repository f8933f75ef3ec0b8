package stock

import "fmt"

// SoldOutError is returned by the advisory pre-check when a line cannot be
// covered by current stock. Nothing has been written when this fires.
type SoldOutError struct {
	Name      string
	Size      string
	Color     string
	Available int
	Requested int
}

func (e *SoldOutError) Error() string {
	return fmt.Sprintf("Sold Out: %s (%s/%s) is no longer available.", e.Name, e.Size, e.Color)
}

// ReservationError is returned when the authoritative decrement loses a race
// after the pre-check passed. The caller owns compensation.
type ReservationError struct {
	Name  string
	Size  string
	Color string
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("Inventory sync failed: %s (%s/%s) was just bought out.", e.Name, e.Size, e.Color)
}
