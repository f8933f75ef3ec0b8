package product

import "time"

type Product struct {
	ID         string
	Name       string
	Price      float64
	SalesCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
