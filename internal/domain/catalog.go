package domain

import "time"

// CatalogItem is anything the storefront can sell: a medicine, a diagnostic
// test booking, or a teleconsultation slot.
type CatalogItem struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Kind        ItemKind
	ImageURL    string
	CreatedAt   time.Time
}
