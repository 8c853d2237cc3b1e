package domain

import "time"

type ItemKind string

const (
	ItemKindProduct          ItemKind = "product"
	ItemKindDiagnosticTest   ItemKind = "diagnostic-test"
	ItemKindTeleconsultation ItemKind = "teleconsultation"
)

// CartLine is one catalog item with quantity inside a session cart.
// Exactly one line exists per ItemID; Quantity is always >= 1.
type CartLine struct {
	ItemID    string   `bson:"item_id" json:"item_id"`
	Name      string   `bson:"name" json:"name"`
	UnitPrice float64  `bson:"unit_price" json:"unit_price"`
	Quantity  int      `bson:"quantity" json:"quantity"`
	Kind      ItemKind `bson:"kind" json:"kind"`
	ImageURL  string   `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Details   string   `bson:"details,omitempty" json:"details,omitempty"`
}

func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`

	// PersistWarning is set when the last mutation could not be written to
	// durable storage. The in-memory cart is still authoritative.
	PersistWarning bool `bson:"-" json:"persist_warning,omitempty"`
}

// Subtotal is recomputed from the lines on every call, never cached.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.Lines {
		sum += l.LineTotal()
	}
	return sum
}

func (c *Cart) TotalItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// Clone returns a deep copy so callers never hold live references
// into the cart service's internal state.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	return &cp
}
