package domain

import (
	"time"
)

// Product represents a catalog item. Category is a snapshot of the
// referenced category taken at save time, not a bare id.
type Product struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"nombre"`
	Price     float64   `json:"price" bson:"precio"`
	CreatedAt time.Time `json:"created_at" bson:"createAt"`
	Category  *Category `json:"category,omitempty" bson:"categoria,omitempty"`
}

// Category represents a product category
type Category struct {
	ID   string `json:"id" bson:"_id,omitempty"`
	Name string `json:"name" bson:"nombre"`
}

// Clone returns a copy of the product that can be changed without
// touching the receiver, including its category snapshot.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Category != nil {
		c := *p.Category
		cp.Category = &c
	}
	return &cp
}

// IsNew reports whether the product has not been persisted yet.
func (p *Product) IsNew() bool {
	return p.ID == ""
}

// CategoryID returns the id of the referenced category, or "" when unset.
func (p *Product) CategoryID() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.ID
}
