package model

// Item identifies a specific inventory pool.  Products without variants use
// an empty VariantID; the empty string is part of the key, so "no variant"
// and a concrete variant never collide.  Item is a comparable value type and
// is used directly as a map key by the in-memory store and the per-item
// locking in the engine.
type Item struct {
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
	LocationID string `json:"location_id"`
}

// Valid reports whether the item carries the minimum identifying fields.
// VariantID is optional.
func (i Item) Valid() bool {
	return i.ProductID != "" && i.LocationID != ""
}
