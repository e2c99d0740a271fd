package models

import "time"

// Product is a catalog record carrying the asset identifier of its main
// image and the derived preview URL.
type Product struct {
	ID         string
	Title      string
	AssetID    string
	PreviewURL string
	UpdatedAt  time.Time
}

// HasAsset reports whether the record names a stored asset.
func (p Product) HasAsset() bool {
	return p.AssetID != ""
}

// ProductImage is one source image attached to a product.
type ProductImage struct {
	ID        string
	ProductID string
	URL       string
	IsPrimary bool
	Position  int
}
