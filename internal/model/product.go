package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a coffee product in the catalogue.
// The cart only ever reads products.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	NameAR        string          `json:"nameAr" db:"name_ar"`
	DescriptionAR string          `json:"descriptionAr" db:"description_ar"`
	Price         decimal.Decimal `json:"price" db:"price"`
	ImageRef      string          `json:"-" db:"image_ref"`
	ImageURL      string          `json:"imageUrl,omitempty" db:"-"`
	Available     bool            `json:"available" db:"available"`
	Rating        float64         `json:"rating" db:"rating"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// ProductSnapshot is the related-product view carried by cart and order lines.
type ProductSnapshot struct {
	ID       int64  `json:"id"`
	NameAR   string `json:"nameAr"`
	ImageRef string `json:"imageRef,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Missing  bool   `json:"missing,omitempty"`
}

// MissingProductName is shown in place of a product that no longer exists.
const MissingProductName = "منتج غير متوفر"

// MissingProduct returns the fallback snapshot for a line whose product row is gone.
func MissingProduct(id int64) ProductSnapshot {
	return ProductSnapshot{
		ID:      id,
		NameAR:  MissingProductName,
		Missing: true,
	}
}

// Snapshot returns the related-product view of p.
func (p *Product) Snapshot() *ProductSnapshot {
	return &ProductSnapshot{
		ID:       p.ID,
		NameAR:   p.NameAR,
		ImageRef: p.ImageRef,
		ImageURL: p.ImageURL,
	}
}
