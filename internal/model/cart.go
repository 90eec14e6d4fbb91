package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity a single cart line may hold.
const MaxLineQuantity = 999

// CartLine is one distinct product held in a cart.
//
// UnitPrice is captured when the product is first added and may drift from the
// live product price. RowID is set only for remotely backed lines.
type CartLine struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	RowID     *uuid.UUID       `json:"rowId,omitempty"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DisplayProduct returns the related product or the missing-product fallback.
func (l CartLine) DisplayProduct() ProductSnapshot {
	if l.Product == nil {
		return MissingProduct(l.ProductID)
	}
	return *l.Product
}

// CartRow is a cart_items row as held by the remote gateway.
type CartRow struct {
	ID        uuid.UUID        `db:"id"`
	UserID    uuid.UUID        `db:"user_id"`
	ProductID int64            `db:"product_id"`
	Quantity  int              `db:"quantity"`
	UnitPrice decimal.Decimal  `db:"unit_price"`
	Product   *ProductSnapshot `db:"-"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// Line converts the row into its cart line form.
func (r *CartRow) Line() CartLine {
	id := r.ID
	return CartLine{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		RowID:     &id,
		Product:   r.Product,
	}
}

// CartView is the read model returned to clients.
type CartView struct {
	Mode          string          `json:"mode"`
	Lines         []CartLine      `json:"lines"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// AddToCartRequest is the payload for adding a product to the cart.
type AddToCartRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// UpdateQuantityRequest is the payload for setting a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}
