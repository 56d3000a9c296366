package cart

import products "github.com/angelmondragon/storefront-backend/internal/products"

// LineDTO is one cart line rendered as the live product plus the quantity.
type LineDTO struct {
	products.ProductDTO
	Quantity int `json:"quantity"`
}

// SetItemInput is the body of POST /api/cart.
type SetItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"`
}

// RemoveItemInput is the body of DELETE /api/cart.
type RemoveItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
}
