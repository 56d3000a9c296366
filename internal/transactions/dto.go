package transactions

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// LineDTO is one frozen line of a transaction.
type LineDTO struct {
	ProductID          uint    `json:"productId"`
	Title              string  `json:"title"`
	Thumbnail          string  `json:"thumbnail"`
	Price              float64 `json:"price"`
	DiscountPercentage int     `json:"discountPercentage"`
	DiscountedPrice    float64 `json:"discountedPrice"`
	Quantity           int     `json:"quantity"`
	Subtotal           float64 `json:"subtotal"`
}

// TransactionDTO is the client shape of a settled cart.
type TransactionDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Items     []LineDTO `json:"items"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromModel(t *models.Transaction) *TransactionDTO {
	if t == nil {
		return nil
	}
	items := make([]LineDTO, 0, len(t.Items))
	for _, line := range t.Items {
		items = append(items, LineDTO{
			ProductID:          line.ProductID,
			Title:              line.Title,
			Thumbnail:          line.Thumbnail,
			Price:              line.Price.InexactFloat64(),
			DiscountPercentage: line.DiscountPercentage,
			DiscountedPrice:    line.DiscountedPrice.InexactFloat64(),
			Quantity:           line.Quantity,
			Subtotal:           line.Subtotal.InexactFloat64(),
		})
	}
	return &TransactionDTO{
		ID:        t.ID,
		UserID:    t.UserID,
		Items:     items,
		Total:     t.Total.InexactFloat64(),
		CreatedAt: t.CreatedAt,
	}
}
