package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLine is the per-product snapshot frozen at settlement.
type TransactionLine struct {
	ProductID          uint            `json:"productId"`
	Title              string          `json:"title"`
	Thumbnail          string          `json:"thumbnail"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage int             `json:"discountPercentage"`
	DiscountedPrice    decimal.Decimal `json:"discountedPrice"`
	Quantity           int             `json:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

// Transaction is the immutable record of a settled cart.
type Transaction struct {
	ID        uint              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint              `gorm:"column:user_id;not null;index"`
	Items     []TransactionLine `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Total     decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
