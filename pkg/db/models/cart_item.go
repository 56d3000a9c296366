package models

import "time"

// CartItem is one product line in a cart. ProductID carries no foreign key so
// a deleted product stays visible to settlement.
type CartItem struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    uint      `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
