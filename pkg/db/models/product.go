package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalogue listing and the source of truth for stock.
type Product struct {
	ID                 uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Title              string          `gorm:"column:title;not null"`
	Description        string          `gorm:"column:description;not null"`
	ImageURL           string          `gorm:"column:image_url;not null"`
	Thumbnail          string          `gorm:"column:thumbnail;not null"`
	Brand              string          `gorm:"column:brand;not null"`
	Category           string          `gorm:"column:category;not null"`
	Tags               pq.StringArray  `gorm:"column:tags;type:text[];not null"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercentage int             `gorm:"column:discount_percentage;not null;default:0"`
	Stock              int             `gorm:"column:stock;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
