package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"imageUrl"`
	Thumbnail          string    `json:"thumbnail"`
	Brand              string    `json:"brand"`
	Category           string    `json:"category"`
	Tags               []string  `json:"tags"`
	Price              float64   `json:"price"`
	DiscountPercentage int       `json:"discountPercentage"`
	DiscountedPrice    float64   `json:"discountedPrice"`
	Stock              int       `json:"stock"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// LowStockDTO is the trimmed row of the low-stock alert list.
type LowStockDTO struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Stock     int     `json:"stock"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Thumbnail string  `json:"thumbnail"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title              string
	Description        string
	ImageURL           string
	Thumbnail          string
	Brand              string
	Category           string
	Tags               []string
	Price              decimal.Decimal
	DiscountPercentage int
	Stock              int
}

// UpdateProductInput holds optional mutation values. Nil fields are left alone.
type UpdateProductInput struct {
	Title              *string
	Description        *string
	ImageURL           *string
	Thumbnail          *string
	Brand              *string
	Category           *string
	Tags               *[]string
	Price              *decimal.Decimal
	DiscountPercentage *int
	Stock              *int
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &ProductDTO{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		ImageURL:           p.ImageURL,
		Thumbnail:          p.Thumbnail,
		Brand:              p.Brand,
		Category:           p.Category,
		Tags:               tags,
		Price:              p.Price.InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage,
		DiscountedPrice:    DiscountedPrice(p.Price, p.DiscountPercentage).InexactFloat64(),
		Stock:              p.Stock,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out
}

func newLowStockDTO(p models.Product) LowStockDTO {
	return LowStockDTO{
		ID:        p.ID,
		Title:     p.Title,
		Stock:     p.Stock,
		Price:     p.Price.InexactFloat64(),
		Category:  p.Category,
		Thumbnail: p.Thumbnail,
	}
}
