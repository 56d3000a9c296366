package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart and
// settlement services.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uint) (*models.Cart, error)
	FindByUserForUpdate(ctx context.Context, userID uint) (*models.Cart, error)
	Ensure(ctx context.Context, userID uint) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uint, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID uint) error
	ClearItems(ctx context.Context, cartID uint) (int64, error)
	SumQuantity(ctx context.Context, userID uint) (int, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
