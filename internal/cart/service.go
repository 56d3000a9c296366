package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	products "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes the per-user cart operations.
type Service interface {
	SetItem(ctx context.Context, userID, productID uint, quantity int) ([]LineDTO, error)
	RemoveItem(ctx context.Context, userID, productID uint) ([]LineDTO, error)
	ReadCart(ctx context.Context, userID uint) ([]LineDTO, error)
	Count(ctx context.Context, userID uint) (int, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// SetItem replaces the quantity of productID in the cart. The stock check is
// advisory; settlement re-checks under the conditional decrement.
func (s *service) SetItem(ctx context.Context, userID, productID uint, quantity int) ([]LineDTO, error) {
	if productID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Title)).
			WithDetails(map[string]any{"productId": product.ID, "available": product.Stock, "requested": quantity})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.Ensure(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: ensure cart")
		}
		if err := repo.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert cart item")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set cart item")
	}

	return s.ReadCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uint) ([]LineDTO, error) {
	if productID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	return s.ReadCart(ctx, userID)
}

// ReadCart joins the lines with live product rows. Lines whose product was
// deleted are skipped.
func (s *service) ReadCart(ctx context.Context, userID uint) ([]LineDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []LineDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	live, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	lines := make([]LineDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := live[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, LineDTO{
			ProductDTO: *products.NewProductDTO(&product),
			Quantity:   item.Quantity,
		})
	}
	return lines, nil
}

func (s *service) Count(ctx context.Context, userID uint) (int, error) {
	count, err := s.repo.SumQuantity(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}
	return count, nil
}
