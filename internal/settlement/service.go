package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Service turns a user's cart into an immutable transaction.
type Service interface {
	Settle(ctx context.Context, userID uint) (*transactions.TransactionDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the settlement dependencies.
type ServiceParams struct {
	DB           txRunner
	Carts        cart.CartRepository
	Products     *products.Repository
	Transactions transactions.Repository
	Outbox       outbox.Emitter
	Metrics      *metrics.SettlementMetrics
	Logger       *logger.Logger
}

type service struct {
	db           txRunner
	carts        cart.CartRepository
	products     *products.Repository
	transactions transactions.Repository
	outbox       outbox.Emitter
	metrics      *metrics.SettlementMetrics
	logg         *logger.Logger
}

// NewService validates and wires the settlement engine.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Transactions == nil:
		return nil, fmt.Errorf("transactions repository required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		db:           params.DB,
		carts:        params.Carts,
		products:     params.Products,
		transactions: params.Transactions,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Settle validates every line against current stock, snapshots prices,
// decrements stock with a guarded update, clears the cart and queues a
// transaction_settled event. Any failure rolls the whole unit back.
func (s *service) Settle(ctx context.Context, userID uint) (*transactions.TransactionDTO, error) {
	start := time.Now()
	outcome := metrics.OutcomeError
	var settled *models.Transaction

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		userCart, err := carts.FindByUserForUpdate(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if userCart == nil || len(userCart.Items) == 0 {
			outcome = metrics.OutcomeEmptyCart
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		ids := make([]uint, 0, len(userCart.Items))
		for _, item := range userCart.Items {
			ids = append(ids, item.ProductID)
		}
		live, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}

		lines := make([]models.TransactionLine, 0, len(userCart.Items))
		total := decimal.Zero
		for _, item := range userCart.Items {
			product, ok := live[item.ProductID]
			if !ok {
				outcome = metrics.OutcomeProductMissing
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d no longer exists", item.ProductID)).
					WithDetails(map[string]any{"productId": item.ProductID})
			}
			if product.Stock < item.Quantity {
				outcome = metrics.OutcomeInsufficientStock
				return insufficientStock(product, item.Quantity)
			}

			line := snapshotLine(product, item.Quantity)
			total = total.Add(line.Subtotal)
			lines = append(lines, line)
		}

		txn := &models.Transaction{
			UserID: userID,
			Items:  lines,
			Total:  total.Round(2),
		}
		if err := s.transactions.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}

		adjustments := make([]outbox.SettledLineAdjustment, 0, len(lines))
		for _, line := range lines {
			ok, err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if !ok {
				outcome = metrics.OutcomeInsufficientStock
				product := live[line.ProductID]
				return insufficientStock(product, line.Quantity)
			}
			adjustments = append(adjustments, outbox.SettledLineAdjustment{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Subtotal:  line.Subtotal.StringFixed(2),
			})
		}

		cleared, err := carts.ClearItems(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		if cleared != int64(len(userCart.Items)) {
			// another settlement already consumed these lines
			outcome = metrics.OutcomeCartConflict
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during settlement").
				WithDetails(map[string]any{"expected": len(userCart.Items), "cleared": cleared})
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionSettled,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   strconv.FormatUint(uint64(txn.ID), 10),
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: outbox.TransactionSettledEvent{
				TransactionID: txn.ID,
				UserID:        userID,
				Total:         txn.Total.StringFixed(2),
				Lines:         adjustments,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: emit transaction_settled")
		}

		settled = txn
		return nil
	})

	if err != nil {
		s.metrics.Observe(outcome, time.Since(start))
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle cart")
		}
		s.logFailure(ctx, userID, outcome, err)
		return nil, err
	}

	s.metrics.Observe(metrics.OutcomeSettled, time.Since(start))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":        userID,
			"transaction_id": settled.ID,
			"total":          settled.Total.StringFixed(2),
			"lines":          len(settled.Items),
		})
		s.logg.Info(logCtx, "settlement.completed")
	}
	return transactions.FromModel(settled), nil
}

func (s *service) logFailure(ctx context.Context, userID uint, outcome string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": userID,
		"outcome": outcome,
		"error":   err.Error(),
	})
	if outcome == metrics.OutcomeError {
		s.logg.Error(logCtx, "settlement.failed", err)
		return
	}
	s.logg.Warn(logCtx, "settlement.rejected")
}

func snapshotLine(p models.Product, quantity int) models.TransactionLine {
	discounted := products.DiscountedPrice(p.Price, p.DiscountPercentage)
	return models.TransactionLine{
		ProductID:          p.ID,
		Title:              p.Title,
		Thumbnail:          p.Thumbnail,
		Price:              p.Price.Round(2),
		DiscountPercentage: products.ClampDiscount(p.DiscountPercentage),
		DiscountedPrice:    discounted,
		Quantity:           quantity,
		Subtotal:           products.LineSubtotal(p.Price, p.DiscountPercentage, quantity),
	}
}

func insufficientStock(p models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", p.Title)).
		WithDetails(map[string]any{
			"productId": p.ID,
			"available": p.Stock,
			"requested": requested,
		})
}
