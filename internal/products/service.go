package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

const (
	DefaultLowStockThreshold = 10
	relatedLimit             = 4
)

// Service exposes catalogue reads and admin product management.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actorID, id uint) error
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	LowStock(ctx context.Context) ([]LowStockDTO, error)
	ListPublic(ctx context.Context) ([]ProductDTO, error)
	Related(ctx context.Context, excludeID uint) ([]ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	DB                txRunner
	Repo              *Repository
	Outbox            outbox.Emitter
	Logger            *logger.Logger
	LowStockThreshold int
}

type service struct {
	db        txRunner
	repo      *Repository
	outbox    outbox.Emitter
	logg      *logger.Logger
	threshold int
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	threshold := params.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		logg:      params.Logger,
		threshold: threshold,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		ImageURL:           strings.TrimSpace(input.ImageURL),
		Thumbnail:          strings.TrimSpace(input.Thumbnail),
		Brand:              strings.TrimSpace(input.Brand),
		Category:           strings.TrimSpace(input.Category),
		Tags:               pq.StringArray(cleanTags(input.Tags)),
		Price:              input.Price.Round(2),
		DiscountPercentage: ClampDiscount(input.DiscountPercentage),
		Stock:              input.Stock,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error) {
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.Tags != nil && len(cleanTags(*input.Tags)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tags cannot be empty")
	}

	var updated *models.Product
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return notFoundOr(err, "load product")
		}
		if err := repo.UpdateColumns(ctx, id, updateColumns(input)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "reload product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actorID, id uint) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "load product")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return notFoundOr(err, "db: delete product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductDeleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   strconv.FormatUint(uint64(id), 10),
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: outbox.ProductDeletedEvent{
				ProductID: id,
				Title:     product.Title,
			},
		})
	})
	if err != nil {
		return asTyped(err, "delete product")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "product_id", id), "admin.product.deleted")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListNewest(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) LowStock(ctx context.Context) ([]LowStockDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, s.threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	out := make([]LowStockDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newLowStockDTO(row))
	}
	return out, nil
}

func (s *service) ListPublic(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListByID(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newProductDTOs(rows), nil
}

// Related prefers tag matches and tops up from the same category.
func (s *service) Related(ctx context.Context, excludeID uint) ([]ProductDTO, error) {
	if excludeID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exclude is required")
	}
	source, err := s.repo.FindByID(ctx, excludeID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}

	related, err := s.repo.ListSharingTags(ctx, source.Tags, []uint{excludeID}, relatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "related by tags")
	}

	if len(related) < relatedLimit {
		exclude := []uint{excludeID}
		for _, p := range related {
			exclude = append(exclude, p.ID)
		}
		byCategory, err := s.repo.ListInCategory(ctx, source.Category, exclude, relatedLimit-len(related))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "related by category")
		}
		related = append(related, byCategory...)
	}

	return newProductDTOs(related), nil
}

func validateCreate(input CreateProductInput) error {
	required := []struct {
		field string
		value string
	}{
		{"title", input.Title},
		{"description", input.Description},
		{"imageUrl", input.ImageURL},
		{"thumbnail", input.Thumbnail},
		{"brand", input.Brand},
		{"category", input.Category},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(cleanTags(input.Tags)) == 0 {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"fields": missing})
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func updateColumns(in UpdateProductInput) map[string]any {
	cols := map[string]any{}
	setString := func(column string, src *string) {
		if src != nil {
			cols[column] = strings.TrimSpace(*src)
		}
	}
	setString("title", in.Title)
	setString("description", in.Description)
	setString("image_url", in.ImageURL)
	setString("thumbnail", in.Thumbnail)
	setString("brand", in.Brand)
	setString("category", in.Category)
	if in.Tags != nil {
		cols["tags"] = pq.StringArray(cleanTags(*in.Tags))
	}
	if in.Price != nil {
		cols["price"] = in.Price.Round(2)
	}
	if in.DiscountPercentage != nil {
		cols["discount_percentage"] = ClampDiscount(*in.DiscountPercentage)
	}
	if in.Stock != nil {
		cols["stock"] = *in.Stock
	}
	return cols
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func notFoundOr(err error, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

func asTyped(err error, step string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
