package products

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository wires together the product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateColumns writes only the given columns of one product.
func (r *Repository) UpdateColumns(ctx context.Context, id uint, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(columns).Error
}

// Delete removes the product row. Missing rows yield gorm.ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads the product.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs batch loads products keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListNewest is the back-office ordering.
func (r *Repository) ListNewest(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// ListByID is the catalogue ordering.
func (r *Repository) ListByID(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

// ListLowStock returns products with 0 < stock <= threshold, scarcest first.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("stock > 0 AND stock <= ?", threshold).
		Order("stock ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// CountLowStock counts the rows ListLowStock would return.
func (r *Repository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("stock > 0 AND stock <= ?", threshold).
		Count(&count).Error
	return count, err
}

// ListSharingTags returns displayable products carrying any of tags.
func (r *Repository) ListSharingTags(ctx context.Context, tags []string, excludeIDs []uint, limit int) ([]models.Product, error) {
	if len(tags) == 0 || limit <= 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.displayable(ctx, excludeIDs).
		Where(r.tagOverlap(tags)).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListInCategory returns displayable products in category.
func (r *Repository) ListInCategory(ctx context.Context, category string, excludeIDs []uint, limit int) ([]models.Product, error) {
	if category == "" || limit <= 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.displayable(ctx, excludeIDs).
		Where("category = ?", category).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// DecrementStock subtracts qty only while enough stock remains. It reports
// false when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) displayable(ctx context.Context, excludeIDs []uint) *gorm.DB {
	q := r.db.WithContext(ctx).
		Where("image_url <> ''").
		Where("thumbnail <> ''")
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	return q
}

func (r *Repository) tagOverlap(tags []string) *gorm.DB {
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		return r.db.Where("tags && ?", pq.StringArray(tags))
	}
	// other dialects keep the quoted pq array literal as text
	group := r.db.Where("1 = 0")
	for _, tag := range tags {
		group = group.Or("tags LIKE ?", "%\""+tag+"\"%")
	}
	return group
}
