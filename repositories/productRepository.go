package repositories

import (
	"context"
	"strconv"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindActive(ctx context.Context, page PageRequest) (Page[models.Product], error)
	FindActiveByCategory(ctx context.Context, category string, page PageRequest) (Page[models.Product], error)
	FindActiveBySeller(ctx context.Context, sellerID uuid.UUID, page PageRequest) (Page[models.Product], error)
	FindFeatured(ctx context.Context) ([]models.Product, error)
	// Search matches term case-insensitively as a substring of the title or
	// description of active products.
	Search(ctx context.Context, term string, page PageRequest) (Page[models.Product], error)
	FindAllCategories(ctx context.Context) ([]string, error)

	// DecreaseStock removes quantity units only if that many remain, in a
	// single conditional UPDATE so concurrent checkouts cannot oversell.
	DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) error
	IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type productRepository struct{ base }

var productSort = sortable{
	"createdAt": "created_at",
	"price":     "price",
	"title":     "title",
	"stock":     "stock",
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.conn(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	return notFoundAsNil(&product, r.one(ctx).First(&product, "id = ?", id).Error)
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		return models.NewValidationError("ProductRepository.Update", "stock", "stock must not be negative")
	}
	product.Touch()
	return r.conn(ctx).Omit("created_at", clause.Associations).Save(product).Error
}

// Delete removes the product. Order items keep their snapshot and lose the
// link; a product that still has reviews is a conflict.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.conn(ctx).Delete(&models.Product{}, "id = ?", id).Error
	if isForeignKeyViolation(err) {
		return models.NewConflictError("ProductRepository.Delete", "id", "product is still referenced by reviews")
	}
	return err
}

func (r *productRepository) active(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Model(&models.Product{}).Where("is_active = ?", true)
}

func (r *productRepository) FindActive(ctx context.Context, page PageRequest) (Page[models.Product], error) {
	return paginate[models.Product](r.active(ctx), page, productSort.orderBy(page.Sort, "products"))
}

func (r *productRepository) FindActiveByCategory(ctx context.Context, category string, page PageRequest) (Page[models.Product], error) {
	query := r.active(ctx).Where("category = ?", category)
	return paginate[models.Product](query, page, productSort.orderBy(page.Sort, "products"))
}

func (r *productRepository) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID, page PageRequest) (Page[models.Product], error) {
	query := r.active(ctx).Where("seller_id = ?", sellerID)
	return paginate[models.Product](query, page, productSort.orderBy(page.Sort, "products"))
}

func (r *productRepository) FindFeatured(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.active(ctx).
		Where("is_featured = ?", true).
		Order("created_at desc").
		Find(&products).Error
	return products, err
}

func (r *productRepository) Search(ctx context.Context, term string, page PageRequest) (Page[models.Product], error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	query := r.active(ctx).Where(
		"(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')",
		pattern, pattern,
	)
	return paginate[models.Product](query, page, productSort.orderBy(page.Sort, "products"))
}

func (r *productRepository) FindAllCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.active(ctx).
		Distinct().
		Where("category IS NOT NULL").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *productRepository) DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) error {
	const op = "ProductRepository.DecreaseStock"
	if quantity <= 0 {
		return models.NewValidationError(op, "quantity", "quantity must be greater than 0")
	}

	res := r.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": models.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return models.NewNotFoundError(op, "product", id.String())
	}
	return &models.DomainError{
		Op:      op,
		Kind:    models.KindStock,
		ID:      id.String(),
		Message: "insufficient stock: have " + strconv.Itoa(current.Stock) + ", need " + strconv.Itoa(quantity),
		Err:     models.ErrInsufficientStock,
	}
}

func (r *productRepository) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) error {
	const op = "ProductRepository.IncreaseStock"
	if quantity <= 0 {
		return models.NewValidationError(op, "quantity", "quantity must be greater than 0")
	}
	res := r.conn(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": models.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(op, "product", id.String())
	}
	return nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
