package repositories

import (
	"context"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	// Create rejects a second review by the same user for the same product.
	// The check is backed by the idx_reviews_user_product unique index.
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindApprovedByProduct(ctx context.Context, productID uuid.UUID, page PageRequest) (Page[models.Review], error)
	AllApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	FindByUser(ctx context.Context, userID uuid.UUID, page PageRequest) (Page[models.Review], error)
	FindPending(ctx context.Context, page PageRequest) (Page[models.Review], error)
	ExistsByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reviewRepository struct{ base }

var reviewSort = sortable{"createdAt": "created_at", "rating": "rating"}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	const op = "ReviewRepository.Create"
	if !review.IsValid() {
		return models.NewValidationError(op, "rating", "rating must be between 1 and 5")
	}
	exists, err := r.ExistsByUserAndProduct(ctx, review.UserID, review.ProductID)
	if err != nil {
		return err
	}
	if exists {
		return models.NewConflictError(op, "productId", "user already reviewed this product")
	}
	return r.insert(ctx, review)
}

// insert writes the row. The (user_id, product_id) unique index catches a
// duplicate that raced past the existence check.
func (r *reviewRepository) insert(ctx context.Context, review *models.Review) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("ReviewRepository.Create", "productId", "user already reviewed this product")
		}
		return err
	}
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	return notFoundAsNil(&review, r.one(ctx).First(&review, "id = ?", id).Error)
}

func (r *reviewRepository) FindApprovedByProduct(ctx context.Context, productID uuid.UUID, page PageRequest) (Page[models.Review], error) {
	query := r.conn(ctx).Model(&models.Review{}).Where("product_id = ? AND is_approved = ?", productID, true)
	return paginate[models.Review](query, page, reviewSort.orderBy(page.Sort, "reviews"))
}

func (r *reviewRepository) AllApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.conn(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) FindByUser(ctx context.Context, userID uuid.UUID, page PageRequest) (Page[models.Review], error) {
	query := r.conn(ctx).Model(&models.Review{}).Where("user_id = ?", userID)
	return paginate[models.Review](query, page, reviewSort.orderBy(page.Sort, "reviews"))
}

func (r *reviewRepository) FindPending(ctx context.Context, page PageRequest) (Page[models.Review], error) {
	query := r.conn(ctx).Model(&models.Review{}).Where("is_approved = ?", false)
	return paginate[models.Review](query, page, reviewSort.orderBy(page.Sort, "reviews"))
}

func (r *reviewRepository) ExistsByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if !review.IsValid() {
		return models.NewValidationError("ReviewRepository.Update", "rating", "rating must be between 1 and 5")
	}
	review.Touch()
	return r.conn(ctx).Omit("created_at", clause.Associations).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Delete(&models.Review{}, "id = ?", id).Error
}
