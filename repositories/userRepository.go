package repositories

import (
	"context"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, page PageRequest) (Page[models.User], error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct{ base }

var userSort = sortable{"createdAt": "created_at", "email": "email", "lastName": "last_name"}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const op = "UserRepository.Create"
	if user.HasEmail() {
		if exists, err := r.ExistsByEmail(ctx, *user.Email); err != nil {
			return err
		} else if exists {
			return models.NewConflictError(op, "email", "email already registered")
		}
	}
	if user.HasPhone() {
		if exists, err := r.ExistsByPhone(ctx, *user.Phone); err != nil {
			return err
		} else if exists {
			return models.NewConflictError(op, "phone", "phone already registered")
		}
	}
	if err := r.conn(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(op, "email", "user already exists")
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	return notFoundAsNil(&user, r.one(ctx).First(&user, "id = ?", id).Error)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	return notFoundAsNil(&user, r.one(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	return notFoundAsNil(&user, r.one(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&user).Error)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.User{}).Where("phone = ?", strings.TrimSpace(phone)).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context, page PageRequest) (Page[models.User], error) {
	query := r.conn(ctx).Model(&models.User{})
	return paginate[models.User](query, page, userSort.orderBy(page.Sort, "users"))
}

// Update writes every column. CreatedAt is never rewritten.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.Touch()
	err := r.conn(ctx).Omit("created_at", clause.Associations).Save(user).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("UserRepository.Update", "email", "email or phone already registered")
	}
	return err
}

// Delete removes a user who owns no orders and no reviews. Orders keep their
// customer, so a user with order history cannot be deleted; deactivate instead.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "UserRepository.Delete"
	var orders int64
	if err := r.conn(ctx).Model(&models.Order{}).Where("user_id = ?", id).Count(&orders).Error; err != nil {
		return err
	}
	if orders > 0 {
		return models.NewConflictError(op, "id", "user has orders")
	}
	err := r.conn(ctx).Delete(&models.User{}, "id = ?", id).Error
	if isForeignKeyViolation(err) {
		return models.NewConflictError(op, "id", "user is still referenced")
	}
	return err
}

// normalizeEmail matches the form NewUser stores.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
