package services

import (
	"context"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatingSummary aggregates the approved reviews of one product.
type RatingSummary struct {
	ProductID uuid.UUID       `json:"productId"`
	Count     int             `json:"count"`
	Average   decimal.Decimal `json:"average"`
}

type ReviewService struct {
	store *repositories.Store
	deps
}

func NewReviewService(store *repositories.Store, opts ...Option) *ReviewService {
	return &ReviewService{store: store, deps: newDeps(opts)}
}

// SubmitReview stores an unapproved review. It is marked as a verified
// purchase when the user has a delivered order containing the product. A
// second review of the same product by the same user is a conflict.
func (s *ReviewService) SubmitReview(ctx context.Context, in models.ReviewInput) (*models.Review, error) {
	const op = "ReviewService.SubmitReview"
	review, err := models.NewReview(in)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		product, err := tx.Products.FindByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return models.NewNotFoundError(op, "product", in.ProductID.String())
		}
		user, err := tx.Users.FindByID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return models.NewNotFoundError(op, "user", in.UserID.String())
		}

		if in.OrderID != nil {
			order, err := tx.Orders.FindByID(ctx, *in.OrderID)
			if err != nil {
				return err
			}
			if order == nil {
				return models.NewNotFoundError(op, "order", in.OrderID.String())
			}
			if order.UserID == nil || *order.UserID != in.UserID || !containsProduct(order, in.ProductID) {
				return models.NewValidationError(op, "orderId", "order does not contain this product for this user")
			}
		}

		verified, err := tx.Orders.HasDeliveredPurchase(ctx, in.UserID, in.ProductID)
		if err != nil {
			return err
		}
		review.IsVerifiedPurchase = verified
		return tx.Reviews.Create(ctx, review)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review submitted", map[string]interface{}{
		"review_id":  review.ID.String(),
		"product_id": review.ProductID.String(),
		"verified":   review.IsVerifiedPurchase,
	})
	return review, nil
}

func containsProduct(order *models.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID != nil && *item.ProductID == productID {
			return true
		}
	}
	return false
}

// Approve makes a review publicly visible.
func (s *ReviewService) Approve(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	const op = "ReviewService.Approve"
	var review *models.Review
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if review, err = tx.Reviews.FindByID(ctx, id); err != nil {
			return err
		}
		if review == nil {
			return models.NewNotFoundError(op, "review", id.String())
		}
		if review.IsApproved {
			return nil
		}
		review.Approve()
		return tx.Reviews.Update(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Reject removes a review that will not be published.
func (s *ReviewService) Reject(ctx context.Context, id uuid.UUID) error {
	review, err := s.store.Reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if review == nil {
		return models.NewNotFoundError("ReviewService.Reject", "review", id.String())
	}
	return s.store.Reviews.Delete(ctx, id)
}

func (s *ReviewService) ListApproved(ctx context.Context, productID uuid.UUID, page repositories.PageRequest) (repositories.Page[models.Review], error) {
	return s.store.Reviews.FindApprovedByProduct(ctx, productID, page)
}

func (s *ReviewService) ListPending(ctx context.Context, page repositories.PageRequest) (repositories.Page[models.Review], error) {
	return s.store.Reviews.FindPending(ctx, page)
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID, page repositories.PageRequest) (repositories.Page[models.Review], error) {
	return s.store.Reviews.FindByUser(ctx, userID, page)
}

// Rating averages the approved ratings of a product, rounded to two places.
func (s *ReviewService) Rating(ctx context.Context, productID uuid.UUID) (RatingSummary, error) {
	reviews, err := s.store.Reviews.AllApprovedByProduct(ctx, productID)
	if err != nil {
		return RatingSummary{}, err
	}
	summary := RatingSummary{ProductID: productID, Count: len(reviews), Average: decimal.Zero}
	if len(reviews) == 0 {
		return summary, nil
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	summary.Average = sum.DivRound(decimal.NewFromInt(int64(len(reviews))), 2)
	return summary, nil
}
