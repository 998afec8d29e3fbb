package services

import (
	"context"
	"io"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
)

type CatalogService struct {
	store *repositories.Store
	deps
}

func NewCatalogService(store *repositories.Store, opts ...Option) *CatalogService {
	return &CatalogService{store: store, deps: newDeps(opts)}
}

// CreateProduct lists a new active product. A seller, when given, must be an
// active SELLER or ADMIN account.
func (s *CatalogService) CreateProduct(ctx context.Context, sellerID *uuid.UUID, in models.ProductInput) (*models.Product, error) {
	const op = "CatalogService.CreateProduct"
	if sellerID != nil {
		seller, err := s.store.Users.FindByID(ctx, *sellerID)
		if err != nil {
			return nil, err
		}
		if seller == nil {
			return nil, models.NewNotFoundError(op, "seller", sellerID.String())
		}
		if !seller.IsActive || (seller.Role != models.RoleSeller && seller.Role != models.RoleAdmin) {
			return nil, models.NewValidationError(op, "sellerId", "user cannot sell products")
		}
	}

	product, err := models.NewProduct(sellerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.NewNotFoundError("CatalogService.GetProduct", "product", id.String())
	}
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in models.ProductInput) (*models.Product, error) {
	return s.mutate(ctx, "CatalogService.UpdateProduct", id, func(p *models.Product) error {
		return p.Update(in)
	})
}

// SetActive shows or hides a product in the storefront.
func (s *CatalogService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Product, error) {
	return s.mutate(ctx, "CatalogService.SetActive", id, func(p *models.Product) error {
		p.SetActive(active)
		return nil
	})
}

// AddImage uploads an image and appends its URL to the product's gallery. The
// first image becomes the main image.
func (s *CatalogService) AddImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (*models.Product, error) {
	const op = "CatalogService.AddImage"
	if s.images == nil {
		return nil, &models.DomainError{Op: op, Kind: models.KindConfig, Message: "no image storage configured", Err: models.ErrMissingConfiguration}
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, id, filename, contentType, body)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product image uploaded", map[string]interface{}{"product_id": id.String(), "url": url})

	return s.mutate(ctx, op, id, func(p *models.Product) error {
		p.AddImageURL(url)
		return nil
	})
}

// mutate applies fn to a freshly locked copy of the product and saves it.
func (s *CatalogService) mutate(ctx context.Context, op string, id uuid.UUID, fn func(*models.Product) error) (*models.Product, error) {
	var product *models.Product
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if product, err = tx.Products.FindByID(ctx, id); err != nil {
			return err
		}
		if product == nil {
			return models.NewNotFoundError(op, "product", id.String())
		}
		if err := fn(product); err != nil {
			return err
		}
		return tx.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return product, nil
}

// Categories lists the distinct categories of active products.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.cache.Categories(ctx, s.store.Products.FindAllCategories)
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	return s.cache.Featured(ctx, s.store.Products.FindFeatured)
}

// ListActive pages through active products, optionally within one category.
func (s *CatalogService) ListActive(ctx context.Context, category string, page repositories.PageRequest) (repositories.Page[models.Product], error) {
	if category = strings.TrimSpace(category); category != "" {
		return s.store.Products.FindActiveByCategory(ctx, category, page)
	}
	return s.store.Products.FindActive(ctx, page)
}

func (s *CatalogService) ListBySeller(ctx context.Context, sellerID uuid.UUID, page repositories.PageRequest) (repositories.Page[models.Product], error) {
	return s.store.Products.FindActiveBySeller(ctx, sellerID, page)
}

// Search matches term against titles and descriptions. A blank term lists
// every active product.
func (s *CatalogService) Search(ctx context.Context, term string, page repositories.PageRequest) (repositories.Page[models.Product], error) {
	if strings.TrimSpace(term) == "" {
		return s.store.Products.FindActive(ctx, page)
	}
	return s.store.Products.Search(ctx, term, page)
}
