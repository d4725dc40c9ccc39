package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// CatalogService fronts the (cached) product and category repositories. Reads
// go through the cache decorators; writes stamp timestamps and ids and rely on
// the decorators for invalidation.
type CatalogService struct {
	products   ports.ProductRepository
	categories ports.CategoryRepository
	logger     *logrus.Logger
}

func NewCatalogService(products ports.ProductRepository, categories ports.CategoryRepository, logger *logrus.Logger) ports.CatalogService {
	return &CatalogService{products: products, categories: categories, logger: logger}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error) {
	return s.products.GetByID(ctx, id, locale)
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error) {
	return s.products.GetBySlug(ctx, slug, locale)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error) {
	filter.Normalize()
	return s.products.List(ctx, filter)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"product_id": p.ID, "sku": p.SKU}).Info("product created")
	}
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	p.UpdatedAt = time.Now()
	return s.products.Update(ctx, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *CatalogService) ReplaceProductTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error {
	return s.products.ReplaceTranslations(ctx, id, translations)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID, locale string) (*catalog.Category, error) {
	return s.categories.GetByID(ctx, id, locale)
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug, locale string) (*catalog.Category, error) {
	return s.categories.GetBySlug(ctx, slug, locale)
}

func (s *CatalogService) ListCategories(ctx context.Context, filter *catalog.CategoryFilter) (*catalog.CategoryPage, error) {
	filter.Normalize()
	return s.categories.List(ctx, filter)
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *catalog.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return s.categories.Create(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	c.UpdatedAt = time.Now()
	return s.categories.Update(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

func (s *CatalogService) ReplaceCategoryTranslations(ctx context.Context, id uuid.UUID, translations []catalog.CategoryTranslation) error {
	return s.categories.ReplaceTranslations(ctx, id, translations)
}
