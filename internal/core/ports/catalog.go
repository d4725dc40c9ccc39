package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductReadRepository is the read path the cache decorator wraps. Lookups
// return (nil, nil) when the entity does not exist.
type ProductReadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error)
	GetBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error)
	List(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error)
}

// PricedProductSource is the slice of the catalog the cart engine consumes.
type PricedProductSource interface {
	// GetPricedProducts batch-resolves current pricing for the given product ids.
	// Unknown ids are simply absent from the result.
	GetPricedProducts(ctx context.Context, ids []string, locale string) (map[string]catalog.PricedProduct, error)
	// GetComponentPriceDeltas batch-resolves price deltas for option components.
	GetComponentPriceDeltas(ctx context.Context, componentIDs []string) (map[string]decimal.Decimal, error)
}

// ProductRepository adds the write path and the priced projections the cart
// engine consumes.
type ProductRepository interface {
	ProductReadRepository
	PricedProductSource
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p *catalog.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ReplaceTranslations swaps the full translation set for a product.
	ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error
	Locales(ctx context.Context, id uuid.UUID) ([]string, error)
}

type CategoryReadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Category, error)
	GetBySlug(ctx context.Context, slug, locale string) (*catalog.Category, error)
	List(ctx context.Context, filter *catalog.CategoryFilter) (*catalog.CategoryPage, error)
}

type CategoryRepository interface {
	CategoryReadRepository
	Create(ctx context.Context, c *catalog.Category) error
	Update(ctx context.Context, c *catalog.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.CategoryTranslation) error
	Locales(ctx context.Context, id uuid.UUID) ([]string, error)
}

// CacheInvalidator is the contract the admin write layer calls after mutating a
// cached entity. Detail invalidation is exact per (id|slug, locale); the list
// sweep is a best-effort pattern delete.
type CacheInvalidator interface {
	InvalidateDetailByID(ctx context.Context, id uuid.UUID, locale string) error
	InvalidateDetailBySlug(ctx context.Context, slug, locale string) error
	SweepListCache(ctx context.Context) error
}

// CatalogService is the admin-facing catalog API: plain CRUD plus the cache
// invalidation choreography.
type CatalogService interface {
	GetProduct(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error)
	GetProductBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error)
	ListProducts(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error)
	CreateProduct(ctx context.Context, p *catalog.Product) error
	UpdateProduct(ctx context.Context, p *catalog.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ReplaceProductTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error

	GetCategory(ctx context.Context, id uuid.UUID, locale string) (*catalog.Category, error)
	GetCategoryBySlug(ctx context.Context, slug, locale string) (*catalog.Category, error)
	ListCategories(ctx context.Context, filter *catalog.CategoryFilter) (*catalog.CategoryPage, error)
	CreateCategory(ctx context.Context, c *catalog.Category) error
	UpdateCategory(ctx context.Context, c *catalog.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ReplaceCategoryTranslations(ctx context.Context, id uuid.UUID, translations []catalog.CategoryTranslation) error
}
