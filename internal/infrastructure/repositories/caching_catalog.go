package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	productsCacheDomain   = "products"
	categoriesCacheDomain = "categories"
)

// singleflight group for coalescing cache-miss loads in-process
var sf singleflight.Group

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func detailIDKey(domain string, id uuid.UUID, locale string) string {
	return fmt.Sprintf("%s:detail:id:%s:%s", domain, id.String(), locale)
}

func detailSlugKey(domain, slug, locale string) string {
	return fmt.Sprintf("%s:detail:slug:%s:%s", domain, slug, locale)
}

func listKey(domain, filterHash string) string {
	return fmt.Sprintf("%s:list:%s", domain, filterHash)
}

func listPattern(domain string) string {
	return domain + ":list:*"
}

// hashFilterSegments builds the filter hash from the canonical segment list.
// Equal field values always produce equal segments, so equal keys.
func hashFilterSegments(segments []string) string {
	sum := sha256.Sum256([]byte(strings.Join(segments, "|")))
	return hex.EncodeToString(sum[:16])
}

func uuidSegment(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func decimalSegment(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func boolSegment(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// ProductListCacheKey derives the cache key for a product list query. Every
// discriminating filter field participates; leaving one out would make two
// different queries share an entry.
func ProductListCacheKey(f *catalog.ProductFilter) string {
	segments := []string{
		f.Locale,
		strconv.Itoa(f.Page),
		strconv.Itoa(f.PageSize),
		f.Search,
		uuidSegment(f.CategoryID),
		decimalSegment(f.PriceMin),
		decimalSegment(f.PriceMax),
		f.SortBy,
		string(f.SortDirection),
		boolSegment(f.ActiveOnly),
		boolSegment(f.CustomizableOnly),
	}
	return listKey(productsCacheDomain, hashFilterSegments(segments))
}

// CategoryListCacheKey derives the cache key for a category list query.
func CategoryListCacheKey(f *catalog.CategoryFilter) string {
	segments := []string{
		f.Locale,
		strconv.Itoa(f.Page),
		strconv.Itoa(f.PageSize),
		f.Search,
		uuidSegment(f.ParentID),
		f.SortBy,
		string(f.SortDirection),
		boolSegment(f.ActiveOnly),
	}
	return listKey(categoriesCacheDomain, hashFilterSegments(segments))
}

// CachingProductRepository decorates a ProductRepository with cache-aside
// reads: detail lookups get a long TTL and are never cached on a miss of the
// inner repository; list results get a short TTL and are swept wholesale on
// writes. Priced projections used by the cart are deliberately not cached.
type CachingProductRepository struct {
	inner     ports.ProductRepository
	cache     ports.Cache
	detailTTL time.Duration
	listTTL   time.Duration
	logger    *logrus.Logger
}

func NewCachingProductRepository(inner ports.ProductRepository, cache ports.Cache, detailTTL, listTTL time.Duration, logger *logrus.Logger) *CachingProductRepository {
	return &CachingProductRepository{inner: inner, cache: cache, detailTTL: detailTTL, listTTL: listTTL, logger: logger}
}

var _ ports.ProductRepository = (*CachingProductRepository)(nil)
var _ ports.CacheInvalidator = (*CachingProductRepository)(nil)

func (c *CachingProductRepository) GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error) {
	key := detailIDKey(productsCacheDomain, id, locale)
	if v, ok := cacheGet[catalog.Product](c.cache, ctx, key); ok {
		return v, nil
	}
	p, err := c.inner.GetByID(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	// A nil result is never cached; negative lookups must keep hitting the
	// inner repository.
	if p != nil {
		cacheSetSilently(c.cache, ctx, key, p, c.detailTTL)
		cacheSetSilently(c.cache, ctx, detailSlugKey(productsCacheDomain, p.Slug, locale), p, c.detailTTL)
	}
	return p, nil
}

func (c *CachingProductRepository) GetBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error) {
	key := detailSlugKey(productsCacheDomain, slug, locale)
	if v, ok := cacheGet[catalog.Product](c.cache, ctx, key); ok {
		return v, nil
	}
	p, err := c.inner.GetBySlug(ctx, slug, locale)
	if err != nil {
		return nil, err
	}
	if p != nil {
		cacheSetSilently(c.cache, ctx, key, p, c.detailTTL)
		cacheSetSilently(c.cache, ctx, detailIDKey(productsCacheDomain, p.ID, locale), p, c.detailTTL)
	}
	return p, nil
}

func (c *CachingProductRepository) List(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error) {
	key := ProductListCacheKey(filter)
	if v, ok := cacheGet[catalog.ProductPage](c.cache, ctx, key); ok {
		return v, nil
	}
	res, err, _ := sf.Do(key, func() (any, error) {
		if v, ok := cacheGet[catalog.ProductPage](c.cache, ctx, key); ok {
			return v, nil
		}
		page, err := c.inner.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(c.cache, ctx, key, page, c.listTTL)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	page, ok := res.(*catalog.ProductPage)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return page, nil
}

func (c *CachingProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.invalidateProduct(ctx, p.ID)
	return nil
}

func (c *CachingProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	c.invalidateProduct(ctx, p.ID)
	return nil
}

func (c *CachingProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Resolve slug and locales before the row disappears.
	locales, _ := c.inner.Locales(ctx, id)
	var slugs []string
	for _, locale := range locales {
		if p, err := c.inner.GetByID(ctx, id, locale); err == nil && p != nil {
			slugs = append(slugs, p.Slug)
			break
		}
	}
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	for _, locale := range locales {
		_ = c.InvalidateDetailByID(ctx, id, locale)
		for _, slug := range slugs {
			_ = c.InvalidateDetailBySlug(ctx, slug, locale)
		}
	}
	c.sweepLists(ctx)
	return nil
}

func (c *CachingProductRepository) ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error {
	if err := c.inner.ReplaceTranslations(ctx, id, translations); err != nil {
		return err
	}
	c.invalidateProduct(ctx, id)
	return nil
}

// GetPricedProducts bypasses the cache; cart pricing must always see current
// prices.
func (c *CachingProductRepository) GetPricedProducts(ctx context.Context, ids []string, locale string) (map[string]catalog.PricedProduct, error) {
	return c.inner.GetPricedProducts(ctx, ids, locale)
}

func (c *CachingProductRepository) GetComponentPriceDeltas(ctx context.Context, componentIDs []string) (map[string]decimal.Decimal, error) {
	return c.inner.GetComponentPriceDeltas(ctx, componentIDs)
}

func (c *CachingProductRepository) Locales(ctx context.Context, id uuid.UUID) ([]string, error) {
	return c.inner.Locales(ctx, id)
}

// invalidateProduct drops the detail entries for every locale the product is
// translated into, then sweeps the list caches.
func (c *CachingProductRepository) invalidateProduct(ctx context.Context, id uuid.UUID) {
	locales, err := c.inner.Locales(ctx, id)
	if err != nil {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"product_id": id}).WithError(err).Warn("failed to resolve locales for cache invalidation")
		}
	}
	for _, locale := range locales {
		if p, err := c.inner.GetByID(ctx, id, locale); err == nil && p != nil {
			_ = c.InvalidateDetailBySlug(ctx, p.Slug, locale)
		}
		_ = c.InvalidateDetailByID(ctx, id, locale)
	}
	c.sweepLists(ctx)
}

func (c *CachingProductRepository) InvalidateDetailByID(ctx context.Context, id uuid.UUID, locale string) error {
	return c.cache.Delete(ctx, detailIDKey(productsCacheDomain, id, locale))
}

func (c *CachingProductRepository) InvalidateDetailBySlug(ctx context.Context, slug, locale string) error {
	return c.cache.Delete(ctx, detailSlugKey(productsCacheDomain, slug, locale))
}

// SweepListCache bulk-deletes every cached product list. Best effort: a stale
// list entry self-heals within its TTL.
func (c *CachingProductRepository) SweepListCache(ctx context.Context) error {
	_, err := c.cache.DeleteByPattern(ctx, listPattern(productsCacheDomain))
	return err
}

func (c *CachingProductRepository) sweepLists(ctx context.Context) {
	if err := c.SweepListCache(ctx); err != nil && c.logger != nil {
		c.logger.WithError(err).Warn("product list cache sweep failed")
	}
}

// CachingCategoryRepository mirrors the product decorator for categories.
type CachingCategoryRepository struct {
	inner     ports.CategoryRepository
	cache     ports.Cache
	detailTTL time.Duration
	listTTL   time.Duration
	logger    *logrus.Logger
}

func NewCachingCategoryRepository(inner ports.CategoryRepository, cache ports.Cache, detailTTL, listTTL time.Duration, logger *logrus.Logger) *CachingCategoryRepository {
	return &CachingCategoryRepository{inner: inner, cache: cache, detailTTL: detailTTL, listTTL: listTTL, logger: logger}
}

var _ ports.CategoryRepository = (*CachingCategoryRepository)(nil)
var _ ports.CacheInvalidator = (*CachingCategoryRepository)(nil)

func (c *CachingCategoryRepository) GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Category, error) {
	key := detailIDKey(categoriesCacheDomain, id, locale)
	if v, ok := cacheGet[catalog.Category](c.cache, ctx, key); ok {
		return v, nil
	}
	cat, err := c.inner.GetByID(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	if cat != nil {
		cacheSetSilently(c.cache, ctx, key, cat, c.detailTTL)
		cacheSetSilently(c.cache, ctx, detailSlugKey(categoriesCacheDomain, cat.Slug, locale), cat, c.detailTTL)
	}
	return cat, nil
}

func (c *CachingCategoryRepository) GetBySlug(ctx context.Context, slug, locale string) (*catalog.Category, error) {
	key := detailSlugKey(categoriesCacheDomain, slug, locale)
	if v, ok := cacheGet[catalog.Category](c.cache, ctx, key); ok {
		return v, nil
	}
	cat, err := c.inner.GetBySlug(ctx, slug, locale)
	if err != nil {
		return nil, err
	}
	if cat != nil {
		cacheSetSilently(c.cache, ctx, key, cat, c.detailTTL)
		cacheSetSilently(c.cache, ctx, detailIDKey(categoriesCacheDomain, cat.ID, locale), cat, c.detailTTL)
	}
	return cat, nil
}

func (c *CachingCategoryRepository) List(ctx context.Context, filter *catalog.CategoryFilter) (*catalog.CategoryPage, error) {
	key := CategoryListCacheKey(filter)
	if v, ok := cacheGet[catalog.CategoryPage](c.cache, ctx, key); ok {
		return v, nil
	}
	res, err, _ := sf.Do(key, func() (any, error) {
		if v, ok := cacheGet[catalog.CategoryPage](c.cache, ctx, key); ok {
			return v, nil
		}
		page, err := c.inner.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(c.cache, ctx, key, page, c.listTTL)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	page, ok := res.(*catalog.CategoryPage)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return page, nil
}

func (c *CachingCategoryRepository) Create(ctx context.Context, cat *catalog.Category) error {
	if err := c.inner.Create(ctx, cat); err != nil {
		return err
	}
	c.invalidateCategory(ctx, cat.ID)
	return nil
}

func (c *CachingCategoryRepository) Update(ctx context.Context, cat *catalog.Category) error {
	if err := c.inner.Update(ctx, cat); err != nil {
		return err
	}
	c.invalidateCategory(ctx, cat.ID)
	return nil
}

func (c *CachingCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	locales, _ := c.inner.Locales(ctx, id)
	var slugs []string
	for _, locale := range locales {
		if cat, err := c.inner.GetByID(ctx, id, locale); err == nil && cat != nil {
			slugs = append(slugs, cat.Slug)
			break
		}
	}
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	for _, locale := range locales {
		_ = c.InvalidateDetailByID(ctx, id, locale)
		for _, slug := range slugs {
			_ = c.InvalidateDetailBySlug(ctx, slug, locale)
		}
	}
	c.sweepLists(ctx)
	return nil
}

func (c *CachingCategoryRepository) ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.CategoryTranslation) error {
	if err := c.inner.ReplaceTranslations(ctx, id, translations); err != nil {
		return err
	}
	c.invalidateCategory(ctx, id)
	return nil
}

func (c *CachingCategoryRepository) Locales(ctx context.Context, id uuid.UUID) ([]string, error) {
	return c.inner.Locales(ctx, id)
}

func (c *CachingCategoryRepository) invalidateCategory(ctx context.Context, id uuid.UUID) {
	locales, err := c.inner.Locales(ctx, id)
	if err != nil {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"category_id": id}).WithError(err).Warn("failed to resolve locales for cache invalidation")
		}
	}
	for _, locale := range locales {
		if cat, err := c.inner.GetByID(ctx, id, locale); err == nil && cat != nil {
			_ = c.InvalidateDetailBySlug(ctx, cat.Slug, locale)
		}
		_ = c.InvalidateDetailByID(ctx, id, locale)
	}
	c.sweepLists(ctx)
}

func (c *CachingCategoryRepository) InvalidateDetailByID(ctx context.Context, id uuid.UUID, locale string) error {
	return c.cache.Delete(ctx, detailIDKey(categoriesCacheDomain, id, locale))
}

func (c *CachingCategoryRepository) InvalidateDetailBySlug(ctx context.Context, slug, locale string) error {
	return c.cache.Delete(ctx, detailSlugKey(categoriesCacheDomain, slug, locale))
}

func (c *CachingCategoryRepository) SweepListCache(ctx context.Context) error {
	_, err := c.cache.DeleteByPattern(ctx, listPattern(categoriesCacheDomain))
	return err
}

func (c *CachingCategoryRepository) sweepLists(ctx context.Context) {
	if err := c.SweepListCache(ctx); err != nil && c.logger != nil {
		c.logger.WithError(err).Warn("category list cache sweep failed")
	}
}
