package repositories_test

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/repositories"
	"github.com/shopspring/decimal"
)

// memCache is an in-memory ports.Cache for tests.
type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	failSweeps bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSweeps {
		return 0, errors.New("sweep failed")
	}
	deleted := 0
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// productRepoMock is a func-field ports.ProductRepository.
type productRepoMock struct {
	getByIDFn   func(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error)
	getBySlugFn func(ctx context.Context, slug, locale string) (*catalog.Product, error)
	listFn      func(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error)
	localesFn   func(ctx context.Context, id uuid.UUID) ([]string, error)
	updateFn    func(ctx context.Context, p *catalog.Product) error
}

func (m *productRepoMock) GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, locale)
	}
	return nil, nil
}

func (m *productRepoMock) GetBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug, locale)
	}
	return nil, nil
}

func (m *productRepoMock) List(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &catalog.ProductPage{Items: []*catalog.Product{}}, nil
}

func (m *productRepoMock) GetPricedProducts(ctx context.Context, ids []string, locale string) (map[string]catalog.PricedProduct, error) {
	return map[string]catalog.PricedProduct{}, nil
}

func (m *productRepoMock) GetComponentPriceDeltas(ctx context.Context, componentIDs []string) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}

func (m *productRepoMock) Create(ctx context.Context, p *catalog.Product) error { return nil }

func (m *productRepoMock) Update(ctx context.Context, p *catalog.Product) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *productRepoMock) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *productRepoMock) ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error {
	return nil
}

func (m *productRepoMock) Locales(ctx context.Context, id uuid.UUID) ([]string, error) {
	if m.localesFn != nil {
		return m.localesFn(ctx, id)
	}
	return []string{"en"}, nil
}

func testProduct(id uuid.UUID) *catalog.Product {
	return &catalog.Product{ID: id, SKU: "SKU-1", Slug: "overdrive", Name: "Overdrive", Locale: "en", IsActive: true}
}

func TestProductDetail_CachedAfterFirstRead(t *testing.T) {
	id := uuid.New()
	calls := 0
	inner := &productRepoMock{
		getByIDFn: func(ctx context.Context, gotID uuid.UUID, locale string) (*catalog.Product, error) {
			calls++
			return testProduct(id), nil
		},
	}
	cache := newMemCache()
	repo := repositories.NewCachingProductRepository(inner, cache, time.Hour, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := repo.GetByID(ctx, id, "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p == nil || p.Slug != "overdrive" {
			t.Fatalf("unexpected product: %+v", p)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", calls)
	}

	// The ID read also populated the slug key, so a slug lookup is a hit.
	slugCalls := 0
	inner.getBySlugFn = func(ctx context.Context, slug, locale string) (*catalog.Product, error) {
		slugCalls++
		return testProduct(id), nil
	}
	if _, err := repo.GetBySlug(ctx, "overdrive", "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slugCalls != 0 {
		t.Fatalf("expected slug lookup served from cache, got %d inner calls", slugCalls)
	}
}

func TestProductDetail_NilNeverCached(t *testing.T) {
	calls := 0
	inner := &productRepoMock{
		getByIDFn: func(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error) {
			calls++
			return nil, nil
		},
	}
	repo := repositories.NewCachingProductRepository(inner, newMemCache(), time.Hour, time.Minute, nil)
	ctx := context.Background()
	id := uuid.New()

	for i := 0; i < 2; i++ {
		p, err := repo.GetByID(ctx, id, "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Fatalf("expected nil product")
		}
	}
	if calls != 2 {
		t.Fatalf("expected every miss to hit the inner repository, got %d calls", calls)
	}
}

func TestProductListCacheKey_Deterministic(t *testing.T) {
	catID := uuid.New()
	min := decimal.NewFromInt(10)
	active := true
	build := func() *catalog.ProductFilter {
		return &catalog.ProductFilter{
			Locale:     "en",
			Page:       2,
			PageSize:   20,
			Search:     "fuzz",
			CategoryID: &catID,
			PriceMin:   &min,
			SortBy:     "price",
			ActiveOnly: &active,
		}
	}

	if repositories.ProductListCacheKey(build()) != repositories.ProductListCacheKey(build()) {
		t.Fatalf("equal filters must produce equal keys")
	}

	base := repositories.ProductListCacheKey(build())
	mutations := []func(f *catalog.ProductFilter){
		func(f *catalog.ProductFilter) { f.Locale = "de" },
		func(f *catalog.ProductFilter) { f.Page = 3 },
		func(f *catalog.ProductFilter) { f.PageSize = 50 },
		func(f *catalog.ProductFilter) { f.Search = "delay" },
		func(f *catalog.ProductFilter) { f.CategoryID = nil },
		func(f *catalog.ProductFilter) { f.PriceMin = nil },
		func(f *catalog.ProductFilter) { max := decimal.NewFromInt(99); f.PriceMax = &max },
		func(f *catalog.ProductFilter) { f.SortBy = "name" },
		func(f *catalog.ProductFilter) { f.SortDirection = catalog.SortDesc },
		func(f *catalog.ProductFilter) { f.ActiveOnly = nil },
		func(f *catalog.ProductFilter) { c := true; f.CustomizableOnly = &c },
	}
	for i, mutate := range mutations {
		f := build()
		mutate(f)
		if repositories.ProductListCacheKey(f) == base {
			t.Fatalf("mutation %d did not change the cache key", i)
		}
	}
}

func TestProductList_CachedAndSweptOnWrite(t *testing.T) {
	id := uuid.New()
	listCalls := 0
	inner := &productRepoMock{
		listFn: func(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error) {
			listCalls++
			return &catalog.ProductPage{Items: []*catalog.Product{testProduct(id)}, Total: 1, Page: 1, PageSize: 20}, nil
		},
		getByIDFn: func(ctx context.Context, gotID uuid.UUID, locale string) (*catalog.Product, error) {
			return testProduct(id), nil
		},
	}
	cache := newMemCache()
	repo := repositories.NewCachingProductRepository(inner, cache, time.Hour, time.Minute, nil)
	ctx := context.Background()
	filter := &catalog.ProductFilter{Locale: "en", Page: 1, PageSize: 20}

	for i := 0; i < 2; i++ {
		page, err := repo.List(ctx, filter)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Total != 1 {
			t.Fatalf("unexpected page: %+v", page)
		}
	}
	if listCalls != 1 {
		t.Fatalf("expected 1 inner list call, got %d", listCalls)
	}

	if err := repo.Update(ctx, testProduct(id)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.has(repositories.ProductListCacheKey(filter)) {
		t.Fatalf("expected list entry swept after write")
	}

	if _, err := repo.List(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listCalls != 2 {
		t.Fatalf("expected reload after sweep, got %d inner calls", listCalls)
	}
}

func TestProductUpdate_SweepFailureIsNotFatal(t *testing.T) {
	id := uuid.New()
	inner := &productRepoMock{
		getByIDFn: func(ctx context.Context, gotID uuid.UUID, locale string) (*catalog.Product, error) {
			return testProduct(id), nil
		},
	}
	cache := newMemCache()
	cache.failSweeps = true
	repo := repositories.NewCachingProductRepository(inner, cache, time.Hour, time.Minute, nil)

	if err := repo.Update(context.Background(), testProduct(id)); err != nil {
		t.Fatalf("expected write to succeed despite sweep failure, got %v", err)
	}
}

func TestCategoryListCacheKey_Deterministic(t *testing.T) {
	parent := uuid.New()
	build := func() *catalog.CategoryFilter {
		return &catalog.CategoryFilter{Locale: "en", Page: 1, PageSize: 20, ParentID: &parent}
	}
	if repositories.CategoryListCacheKey(build()) != repositories.CategoryListCacheKey(build()) {
		t.Fatalf("equal filters must produce equal keys")
	}
	other := build()
	other.Locale = "fr"
	if repositories.CategoryListCacheKey(other) == repositories.CategoryListCacheKey(build()) {
		t.Fatalf("locale must discriminate category list keys")
	}
}
