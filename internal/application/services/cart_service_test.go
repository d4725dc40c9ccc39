package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	impl "github.com/pedalcraft/commerce-backend/internal/application/services"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory KeyedStore for tests.
type memStore struct {
	data map[string]map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memStore) GetHashFields(ctx context.Context, key string) (map[string]string, error) {
	out := make(map[string]string, len(m.data[key]))
	for f, v := range m.data[key] {
		out[f] = v
	}
	return out, nil
}

func (m *memStore) SetHashField(ctx context.Context, key, field, value string, ttl time.Duration) error {
	if m.data[key] == nil {
		m.data[key] = make(map[string]string)
	}
	m.data[key][field] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) GetHashField(ctx context.Context, key, field string) (string, bool, error) {
	v, ok := m.data[key][field]
	return v, ok, nil
}

func (m *memStore) DeleteHashField(ctx context.Context, key, field string) (bool, error) {
	if _, ok := m.data[key][field]; !ok {
		return false, nil
	}
	delete(m.data[key], field)
	if len(m.data[key]) == 0 {
		delete(m.data, key)
	}
	return true, nil
}

func (m *memStore) DeleteKey(ctx context.Context, key string) error {
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *memStore) KeyExists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) RefreshTtl(ctx context.Context, key string, ttl time.Duration) error {
	if _, ok := m.data[key]; ok {
		m.ttls[key] = ttl
	}
	return nil
}

// catalogMock is a func-field PricedProductSource.
type catalogMock struct {
	products map[string]catalog.PricedProduct
	deltas   map[string]decimal.Decimal
}

func (m *catalogMock) GetPricedProducts(ctx context.Context, ids []string, locale string) (map[string]catalog.PricedProduct, error) {
	out := make(map[string]catalog.PricedProduct)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *catalogMock) GetComponentPriceDeltas(ctx context.Context, componentIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, id := range componentIDs {
		if d, ok := m.deltas[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testCatalog() *catalogMock {
	return &catalogMock{
		products: map[string]catalog.PricedProduct{
			"p1": {ID: "p1", SKU: "SKU-1", Name: "Overdrive", UnitPrice: dec("100.00"), VATRate: dec("0.20"), IsPurchasable: true},
			"p2": {ID: "p2", SKU: "SKU-2", Name: "Fuzz", UnitPrice: dec("50.00"), VATRate: dec("0.20"), IsPurchasable: true},
			"p3": {ID: "p3", SKU: "SKU-3", Name: "Retired", UnitPrice: dec("10.00"), VATRate: dec("0.20"), IsPurchasable: false},
		},
		deltas: map[string]decimal.Decimal{
			"c1": dec("15.00"),
			"c2": dec("-5.00"),
		},
	}
}

func newCartService(store *memStore) *impl.CartService {
	return impl.NewCartService(store, testCatalog(), time.Hour, nil).(*impl.CartService)
}

func TestAddItem_Additive(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 2, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := svc.AddItem(ctx, "cart:user:u1", "p1", 3, nil, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Lines[0].Quantity)
	}
	if store.data["cart:user:u1"]["p1"] != "5" {
		t.Fatalf("expected stored quantity 5, got %q", store.data["cart:user:u1"]["p1"])
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc := newCartService(newMemStore())
	if _, err := svc.AddItem(context.Background(), "cart:user:u1", "p1", 0, nil, "en"); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddItem_UnknownOrUnpurchasableProduct(t *testing.T) {
	svc := newCartService(newMemStore())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "nope", 1, nil, "en"); !errors.Is(err, cart.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for unknown product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "cart:user:u1", "p3", 1, nil, "en"); !errors.Is(err, cart.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for unpurchasable product, got %v", err)
	}
}

func TestAddItem_WithOptionsStoresModifier(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	opts := []cart.SelectedOption{
		{OptionGroupName: "Knobs", SelectedComponentID: "c1", SelectedComponentName: "Brass"},
		{OptionGroupName: "Finish", SelectedComponentID: "c2", SelectedComponentName: "Matte"},
	}

	view, err := svc.AddItem(context.Background(), "cart:user:u1", "p1", 1, opts, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.data["cart:user:u1:modifiers"]["p1"] != "10" {
		t.Fatalf("expected stored modifier 10, got %q", store.data["cart:user:u1:modifiers"]["p1"])
	}
	line := view.Lines[0]
	if !line.EffectiveUnitPrice.Equal(dec("110.00")) {
		t.Fatalf("expected effective price 110.00, got %s", line.EffectiveUnitPrice)
	}
	if len(line.SelectedOptions) != 2 {
		t.Fatalf("expected 2 selected options, got %d", len(line.SelectedOptions))
	}
}

func TestUpdateItemQuantity_Overwrites(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 4, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := svc.UpdateItemQuantity(ctx, "cart:user:u1", "p1", 2, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", view.Lines[0].Quantity)
	}
}

func TestUpdateItemQuantity_Errors(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.UpdateItemQuantity(ctx, "cart:user:u1", "p1", 2, "en"); !errors.Is(err, cart.ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart for absent item, got %v", err)
	}
	if _, err := svc.UpdateItemQuantity(ctx, "cart:user:u1", "p1", 0, "en"); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	// A malformed stored quantity reads as absent.
	_ = store.SetHashField(ctx, "cart:user:u1", "p1", "garbage", time.Hour)
	if _, err := svc.UpdateItemQuantity(ctx, "cart:user:u1", "p1", 2, "en"); !errors.Is(err, cart.ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart for malformed quantity, got %v", err)
	}
}

func TestRemoveItem_CleansAllFields(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()
	opts := []cart.SelectedOption{{OptionGroupName: "Knobs", SelectedComponentID: "c1", SelectedComponentName: "Brass"}}

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 1, opts, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveItem(ctx, "cart:user:u1", "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"cart:user:u1", "cart:user:u1:modifiers", "cart:user:u1:selectedoptions"} {
		if _, ok := store.data[key]["p1"]; ok {
			t.Fatalf("expected %s field removed", key)
		}
	}

	// Removing an absent item is a no-op.
	if err := svc.RemoveItem(ctx, "cart:user:u1", "p1"); err != nil {
		t.Fatalf("expected idempotent remove, got %v", err)
	}
}

func TestClearCart_DeletesAllKeys(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()
	opts := []cart.SelectedOption{{OptionGroupName: "Knobs", SelectedComponentID: "c1", SelectedComponentName: "Brass"}}

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 1, opts, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ClearCart(ctx, "cart:user:u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected empty store, got %v", store.data)
	}
}

func TestGetCart_PricesAndTotals(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 2, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(ctx, "cart:user:u1", "p2", 1, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.GetCart(ctx, "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalItems != 3 {
		t.Fatalf("expected 3 total items, got %d", view.TotalItems)
	}
	if !view.Subtotal.Equal(dec("250.00")) {
		t.Fatalf("expected subtotal 250.00, got %s", view.Subtotal)
	}
	if !view.VATAmount.Equal(dec("50.00")) {
		t.Fatalf("expected VAT 50.00, got %s", view.VATAmount)
	}
	if !view.Total.Equal(dec("300.00")) {
		t.Fatalf("expected total 300.00, got %s", view.Total)
	}
}

func TestGetCart_SkipsMalformedAndMissingProducts(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	_ = store.SetHashField(ctx, "cart:user:u1", "p1", "2", time.Hour)
	_ = store.SetHashField(ctx, "cart:user:u1", "p2", "garbage", time.Hour)
	_ = store.SetHashField(ctx, "cart:user:u1", "gone", "1", time.Hour)

	view, err := svc.GetCart(ctx, "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].ProductID != "p1" {
		t.Fatalf("expected p1, got %s", view.Lines[0].ProductID)
	}
}

func TestGetCart_Empty(t *testing.T) {
	svc := newCartService(newMemStore())
	view, err := svc.GetCart(context.Background(), "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Empty() {
		t.Fatalf("expected empty view")
	}
	if view.Lines == nil {
		t.Fatalf("expected non-nil lines slice")
	}
}

func TestMergeCarts_EmptySourceIsInert(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 2, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.MergeCarts(ctx, "cart:session:s1", "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalItems != 2 {
		t.Fatalf("expected destination untouched, got %d items", view.TotalItems)
	}
}

func TestMergeCarts_SumsAndDeletesSource(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 2, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := []cart.SelectedOption{{OptionGroupName: "Knobs", SelectedComponentID: "c1", SelectedComponentName: "Brass"}}
	if _, err := svc.AddItem(ctx, "cart:session:s1", "p1", 3, opts, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(ctx, "cart:session:s1", "p2", 1, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.MergeCarts(ctx, "cart:session:s1", "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]cart.Line)
	for _, line := range view.Lines {
		byID[line.ProductID] = line
	}
	if byID["p1"].Quantity != 5 {
		t.Fatalf("expected merged quantity 5 for p1, got %d", byID["p1"].Quantity)
	}
	if byID["p2"].Quantity != 1 {
		t.Fatalf("expected quantity 1 for p2, got %d", byID["p2"].Quantity)
	}

	// Destination had no p1 modifier, so the source's selection carries over.
	if !byID["p1"].PriceModifier.Equal(dec("15.00")) {
		t.Fatalf("expected carried modifier 15.00, got %s", byID["p1"].PriceModifier)
	}

	for _, key := range []string{"cart:session:s1", "cart:session:s1:modifiers", "cart:session:s1:selectedoptions"} {
		if _, ok := store.data[key]; ok {
			t.Fatalf("expected source key %s deleted", key)
		}
	}
}

func TestMergeCarts_DestinationSelectionWins(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	destOpts := []cart.SelectedOption{{OptionGroupName: "Knobs", SelectedComponentID: "c1", SelectedComponentName: "Brass"}}
	if _, err := svc.AddItem(ctx, "cart:user:u1", "p1", 1, destOpts, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	srcOpts := []cart.SelectedOption{{OptionGroupName: "Finish", SelectedComponentID: "c2", SelectedComponentName: "Matte"}}
	if _, err := svc.AddItem(ctx, "cart:session:s1", "p1", 1, srcOpts, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.MergeCarts(ctx, "cart:session:s1", "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := view.Lines[0]
	if line.Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %d", line.Quantity)
	}
	if !line.PriceModifier.Equal(dec("15.00")) {
		t.Fatalf("expected destination modifier 15.00 to win, got %s", line.PriceModifier)
	}
	if line.SelectedOptions[0].SelectedComponentID != "c1" {
		t.Fatalf("expected destination options to win, got %s", line.SelectedOptions[0].SelectedComponentID)
	}
}

func TestMergeCarts_SkipsInvalidSourceQuantities(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	_ = store.SetHashField(ctx, "cart:session:s1", "p1", "garbage", time.Hour)
	_ = store.SetHashField(ctx, "cart:session:s1", "p2", "2", time.Hour)

	view, err := svc.MergeCarts(ctx, "cart:session:s1", "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "p2" {
		t.Fatalf("expected only p2 merged, got %+v", view.Lines)
	}
	// A non-empty source is deleted even when some fields were invalid.
	if _, ok := store.data["cart:session:s1"]; ok {
		t.Fatalf("expected source deleted")
	}
}

func TestPriceModifierAccessors(t *testing.T) {
	store := newMemStore()
	svc := newCartService(store)
	ctx := context.Background()

	if err := svc.SetPriceModifier(ctx, "cart:user:u1", "p1", dec("-10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = store.SetHashField(ctx, "cart:user:u1:modifiers", "p2", "not-a-number", time.Hour)

	mods, err := svc.GetAllPriceModifiers(ctx, "cart:user:u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected malformed modifier skipped, got %v", mods)
	}
	if !mods["p1"].Equal(dec("-10.00")) {
		t.Fatalf("expected -10.00, got %s", mods["p1"])
	}

	if err := svc.RemovePriceModifier(ctx, "cart:user:u1", "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mods, _ = svc.GetAllPriceModifiers(ctx, "cart:user:u1")
	if _, ok := mods["p1"]; ok {
		t.Fatalf("expected modifier removed")
	}
}
