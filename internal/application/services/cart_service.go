package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	modifiersKeySuffix = ":modifiers"
	optionsKeySuffix   = ":selectedoptions"
)

// CartService implements ports.CartService on top of a KeyedStore. It is
// stateless; a cart exists exactly when its item hash has at least one field.
//
// The quantity increment is read-then-write, so two concurrent AddItem calls
// for the same product can race; making it atomic would need a store-native
// increment or a server-side script.
type CartService struct {
	store   ports.KeyedStore
	catalog ports.PricedProductSource
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewCartService creates a new cart service. ttl is the sliding cart
// expiration, refreshed on every successful write.
func NewCartService(store ports.KeyedStore, catalog ports.PricedProductSource, ttl time.Duration, logger *logrus.Logger) ports.CartService {
	return &CartService{store: store, catalog: catalog, ttl: ttl, logger: logger}
}

var _ ports.CartService = (*CartService)(nil)

func modifiersKey(cartKey string) string { return cartKey + modifiersKeySuffix }
func optionsKey(cartKey string) string   { return cartKey + optionsKeySuffix }

// parseQuantity reads a stored quantity field. Malformed or non-positive
// values read as absent; stale fields must never fail a live cart.
func parseQuantity(raw string) (int64, bool) {
	q, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || q <= 0 {
		return 0, false
	}
	return q, true
}

// parseModifier reads a stored price modifier, treating malformed values as
// absent.
func parseModifier(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// refreshCartTtl extends all three sibling keys together so none of them can
// expire ahead of the others.
func (s *CartService) refreshCartTtl(ctx context.Context, cartKey string) error {
	for _, key := range []string{cartKey, modifiersKey(cartKey), optionsKey(cartKey)} {
		if err := s.store.RefreshTtl(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("failed to refresh cart ttl: %w", err)
		}
	}
	return nil
}

// GetCart reads and prices the cart. Products no longer present in the catalog
// are dropped from the view rather than failing the read.
func (s *CartService) GetCart(ctx context.Context, cartKey, locale string) (*cart.View, error) {
	fields, err := s.store.GetHashFields(ctx, cartKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	quantities := make(map[string]int64, len(fields))
	ids := make([]string, 0, len(fields))
	for productID, raw := range fields {
		q, ok := parseQuantity(raw)
		if !ok {
			continue
		}
		quantities[productID] = q
		ids = append(ids, productID)
	}
	sort.Strings(ids)

	view := &cart.View{
		Key:       cartKey,
		Lines:     []cart.Line{},
		Subtotal:  decimal.Zero,
		VATAmount: decimal.Zero,
		Total:     decimal.Zero,
	}
	if len(ids) == 0 {
		return view, nil
	}

	priced, err := s.catalog.GetPricedProducts(ctx, ids, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	modifiers, err := s.GetAllPriceModifiers(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	options, err := s.getAllSelectedOptions(ctx, cartKey)
	if err != nil {
		return nil, err
	}

	for _, productID := range ids {
		product, ok := priced[productID]
		if !ok {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"product_id": productID, "cart_key": cartKey}).Debug("dropping cart item no longer in catalog")
			}
			continue
		}
		quantity := quantities[productID]
		modifier := decimal.Zero
		if m, ok := modifiers[productID]; ok {
			modifier = m
		}
		effective := product.UnitPrice.Add(modifier)
		subtotal := effective.Mul(decimal.NewFromInt(quantity))
		vat := subtotal.Mul(product.VATRate)

		view.Lines = append(view.Lines, cart.Line{
			ProductID:          productID,
			SKU:                product.SKU,
			Name:               product.Name,
			Quantity:           quantity,
			UnitPrice:          product.UnitPrice,
			PriceModifier:      modifier,
			EffectiveUnitPrice: effective,
			Subtotal:           subtotal,
			VATRate:            product.VATRate,
			VATAmount:          vat,
			SelectedOptions:    options[productID],
		})
		view.TotalItems += quantity
		view.Subtotal = view.Subtotal.Add(subtotal)
		view.VATAmount = view.VATAmount.Add(vat)
	}
	view.Total = view.Subtotal.Add(view.VATAmount)
	return view, nil
}

// AddItem increments the product's quantity (carts are additive; repeating an
// add never overwrites). When options are selected, their net price delta and
// the serialized selection are stored alongside the quantity.
func (s *CartService) AddItem(ctx context.Context, cartKey, productID string, quantity int64, selectedOptions []cart.SelectedOption, locale string) (*cart.View, error) {
	if quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}

	priced, err := s.catalog.GetPricedProducts(ctx, []string{productID}, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	product, ok := priced[productID]
	if !ok || !product.IsPurchasable {
		return nil, cart.ErrProductNotFound
	}

	current := int64(0)
	if raw, ok, err := s.store.GetHashField(ctx, cartKey, productID); err != nil {
		return nil, fmt.Errorf("failed to read cart quantity: %w", err)
	} else if ok {
		if q, valid := parseQuantity(raw); valid {
			current = q
		}
	}

	newQuantity := current + quantity
	if err := s.store.SetHashField(ctx, cartKey, productID, strconv.FormatInt(newQuantity, 10), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store cart quantity: %w", err)
	}

	if len(selectedOptions) > 0 {
		modifier, err := s.resolveOptionModifier(ctx, selectedOptions)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetHashField(ctx, modifiersKey(cartKey), productID, modifier.String(), s.ttl); err != nil {
			return nil, fmt.Errorf("failed to store price modifier: %w", err)
		}
		serialized, err := json.Marshal(selectedOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize selected options: %w", err)
		}
		if err := s.store.SetHashField(ctx, optionsKey(cartKey), productID, string(serialized), s.ttl); err != nil {
			return nil, fmt.Errorf("failed to store selected options: %w", err)
		}
	}

	if err := s.refreshCartTtl(ctx, cartKey); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"cart_key": cartKey, "product_id": productID, "quantity": newQuantity}).Debug("cart item added")
	}
	return s.GetCart(ctx, cartKey, locale)
}

// resolveOptionModifier sums the price deltas of the selected components.
// Components the catalog no longer knows contribute nothing.
func (s *CartService) resolveOptionModifier(ctx context.Context, selectedOptions []cart.SelectedOption) (decimal.Decimal, error) {
	componentIDs := make([]string, 0, len(selectedOptions))
	for _, opt := range selectedOptions {
		componentIDs = append(componentIDs, opt.SelectedComponentID)
	}
	deltas, err := s.catalog.GetComponentPriceDeltas(ctx, componentIDs)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to resolve option price deltas: %w", err)
	}
	modifier := decimal.Zero
	for _, opt := range selectedOptions {
		if delta, ok := deltas[opt.SelectedComponentID]; ok {
			modifier = modifier.Add(delta)
		}
	}
	return modifier, nil
}

// UpdateItemQuantity overwrites the stored quantity of an existing item.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartKey, productID string, quantity int64, locale string) (*cart.View, error) {
	if quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}

	raw, ok, err := s.store.GetHashField(ctx, cartKey, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart quantity: %w", err)
	}
	if !ok {
		return nil, cart.ErrItemNotInCart
	}
	if _, valid := parseQuantity(raw); !valid {
		return nil, cart.ErrItemNotInCart
	}

	if err := s.store.SetHashField(ctx, cartKey, productID, strconv.FormatInt(quantity, 10), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store cart quantity: %w", err)
	}
	if err := s.refreshCartTtl(ctx, cartKey); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, cartKey, locale)
}

// RemoveItem deletes the item's quantity, price modifier and selected options.
// Removing an absent item is not an error.
func (s *CartService) RemoveItem(ctx context.Context, cartKey, productID string) error {
	if _, err := s.store.DeleteHashField(ctx, cartKey, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if err := s.RemovePriceModifier(ctx, cartKey, productID); err != nil {
		return err
	}
	if _, err := s.store.DeleteHashField(ctx, optionsKey(cartKey), productID); err != nil {
		return fmt.Errorf("failed to remove selected options: %w", err)
	}
	return nil
}

// ClearCart deletes all three cart keys.
func (s *CartService) ClearCart(ctx context.Context, cartKey string) error {
	for _, key := range []string{cartKey, modifiersKey(cartKey), optionsKey(cartKey)} {
		if err := s.store.DeleteKey(ctx, key); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
	}
	return nil
}

// MergeCarts folds a session cart into a user cart after login. Quantities are
// summed per product. Modifiers and selected options only transfer for
// products the destination has no entry for; an existing destination selection
// always wins. An empty source makes the merge fully inert; otherwise the
// source keys are deleted, even when every source field was invalid.
func (s *CartService) MergeCarts(ctx context.Context, sourceCartKey, destCartKey, locale string) (*cart.View, error) {
	sourceItems, err := s.store.GetHashFields(ctx, sourceCartKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read source cart: %w", err)
	}
	if len(sourceItems) == 0 {
		return s.GetCart(ctx, destCartKey, locale)
	}

	sourceModifiers, err := s.store.GetHashFields(ctx, modifiersKey(sourceCartKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read source modifiers: %w", err)
	}
	sourceOptions, err := s.store.GetHashFields(ctx, optionsKey(sourceCartKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read source options: %w", err)
	}

	for productID, raw := range sourceItems {
		quantity, ok := parseQuantity(raw)
		if !ok {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"cart_key": sourceCartKey, "product_id": productID}).Warn("skipping invalid quantity during merge")
			}
			continue
		}

		destQuantity := int64(0)
		if destRaw, ok, err := s.store.GetHashField(ctx, destCartKey, productID); err != nil {
			return nil, fmt.Errorf("failed to read destination quantity: %w", err)
		} else if ok {
			if q, valid := parseQuantity(destRaw); valid {
				destQuantity = q
			}
		}

		merged := destQuantity + quantity
		if err := s.store.SetHashField(ctx, destCartKey, productID, strconv.FormatInt(merged, 10), s.ttl); err != nil {
			return nil, fmt.Errorf("failed to store merged quantity: %w", err)
		}

		if err := s.carryFieldIfAbsent(ctx, modifiersKey(sourceCartKey), modifiersKey(destCartKey), productID, sourceModifiers); err != nil {
			return nil, err
		}
		if err := s.carryFieldIfAbsent(ctx, optionsKey(sourceCartKey), optionsKey(destCartKey), productID, sourceOptions); err != nil {
			return nil, err
		}
	}

	if err := s.refreshCartTtl(ctx, destCartKey); err != nil {
		return nil, err
	}
	for _, key := range []string{sourceCartKey, modifiersKey(sourceCartKey), optionsKey(sourceCartKey)} {
		if err := s.store.DeleteKey(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to delete source cart: %w", err)
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"source": sourceCartKey, "dest": destCartKey}).Info("carts merged")
	}
	return s.GetCart(ctx, destCartKey, locale)
}

// carryFieldIfAbsent copies a source hash field to the destination only when
// the destination has no value for it yet.
func (s *CartService) carryFieldIfAbsent(ctx context.Context, sourceKey, destKey, field string, sourceFields map[string]string) error {
	value, ok := sourceFields[field]
	if !ok {
		return nil
	}
	if _, exists, err := s.store.GetHashField(ctx, destKey, field); err != nil {
		return fmt.Errorf("failed to read destination field: %w", err)
	} else if exists {
		return nil
	}
	if err := s.store.SetHashField(ctx, destKey, field, value, s.ttl); err != nil {
		return fmt.Errorf("failed to carry field to destination: %w", err)
	}
	return nil
}

// SetPriceModifier stores a per-product price delta directly.
func (s *CartService) SetPriceModifier(ctx context.Context, cartKey, productID string, modifier decimal.Decimal) error {
	if err := s.store.SetHashField(ctx, modifiersKey(cartKey), productID, modifier.String(), s.ttl); err != nil {
		return fmt.Errorf("failed to store price modifier: %w", err)
	}
	return nil
}

// GetAllPriceModifiers returns every parseable price modifier for the cart.
func (s *CartService) GetAllPriceModifiers(ctx context.Context, cartKey string) (map[string]decimal.Decimal, error) {
	fields, err := s.store.GetHashFields(ctx, modifiersKey(cartKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read price modifiers: %w", err)
	}
	modifiers := make(map[string]decimal.Decimal, len(fields))
	for productID, raw := range fields {
		if d, ok := parseModifier(raw); ok {
			modifiers[productID] = d
		}
	}
	return modifiers, nil
}

// RemovePriceModifier deletes a product's price modifier; absence is fine.
func (s *CartService) RemovePriceModifier(ctx context.Context, cartKey, productID string) error {
	if _, err := s.store.DeleteHashField(ctx, modifiersKey(cartKey), productID); err != nil {
		return fmt.Errorf("failed to remove price modifier: %w", err)
	}
	return nil
}

// getAllSelectedOptions reads the serialized option selections, skipping
// entries that no longer parse.
func (s *CartService) getAllSelectedOptions(ctx context.Context, cartKey string) (map[string][]cart.SelectedOption, error) {
	fields, err := s.store.GetHashFields(ctx, optionsKey(cartKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read selected options: %w", err)
	}
	options := make(map[string][]cart.SelectedOption, len(fields))
	for productID, raw := range fields {
		var opts []cart.SelectedOption
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			continue
		}
		options[productID] = opts
	}
	return options, nil
}
