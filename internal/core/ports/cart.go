package ports

import (
	"context"
	"time"

	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/shopspring/decimal"
)

// KeyedStore is the minimal hash-field contract the cart engine needs from the
// shared key-value store. Implementations namespace every key with a fixed
// prefix before it reaches the store. Connectivity failures propagate to the
// caller as-is; this layer does not retry.
type KeyedStore interface {
	// GetHashFields returns the full hash for key, or an empty map if absent.
	GetHashFields(ctx context.Context, key string) (map[string]string, error)
	// SetHashField sets a field and then refreshes the key's expiration to ttl.
	// A key must never be left without an expiration after a set.
	SetHashField(ctx context.Context, key, field, value string, ttl time.Duration) error
	// GetHashField returns the field value; ok=false if key or field is absent.
	GetHashField(ctx context.Context, key, field string) (string, bool, error)
	// DeleteHashField removes a field, reporting whether it existed.
	DeleteHashField(ctx context.Context, key, field string) (bool, error)
	DeleteKey(ctx context.Context, key string) error
	KeyExists(ctx context.Context, key string) (bool, error)
	// RefreshTtl extends the key's expiration without modifying its contents.
	RefreshTtl(ctx context.Context, key string, ttl time.Duration) error
}

// CartService is the cart engine. Cart keys are opaque partition strings of the
// form cart:user:{id} or cart:session:{id}; the engine never parses them.
type CartService interface {
	GetCart(ctx context.Context, cartKey, locale string) (*cart.View, error)
	AddItem(ctx context.Context, cartKey, productID string, quantity int64, selectedOptions []cart.SelectedOption, locale string) (*cart.View, error)
	UpdateItemQuantity(ctx context.Context, cartKey, productID string, quantity int64, locale string) (*cart.View, error)
	RemoveItem(ctx context.Context, cartKey, productID string) error
	ClearCart(ctx context.Context, cartKey string) error
	// MergeCarts folds the source cart into the destination after login.
	// Quantities are summed; the destination's option selections win; the
	// source key is deleted unless the source was entirely absent.
	MergeCarts(ctx context.Context, sourceCartKey, destCartKey, locale string) (*cart.View, error)

	SetPriceModifier(ctx context.Context, cartKey, productID string, modifier decimal.Decimal) error
	GetAllPriceModifiers(ctx context.Context, cartKey string) (map[string]decimal.Decimal, error)
	RemovePriceModifier(ctx context.Context, cartKey, productID string) error
}
