package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uuid.UUID            `json:"id" db:"id"`
	SKU            string               `json:"sku" db:"sku"`
	Slug           string               `json:"slug" db:"slug"`
	CategoryID     uuid.UUID            `json:"category_id" db:"category_id"`
	UnitPrice      decimal.Decimal      `json:"unit_price" db:"unit_price"`
	VATRate        decimal.Decimal      `json:"vat_rate" db:"vat_rate"`
	IsActive       bool                 `json:"is_active" db:"is_active"`
	IsCustomizable bool                 `json:"is_customizable" db:"is_customizable"`
	Name           string               `json:"name" db:"name"`
	Description    string               `json:"description" db:"description"`
	Locale         string               `json:"locale" db:"locale"`
	OptionGroups   []OptionGroup        `json:"option_groups,omitempty"`
	Translations   []ProductTranslation `json:"-"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" db:"updated_at"`
}

// ProductTranslation is one localized name/description pair for a product.
type ProductTranslation struct {
	Locale      string `json:"locale" db:"locale"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// OptionGroup is a set of mutually exclusive customization components,
// e.g. "Grip color" with components "Black (+0)" and "Red (+5)".
type OptionGroup struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	Name       string            `json:"name" db:"name"`
	Components []OptionComponent `json:"components"`
}

type OptionComponent struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	PriceDelta decimal.Decimal `json:"price_delta" db:"price_delta"`
}

// PricedProduct is the slim projection the cart engine prices lines with.
type PricedProduct struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	IsPurchasable bool            `json:"is_purchasable"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ProductFilter carries every discriminating field of a product list query.
// All fields participate in the list cache key; adding a field here without
// teaching the key builder about it would make distinct queries collide.
type ProductFilter struct {
	Locale         string          `json:"locale" query:"locale"`
	Page           int             `json:"page" query:"page"`
	PageSize       int             `json:"page_size" query:"page_size"`
	Search         string          `json:"search" query:"search"`
	CategoryID     *uuid.UUID      `json:"category_id" query:"category_id"`
	PriceMin       *decimal.Decimal `json:"price_min" query:"price_min"`
	PriceMax       *decimal.Decimal `json:"price_max" query:"price_max"`
	SortBy         string          `json:"sort_by" query:"sort_by"`
	SortDirection  SortDirection   `json:"sort_direction" query:"sort_direction"`
	ActiveOnly     *bool           `json:"active_only" query:"active_only"`
	CustomizableOnly *bool         `json:"customizable_only" query:"customizable_only"`
}

// Normalize applies paging defaults so that equivalent queries build equal keys.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	if f.Locale == "" {
		f.Locale = "en"
	}
}

// ProductPage is one page of a product list query.
type ProductPage struct {
	Items    []*Product `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
