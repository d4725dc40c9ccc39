package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID           uuid.UUID             `json:"id" db:"id"`
	Slug         string                `json:"slug" db:"slug"`
	ParentID     *uuid.UUID            `json:"parent_id,omitempty" db:"parent_id"`
	IsActive     bool                  `json:"is_active" db:"is_active"`
	Name         string                `json:"name" db:"name"`
	Description  string                `json:"description" db:"description"`
	Locale       string                `json:"locale" db:"locale"`
	Translations []CategoryTranslation `json:"-"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at" db:"updated_at"`
}

type CategoryTranslation struct {
	Locale      string `json:"locale" db:"locale"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// CategoryFilter mirrors ProductFilter for category list queries.
type CategoryFilter struct {
	Locale        string        `json:"locale" query:"locale"`
	Page          int           `json:"page" query:"page"`
	PageSize      int           `json:"page_size" query:"page_size"`
	Search        string        `json:"search" query:"search"`
	ParentID      *uuid.UUID    `json:"parent_id" query:"parent_id"`
	SortBy        string        `json:"sort_by" query:"sort_by"`
	SortDirection SortDirection `json:"sort_direction" query:"sort_direction"`
	ActiveOnly    *bool         `json:"active_only" query:"active_only"`
}

func (f *CategoryFilter) Normalize() {
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

type CategoryPage struct {
	Items    []*Category `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
