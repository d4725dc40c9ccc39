package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/db"
	"github.com/sirupsen/logrus"
)

// CategoryRepository implements the category repository interface over Postgres.
type CategoryRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(database *db.Database, logger *logrus.Logger) ports.CategoryRepository {
	return &CategoryRepository{db: database, logger: logger}
}

const categorySelect = `
	SELECT c.id, c.slug, c.parent_id, c.is_active, c.created_at, c.updated_at,
	       COALESCE(t.name, '') AS name, COALESCE(t.description, '') AS description
	FROM categories c
	LEFT JOIN category_translations t ON t.category_id = c.id AND t.locale = $1`

func (r *CategoryRepository) scanCategory(row *sql.Row, locale string) (*catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(
		&c.ID, &c.Slug, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		&c.Name, &c.Description,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	c.Locale = locale
	return &c, nil
}

// GetByID retrieves a category by ID; nil when absent.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Category, error) {
	row := r.db.DB.QueryRowContext(ctx, categorySelect+` WHERE c.id = $2`, locale, id)
	return r.scanCategory(row, locale)
}

// GetBySlug retrieves a category by slug; nil when absent.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug, locale string) (*catalog.Category, error) {
	row := r.db.DB.QueryRowContext(ctx, categorySelect+` WHERE c.slug = $2`, locale, slug)
	return r.scanCategory(row, locale)
}

// List returns one page of categories matching the filter.
func (r *CategoryRepository) List(ctx context.Context, filter *catalog.CategoryFilter) (*catalog.CategoryPage, error) {
	filter.Normalize()

	where := []string{"1=1"}
	args := []any{filter.Locale}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		where = append(where, "t.name ILIKE "+arg("%"+filter.Search+"%"))
	}
	if filter.ParentID != nil {
		where = append(where, "c.parent_id = "+arg(*filter.ParentID))
	}
	if filter.ActiveOnly != nil && *filter.ActiveOnly {
		where = append(where, "c.is_active")
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM categories c LEFT JOIN category_translations t ON t.category_id = c.id AND t.locale = $1` + whereClause
	if err := r.db.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	orderBy := "c.created_at"
	if filter.SortBy == "name" {
		orderBy = "t.name"
	}
	direction := "ASC"
	if filter.SortDirection == catalog.SortDesc {
		direction = "DESC"
	}

	query := categorySelect + whereClause +
		fmt.Sprintf(" ORDER BY %s %s", orderBy, direction) +
		" LIMIT " + arg(filter.PageSize) +
		" OFFSET " + arg((filter.Page-1)*filter.PageSize)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	page := &catalog.CategoryPage{Items: []*catalog.Category{}, Total: total, Page: filter.Page, PageSize: filter.PageSize}
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(
			&c.ID, &c.Slug, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
			&c.Name, &c.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Locale = filter.Locale
		page.Items = append(page.Items, &c)
	}
	return page, rows.Err()
}

// Create creates a category with its translations.
func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO categories (id, slug, parent_id, is_active)
		VALUES ($1, $2, $3, $4)`, c.ID, c.Slug, c.ParentID, c.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	for _, t := range c.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, $2, $3, $4)`, c.ID, t.Locale, t.Name, t.Description); err != nil {
			return fmt.Errorf("failed to create category translation: %w", err)
		}
	}
	return tx.Commit()
}

// Update updates category master data.
func (r *CategoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE categories
		SET slug = $2, parent_id = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1`, c.ID, c.Slug, c.ParentID, c.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// Delete deletes a category; translations cascade.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// ReplaceTranslations swaps the full translation set atomically.
func (r *CategoryRepository) ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.CategoryTranslation) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_translations WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete category translations: %w", err)
	}
	for _, t := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, $2, $3, $4)`, id, t.Locale, t.Name, t.Description); err != nil {
			return fmt.Errorf("failed to insert category translation: %w", err)
		}
	}
	return tx.Commit()
}

// Locales returns the locales a category is translated into.
func (r *CategoryRepository) Locales(ctx context.Context, id uuid.UUID) ([]string, error) {
	var locales []string
	err := r.db.DB.SelectContext(ctx, &locales,
		`SELECT locale FROM category_translations WHERE category_id = $1 ORDER BY locale`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category locales: %w", err)
	}
	return locales, nil
}
