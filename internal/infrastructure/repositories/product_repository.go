package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/db"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductRepository implements the product repository interface over Postgres.
type ProductRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(database *db.Database, logger *logrus.Logger) ports.ProductRepository {
	return &ProductRepository{db: database, logger: logger}
}

const productSelect = `
	SELECT p.id, p.sku, p.slug, p.category_id, p.unit_price, p.vat_rate,
	       p.is_active, p.is_customizable, p.created_at, p.updated_at,
	       COALESCE(t.name, '') AS name, COALESCE(t.description, '') AS description
	FROM products p
	LEFT JOIN product_translations t ON t.product_id = p.id AND t.locale = $1`

func (r *ProductRepository) scanProduct(row *sql.Row, locale string) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Slug, &p.CategoryID, &p.UnitPrice, &p.VATRate,
		&p.IsActive, &p.IsCustomizable, &p.CreatedAt, &p.UpdatedAt,
		&p.Name, &p.Description,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p.Locale = locale
	return &p, nil
}

// GetByID retrieves a product by ID; nil when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID, locale string) (*catalog.Product, error) {
	row := r.db.DB.QueryRowContext(ctx, productSelect+` WHERE p.id = $2`, locale, id)
	p, err := r.scanProduct(row, locale)
	if err != nil || p == nil {
		return p, err
	}
	if err := r.loadOptionGroups(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug retrieves a product by slug; nil when absent.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug, locale string) (*catalog.Product, error) {
	row := r.db.DB.QueryRowContext(ctx, productSelect+` WHERE p.slug = $2`, locale, slug)
	p, err := r.scanProduct(row, locale)
	if err != nil || p == nil {
		return p, err
	}
	if err := r.loadOptionGroups(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) loadOptionGroups(ctx context.Context, p *catalog.Product) error {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT g.id, g.name, c.id, c.name, c.price_delta
		FROM option_groups g
		JOIN option_components c ON c.option_group_id = g.id
		WHERE g.product_id = $1
		ORDER BY g.name, c.name`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load option groups: %w", err)
	}
	defer rows.Close()

	groups := map[uuid.UUID]*catalog.OptionGroup{}
	var order []uuid.UUID
	for rows.Next() {
		var groupID uuid.UUID
		var groupName string
		var comp catalog.OptionComponent
		if err := rows.Scan(&groupID, &groupName, &comp.ID, &comp.Name, &comp.PriceDelta); err != nil {
			return fmt.Errorf("failed to scan option component: %w", err)
		}
		g, ok := groups[groupID]
		if !ok {
			g = &catalog.OptionGroup{ID: groupID, Name: groupName}
			groups[groupID] = g
			order = append(order, groupID)
		}
		g.Components = append(g.Components, comp)
	}
	for _, id := range order {
		p.OptionGroups = append(p.OptionGroups, *groups[id])
	}
	return rows.Err()
}

// List returns one page of products matching the filter.
func (r *ProductRepository) List(ctx context.Context, filter *catalog.ProductFilter) (*catalog.ProductPage, error) {
	filter.Normalize()

	where := []string{"1=1"}
	args := []any{filter.Locale}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(t.name ILIKE %s OR p.sku ILIKE %s)", p, p))
	}
	if filter.CategoryID != nil {
		where = append(where, "p.category_id = "+arg(*filter.CategoryID))
	}
	if filter.PriceMin != nil {
		where = append(where, "p.unit_price >= "+arg(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		where = append(where, "p.unit_price <= "+arg(*filter.PriceMax))
	}
	if filter.ActiveOnly != nil && *filter.ActiveOnly {
		where = append(where, "p.is_active")
	}
	if filter.CustomizableOnly != nil && *filter.CustomizableOnly {
		where = append(where, "p.is_customizable")
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM products p LEFT JOIN product_translations t ON t.product_id = p.id AND t.locale = $1` + whereClause
	if err := r.db.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy := "p.created_at"
	switch filter.SortBy {
	case "name":
		orderBy = "t.name"
	case "price":
		orderBy = "p.unit_price"
	case "sku":
		orderBy = "p.sku"
	}
	direction := "ASC"
	if filter.SortDirection == catalog.SortDesc {
		direction = "DESC"
	}

	query := productSelect + whereClause +
		fmt.Sprintf(" ORDER BY %s %s", orderBy, direction) +
		" LIMIT " + arg(filter.PageSize) +
		" OFFSET " + arg((filter.Page-1)*filter.PageSize)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	page := &catalog.ProductPage{Items: []*catalog.Product{}, Total: total, Page: filter.Page, PageSize: filter.PageSize}
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Slug, &p.CategoryID, &p.UnitPrice, &p.VATRate,
			&p.IsActive, &p.IsCustomizable, &p.CreatedAt, &p.UpdatedAt,
			&p.Name, &p.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Locale = filter.Locale
		page.Items = append(page.Items, &p)
	}
	return page, rows.Err()
}

// Create creates a product with its translations.
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, sku, slug, category_id, unit_price, vat_rate, is_active, is_customizable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.SKU, p.Slug, p.CategoryID, p.UnitPrice, p.VATRate, p.IsActive, p.IsCustomizable)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	for _, t := range p.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_translations (product_id, locale, name, description)
			VALUES ($1, $2, $3, $4)`, p.ID, t.Locale, t.Name, t.Description); err != nil {
			return fmt.Errorf("failed to create product translation: %w", err)
		}
	}
	return tx.Commit()
}

// Update updates product master data (not translations).
func (r *ProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE products
		SET sku = $2, slug = $3, category_id = $4, unit_price = $5, vat_rate = $6,
		    is_active = $7, is_customizable = $8, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.SKU, p.Slug, p.CategoryID, p.UnitPrice, p.VATRate, p.IsActive, p.IsCustomizable)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// Delete deletes a product; translations and options cascade.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// ReplaceTranslations swaps the full translation set atomically.
func (r *ProductRepository) ReplaceTranslations(ctx context.Context, id uuid.UUID, translations []catalog.ProductTranslation) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_translations WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product translations: %w", err)
	}
	for _, t := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_translations (product_id, locale, name, description)
			VALUES ($1, $2, $3, $4)`, id, t.Locale, t.Name, t.Description); err != nil {
			return fmt.Errorf("failed to insert product translation: %w", err)
		}
	}
	return tx.Commit()
}

// GetPricedProducts batch-resolves the slim pricing projection the cart uses.
// Ids that don't parse or don't exist are absent from the result.
func (r *ProductRepository) GetPricedProducts(ctx context.Context, ids []string, locale string) (map[string]catalog.PricedProduct, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		if id, err := uuid.Parse(raw); err == nil {
			parsed = append(parsed, id)
		}
	}
	result := make(map[string]catalog.PricedProduct, len(parsed))
	if len(parsed) == 0 {
		return result, nil
	}

	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT p.id, p.sku, COALESCE(t.name, ''), p.unit_price, p.vat_rate, p.is_active
		FROM products p
		LEFT JOIN product_translations t ON t.product_id = p.id AND t.locale = $1
		WHERE p.id = ANY($2)`, locale, pq.Array(parsed))
	if err != nil {
		return nil, fmt.Errorf("failed to get priced products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var pp catalog.PricedProduct
		if err := rows.Scan(&id, &pp.SKU, &pp.Name, &pp.UnitPrice, &pp.VATRate, &pp.IsPurchasable); err != nil {
			return nil, fmt.Errorf("failed to scan priced product: %w", err)
		}
		pp.ID = id.String()
		result[pp.ID] = pp
	}
	return result, rows.Err()
}

// GetComponentPriceDeltas batch-resolves option component price deltas.
func (r *ProductRepository) GetComponentPriceDeltas(ctx context.Context, componentIDs []string) (map[string]decimal.Decimal, error) {
	parsed := make([]uuid.UUID, 0, len(componentIDs))
	for _, raw := range componentIDs {
		if id, err := uuid.Parse(raw); err == nil {
			parsed = append(parsed, id)
		}
	}
	result := make(map[string]decimal.Decimal, len(parsed))
	if len(parsed) == 0 {
		return result, nil
	}

	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, price_delta FROM option_components WHERE id = ANY($1)`, pq.Array(parsed))
	if err != nil {
		return nil, fmt.Errorf("failed to get component price deltas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var delta decimal.Decimal
		if err := rows.Scan(&id, &delta); err != nil {
			return nil, fmt.Errorf("failed to scan price delta: %w", err)
		}
		result[id.String()] = delta
	}
	return result, rows.Err()
}

// Locales returns the locales a product is translated into.
func (r *ProductRepository) Locales(ctx context.Context, id uuid.UUID) ([]string, error) {
	var locales []string
	err := r.db.DB.SelectContext(ctx, &locales,
		`SELECT locale FROM product_translations WHERE product_id = $1 ORDER BY locale`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product locales: %w", err)
	}
	return locales, nil
}
