package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listProducts(c echo.Context) error {
	var filter catalog.ProductFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter parameters")
	}
	if filter.Locale == "" {
		filter.Locale = helpers.GetLocale(c)
	}

	page, err := s.catalogService.ListProducts(c.Request().Context(), &filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product ID")
	}

	product, err := s.catalogService.GetProduct(c.Request().Context(), id, helpers.GetLocale(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}
	if product == nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) getProductBySlug(c echo.Context) error {
	product, err := s.catalogService.GetProductBySlug(c.Request().Context(), c.Param("slug"), helpers.GetLocale(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}
	if product == nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) createProduct(c echo.Context) error {
	var product catalog.Product
	if err := c.Bind(&product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if product.SKU == "" || product.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku and slug are required")
	}

	if err := s.catalogService.CreateProduct(c.Request().Context(), &product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}
	return c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product ID")
	}

	var product catalog.Product
	if err := c.Bind(&product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	product.ID = id

	if err := s.catalogService.UpdateProduct(c.Request().Context(), &product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product ID")
	}

	if err := s.catalogService.DeleteProduct(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete product")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) replaceProductTranslations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product ID")
	}

	var translations []catalog.ProductTranslation
	if err := c.Bind(&translations); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.catalogService.ReplaceProductTranslations(c.Request().Context(), id, translations); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to replace translations")
	}
	return c.NoContent(http.StatusNoContent)
}
