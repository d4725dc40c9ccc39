package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/catalog"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listCategories(c echo.Context) error {
	var filter catalog.CategoryFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter parameters")
	}
	if filter.Locale == "" {
		filter.Locale = helpers.GetLocale(c)
	}

	page, err := s.catalogService.ListCategories(c.Request().Context(), &filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list categories")
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category ID")
	}

	category, err := s.catalogService.GetCategory(c.Request().Context(), id, helpers.GetLocale(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}
	if category == nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}
	return c.JSON(http.StatusOK, category)
}

func (s *Server) getCategoryBySlug(c echo.Context) error {
	category, err := s.catalogService.GetCategoryBySlug(c.Request().Context(), c.Param("slug"), helpers.GetLocale(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}
	if category == nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}
	return c.JSON(http.StatusOK, category)
}

func (s *Server) createCategory(c echo.Context) error {
	var category catalog.Category
	if err := c.Bind(&category); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if category.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug is required")
	}

	if err := s.catalogService.CreateCategory(c.Request().Context(), &category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category ID")
	}

	var category catalog.Category
	if err := c.Bind(&category); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	category.ID = id

	if err := s.catalogService.UpdateCategory(c.Request().Context(), &category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category ID")
	}

	if err := s.catalogService.DeleteCategory(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) replaceCategoryTranslations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category ID")
	}

	var translations []catalog.CategoryTranslation
	if err := c.Bind(&translations); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.catalogService.ReplaceCategoryTranslations(c.Request().Context(), id, translations); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to replace translations")
	}
	return c.NoContent(http.StatusNoContent)
}
