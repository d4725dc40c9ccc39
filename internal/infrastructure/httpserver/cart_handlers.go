package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/helpers"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID       string                `json:"product_id"`
	Quantity        int64                 `json:"quantity"`
	SelectedOptions []cart.SelectedOption `json:"selected_options,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type mergeCartRequest struct {
	SessionID string `json:"session_id"`
}

type priceModifierRequest struct {
	Modifier decimal.Decimal `json:"modifier"`
}

// cartError maps the cart engine's sentinel errors onto HTTP statuses.
func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrItemNotInCart):
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	case errors.Is(err, cart.ErrInvalidQuantity):
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "cart operation failed")
	}
}

func (s *Server) getCart(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	view, err := s.cartService.GetCart(c.Request().Context(), cartKey, helpers.GetLocale(c))
	if err != nil {
		return cartError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) addCartItem(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	view, err := s.cartService.AddItem(c.Request().Context(), cartKey, req.ProductID, req.Quantity, req.SelectedOptions, helpers.GetLocale(c))
	if err != nil {
		return cartError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) updateCartItem(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	view, err := s.cartService.UpdateItemQuantity(c.Request().Context(), cartKey, c.Param("productId"), req.Quantity, helpers.GetLocale(c))
	if err != nil {
		return cartError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) removeCartItem(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	if err := s.cartService.RemoveItem(c.Request().Context(), cartKey, c.Param("productId")); err != nil {
		return cartError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearCart(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	if err := s.cartService.ClearCart(c.Request().Context(), cartKey); err != nil {
		return cartError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mergeCart folds a guest session cart into the caller's user cart. Called
// after login so nothing picked while anonymous is lost.
func (s *Server) mergeCart(c echo.Context) error {
	destKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	var req mergeCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	sourceKey := "cart:session:" + req.SessionID
	view, err := s.cartService.MergeCarts(c.Request().Context(), sourceKey, destKey, helpers.GetLocale(c))
	if err != nil {
		return cartError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) getCartPriceModifiers(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	modifiers, err := s.cartService.GetAllPriceModifiers(c.Request().Context(), cartKey)
	if err != nil {
		return cartError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"modifiers": modifiers})
}

func (s *Server) setCartPriceModifier(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	var req priceModifierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.cartService.SetPriceModifier(c.Request().Context(), cartKey, c.Param("productId"), req.Modifier); err != nil {
		return cartError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) removeCartPriceModifier(c echo.Context) error {
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	if err := s.cartService.RemovePriceModifier(c.Request().Context(), cartKey, c.Param("productId")); err != nil {
		return cartError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
