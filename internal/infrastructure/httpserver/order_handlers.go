package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/application/services"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/helpers"
)

type updateOrderStatusRequest struct {
	Status order.Status `json:"status"`
}

func (s *Server) checkout(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}
	cartKey, err := helpers.GetCartKeyFromContext(c)
	if err != nil {
		return err
	}

	var req order.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CountryCode == "" || req.PostalCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "country_code and postal_code are required")
	}

	o, err := s.orderService.Checkout(c.Request().Context(), userID, cartKey, helpers.GetLocale(c), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "checkout failed")
	}
	return c.JSON(http.StatusCreated, o)
}

func (s *Server) getOrder(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order ID")
	}

	o, err := s.orderService.GetOrder(c.Request().Context(), id)
	if err != nil || o == nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	// Orders are private to their owner.
	if o.UserID != userID {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) listOrders(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	orders, err := s.orderService.ListOrders(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order ID")
	}

	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	o, err := s.orderService.AdvanceStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatusTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update order status")
	}
	return c.JSON(http.StatusOK, o)
}
