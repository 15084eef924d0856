package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/service"
)

type CartHandler struct {
	Svc      *service.CartService
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	view, err := h.Svc.Recompute(ctx, actorID(c))
	if err != nil {
		l.Error("get_cart_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	var req service.AddItemInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	view, err := h.Svc.AddItem(ctx, actorID(c), req)
	if err != nil {
		l.Warn("add_to_cart_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    actorID(c),
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	view, err := h.Svc.UpdateItem(ctx, actorID(c), uint(id), req.Quantity)
	if err != nil {
		l.Warn("update_item_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	view, err := h.Svc.RemoveItem(ctx, actorID(c), uint(id))
	if err != nil {
		l.Warn("remove_item_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_item_removed",
		"userID": actorID(c),
		"itemID": id,
	})

	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.Svc.Clear(ctx, actorID(c))
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": actorID(c),
	})

	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_coupon")

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	view, err := h.Svc.ApplyCoupon(ctx, actorID(c), req.Code)
	if err != nil {
		l.Warn("apply_coupon_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}
