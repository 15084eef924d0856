package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/service"
	"github.com/editlance/marketplace/internal/util"
)

type OrderHandler struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req service.CreateOrderInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Create(ctx, actorID(c), req)
	if err != nil {
		l.Warn("create_order_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"total":       order.Total,
	})

	l.Info("create_order_success", "orderID", order.ID, "orderNumber", order.OrderNumber)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Svc.Get(ctx, actor(c), uint(id))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.List(ctx, actor(c), offset, limit)
	if err != nil {
		l.Error("list_orders_failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       orders,
		"pagination": util.NewMeta(page, limit, total),
	})
}

// PatchOrder multiplexes the lifecycle actions:
// cancel|confirm|ship|deliver|complete|updatePayment.
func (h *OrderHandler) PatchOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.patch_order")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Action        string               `json:"action"`
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var order *models.Order
	if req.Action == "updatePayment" {
		order, err = h.Svc.UpdatePayment(ctx, actor(c), uint(id), req.PaymentStatus)
	} else {
		order, err = h.Svc.Transition(ctx, actor(c), uint(id), req.Action)
	}
	if err != nil {
		l.Warn("patch_order_failed", "action", req.Action, "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_" + req.Action,
		"orderID": order.ID,
		"status":  order.Status,
		"payment": order.PaymentStatus,
	})

	l.Info("patch_order_success", "orderID", order.ID, "action", req.Action)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(ctx, actor(c), uint(id)); err != nil {
		l.Warn("delete_order_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"orderID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
