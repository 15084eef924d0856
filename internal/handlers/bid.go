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
	"github.com/editlance/marketplace/internal/util"
)

type BidHandler struct {
	Svc      *service.BidService
	Producer *mykafka.Producer
}

func (h *BidHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "bid_events", fmt.Sprint(event["bidID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *BidHandler) CreateBid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bid.create_bid")

	var req service.BidInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	bid, err := h.Svc.Create(ctx, actorID(c), req)
	if err != nil {
		l.Warn("create_bid_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":         "bid_placed",
		"bidID":        bid.ID,
		"projectID":    bid.ProjectID,
		"freelancerID": bid.FreelancerID,
		"amount":       bid.Amount,
	})

	l.Info("create_bid_success", "bidID", bid.ID, "projectID", bid.ProjectID)
	return c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) UpdateBid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bid.update_bid")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req service.BidInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	bid, err := h.Svc.Update(ctx, actorID(c), uint(id), req)
	if err != nil {
		l.Warn("update_bid_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, bid)
}

// DecideBid handles the client side: {action: accept|reject}.
func (h *BidHandler) DecideBid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bid.decide_bid")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	switch req.Action {
	case "accept":
		accepted, err := h.Svc.Accept(ctx, actorID(c), uint(id))
		if err != nil {
			l.Warn("decide_bid_failed", "action", "accept", "error", err)
			return httpError(err)
		}
		h.publish(c, map[string]any{
			"type":         "bid_accepted",
			"bidID":        accepted.ID,
			"projectID":    accepted.ProjectID,
			"freelancerID": accepted.FreelancerID,
		})
		l.Info("decide_bid_success", "bidID", accepted.ID, "action", "accept")
		return c.JSON(http.StatusOK, accepted)
	case "reject":
		rejected, err := h.Svc.Reject(ctx, actorID(c), uint(id))
		if err != nil {
			l.Warn("decide_bid_failed", "action", "reject", "error", err)
			return httpError(err)
		}
		h.publish(c, map[string]any{
			"type":      "bid_rejected",
			"bidID":     rejected.ID,
			"projectID": rejected.ProjectID,
		})
		l.Info("decide_bid_success", "bidID", rejected.ID, "action", "reject")
		return c.JSON(http.StatusOK, rejected)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "action must be accept or reject")
	}
}

func (h *BidHandler) WithdrawBid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bid.withdraw_bid")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	bid, err := h.Svc.Withdraw(ctx, actorID(c), uint(id))
	if err != nil {
		l.Warn("withdraw_bid_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":      "bid_withdrawn",
		"bidID":     bid.ID,
		"projectID": bid.ProjectID,
	})

	return c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) ListProjectBids(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil || projectID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, bids, err := h.Svc.ListByProject(ctx, uint(projectID), offset, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       bids,
		"pagination": util.NewMeta(page, limit, total),
	})
}
