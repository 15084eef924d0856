package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
)

// CouponHandler is admin-only coupon management.
type CouponHandler struct {
	DB *gorm.DB
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create_coupon")

	var req struct {
		Code   string `json:"code"`
		Amount int64  `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	coupon := models.Coupon{Code: req.Code, Amount: req.Amount, Active: true}
	if err := h.DB.WithContext(ctx).Create(&coupon).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			l.Warn("create_coupon_failed", "status", 409, "code", req.Code)
			return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
		}
		l.Error("create_coupon_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create coupon")
	}

	l.Info("create_coupon_success", "couponID", coupon.ID)
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	var coupons []models.Coupon
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Find(&coupons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list coupons")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": coupons})
}

// PatchCoupon toggles a coupon on or off.
func (h *CouponHandler) PatchCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.patch_coupon")

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "active required")
	}

	res := h.DB.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", c.Param("id")).
		Update("active", *req.Active)
	if res.Error != nil {
		l.Error("patch_coupon_failed", "status", 500, "error", res.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update coupon")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "coupon updated"})
}
