package handlers

import (
	"fmt"
	"math"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/ratelimit"
)

type ContactHandler struct {
	DB      *gorm.DB
	Limiter ratelimit.Limiter
}

// SubmitContact stores a contact form submission, one per email per window.
func (h *ContactHandler) SubmitContact(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.submit_contact")

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and message are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	allowed, retryAfter, err := h.Limiter.Allow(ctx, req.Email)
	if err != nil {
		l.Error("contact_limiter_error", "error", err)
	}
	if !allowed {
		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Response().Header().Set("Retry-After", fmt.Sprint(seconds))
		l.Warn("submit_contact_failed", "status", 429, "email", req.Email)
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many submissions, try again later")
	}

	contact := models.Contact{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().Unix(),
	}
	if err := h.DB.WithContext(ctx).Create(&contact).Error; err != nil {
		l.Error("submit_contact_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save submission")
	}

	l.Info("submit_contact_success", "contactID", contact.ID)
	return c.JSON(http.StatusCreated, echo.Map{"message": "thanks, we will get back to you"})
}

// ListContacts is admin-only triage of the inbox.
func (h *ContactHandler) ListContacts(c echo.Context) error {
	ctx := c.Request().Context()

	var items []models.Contact
	if err := h.DB.WithContext(ctx).Order("created_at DESC").Limit(100).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list submissions")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}
