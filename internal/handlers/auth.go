package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/hash"
	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and a password of at least 8 characters are required")
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		l.Warn("register_failed", "status", 409, "reason", "user exists")
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check user")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	user := models.User{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: pwHash,
		Role:         "user",
		VerifyToken:  uuid.NewString(),
		CreatedAt:    time.Now().Unix(),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":         "user_registered",
		"userID":       user.ID,
		"username":     user.Username,
		"verify_token": user.VerifyToken,
	})

	l.Info("register_success", "userID", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify")

	tok := c.QueryParam("token")
	if tok == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token required")
	}

	var user models.User
	if err := h.DB.Where("verify_token = ?", tok).First(&user).Error; err != nil {
		l.Warn("verify_failed", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "unknown verification token")
	}

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"email_verified": true,
		"verify_token":   "",
	}).Error; err != nil {
		l.Error("verify_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot verify account")
	}

	l.Info("verify_success", "userID", user.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "account verified"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "bad password", "userID", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.EmailVerified {
		l.Warn("login_failed", "status", 401, "reason", "unverified", "userID", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "account not verified")
	}

	access, refresh, err := h.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue tokens")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "userID", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"token":         access,
		"refresh_token": refresh,
		"user":          user,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
	}

	access, refresh, err := h.Tokens.Rotate(req.RefreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":         access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
	}

	if err := h.Tokens.Revoke(req.RefreshToken); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
