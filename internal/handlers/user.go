package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	var user models.User
	if err := h.DB.First(&user, actorID(c)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	var profile models.FreelancerProfile
	err := h.DB.Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"user": user})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load profile")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user, "freelancer": profile})
}

func (h *UserHandler) PatchProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.patch_profile")

	var req struct {
		Username *string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, actorID(c)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if req.Username != nil {
		if *req.Username == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "username cannot be empty")
		}
		user.Username = *req.Username
	}

	if err := h.DB.Save(&user).Error; err != nil {
		l.Error("patch_profile_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update profile")
	}

	l.Info("patch_profile_success", "userID", user.ID)
	return c.JSON(http.StatusOK, user)
}

// UpsertFreelancer creates or replaces the caller's freelancer sub-profile.
func (h *UserHandler) UpsertFreelancer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.upsert_freelancer")

	var req struct {
		Skills     string `json:"skills"`
		HourlyRate int64  `json:"hourly_rate"`
		Available  *bool  `json:"available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.HourlyRate < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "hourly_rate must be >= 0")
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	var profile models.FreelancerProfile
	err := h.DB.Where("user_id = ?", actorID(c)).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.FreelancerProfile{
			UserID:     actorID(c),
			Skills:     req.Skills,
			HourlyRate: req.HourlyRate,
			Available:  available,
		}
		if err := h.DB.Create(&profile).Error; err != nil {
			l.Error("upsert_freelancer_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot create profile")
		}
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load profile")
	default:
		profile.Skills = req.Skills
		profile.HourlyRate = req.HourlyRate
		profile.Available = available
		if err := h.DB.Save(&profile).Error; err != nil {
			l.Error("upsert_freelancer_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update profile")
		}
	}

	l.Info("upsert_freelancer_success", "userID", actorID(c))
	return c.JSON(http.StatusOK, profile)
}
