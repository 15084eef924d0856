package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/util"
)

type ProjectHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ProjectHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "project_events", fmt.Sprint(event["projectID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.create_project")

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Budget      int64  `json:"budget"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if req.Budget < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "budget must be >= 0")
	}

	proj := models.Project{
		ClientID:    actorID(c),
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      models.ProjectOpen,
		CreatedAt:   time.Now().Unix(),
	}
	if err := h.DB.WithContext(ctx).Create(&proj).Error; err != nil {
		l.Error("create_project_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create project")
	}

	err := h.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", proj.ClientID).
		Update("projects_posted", gorm.Expr("projects_posted + 1")).Error
	if err != nil {
		l.Error("create_project_failed", "status", 500, "error", err)
	}

	h.publish(c, map[string]any{
		"type":      "project_created",
		"projectID": proj.ID,
		"clientID":  proj.ClientID,
		"title":     proj.Title,
	})

	l.Info("create_project_success", "projectID", proj.ID)
	return c.JSON(http.StatusCreated, proj)
}

// GetProjects lists open projects by default; status=all returns everything,
// mine=true narrows to the caller's own postings regardless of status.
func (h *ProjectHandler) GetProjects(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.get_projects")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.WithContext(ctx).Model(&models.Project{})
	if c.QueryParam("mine") == "true" {
		q = q.Where("client_id = ?", actorID(c))
	} else {
		switch status := c.QueryParam("status"); status {
		case "", string(models.ProjectOpen):
			q = q.Where("status = ?", models.ProjectOpen)
		case "all":
		default:
			q = q.Where("status = ?", status)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		l.Error("get_projects_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count projects")
	}

	var items []models.Project
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		l.Error("get_projects_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list projects")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       items,
		"pagination": util.NewMeta(page, limit, total),
	})
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var proj models.Project
	err = h.DB.WithContext(ctx).First(&proj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load project")
	}
	return c.JSON(http.StatusOK, proj)
}

func (h *ProjectHandler) loadOwned(c echo.Context) (*models.Project, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var proj models.Project
	err = h.DB.WithContext(c.Request().Context()).First(&proj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load project")
	}
	if proj.ClientID != actorID(c) && actorRole(c) != "admin" {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your project")
	}
	return &proj, nil
}

func (h *ProjectHandler) PatchProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.patch_project")

	proj, err := h.loadOwned(c)
	if err != nil {
		return err
	}
	if proj.Status != models.ProjectOpen {
		return echo.NewHTTPError(http.StatusBadRequest, "only open projects can be edited")
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Budget      *int64  `json:"budget"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "title cannot be empty")
		}
		proj.Title = *req.Title
	}
	if req.Description != nil {
		proj.Description = *req.Description
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "budget must be >= 0")
		}
		proj.Budget = *req.Budget
	}

	if err := h.DB.WithContext(ctx).Save(proj).Error; err != nil {
		l.Error("patch_project_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update project")
	}

	l.Info("patch_project_success", "projectID", proj.ID)
	return c.JSON(http.StatusOK, proj)
}

// CompleteProject closes an in-progress project once the work is delivered.
func (h *ProjectHandler) CompleteProject(c echo.Context) error {
	return h.transition(c, models.ProjectInProgress, models.ProjectCompleted, "project_completed")
}

// CancelProject withdraws a posting that has not been awarded yet.
func (h *ProjectHandler) CancelProject(c echo.Context) error {
	return h.transition(c, models.ProjectOpen, models.ProjectCancelled, "project_cancelled")
}

func (h *ProjectHandler) transition(c echo.Context, from, to models.ProjectStatus, event string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.transition")

	proj, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	res := h.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ?", proj.ID, from).
		Update("status", to)
	if res.Error != nil {
		l.Error("project_transition_failed", "status", 500, "error", res.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update project")
	}
	if res.RowsAffected == 0 {
		l.Warn("project_transition_failed", "status", 400, "from", from, "to", to, "projectID", proj.ID)
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("project is not %s", from))
	}
	proj.Status = to

	h.publish(c, map[string]any{
		"type":      event,
		"projectID": proj.ID,
	})

	l.Info("project_transition_success", "projectID", proj.ID, "to", to)
	return c.JSON(http.StatusOK, proj)
}
