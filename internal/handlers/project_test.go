package handlers

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/util"
)

func seedProject(t *testing.T, db *gorm.DB, clientID uint, status models.ProjectStatus) models.Project {
	t.Helper()

	proj := models.Project{
		ClientID:  clientID,
		Title:     "wedding highlight reel",
		Budget:    50000,
		Status:    status,
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, db.Create(&proj).Error)
	return proj
}

func withProjectID(c echo.Context, proj models.Project) {
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(proj.ID)))
}

func TestCreateProject(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")

	payload := map[string]any{
		"title":       "drone footage edit",
		"description": "90 second teaser",
		"budget":      30000,
	}
	c, rec := newContext(t, http.MethodPost, "/projects", payload, &client)
	require.NoError(t, h.CreateProject(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Project
	decodeBody(t, rec, &created)
	require.Equal(t, client.ID, created.ClientID)
	require.Equal(t, models.ProjectOpen, created.Status)
	require.Equal(t, int64(30000), created.Budget)

	var u models.User
	require.NoError(t, db.First(&u, client.ID).Error)
	require.Equal(t, uint(1), u.ProjectsPosted)
}

func TestCreateProjectValidation(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")

	c, _ := newContext(t, http.MethodPost, "/projects", map[string]any{"budget": 100}, &client)
	requireHTTPError(t, h.CreateProject(c), http.StatusBadRequest)

	c, _ = newContext(t, http.MethodPost, "/projects", map[string]any{
		"title": "x", "budget": -1,
	}, &client)
	requireHTTPError(t, h.CreateProject(c), http.StatusBadRequest)
}

func TestGetProjectsListsOpenByDefault(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")

	seedProject(t, db, client.ID, models.ProjectOpen)
	seedProject(t, db, client.ID, models.ProjectInProgress)
	seedProject(t, db, client.ID, models.ProjectCancelled)

	c, rec := newContext(t, http.MethodGet, "/projects", nil, nil)
	require.NoError(t, h.GetProjects(c))

	var resp struct {
		Data       []models.Project `json:"data"`
		Pagination util.Meta        `json:"pagination"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	require.Equal(t, models.ProjectOpen, resp.Data[0].Status)

	c, rec = newContext(t, http.MethodGet, "/projects?status=all", nil, nil)
	require.NoError(t, h.GetProjects(c))
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 3)

	c, rec = newContext(t, http.MethodGet, "/projects?mine=true", nil, &client)
	require.NoError(t, h.GetProjects(c))
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 3)
}

func TestPatchProjectOwnership(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")
	stranger := createUser(t, db, "stranger", "user")
	proj := seedProject(t, db, client.ID, models.ProjectOpen)

	c, _ := newContext(t, http.MethodPatch, "/projects/1", map[string]any{"budget": 60000}, &stranger)
	withProjectID(c, proj)
	requireHTTPError(t, h.PatchProject(c), http.StatusForbidden)

	c, rec := newContext(t, http.MethodPatch, "/projects/1", map[string]any{"budget": 60000}, &client)
	withProjectID(c, proj)
	require.NoError(t, h.PatchProject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Project
	require.NoError(t, db.First(&updated, proj.ID).Error)
	require.Equal(t, int64(60000), updated.Budget)
}

func TestPatchProjectOnlyWhileOpen(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")
	proj := seedProject(t, db, client.ID, models.ProjectInProgress)

	c, _ := newContext(t, http.MethodPatch, "/projects/1", map[string]any{"budget": 60000}, &client)
	withProjectID(c, proj)
	requireHTTPError(t, h.PatchProject(c), http.StatusBadRequest)
}

func TestCancelProject(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")
	stranger := createUser(t, db, "stranger", "user")
	proj := seedProject(t, db, client.ID, models.ProjectOpen)

	// Only the posting client may cancel.
	c, _ := newContext(t, http.MethodPost, "/projects/1/cancel", nil, &stranger)
	withProjectID(c, proj)
	requireHTTPError(t, h.CancelProject(c), http.StatusForbidden)

	c, rec := newContext(t, http.MethodPost, "/projects/1/cancel", nil, &client)
	withProjectID(c, proj)
	require.NoError(t, h.CancelProject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Project
	require.NoError(t, db.First(&stored, proj.ID).Error)
	require.Equal(t, models.ProjectCancelled, stored.Status)

	// Cancelled is terminal for the cancel flip.
	c, _ = newContext(t, http.MethodPost, "/projects/1/cancel", nil, &client)
	withProjectID(c, proj)
	requireHTTPError(t, h.CancelProject(c), http.StatusBadRequest)
}

func TestCancelProjectRequiresOpen(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")
	proj := seedProject(t, db, client.ID, models.ProjectInProgress)

	// An awarded project can no longer be withdrawn.
	c, _ := newContext(t, http.MethodPost, "/projects/1/cancel", nil, &client)
	withProjectID(c, proj)
	requireHTTPError(t, h.CancelProject(c), http.StatusBadRequest)
}

func TestCompleteProject(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")
	proj := seedProject(t, db, client.ID, models.ProjectInProgress)

	c, rec := newContext(t, http.MethodPost, "/projects/1/complete", nil, &client)
	withProjectID(c, proj)
	require.NoError(t, h.CompleteProject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Project
	require.NoError(t, db.First(&stored, proj.ID).Error)
	require.Equal(t, models.ProjectCompleted, stored.Status)
}

func TestCompleteProjectRequiresInProgress(t *testing.T) {
	db := initTestDB(t)
	h := &ProjectHandler{DB: db}
	client := createUser(t, db, "client", "user")

	// Neither an open nor a cancelled project can be completed.
	for _, status := range []models.ProjectStatus{models.ProjectOpen, models.ProjectCancelled} {
		proj := seedProject(t, db, client.ID, status)
		c, _ := newContext(t, http.MethodPost, "/projects/1/complete", nil, &client)
		withProjectID(c, proj)
		requireHTTPError(t, h.CompleteProject(c), http.StatusBadRequest)

		var stored models.Project
		require.NoError(t, db.First(&stored, proj.ID).Error)
		require.Equal(t, status, stored.Status)
	}
}
