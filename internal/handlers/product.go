package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/models"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/service/search"
	"github.com/editlance/marketplace/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

// reindex keeps the search index in step with catalog writes. Best effort:
// a failed index write is logged and the request still succeeds.
func (h *ProductHandler) reindex(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var product models.Product
	err = h.DB.Where("id = ? AND status <> ?", id, models.ProductDeleted).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("get_product_failed", "status", 404, "productID", id)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		l.Error("get_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load product")
	}

	return c.JSON(http.StatusOK, product)
}

// GetProducts lists active products with the shared filter set:
// page, limit, category, minPrice, maxPrice, search, sortBy.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{}).Where("status = ?", models.ProductActive)

	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if minPrice := c.QueryParam("minPrice"); minPrice != "" {
		if v, err := strconv.ParseInt(minPrice, 10, 64); err == nil {
			q = q.Where("sale_price >= ?", v)
		}
	}
	if maxPrice := c.QueryParam("maxPrice"); maxPrice != "" {
		if v, err := strconv.ParseInt(maxPrice, 10, 64); err == nil {
			q = q.Where("sale_price <= ?", v)
		}
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	order := "id ASC"
	switch c.QueryParam("sortBy") {
	case "price_asc":
		order = "sale_price ASC"
	case "price_desc":
		order = "sale_price DESC"
	case "newest":
		order = "created_at DESC"
	case "name":
		order = "name ASC"
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		l.Error("get_products_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count products")
	}

	var items []models.Product
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		l.Error("get_products_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       items,
		"pagination": util.NewMeta(page, limit, total),
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Category    string `json:"category"`
		SalePrice   int64  `json:"sale_price"`
		RateDay     int64  `json:"rate_day"`
		RateWeek    int64  `json:"rate_week"`
		RateMonth   int64  `json:"rate_month"`
		SaleStock   int    `json:"sale_stock"`
		RentalStock int    `json:"rental_stock"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if req.SalePrice < 0 || req.RateDay < 0 || req.RateWeek < 0 || req.RateMonth < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "prices must be >= 0")
	}
	if req.SaleStock < 0 || req.RentalStock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	prod := models.Product{
		SellerID:    actorID(c),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		SalePrice:   req.SalePrice,
		RateDay:     req.RateDay,
		RateWeek:    req.RateWeek,
		RateMonth:   req.RateMonth,
		SaleStock:   req.SaleStock,
		RentalStock: req.RentalStock,
		Status:      models.ProductActive,
		CreatedAt:   time.Now().Unix(),
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		l.Error("create_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"sellerID":  prod.SellerID,
		"name":      prod.Name,
	})
	h.reindex(c, &prod)

	l.Info("create_product_success", "productID", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) loadOwned(c echo.Context) (*models.Product, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var prod models.Product
	err = h.DB.Where("id = ? AND status <> ?", id, models.ProductDeleted).First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load product")
	}

	if prod.SellerID != actorID(c) && actorRole(c) != "admin" {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your product")
	}
	return &prod, nil
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	prod, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Category    *string               `json:"category"`
		SalePrice   *int64                `json:"sale_price"`
		RateDay     *int64                `json:"rate_day"`
		RateWeek    *int64                `json:"rate_week"`
		RateMonth   *int64                `json:"rate_month"`
		SaleStock   *int                  `json:"sale_stock"`
		RentalStock *int                  `json:"rental_stock"`
		Status      *models.ProductStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.SalePrice != nil {
		if *req.SalePrice < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "sale_price must be >= 0")
		}
		prod.SalePrice = *req.SalePrice
	}
	if req.RateDay != nil {
		prod.RateDay = *req.RateDay
	}
	if req.RateWeek != nil {
		prod.RateWeek = *req.RateWeek
	}
	if req.RateMonth != nil {
		prod.RateMonth = *req.RateMonth
	}
	if req.SaleStock != nil {
		if *req.SaleStock < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "sale_stock must be >= 0")
		}
		prod.SaleStock = *req.SaleStock
	}
	if req.RentalStock != nil {
		if *req.RentalStock < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "rental_stock must be >= 0")
		}
		prod.RentalStock = *req.RentalStock
	}
	if req.Status != nil {
		// deleted only via DELETE; active/inactive may be toggled here.
		if *req.Status != models.ProductActive && *req.Status != models.ProductInactive {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be active or inactive")
		}
		prod.Status = *req.Status
	}

	if err := h.DB.Save(prod).Error; err != nil {
		l.Error("patch_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	h.reindex(c, prod)

	l.Info("patch_product_success", "productID", prod.ID)
	return c.JSON(http.StatusOK, prod)
}

// DeleteProduct soft-deletes: the row stays for order history, the listing
// disappears.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	prod, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	if err := h.DB.Model(prod).Update("status", models.ProductDeleted).Error; err != nil {
		l.Error("delete_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": prod.ID,
	})
	prod.Status = models.ProductDeleted
	h.reindex(c, prod)

	l.Info("delete_product_success", "productID", prod.ID)
	return c.NoContent(http.StatusNoContent)
}
