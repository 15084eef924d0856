package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/models"
)

type CartService struct {
	DB *gorm.DB
}

type AddItemInput struct {
	ProductID      uint              `json:"productId"`
	Quantity       uint              `json:"quantity"`
	Mode           models.ItemMode   `json:"type"`
	RentalDuration int               `json:"rentalDuration"`
	RentalUnit     models.RentalUnit `json:"rentalUnit"`
}

type CartView struct {
	Items  []models.CartItem `json:"items"`
	Totals Totals            `json:"totals"`
}

// Recompute rebuilds the cart totals from the current items and persists
// them before they are returned, so totals are never observably stale.
// Items whose product no longer resolves are skipped, not fatal.
func (s *CartService) Recompute(ctx context.Context, userID uint) (*CartView, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	var subtotal int64
	hasPurchase := false
	for i := range items {
		var p models.Product
		err := s.DB.WithContext(ctx).
			Where("id = ? AND status = ?", items[i].ProductID, models.ProductActive).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		unitPrice, err := ResolveUnitPrice(&p, items[i].Mode, items[i].RentalDuration, items[i].RentalUnit)
		if err != nil {
			return nil, err
		}
		subtotal += unitPrice * int64(items[i].Quantity)
		if items[i].Mode == models.ModePurchase {
			hasPurchase = true
		}
	}

	var coupons []models.CartCoupon
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&coupons).Error; err != nil {
		return nil, err
	}
	var discount int64
	for _, cp := range coupons {
		discount += cp.Amount
	}
	if len(items) == 0 {
		discount = 0
	}

	totals := ComputeTotals(subtotal, discount, hasPurchase)

	cart := models.Cart{
		UserID:    userID,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Shipping:  totals.Shipping,
		Discount:  totals.Discount,
		Total:     totals.Total,
		UpdatedAt: time.Now().Unix(),
	}
	var existing models.Cart
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.DB.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		cart.ID = existing.ID
		if err := s.DB.WithContext(ctx).Save(&cart).Error; err != nil {
			return nil, err
		}
	}

	return &CartView{Items: items, Totals: totals}, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uint, in AddItemInput) (*CartView, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if in.Mode == "" {
		in.Mode = models.ModePurchase
	}
	if in.Mode != models.ModePurchase && in.Mode != models.ModeRental {
		return nil, fmt.Errorf("%w: type must be purchase or rental", ErrValidation)
	}

	var p models.Product
	err := s.DB.WithContext(ctx).
		Where("id = ? AND status = ?", in.ProductID, models.ProductActive).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, in.ProductID)
	}
	if err != nil {
		return nil, err
	}

	// Price must resolve now; a rental without a matching rate never
	// enters the cart.
	if _, err := ResolveUnitPrice(&p, in.Mode, in.RentalDuration, in.RentalUnit); err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND mode = ?", userID, in.ProductID, in.Mode).
		First(&item).Error
	switch {
	case err == nil:
		item.Quantity += in.Quantity
		item.RentalDuration = in.RentalDuration
		item.RentalUnit = in.RentalUnit
		if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:         userID,
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			Mode:           in.Mode,
			RentalDuration: in.RentalDuration,
			RentalUnit:     in.RentalUnit,
		}
		if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.Recompute(ctx, userID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity uint) (*CartView, error) {
	var item models.CartItem
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.DB.WithContext(ctx).Delete(&item).Error; err != nil {
			return nil, err
		}
	} else {
		item.Quantity = quantity
		if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
			return nil, err
		}
	}

	return s.Recompute(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (*CartView, error) {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	return s.Recompute(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) (*CartView, error) {
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartCoupon{}).Error; err != nil {
		return nil, err
	}
	return s.Recompute(ctx, userID)
}

func (s *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*CartView, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: coupon code required", ErrValidation)
	}

	var coupon models.Coupon
	err := s.DB.WithContext(ctx).Where("code = ? AND active = ?", code, true).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: coupon %q", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}

	var applied models.CartCoupon
	err = s.DB.WithContext(ctx).Where("user_id = ? AND code = ?", userID, code).First(&applied).Error
	if err == nil {
		return nil, fmt.Errorf("%w: coupon %q already applied", ErrConflict, code)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	applied = models.CartCoupon{UserID: userID, Code: coupon.Code, Amount: coupon.Amount}
	if err := s.DB.WithContext(ctx).Create(&applied).Error; err != nil {
		return nil, err
	}

	return s.Recompute(ctx, userID)
}
