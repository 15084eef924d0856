package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/models"
)

type OrderService struct {
	DB *gorm.DB
}

type Actor struct {
	ID   uint
	Role string
}

func (a Actor) admin() bool { return a.Role == "admin" }

type OrderItemInput struct {
	ProductID      uint              `json:"productId"`
	Quantity       uint              `json:"quantity"`
	RentalDuration int               `json:"rentalDuration"`
	RentalUnit     models.RentalUnit `json:"rentalUnit"`
}

type CreateOrderInput struct {
	Type            models.ItemMode  `json:"type"`
	Items           []OrderItemInput `json:"items"`
	ShippingAddress string           `json:"shippingAddress"`
	BillingAddress  string           `json:"billingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
}

func domainErr(err error) bool {
	for _, sentinel := range []error{
		ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound,
		ErrConflict, ErrInsufficientStock, ErrInvalidTransition,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// withRetry runs fn with bounded exponential backoff. Domain errors stop
// immediately; only transient store failures are retried (3 attempts).
func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if domainErr(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

// Create reserves stock and writes the order atomically: every item passes
// its stock check before any counter moves, and counters only ever move
// through guarded single-statement updates, so two racing orders can never
// drive a pool negative.
func (s *OrderService) Create(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	if in.Type != models.ModePurchase && in.Type != models.ModeRental {
		return nil, fmt.Errorf("%w: type must be purchase or rental", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	for _, it := range in.Items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: productId required", ErrValidation)
		}
		if it.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	var order *models.Order
	err := withRetry(ctx, func(ctx context.Context) error {
		order = nil
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var (
				sellerID uint
				subtotal int64
				items    []models.OrderItem
			)

			// Check everything before mutating anything.
			for _, it := range in.Items {
				var p models.Product
				err := tx.Where("id = ? AND status = ?", it.ProductID, models.ProductActive).First(&p).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
				}
				if err != nil {
					return err
				}

				if sellerID == 0 {
					sellerID = p.SellerID
				} else if p.SellerID != sellerID {
					return fmt.Errorf("%w: all items must belong to the same seller", ErrValidation)
				}

				available := p.SaleStock
				if in.Type == models.ModeRental {
					available = p.RentalStock
				}
				if available < int(it.Quantity) {
					return fmt.Errorf("%w: product %d has %d of %d requested", ErrInsufficientStock, p.ID, available, it.Quantity)
				}

				unitPrice, err := ResolveUnitPrice(&p, in.Type, it.RentalDuration, it.RentalUnit)
				if err != nil {
					return err
				}
				lineTotal := unitPrice * int64(it.Quantity)
				subtotal += lineTotal

				items = append(items, models.OrderItem{
					ProductID:      p.ID,
					ProductName:    p.Name,
					UnitPrice:      unitPrice,
					Quantity:       it.Quantity,
					Mode:           in.Type,
					RentalDuration: it.RentalDuration,
					RentalUnit:     it.RentalUnit,
					LineTotal:      lineTotal,
				})
			}

			// Reserve. A counter that moved underneath us since the check
			// fails the guard and rolls back the whole order.
			column := "sale_stock"
			if in.Type == models.ModeRental {
				column = "rental_stock"
			}
			for _, it := range in.Items {
				res := tx.Model(&models.Product{}).
					Where("id = ? AND "+column+" >= ?", it.ProductID, it.Quantity).
					UpdateColumn(column, gorm.Expr(column+" - ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("%w: product %d", ErrInsufficientStock, it.ProductID)
				}
			}

			totals := ComputeTotals(subtotal, 0, in.Type == models.ModePurchase)

			o := models.Order{
				OrderNumber:     newOrderNumber(),
				UserID:          userID,
				SellerID:        sellerID,
				Type:            in.Type,
				Status:          models.OrderPending,
				PaymentStatus:   models.PaymentPending,
				PaymentMethod:   in.PaymentMethod,
				ShippingAddress: in.ShippingAddress,
				BillingAddress:  in.BillingAddress,
				Subtotal:        totals.Subtotal,
				Tax:             totals.Tax,
				Shipping:        totals.Shipping,
				Discount:        totals.Discount,
				Total:           totals.Total,
				CreatedAt:       time.Now().Unix(),
				Items:           items,
			}
			if err := tx.Create(&o).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("orders_placed", gorm.Expr("orders_placed + 1")).Error; err != nil {
				return err
			}

			order = &o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).Preload("Items").First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	if !actor.admin() && o.UserID != actor.ID && o.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return &o, nil
}

func (s *OrderService) List(ctx context.Context, actor Actor, offset, limit int) (int64, []models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if !actor.admin() {
		q = q.Where("user_id = ? OR seller_id = ?", actor.ID, actor.ID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

var orderFlow = map[string]struct {
	from models.OrderStatus
	to   models.OrderStatus
}{
	"confirm":  {models.OrderPending, models.OrderConfirmed},
	"ship":     {models.OrderConfirmed, models.OrderShipped},
	"deliver":  {models.OrderShipped, models.OrderDelivered},
	"complete": {models.OrderDelivered, models.OrderCompleted},
	"cancel":   {models.OrderPending, models.OrderCancelled},
}

func transitionAllowed(action string, o *models.Order, actor Actor) error {
	isCustomer := o.UserID == actor.ID
	isSeller := o.SellerID == actor.ID

	switch action {
	case "cancel":
		if !isCustomer {
			return fmt.Errorf("%w: only the customer may cancel", ErrForbidden)
		}
	case "confirm", "ship":
		if !isSeller && !actor.admin() {
			return fmt.Errorf("%w: only the seller may %s", ErrForbidden, action)
		}
	case "deliver", "complete":
		if !isSeller && !isCustomer && !actor.admin() {
			return fmt.Errorf("%w: not a participant of this order", ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	return nil
}

// Transition moves an order along its status machine. The status change is
// a guarded update keyed on the expected current status, so a transition
// observed by two racing requests commits exactly once; stock restoration
// on cancel rides the same guard.
func (s *OrderService) Transition(ctx context.Context, actor Actor, orderID uint, action string) (*models.Order, error) {
	step, ok := orderFlow[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var o models.Order
			err := tx.Preload("Items").First(&o, orderID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			if err != nil {
				return err
			}

			if err := transitionAllowed(action, &o, actor); err != nil {
				return err
			}
			if o.Status != step.from {
				return fmt.Errorf("%w: cannot %s a %s order", ErrInvalidTransition, action, o.Status)
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", orderID, step.from).
				Update("status", step.to)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: cannot %s a %s order", ErrInvalidTransition, action, o.Status)
			}

			if step.to == models.OrderCancelled {
				if err := restoreStock(tx, &o); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, orderID)
}

// restoreStock returns the exact quantities the order decremented. Callers
// guarantee it runs at most once per order.
func restoreStock(tx *gorm.DB, o *models.Order) error {
	column := "sale_stock"
	if o.Type == models.ModeRental {
		column = "rental_stock"
	}
	for _, it := range o.Items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			UpdateColumn(column, gorm.Expr(column+" + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

var paymentFlow = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded},
	models.PaymentPaid:    {models.PaymentRefunded},
}

// UpdatePayment drives the payment lifecycle, which is independent of the
// shipment status machine.
func (s *OrderService) UpdatePayment(ctx context.Context, actor Actor, orderID uint, to models.PaymentStatus) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	if o.SellerID != actor.ID && !actor.admin() {
		return nil, fmt.Errorf("%w: only the seller may update payment status", ErrForbidden)
	}

	allowed := false
	for _, next := range paymentFlow[o.PaymentStatus] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, o.PaymentStatus, to)
	}

	res := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, o.PaymentStatus).
		Update("payment_status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, o.PaymentStatus, to)
	}

	return s.Get(ctx, actor, orderID)
}

// Delete removes an order; if the order never went through cancellation its
// stock reservation is returned first.
func (s *OrderService) Delete(ctx context.Context, actor Actor, orderID uint) error {
	return withRetry(ctx, func(ctx context.Context) error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var o models.Order
			err := tx.Preload("Items").First(&o, orderID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			if err != nil {
				return err
			}

			if o.UserID != actor.ID && !actor.admin() {
				return fmt.Errorf("%w: not your order", ErrForbidden)
			}

			if o.Status != models.OrderCancelled {
				if err := restoreStock(tx, &o); err != nil {
					return err
				}
			}

			if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&o).Error
		})
	})
}
