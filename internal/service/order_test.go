package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/editlance/marketplace/internal/models"
)

func orderFixture(t *testing.T) (*OrderService, models.User, models.User, models.Product) {
	t.Helper()

	db := initTestDB(t)
	seller := createUser(t, db, "seller")
	buyer := createUser(t, db, "buyer")
	p := createProduct(t, db, models.Product{
		SellerID: seller.ID, Name: "cinema camera",
		SalePrice: 20000, SaleStock: 5,
		RateDay: 2000, RentalStock: 3,
	})
	return &OrderService{DB: db}, seller, buyer, p
}

func stockOf(t *testing.T, svc *OrderService, id uint) (int, int) {
	t.Helper()

	var p models.Product
	require.NoError(t, svc.DB.First(&p, id).Error)
	return p.SaleStock, p.RentalStock
}

func TestOrderCreateReservesStock(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.Equal(t, models.OrderPending, order.Status)
	require.Equal(t, models.PaymentPending, order.PaymentStatus)
	require.Equal(t, seller.ID, order.SellerID)
	require.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Items, 1)
	require.Equal(t, "cinema camera", order.Items[0].ProductName)
	require.Equal(t, int64(40000), order.Items[0].LineTotal)

	// 400.00 + 40.00 tax + 50.00 shipping.
	require.Equal(t, int64(49400), order.Total)

	sale, rental := stockOf(t, svc, p.ID)
	require.Equal(t, 3, sale)
	require.Equal(t, 3, rental)

	var u models.User
	require.NoError(t, svc.DB.First(&u, buyer.ID).Error)
	require.Equal(t, uint(1), u.OrdersPlaced)
}

func TestOrderCreateRentalPricesByDuration(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)

	order, err := svc.Create(context.Background(), buyer.ID, CreateOrderInput{
		Type: models.ModeRental,
		Items: []OrderItemInput{{
			ProductID: p.ID, Quantity: 1,
			RentalDuration: 3, RentalUnit: models.UnitDay,
		}},
	})
	require.NoError(t, err)

	require.Equal(t, int64(6000), order.Subtotal)
	require.Equal(t, int64(0), order.Shipping)

	sale, rental := stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)
	require.Equal(t, 2, rental)
}

func TestOrderCreateInsufficientStockIsAtomic(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	second := createProduct(t, svc.DB, models.Product{
		SellerID: seller.ID, Name: "tripod", SalePrice: 5000, SaleStock: 1,
	})

	_, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type: models.ModePurchase,
		Items: []OrderItemInput{
			{ProductID: p.ID, Quantity: 2},
			{ProductID: second.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Neither counter moved.
	sale, _ := stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)
	sale, _ = stockOf(t, svc, second.ID)
	require.Equal(t, 1, sale)

	var n int64
	require.NoError(t, svc.DB.Model(&models.Order{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestOrderCreateRejectsMixedSellers(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)

	other := createUser(t, svc.DB, "other_seller")
	foreign := createProduct(t, svc.DB, models.Product{
		SellerID: other.ID, Name: "drone", SalePrice: 30000, SaleStock: 2,
	})

	_, err := svc.Create(context.Background(), buyer.ID, CreateOrderInput{
		Type: models.ModePurchase,
		Items: []OrderItemInput{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: foreign.ID, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestOrderContendedStock(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)
	ctx := context.Background()

	second := createUser(t, svc.DB, "buyer2")

	// Stock 5: first order takes 3, the second wants 3 and must fail whole.
	_, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, second.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	sale, _ := stockOf(t, svc, p.ID)
	require.Equal(t, 2, sale)
}

func TestOrderCancelRestoresStockOnce(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	customer := Actor{ID: buyer.ID, Role: "user"}
	cancelled, err := svc.Transition(ctx, customer, order.ID, "cancel")
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, cancelled.Status)

	sale, _ := stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)

	// A second cancel must not restore again.
	_, err = svc.Transition(ctx, customer, order.ID, "cancel")
	require.ErrorIs(t, err, ErrInvalidTransition)

	sale, _ = stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)
}

func TestOrderTransitionPermissions(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	customer := Actor{ID: buyer.ID, Role: "user"}
	vendor := Actor{ID: seller.ID, Role: "user"}

	// Only the customer may cancel; only the seller may confirm.
	_, err = svc.Transition(ctx, vendor, order.ID, "cancel")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Transition(ctx, customer, order.ID, "confirm")
	require.ErrorIs(t, err, ErrForbidden)

	// The happy path walks the machine in order.
	for _, step := range []struct {
		actor  Actor
		action string
		want   models.OrderStatus
	}{
		{vendor, "confirm", models.OrderConfirmed},
		{vendor, "ship", models.OrderShipped},
		{customer, "deliver", models.OrderDelivered},
		{customer, "complete", models.OrderCompleted},
	} {
		o, err := svc.Transition(ctx, step.actor, order.ID, step.action)
		require.NoError(t, err, step.action)
		require.Equal(t, step.want, o.Status)
	}

	// Cancel after completion is out of reach.
	_, err = svc.Transition(ctx, customer, order.ID, "cancel")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderSkippingStatesRejected(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, Actor{ID: seller.ID, Role: "user"}, order.ID, "ship")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderPaymentFlow(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	vendor := Actor{ID: seller.ID, Role: "user"}
	customer := Actor{ID: buyer.ID, Role: "user"}

	// The customer cannot flip payment status.
	_, err = svc.UpdatePayment(ctx, customer, order.ID, models.PaymentPaid)
	require.ErrorIs(t, err, ErrForbidden)

	o, err := svc.UpdatePayment(ctx, vendor, order.ID, models.PaymentPaid)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, o.PaymentStatus)

	// paid -> failed is not a legal edge.
	_, err = svc.UpdatePayment(ctx, vendor, order.ID, models.PaymentFailed)
	require.ErrorIs(t, err, ErrInvalidTransition)

	o, err = svc.UpdatePayment(ctx, vendor, order.ID, models.PaymentRefunded)
	require.NoError(t, err)
	require.Equal(t, models.PaymentRefunded, o.PaymentStatus)
}

func TestOrderGetHidesForeignOrders(t *testing.T) {
	svc, seller, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	stranger := createUser(t, svc.DB, "stranger")
	_, err = svc.Get(ctx, Actor{ID: stranger.ID, Role: "user"}, order.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// Both participants and admin can read it.
	for _, a := range []Actor{
		{ID: buyer.ID, Role: "user"},
		{ID: seller.ID, Role: "user"},
		{ID: stranger.ID, Role: "admin"},
	} {
		_, err := svc.Get(ctx, a, order.ID)
		require.NoError(t, err)
	}
}

func TestOrderDeleteRestoresLiveReservation(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	customer := Actor{ID: buyer.ID, Role: "user"}
	require.NoError(t, svc.Delete(ctx, customer, order.ID))

	sale, _ := stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)

	_, err = svc.Get(ctx, customer, order.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderDeleteAfterCancelDoesNotDoubleRestore(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	customer := Actor{ID: buyer.ID, Role: "user"}
	_, err = svc.Transition(ctx, customer, order.ID, "cancel")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, customer, order.ID))

	sale, _ := stockOf(t, svc, p.ID)
	require.Equal(t, 5, sale)
}

func TestOrderCreateValidation(t *testing.T) {
	svc, _, buyer, p := orderFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, buyer.ID, CreateOrderInput{Type: "lease"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, buyer.ID, CreateOrderInput{Type: models.ModePurchase})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, buyer.ID, CreateOrderInput{
		Type:  models.ModePurchase,
		Items: []OrderItemInput{{ProductID: 9999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}
