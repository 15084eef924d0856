package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/editlance/marketplace/internal/handlers"
	"github.com/editlance/marketplace/internal/middleware/auth"
)

type Deps struct {
	Auth           *auth.Middleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	ProjectHandler *handlers.ProjectHandler
	BidHandler     *handlers.BidHandler
	MessageHandler *handlers.MessageHandler
	ContactHandler *handlers.ContactHandler
	CouponHandler  *handlers.CouponHandler
	SearchHandler  *handlers.SearchHandler
}

// ErrorHandler renders every error as the shared envelope:
// {"success": false, "message": ..., "data": null, "status": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}

	_ = c.JSON(status, echo.Map{
		"success": false,
		"message": message,
		"data":    nil,
		"status":  status,
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	authn := v1.Group("/auth")
	authn.POST("/register", d.AuthHandler.Register)
	authn.GET("/verify", d.AuthHandler.Verify)
	authn.POST("/login", d.AuthHandler.Login)
	authn.POST("/refresh", d.AuthHandler.Refresh)
	authn.POST("/logout", d.AuthHandler.Logout)

	v1.POST("/contact", d.ContactHandler.SubmitContact)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.SearchProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, d.Auth.RequireAuth)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, d.Auth.RequireAuth)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.Auth.RequireAuth)

	profile := v1.Group("/profile", d.Auth.RequireAuth)
	profile.GET("", d.UserHandler.GetProfile)
	profile.PATCH("", d.UserHandler.PatchProfile)
	profile.PUT("/freelancer", d.UserHandler.UpsertFreelancer)

	cart := v1.Group("/cart", d.Auth.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/:id", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/coupon", d.CartHandler.ApplyCoupon)

	orders := v1.Group("/orders", d.Auth.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id", d.OrderHandler.PatchOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	projects := v1.Group("/projects")
	projects.GET("", d.ProjectHandler.GetProjects)
	projects.GET("/:id", d.ProjectHandler.GetProject)
	projects.GET("/:id/bids", d.BidHandler.ListProjectBids)
	projects.POST("", d.ProjectHandler.CreateProject, d.Auth.RequireAuth)
	projects.PATCH("/:id", d.ProjectHandler.PatchProject, d.Auth.RequireAuth)
	projects.POST("/:id/complete", d.ProjectHandler.CompleteProject, d.Auth.RequireAuth)
	projects.POST("/:id/cancel", d.ProjectHandler.CancelProject, d.Auth.RequireAuth)

	bids := v1.Group("/bids", d.Auth.RequireAuth)
	bids.POST("", d.BidHandler.CreateBid)
	bids.PUT("/:id", d.BidHandler.UpdateBid)
	bids.PATCH("/:id", d.BidHandler.DecideBid)
	bids.DELETE("/:id", d.BidHandler.WithdrawBid)

	messages := v1.Group("/messages", d.Auth.RequireAuth)
	messages.POST("", d.MessageHandler.SendMessage)
	messages.GET("/unread", d.MessageHandler.GetUnreadCount)
	messages.GET("/:userID", d.MessageHandler.GetConversation)

	admin := v1.Group("/admin", d.Auth.RequireAdmin)
	admin.POST("/coupons", d.CouponHandler.CreateCoupon)
	admin.GET("/coupons", d.CouponHandler.ListCoupons)
	admin.PATCH("/coupons/:id", d.CouponHandler.PatchCoupon)
	admin.GET("/contacts", d.ContactHandler.ListContacts)
}
