package echoServer

import (
	"net/http"

	"decorrental/app/echoServer/controller/admin"
	"decorrental/app/echoServer/controller/cart"
	"decorrental/app/echoServer/controller/checkout"
	"decorrental/app/echoServer/controller/item"
	"decorrental/app/echoServer/controller/live"
	"decorrental/app/echoServer/controller/session"
	"decorrental/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Session   *session.Controller
	Item      *item.Controller
	Cart      *cart.Controller
	Checkout  *checkout.Controller
	Admin     *admin.Controller
	Live      *live.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/session/guest", c.Session.Guest)
	pub.POST("/session/token", c.Session.Token)

	pub.GET("/items", c.Item.List)
	pub.GET("/items/categories", c.Item.Categories)
	pub.GET("/items/:id", c.Item.Detail)
	pub.GET("/items/:id/availability", c.Item.Availability)
	pub.GET("/live/items", c.Live.ServeItems)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		SigningMethod: "HS256",
		ContextKey:    jwtx.ContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		},
	}))

	auth.GET("/session/me", c.Session.Me)

	// Cart
	auth.GET("/cart", c.Cart.View)
	auth.DELETE("/cart", c.Cart.Clear)
	auth.POST("/cart/items", c.Cart.AddItem)
	auth.DELETE("/cart/items/:id", c.Cart.RemoveItem)
	auth.PUT("/cart/dates", c.Cart.SetDates)

	// Checkout
	auth.POST("/checkout", c.Checkout.Checkout)
	auth.GET("/bookings/my", c.Checkout.MyBookings)

	// Admin endpoints
	adm := auth.Group("/admin", RequireAdmin)
	adm.GET("/bookings", c.Admin.Bookings)
	adm.GET("/bookings/:id", c.Admin.Booking)
	adm.PATCH("/bookings/:id/status", c.Admin.SetStatus)
	adm.GET("/inventory", c.Admin.Inventory)
	adm.GET("/inventory/:id", c.Admin.Item)
	adm.POST("/inventory", c.Admin.SaveItem)
	adm.POST("/inventory/:id/stock", c.Admin.AddStock)
	adm.GET("/summary", c.Admin.Summary)
	adm.GET("/live/bookings", c.Live.ServeBookings)
}
