package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/admin"
	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/book"
	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/order"
	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/user"
)

type C struct {
	User        *user.Controller
	Book        *book.Controller
	Order       *order.Controller
	Admin       *admin.Controller
	JWTSecret   string
	AdminAPIKey string
}

func Register(e *echo.Echo, c C) {
	api := e.Group("/api")

	// Users
	api.POST("/users", c.User.Register)
	api.POST("/users/login", c.User.Login)

	me := api.Group("/users/me")
	me.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))
	me.GET("", c.User.Me)

	api.GET("/users/:id", c.User.Get)

	// Catalog
	api.GET("/books", c.Book.List)
	api.GET("/books/:id", c.Book.Detail)

	// Orders
	api.POST("/orders", c.Order.Create)
	api.GET("/orders/:user_id", c.Order.ListByUser)

	// Admin (static shared key)
	adm := api.Group("/admin", AdminKey(c.AdminAPIKey))
	adm.GET("/orders", c.Admin.ListOrders)
	adm.PATCH("/orders/:order_id/status", c.Admin.UpdateStatus)
	adm.GET("/stats", c.Admin.Stats)
	adm.POST("/import-books", c.Admin.ImportBooks)
}
