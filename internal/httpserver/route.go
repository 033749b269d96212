package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/pkg/db"
	middleware "github.com/Skotchmaster/gypsum_shop/pkg/middleware/auth"
)

type Deps struct {
	Orders    *OrderHTTP
	Catalog   *CatalogHTTP
	Warehouse *WarehouseHTTP
	Auth      *AuthHTTP
	JWTSecret []byte
	DB        *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) }).Name = "health.live"
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	}).Name = "health.ready"

	e.GET("/", d.Catalog.ListProducts).Name = "catalog.list"
	e.GET("/products/:id", d.Catalog.GetProduct).Name = "catalog.get"

	order := e.Group("/order")
	order.POST("/new", d.Orders.CreateOrder).Name = "order.create"
	order.GET("/:id/success", d.Orders.OrderSuccess).Name = "order.success"
	order.GET("/:id/invoice.pdf", d.Orders.Invoice).Name = "order.invoice"
	order.GET("/:id/paypal", d.Orders.StartPayPal).Name = "order.paypal"
	order.GET("/:id/paypal/execute", d.Orders.ExecutePayPal).Name = "order.paypal_execute"

	e.POST("/register", d.Auth.Register).Name = "auth.register"
	e.POST("/login", d.Auth.Login).Name = "auth.login"
	e.POST("/logout", d.Auth.LogOut).Name = "auth.logout"

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)
	admin := e.Group("/admin", authMW.RequireAdmin)

	admin.GET("/products", d.Catalog.ListProducts).Name = "admin.products.list"
	admin.POST("/products", d.Catalog.CreateProduct).Name = "admin.products.create"
	admin.PUT("/products/:id", d.Catalog.UpdateProduct).Name = "admin.products.update"
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct).Name = "admin.products.delete"

	admin.GET("/warehouse", d.Warehouse.List).Name = "admin.warehouse.list"
	admin.POST("/warehouse", d.Warehouse.Create).Name = "admin.warehouse.create"
	admin.GET("/warehouse/:id", d.Warehouse.Get).Name = "admin.warehouse.get"
	admin.PATCH("/warehouse/:id", d.Warehouse.Update).Name = "admin.warehouse.update"
	admin.DELETE("/warehouse/:id", d.Warehouse.Delete).Name = "admin.warehouse.delete"

	admin.GET("/orders", d.Orders.ListOrders).Name = "admin.orders.list"
	admin.POST("/orders", d.Orders.CreateOrderAdmin).Name = "admin.orders.create"
	admin.GET("/orders/export.csv", d.Orders.ExportCSV).Name = "admin.orders.export"
	admin.GET("/orders/:id", d.Orders.GetOrder).Name = "admin.orders.get"
	admin.PATCH("/orders/:id", d.Orders.PatchOrder).Name = "admin.orders.update"
	admin.DELETE("/orders/:id", d.Orders.DeleteOrder).Name = "admin.orders.delete"
}
