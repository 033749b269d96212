package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/internal/util"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

type WarehouseHTTP struct {
	Svc *service.WarehouseService
}

func (h *WarehouseHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "warehouse.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListStock(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "list_stock", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *WarehouseHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "warehouse.get")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "get_stock", err)
	}
	w, err := h.Svc.GetStock(ctx, id)
	if err != nil {
		return fail(l, "get_stock", err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WarehouseHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "warehouse.create")

	var req transport.StockRequest
	if err := bindAndValidate(c, l, "create_stock", &req); err != nil {
		return err
	}
	w, err := h.Svc.CreateStock(ctx, req.ProductID, *req.QuantityInStock)
	if err != nil {
		return fail(l, "create_stock", err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WarehouseHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "warehouse.update")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "update_stock", err)
	}
	var req struct {
		QuantityInStock *int `json:"quantity_in_stock" validate:"required,min=0"`
	}
	if err := bindAndValidate(c, l, "update_stock", &req); err != nil {
		return err
	}
	w, err := h.Svc.UpdateStock(ctx, id, *req.QuantityInStock)
	if err != nil {
		return fail(l, "update_stock", err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WarehouseHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "warehouse.delete")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "delete_stock", err)
	}
	if err := h.Svc.DeleteStock(ctx, id); err != nil {
		return fail(l, "delete_stock", err)
	}
	return c.NoContent(http.StatusNoContent)
}
