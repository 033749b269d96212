package httpserver

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/internal/util"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

func orderFilter(c echo.Context) (repo.OrderFilter, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	return repo.OrderFilter{
		Status:        models.OrderStatus(c.QueryParam("status")),
		PaymentStatus: models.PaymentStatus(c.QueryParam("payment_status")),
		Query:         c.QueryParam("q"),
		Offset:        offset,
		Limit:         limit,
	}, page
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	f, page := orderFilter(c)
	total, items, err := h.Svc.ListOrders(ctx, f)
	if err != nil {
		return fail(l, "list_orders", err)
	}

	views := make([]orderView, 0, len(items))
	for i := range items {
		views = append(views, newOrderView(&items[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": views,
		"meta": util.NewMeta(page, f.Offset, f.Limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "get_order", err)
	}
	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, newOrderView(order))
}

func (h *OrderHTTP) CreateOrderAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_order")

	var req transport.AdminOrderRequest
	if err := bindAndValidate(c, l, "admin_create_order", &req); err != nil {
		return err
	}

	order, err := h.Svc.CreateOrderAdmin(ctx, service.AdminOrderInput{
		ClientName:      req.ClientName,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		DeliveryAddress: req.DeliveryAddress,
		Status:          models.OrderStatus(req.Status),
		PaymentStatus:   models.PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		return fail(l, "admin_create_order", err)
	}
	return c.JSON(http.StatusCreated, newOrderView(order))
}

func (h *OrderHTTP) PatchOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_order")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "patch_order", err)
	}

	var req transport.PatchOrderRequest
	if err := bindAndValidate(c, l, "patch_order", &req); err != nil {
		return err
	}

	patch := service.OrderPatch{
		ClientName:      req.ClientName,
		Quantity:        req.Quantity,
		DeliveryAddress: req.DeliveryAddress,
	}
	if req.Status != nil {
		s := models.OrderStatus(*req.Status)
		patch.Status = &s
	}
	if req.PaymentStatus != nil {
		s := models.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &s
	}

	order, err := h.Svc.UpdateOrder(ctx, id, patch)
	if err != nil {
		return fail(l, "patch_order", err)
	}
	l.Info("patch_order_success", "order_id", id)
	return c.JSON(http.StatusOK, newOrderView(order))
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "delete_order", err)
	}
	if err := h.Svc.DeleteOrder(ctx, id); err != nil {
		return fail(l, "delete_order", err)
	}
	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.export_orders")

	f, _ := orderFilter(c)
	var buf bytes.Buffer
	if err := h.Svc.ExportCSV(ctx, &buf, f); err != nil {
		return fail(l, "export_orders", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=orders.csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
