package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/internal/util"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	q := c.QueryParam("q")
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "list_products", err)
	}

	resp := map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
		"q":    q,
	}
	if q != "" && total == 0 {
		resp["message"] = fmt.Sprintf("По запросу «%s» ничего не найдено.", q)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "get_product", err)
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"product":   p,
		"image_url": p.ImageURL(),
	})
}

func productInput(req transport.ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Unit:        req.Unit,
		Image:       req.Image,
	}
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.ProductRequest
	if err := bindAndValidate(c, l, "create_product", &req); err != nil {
		return err
	}
	p, err := h.Svc.CreateProduct(ctx, productInput(req))
	if err != nil {
		return fail(l, "create_product", err)
	}
	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "update_product", err)
	}
	var req transport.ProductRequest
	if err := bindAndValidate(c, l, "update_product", &req); err != nil {
		return err
	}
	p, err := h.Svc.UpdateProduct(ctx, id, productInput(req))
	if err != nil {
		return fail(l, "update_product", err)
	}
	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "delete_product", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
