package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
	"github.com/Skotchmaster/gypsum_shop/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, l, "register", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password, req.PasswordConfirm)
	if err != nil {
		return fail(l, "register", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"username": user.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "login", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	l.Info("login_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": res.IsAdmin,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_logout")

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
