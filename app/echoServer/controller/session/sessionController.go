package session

import (
	"log/slog"
	"net/http"

	"decorrental/app/echoServer/jwtx"
	"decorrental/app/echoServer/validation"
	"decorrental/model"
	identitysvc "decorrental/service/identity"
	"decorrental/util/httpx"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc identitysvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Guest sign-in
// @Summary      Sign in as guest
// @Description  Creates an anonymous identity and returns a session JWT
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        payload  body  model.GuestSignInReq  false  "Guest payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/session/guest [post]
func (ct *Controller) Guest(c echo.Context) error {
	var req model.GuestSignInReq
	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}

	id, token, err := ct.Svc.SignInGuest(c.Request().Context(), req)
	if err != nil {
		return httpx.Error(c, ct.Log, "guest sign-in", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "signed in",
		"identity": id,
		"token":    token,
	})
}

// Token sign-in
// @Summary      Sign in with custom token
// @Description  Exchanges a provider-issued custom token for a session JWT
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        payload  body  model.TokenSignInReq  true  "Token payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/session/token [post]
func (ct *Controller) Token(c echo.Context) error {
	var req model.TokenSignInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}

	id, token, err := ct.Svc.SignInWithToken(c.Request().Context(), req)
	if err != nil {
		return httpx.Error(c, ct.Log, "token sign-in", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "signed in",
		"identity": id,
		"token":    token,
	})
}

// Me
// @Summary      Current identity
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/session/me [get]
func (ct *Controller) Me(c echo.Context) error {
	id, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": id})
}
