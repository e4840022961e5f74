package checkout

import (
	"log/slog"
	"net/http"

	"decorrental/app/echoServer/jwtx"
	"decorrental/app/echoServer/validation"
	checkoutsvc "decorrental/service/checkout"
	"decorrental/util/apperr"
	"decorrental/util/httpx"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc checkoutsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/checkout
// @Summary      Checkout cart
// @Description  Re-verifies availability. 201 with the booking when committed, 409 with adjustments when quantities were lowered, 503 when the write failed (cart kept).
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  checkoutsvc.Request  false  "Fulfillment method"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Failure      503  {object}  map[string]any
// @Router       /v1/checkout [post]
func (h *Controller) Checkout(c echo.Context) error {
	id, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req checkoutsvc.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}

	res, err := h.Svc.Checkout(c.Request().Context(), id, req)
	if err != nil {
		if res != nil && res.State == checkoutsvc.StateRejected {
			h.Log.Error("checkout rejected", "user_id", id.ID, "err", err)
			return c.JSON(httpx.Status(apperr.CodeOf(err)), echo.Map{
				"message": apperr.MessageOf(err),
				"code":    string(apperr.CodeOf(err)),
				"data":    res,
			})
		}
		return httpx.Error(c, h.Log, "checkout", err)
	}

	switch res.State {
	case checkoutsvc.StateAdjusted:
		return c.JSON(http.StatusConflict, echo.Map{
			"message": "some items had limited availability; quantities were adjusted",
			"data":    res,
		})
	default:
		h.Log.Info("booking created", "booking_id", res.Booking.ID, "user_id", id.ID, "total", res.Booking.TotalPrice)
		return c.JSON(http.StatusCreated, echo.Map{
			"message": "booking created and sent for review",
			"data":    res,
		})
	}
}

// GET /v1/bookings/my
// @Summary      My bookings
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/bookings/my [get]
func (h *Controller) MyBookings(c echo.Context) error {
	id, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	out, err := h.Svc.MyBookings(c.Request().Context(), id)
	if err != nil {
		return httpx.Error(c, h.Log, "my bookings", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}
