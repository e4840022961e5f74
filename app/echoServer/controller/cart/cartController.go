package cart

import (
	"log/slog"
	"net/http"

	"decorrental/app/echoServer/jwtx"
	"decorrental/app/echoServer/validation"
	"decorrental/service/availability"
	cartsvc "decorrental/service/cart"
	"decorrental/util/httpx"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc cartsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func session(c echo.Context) (string, bool) {
	id, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return "", false
	}
	return id.ID, true
}

// GET /v1/cart
// @Summary      View cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/cart [get]
func (h *Controller) View(c echo.Context) error {
	sid, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.View(sid)})
}

// POST /v1/cart/items
// @Summary      Change item quantity
// @Description  Adds quantity (negative to decrement); result is clamped to 0..999 and 0 removes the line. With dates set, increases are cut to available stock and listed under limited.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  AddItemReq  true  "Item and quantity delta"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/cart/items [post]
func (h *Controller) AddItem(c echo.Context) error {
	sid, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req AddItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}

	sum, err := h.Svc.Add(c.Request().Context(), sid, req.ItemID, req.Quantity)
	if err != nil {
		return httpx.Error(c, h.Log, "cart add", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sum})
}

// DELETE /v1/cart/items/:id
// @Summary      Remove item
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Item id"
// @Success      200  {object}  map[string]any
// @Router       /v1/cart/items/{id} [delete]
func (h *Controller) RemoveItem(c echo.Context) error {
	sid, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Remove(sid, c.Param("id"))})
}

// PUT /v1/cart/dates
// @Summary      Set rental dates
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  SetDatesReq  true  "Date range (YYYY-MM-DD or RFC3339)"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/cart/dates [put]
func (h *Controller) SetDates(c echo.Context) error {
	sid, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req SetDatesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}

	var r availability.Range
	if req.StartDate != "" {
		start, err := availability.ParseDate(req.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start_date"})
		}
		end, err := availability.ParseDate(req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end_date"})
		}
		r = availability.Range{Start: start, End: end}
	}

	sum, err := h.Svc.SetDates(sid, r)
	if err != nil {
		return httpx.Error(c, h.Log, "cart dates", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sum})
}

// DELETE /v1/cart
// @Summary      Empty cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/cart [delete]
func (h *Controller) Clear(c echo.Context) error {
	sid, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Clear(sid)})
}
