package admin

import (
	"log/slog"
	"net/http"

	"decorrental/app/echoServer/validation"
	adminsvc "decorrental/service/admin"
	"decorrental/util/httpx"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type SetStatusReq struct {
	Status string `json:"status" validate:"required"`
}

type AddStockReq struct {
	Count int `json:"count" validate:"required,min=-10000,max=10000"`
}

type Controller struct {
	Svc adminsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/admin/bookings?status=
// @Summary      List bookings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /v1/admin/bookings [get]
func (h *Controller) Bookings(c echo.Context) error {
	out, err := h.Svc.Bookings(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return httpx.Error(c, h.Log, "admin bookings", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/admin/bookings/:id
// @Summary      Booking detail
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Booking id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/admin/bookings/{id} [get]
func (h *Controller) Booking(c echo.Context) error {
	b, err := h.Svc.Booking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpx.Error(c, h.Log, "admin booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PATCH /v1/admin/bookings/:id/status
// @Summary      Set booking status
// @Description  Any status may follow any other
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string        true  "Booking id"
// @Param        payload  body  SetStatusReq  true  "New status"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/admin/bookings/{id}/status [patch]
func (h *Controller) SetStatus(c echo.Context) error {
	var req SetStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}
	id := c.Param("id")
	if err := h.Svc.SetStatus(c.Request().Context(), id, req.Status); err != nil {
		return httpx.Error(c, h.Log, "admin set status", err)
	}
	h.Log.Info("booking status changed", "booking_id", id, "status", req.Status)
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated", "id": id, "status": req.Status})
}

// GET /v1/admin/inventory
// @Summary      Inventory
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/admin/inventory [get]
func (h *Controller) Inventory(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Inventory()})
}

// GET /v1/admin/inventory/:id
// @Summary      Stored item
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Item id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/admin/inventory/{id} [get]
func (h *Controller) Item(c echo.Context) error {
	it, err := h.Svc.Item(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpx.Error(c, h.Log, "admin item", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": it})
}

// POST /v1/admin/inventory
// @Summary      Create or replace item
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  adminsvc.ItemReq  true  "Item"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/admin/inventory [post]
func (h *Controller) SaveItem(c echo.Context) error {
	var req adminsvc.ItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}
	it, err := h.Svc.SaveItem(c.Request().Context(), req)
	if err != nil {
		return httpx.Error(c, h.Log, "admin save item", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item saved", "data": it})
}

// POST /v1/admin/inventory/:id/stock
// @Summary      Add or retire stock
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string       true  "Item id"
// @Param        payload  body  AddStockReq  true  "Units to add (negative to retire)"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/admin/inventory/{id}/stock [post]
func (h *Controller) AddStock(c echo.Context) error {
	var req AddStockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Messages(err),
		})
	}
	total, err := h.Svc.AddStock(c.Request().Context(), c.Param("id"), req.Count)
	if err != nil {
		return httpx.Error(c, h.Log, "admin add stock", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "total_stock": total})
}

// GET /v1/admin/summary
// @Summary      Booking counts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/admin/summary [get]
func (h *Controller) Summary(c echo.Context) error {
	sum, err := h.Svc.Summary(c.Request().Context())
	if err != nil {
		return httpx.Error(c, h.Log, "admin summary", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sum})
}
