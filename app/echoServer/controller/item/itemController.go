package item

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"decorrental/service/availability"
	catalogsvc "decorrental/service/catalog"
	"decorrental/util/httpx"

	"github.com/labstack/echo/v4"
)

type Availability interface {
	Availability(ctx context.Context, itemID string, r availability.Range, qty int) (availability.Grant, error)
}

type Controller struct {
	Svc   catalogsvc.Service
	Avail Availability
	Log   *slog.Logger
}

// GET /v1/items?category=&search=
// @Summary      List items
// @Tags         items
// @Produce      json
// @Param        category  query  string  false  "Category, All for any"
// @Param        search    query  string  false  "Case-insensitive name search"
// @Success      200  {object}  map[string]any
// @Router       /v1/items [get]
func (h *Controller) List(c echo.Context) error {
	items := h.Svc.List(catalogsvc.Filter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	})
	return c.JSON(http.StatusOK, echo.Map{"data": items, "ready": h.Svc.Ready()})
}

// GET /v1/items/categories
// @Summary      List categories
// @Tags         items
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /v1/items/categories [get]
func (h *Controller) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Categories()})
}

// GET /v1/items/:id
// @Summary      Item detail
// @Tags         items
// @Produce      json
// @Param        id  path  string  true  "Item id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/items/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	it, err := h.Svc.Get(c.Param("id"))
	if err != nil {
		return httpx.Error(c, h.Log, "item detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": it})
}

// GET /v1/items/:id/availability?start=&end=&qty=
// @Summary      Check availability
// @Description  Quantity grantable for the range; qty omitted means as many as possible
// @Tags         items
// @Produce      json
// @Param        id     path   string  true   "Item id"
// @Param        start  query  string  true   "Start date (YYYY-MM-DD or RFC3339)"
// @Param        end    query  string  true   "End date (YYYY-MM-DD or RFC3339)"
// @Param        qty    query  int     false  "Requested quantity"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/items/{id}/availability [get]
func (h *Controller) Availability(c echo.Context) error {
	start, err := availability.ParseDate(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start date"})
	}
	end, err := availability.ParseDate(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end date"})
	}
	qty := 0
	if q := c.QueryParam("qty"); q != "" {
		qty, err = strconv.Atoi(q)
		if err != nil || qty < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid qty"})
		}
	}

	r := availability.Range{Start: start, End: end}
	g, err := h.Avail.Availability(c.Request().Context(), c.Param("id"), r, qty)
	if err != nil {
		return httpx.Error(c, h.Log, "item availability", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": g, "num_days": availability.NumDays(r)})
}
