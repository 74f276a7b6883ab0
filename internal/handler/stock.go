package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avros/inventory-reservation/internal/inventory"
	"github.com/avros/inventory-reservation/internal/model"
)

// StockHandler exposes the seeding and inspection endpoints for the
// on-hand stock the oracle serves.  These are operator endpoints, not part
// of the checkout flow; they exist so a deployment can load stock and
// verify what the reservation engine will see.
type StockHandler struct {
	Stock *inventory.StockRepo
}

// NewStockHandler constructs a StockHandler bound to the stock repository.
func NewStockHandler(stock *inventory.StockRepo) *StockHandler {
	if stock == nil {
		panic("nil stock repo passed to NewStockHandler")
	}
	return &StockHandler{Stock: stock}
}

// List handles GET /v1/stock?location_id=...  It returns all stock levels
// for the location.  This route sits behind the response cache; the short
// TTL is acceptable here because these numbers inform dashboards, not
// reservation decisions.
func (h *StockHandler) List(c echo.Context) error {
	locationID := strings.TrimSpace(c.QueryParam("location_id"))
	if locationID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "location_id is required"})
	}
	levels, err := h.Stock.ListByLocation(c.Request().Context(), locationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stock": levels})
}

// Set handles PUT /v1/stock.  It creates or replaces the committed on-hand
// quantity for an item.
func (h *StockHandler) Set(c echo.Context) error {
	var body struct {
		ProductID  string `json:"product_id"`
		VariantID  string `json:"variant_id"`
		LocationID string `json:"location_id"`
		OnHand     int    `json:"on_hand"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	item := model.Item{ProductID: body.ProductID, VariantID: body.VariantID, LocationID: body.LocationID}
	if !item.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id and location_id are required"})
	}
	if body.OnHand < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "on_hand cannot be negative"})
	}
	if err := h.Stock.SetOnHand(c.Request().Context(), item, body.OnHand); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item, "on_hand": body.OnHand})
}

// positiveIntParam parses a required positive integer query parameter.
func positiveIntParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}
