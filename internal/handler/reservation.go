package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avros/inventory-reservation/internal/inventory"
	"github.com/avros/inventory-reservation/internal/model"
	"github.com/avros/inventory-reservation/internal/queue"
	"github.com/avros/inventory-reservation/internal/reservation"
	queue_publisher "github.com/avros/inventory-reservation/internal/service"
)

// ReservationHandler maps the engine operations onto HTTP endpoints.  The
// engine's benign outcomes (insufficient stock, lost transition races)
// become 409 responses, caller-contract violations become 400, an item the
// oracle has never heard of becomes 404, and infrastructure failures become
// 500.  After each successful mutation a lifecycle event is published; a
// publish failure is logged and ignored, it never fails the request.
type ReservationHandler struct {
	Engine *reservation.Engine
	Stock  *inventory.StockRepo // nil when running on the in-memory oracle
}

// NewReservationHandler constructs a ReservationHandler.  The engine must
// be non-nil; the stock repo is optional and only needed to convert
// completed holds into committed deductions.
func NewReservationHandler(engine *reservation.Engine, stock *inventory.StockRepo) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Stock: stock}
}

type reserveRequest struct {
	ProductID       string `json:"product_id"`
	VariantID       string `json:"variant_id"`
	LocationID      string `json:"location_id"`
	Quantity        int    `json:"quantity"`
	SessionID       string `json:"session_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Reserve handles POST /v1/reservations.  It attempts to hold the requested
// quantity for the session.  On success it returns 201 with the created
// reservation; when availability is insufficient it returns 409 carrying
// the actual headroom so the storefront can render "only N left".
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var body reserveRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.DurationMinutes < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_minutes cannot be negative"})
	}
	req := reservation.ReserveRequest{
		Item: model.Item{
			ProductID:  body.ProductID,
			VariantID:  body.VariantID,
			LocationID: body.LocationID,
		},
		Quantity:  body.Quantity,
		SessionID: body.SessionID,
		Duration:  time.Duration(body.DurationMinutes) * time.Minute,
	}
	result, err := h.Engine.Reserve(c.Request().Context(), req)
	if err != nil {
		return reservationError(c, err)
	}
	if !result.Reserved {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient_stock",
			"available": result.Available,
		})
	}
	h.publish(c, queue.EventReserved, result.Reservation)
	return c.JSON(http.StatusCreated, result.Reservation)
}

// Complete handles POST /v1/reservations/:id/complete.  On success it also
// converts the hold into a committed deduction against on-hand stock.  A
// reservation that already left ACTIVE yields 409, matching the engine's
// benign-race semantics.
func (h *ReservationHandler) Complete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	// Snapshot the record first; after the transition we still need its
	// item and quantity for the stock deduction and the event payload.
	rec, err := h.Engine.Get(ctx, id)
	if errors.Is(err, reservation.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	ok, err := h.Engine.Complete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not active", "status": rec.Status})
	}

	if h.Stock != nil {
		applied, err := h.Stock.Decrement(ctx, rec.Item, rec.Quantity)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock deduction failed"})
		}
		if !applied {
			// The hold is completed either way; an unapplied deduction means
			// on-hand drifted below the held quantity and needs operator
			// attention.
			log.Printf("reservation %s completed but stock deduction not applied for %+v", id, rec.Item)
		}
	}
	h.publish(c, queue.EventCompleted, rec)
	return c.JSON(http.StatusOK, echo.Map{"completed": true})
}

// Cancel handles POST /v1/reservations/:id/cancel.  Cancelling frees the
// held quantity immediately; availability reflects it on the next read.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	ok, err := h.Engine.Cancel(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not active"})
	}
	if rec, err := h.Engine.Get(ctx, id); err == nil {
		h.publish(c, queue.EventCancelled, rec)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
}

// Extend handles POST /v1/reservations/:id/extend.  The body carries
// additional_minutes; the new expiry is returned so the storefront can
// refresh its countdown.
func (h *ReservationHandler) Extend(c echo.Context) error {
	id := c.Param("id")
	var body struct {
		AdditionalMinutes int `json:"additional_minutes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.AdditionalMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "additional_minutes must be positive"})
	}
	ctx := c.Request().Context()
	ok, err := h.Engine.Extend(ctx, id, time.Duration(body.AdditionalMinutes)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not active"})
	}
	rec, err := h.Engine.Get(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publish(c, queue.EventExtended, rec)
	return c.JSON(http.StatusOK, echo.Map{
		"extended":   true,
		"expires_at": rec.ExpiresAt.Format(time.RFC3339),
	})
}

// CheckAvailability handles GET /v1/availability.  The result is advisory:
// a concurrent reserve can consume the headroom between this check and a
// follow-up reserve call.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	item := model.Item{
		ProductID:  c.QueryParam("product_id"),
		VariantID:  c.QueryParam("variant_id"),
		LocationID: c.QueryParam("location_id"),
	}
	quantity, err := positiveIntParam(c, "quantity")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ok, err := h.Engine.CheckAvailability(c.Request().Context(), item, quantity)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

// SessionReservations handles GET /v1/sessions/:id/reservations, listing
// the session's active holds.
func (h *ReservationHandler) SessionReservations(c echo.Context) error {
	list, err := h.Engine.SessionReservations(c.Request().Context(), c.Param("id"))
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// Sweep handles POST /v1/admin/sweep, running the expiry sweep on demand.
// The periodic sweeper makes this unnecessary in normal operation; it
// exists for operational tooling and tests against a running instance.
func (h *ReservationHandler) Sweep(c echo.Context) error {
	n, err := h.Engine.ReleaseExpired(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": n})
}

func (h *ReservationHandler) publish(c echo.Context, event string, rec *model.Reservation) {
	ev := queue.ReservationEvent{
		Event:         event,
		ReservationID: rec.ID,
		ProductID:     rec.Item.ProductID,
		VariantID:     rec.Item.VariantID,
		LocationID:    rec.Item.LocationID,
		SessionID:     rec.SessionID,
		Quantity:      rec.Quantity,
		ExpiresAt:     rec.ExpiresAt.Format(time.RFC3339),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishReservationEvent(c.Request().Context(), ev); err != nil {
		log.Printf("publish %s event for reservation %s failed: %v", event, rec.ID, err)
	}
}

// reservationError translates engine errors into HTTP responses.  Contract
// violations are 400, an unknown item is 404, everything else is an
// infrastructure failure and must surface as 500 rather than masquerade as
// an out-of-stock answer.
func reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reservation.ErrInvalidQuantity),
		errors.Is(err, reservation.ErrInvalidItem),
		errors.Is(err, reservation.ErrMissingSession),
		errors.Is(err, reservation.ErrInvalidDuration):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, reservation.ErrUnknownItem):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown item"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
