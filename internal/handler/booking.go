package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/queue"
	"github.com/smarthotel/booking/internal/repository"
	"github.com/smarthotel/booking/internal/service"
)

// createAttempts bounds the retry loop around the booking transaction
// when MySQL reports a deadlock or lock wait timeout.
const createAttempts = 3

// BookingHandler groups the repositories involved in the booking
// lifecycle.  All methods assume JWT authentication and role validation
// have already been performed by middleware.  The booking create path
// runs its conflict check and all side effects inside one transaction.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Rooms    *repository.RoomRepo
	Hotels   *repository.HotelRepo
	Payments *repository.PaymentRepo
	Loyalty  *repository.LoyaltyRepo

	// Publisher is optional; events are skipped when nil.
	Publisher *service.EventPublisher

	// now is the clock used by the cancellation-window policy.  Tests
	// override it.
	now func() time.Time
}

func NewBookingHandler(b *repository.BookingRepo, r *repository.RoomRepo, h *repository.HotelRepo, p *repository.PaymentRepo, l *repository.LoyaltyRepo, pub *service.EventPublisher) *BookingHandler {
	if b == nil || r == nil || h == nil || p == nil || l == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		Bookings:  b,
		Rooms:     r,
		Hotels:    h,
		Payments:  p,
		Loyalty:   l,
		Publisher: pub,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type createBookingReq struct {
	RoomID        uint64 `json:"room_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	PaymentMethod string `json:"payment_method"` // empty: booking stays Pending, unpaid
}

type bookingResp struct {
	Booking model.Booking  `json:"booking"`
	Payment *model.Payment `json:"payment,omitempty"`
}

// Create handles POST /v1/bookings.  It validates the stay, then inside
// one transaction locks the room row, re-checks for overlapping
// Pending/Confirmed bookings and inserts the booking.  When a payment
// method is supplied the payment is created and completed against the
// simulated gateway, the booking is confirmed and loyalty points accrue,
// all before commit.  Deadlocks are retried a bounded number of times.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	checkIn, checkOut, err := parseStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()

	var (
		booking model.Booking
		payment *model.Payment
		hotelID uint64
	)
	for attempt := 1; ; attempt++ {
		booking, payment, hotelID, err = h.createOnce(ctx, userID, req.RoomID, checkIn, checkOut, strings.TrimSpace(req.PaymentMethod))
		if err == nil {
			break
		}
		if repository.IsRetryable(err) && attempt < createAttempts {
			continue
		}
		switch err {
		case repository.ErrRoomNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case repository.ErrRoomUnavailable:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "room is not available"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available for the requested dates"})
		default:
			if repository.IsRetryable(err) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "room is busy, try again"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
		}
	}

	if payment != nil && h.Publisher != nil {
		// Commit already happened; losing the event never loses the booking.
		h.Publisher.PublishBookingConfirmed(queue.BookingConfirmedEvent{
			BookingID:   booking.ID,
			UserID:      booking.UserID,
			RoomID:      booking.RoomID,
			HotelID:     hotelID,
			CheckIn:     booking.CheckIn.Format(model.DateLayout),
			CheckOut:    booking.CheckOut.Format(model.DateLayout),
			AmountCents: payment.AmountCents,
			OccurredAt:  h.now().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, bookingResp{Booking: booking, Payment: payment})
}

// createOnce runs one transactional attempt of the booking create flow.
func (h *BookingHandler) createOnce(ctx context.Context, userID, roomID uint64, checkIn, checkOut time.Time, method string) (model.Booking, *model.Payment, uint64, error) {
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The room row lock serializes concurrent attempts on this room so
	// the overlap check and the insert cannot interleave.
	room, err := h.Rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return model.Booking{}, nil, 0, err
	}
	if !room.Availability {
		return model.Booking{}, nil, 0, repository.ErrRoomUnavailable
	}
	conflict, err := h.Bookings.HasConflictTx(ctx, tx, roomID, checkIn, checkOut)
	if err != nil {
		return model.Booking{}, nil, 0, err
	}
	if conflict {
		return model.Booking{}, nil, 0, repository.ErrConflict
	}

	booking := model.Booking{
		UserID:   userID,
		RoomID:   roomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Status:   model.BookingPending,
	}
	if err := h.Bookings.CreateTx(ctx, tx, &booking); err != nil {
		return model.Booking{}, nil, 0, err
	}

	var payment *model.Payment
	if method != "" {
		nights := int64(checkOut.Sub(checkIn).Hours() / 24)
		p := model.Payment{
			UserID:         userID,
			BookingID:      booking.ID,
			AmountCents:    nights * room.PriceCents,
			Status:         model.PaymentPending,
			Method:         method,
			TransactionRef: uuid.NewString(),
		}
		if err := h.Payments.CreateTx(ctx, tx, &p); err != nil {
			return model.Booking{}, nil, 0, err
		}
		if err := h.Bookings.SetPaymentTx(ctx, tx, booking.ID, p.ID); err != nil {
			return model.Booking{}, nil, 0, err
		}
		// Simulated gateway: the charge always succeeds, synchronously.
		if err := h.Payments.MarkCompletedTx(ctx, tx, p.ID); err != nil {
			return model.Booking{}, nil, 0, err
		}
		p.Status = model.PaymentCompleted
		if err := h.Bookings.UpdateStatusTx(ctx, tx, booking.ID, model.BookingConfirmed); err != nil {
			return model.Booking{}, nil, 0, err
		}
		booking.Status = model.BookingConfirmed
		booking.PaymentID = &p.ID
		if err := h.Loyalty.AccrueTx(ctx, tx, userID, model.PointsEarned(p.AmountCents)); err != nil {
			return model.Booking{}, nil, 0, err
		}
		payment = &p
	}

	if err := tx.Commit(); err != nil {
		return model.Booking{}, nil, 0, err
	}
	committed = true
	return booking, payment, room.HotelID, nil
}

// Get handles GET /v1/bookings/:id.  Owner or an elevated role.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booking.UserID != userID && !model.Elevated(getRole(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, booking)
}

// ListAll handles GET /v1/bookings for elevated roles.
func (h *BookingHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByHotel handles GET /v1/hotels/:id/bookings for elevated roles.
// Managers see only their own hotels.
func (h *BookingHandler) ListByHotel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hotelID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		if err == repository.ErrHotelNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if getRole(c) != model.RoleAdmin && hotel.ManagerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hotel"})
	}

	items, err := h.Bookings.ListByHotel(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateStatus handles PUT /v1/bookings/:id/status.  The target must be
// a known status and the transition legal for the booking's current
// state; Cancelled and Completed are terminal.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target := strings.TrimSpace(req.Status)
	if !model.ValidStatus(target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booking.UserID != userID && !model.Elevated(getRole(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if !model.CanTransition(booking.Status, target) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "illegal status transition",
			"from":  booking.Status,
			"to":    target,
		})
	}

	if err := h.Bookings.UpdateStatus(ctx, id, target); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	booking.Status = target
	return c.JSON(http.StatusOK, booking)
}

// Cancel handles DELETE /v1/bookings/:id.  Owner or Admin.  Non-admin
// cancellations are rejected when check-in is less than 24 hours away.
// Cancelling an already-cancelled booking succeeds silently.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	role := getRole(c)
	if booking.UserID != userID && role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if booking.Status == model.BookingCancelled {
		return c.NoContent(http.StatusNoContent)
	}
	if !model.CanTransition(booking.Status, model.BookingCancelled) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking can no longer be cancelled"})
	}
	if role != model.RoleAdmin && !model.CancellationOpen(booking.CheckIn, h.now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cancellations must be made at least 24 hours before check-in"})
	}

	if err := h.Bookings.UpdateStatus(ctx, id, model.BookingCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
