package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

// LoyaltyHandler groups the repositories behind the loyalty account and
// redemption endpoints.  Redemption is the only multi-table write and
// runs in a single transaction.
type LoyaltyHandler struct {
	Loyalty     *repository.LoyaltyRepo
	Redemptions *repository.RedemptionRepo
	Bookings    *repository.BookingRepo
	Payments    *repository.PaymentRepo
}

func NewLoyaltyHandler(l *repository.LoyaltyRepo, rd *repository.RedemptionRepo, b *repository.BookingRepo, p *repository.PaymentRepo) *LoyaltyHandler {
	if l == nil || rd == nil || b == nil || p == nil {
		panic("nil repository passed to NewLoyaltyHandler")
	}
	return &LoyaltyHandler{Loyalty: l, Redemptions: rd, Bookings: b, Payments: p}
}

// GetAccount handles GET /v1/loyalty/account.  A zero-balance account is
// created on first read.
func (h *LoyaltyHandler) GetAccount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.Loyalty.GetOrCreate(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	return c.JSON(http.StatusOK, account)
}

// ListRedemptions handles GET /v1/loyalty/redemptions.
func (h *LoyaltyHandler) ListRedemptions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Redemptions.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type redeemReq struct {
	BookingID uint64 `json:"booking_id"`
	Points    int64  `json:"points"`
}

// Redeem handles POST /v1/loyalty/redeem.  Preconditions are checked in
// order: the booking must belong to the caller, no redemption may exist
// for it yet, and the balance must cover the requested points.  When the
// booking has a linked payment its amount is reduced (floored at zero);
// an unpaid booking still gets the debit and the redemption record.
// Everything commits atomically; the unique index on booking_id decides
// ties between concurrent redemptions of the same booking.
func (h *LoyaltyHandler) Redeem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BookingID == 0 || req.Points <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and positive points required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := h.Bookings.GetForUpdateTx(ctx, tx, req.BookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if booking.UserID != userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking does not belong to user"})
	}

	exists, err := h.Redemptions.ExistsForBookingTx(ctx, tx, booking.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "points already redeemed for this booking"})
	}

	if err := h.Loyalty.DebitTx(ctx, tx, userID, req.Points); err != nil {
		if err == repository.ErrInsufficientPoints {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient loyalty points"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "debit failed"})
	}

	// An unpaid booking earns no discount application but the points
	// still leave the account and the redemption is recorded.
	discount := model.DiscountCents(req.Points)
	var discountedAmount *int64
	if booking.PaymentID != nil {
		payment, err := h.Payments.GetForUpdateTx(ctx, tx, *booking.PaymentID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
		}
		newAmount := model.ApplyDiscount(payment.AmountCents, discount)
		if err := h.Payments.UpdateAmountTx(ctx, tx, payment.ID, newAmount); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "apply discount failed"})
		}
		discountedAmount = &newAmount
	}

	redemption := model.Redemption{
		UserID:        userID,
		BookingID:     booking.ID,
		PointsUsed:    req.Points,
		DiscountCents: discount,
		RedeemedAt:    time.Now().UTC(),
	}
	if err := h.Redemptions.CreateTx(ctx, tx, &redemption); err != nil {
		if err == repository.ErrAlreadyRedeemed {
			return c.JSON(http.StatusConflict, echo.Map{"error": "points already redeemed for this booking"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create redemption failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	resp := echo.Map{"redemption": redemption}
	if discountedAmount != nil {
		resp["payment_amount_cents"] = *discountedAmount
	}
	return c.JSON(http.StatusCreated, resp)
}
