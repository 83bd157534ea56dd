package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

// ReviewHandler groups the repositories behind review endpoints.  Every
// review write recomputes the hotel's rating aggregate in the same
// transaction.
type ReviewHandler struct {
	Reviews  *repository.ReviewRepo
	Hotels   *repository.HotelRepo
	Bookings *repository.BookingRepo

	now func() time.Time
}

func NewReviewHandler(rv *repository.ReviewRepo, h *repository.HotelRepo, b *repository.BookingRepo) *ReviewHandler {
	if rv == nil || h == nil || b == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{
		Reviews:  rv,
		Hotels:   h,
		Bookings: b,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type reviewReq struct {
	HotelID uint64 `json:"hotel_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// List handles GET /v1/reviews. Public.
func (h *ReviewHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reviews.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByHotel handles GET /v1/hotels/:id/reviews. Public.
func (h *ReviewHandler) ListByHotel(c echo.Context) error {
	hotelID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Hotels.Exists(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
	}
	items, err := h.Reviews.ListByHotel(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListMine handles GET /v1/my-reviews.
func (h *ReviewHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reviews.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/reviews.  The caller must have actually stayed
// at the hotel: a Confirmed booking with check-out in the past.  A
// second submission for the same hotel overwrites the earlier review
// rather than duplicating it.  The hotel's rating is recomputed before
// commit.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.HotelID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hotel_id is required"})
	}
	if !model.ValidRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx := c.Request().Context()

	ok, err := h.Hotels.Exists(ctx, req.HotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
	}
	stayed, err := h.Bookings.HasStayedAtHotel(ctx, userID, req.HotelID, h.now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !stayed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reviews require a completed stay at the hotel"})
	}

	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	comment := strings.TrimSpace(req.Comment)
	review, err := h.Reviews.GetByUserAndHotelTx(ctx, tx, userID, req.HotelID)
	switch {
	case err == nil:
		// Second submission by the same user overwrites.
		if err := h.Reviews.UpdateTx(ctx, tx, review.ID, req.Rating, comment, h.now()); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
		}
		review.Rating = req.Rating
		review.Comment = comment
	case errors.Is(err, sql.ErrNoRows):
		review = model.Review{UserID: userID, HotelID: req.HotelID, Rating: req.Rating, Comment: comment}
		if err := h.Reviews.CreateTx(ctx, tx, &review); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
		}
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Reviews.RecomputeHotelRatingTx(ctx, tx, req.HotelID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "recompute rating failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, review)
}

// Update handles PUT /v1/reviews/:id.  Owner or Admin.
func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx := c.Request().Context()

	review, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if review.UserID != userID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	comment := strings.TrimSpace(req.Comment)
	if err := h.Reviews.UpdateTx(ctx, tx, id, req.Rating, comment, h.now()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
	}
	if err := h.Reviews.RecomputeHotelRatingTx(ctx, tx, review.HotelID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "recompute rating failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	review.Rating = req.Rating
	review.Comment = comment
	return c.JSON(http.StatusOK, review)
}

// Delete handles DELETE /v1/reviews/:id.  Owner or Admin.  The hotel's
// rating drops back to 0 when its last review is removed.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}

	ctx := c.Request().Context()

	review, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if review.UserID != userID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Reviews.DeleteTx(ctx, tx, id); err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete review failed"})
	}
	if err := h.Reviews.RecomputeHotelRatingTx(ctx, tx, review.HotelID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "recompute rating failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
