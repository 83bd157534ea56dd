package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

// RoomHandler bundles dependencies for room endpoints.
type RoomHandler struct {
	Rooms    *repository.RoomRepo
	Hotels   *repository.HotelRepo
	Bookings *repository.BookingRepo
}

func NewRoomHandler(r *repository.RoomRepo, h *repository.HotelRepo, b *repository.BookingRepo) *RoomHandler {
	if r == nil || h == nil || b == nil {
		panic("nil repo")
	}
	return &RoomHandler{Rooms: r, Hotels: h, Bookings: b}
}

type roomReq struct {
	HotelID      uint64 `json:"hotel_id"`
	RoomType     string `json:"room_type"`
	PriceCents   int64  `json:"price_cents"`
	Availability *bool  `json:"availability"`
	Features     string `json:"features"`
}

// List returns all rooms, optionally filtered by ?hotel_id=. Public.
func (h *RoomHandler) List(c echo.Context) error {
	var hotelID uint64
	if s := c.QueryParam("hotel_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel_id"})
		}
		hotelID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// ListByHotel returns the rooms of one hotel. Public.
func (h *RoomHandler) ListByHotel(c echo.Context) error {
	hotelID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
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
	rooms, err := h.Rooms.List(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Get returns one room by id. Public.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, room)
}

// ListAvailable returns rooms that are administratively available and
// free of blocking bookings for the requested stay. Public.
func (h *RoomHandler) ListAvailable(c echo.Context) error {
	checkIn, checkOut, err := parseStayRange(c.QueryParam("check_in"), c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var hotelID uint64
	if s := c.QueryParam("hotel_id"); s != "" {
		n, perr := strconv.ParseUint(s, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel_id"})
		}
		hotelID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.ListAvailable(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// CheckAvailability answers whether one room can host the requested
// stay. The overlap test runs in Go over the room's blocking bookings;
// this is a read-only answer and may be stale by the time a booking is
// attempted, which is why the create path re-checks under a row lock.
func (h *RoomHandler) CheckAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	checkIn, checkOut, err := parseStayRange(c.QueryParam("check_in"), c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	available := room.Availability
	if available {
		blocking, err := h.Bookings.ListBlockingByRoom(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		for _, b := range blocking {
			if model.Overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
				available = false
				break
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   id,
		"check_in":  checkIn.Format(model.DateLayout),
		"check_out": checkOut.Format(model.DateLayout),
		"available": available,
	})
}

// Create adds a room to a hotel. Managers may only add to their own
// hotels; Admin to any.
func (h *RoomHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomType = strings.TrimSpace(req.RoomType)
	if req.HotelID == 0 || req.RoomType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hotel_id/room_type required"})
	}
	if req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, req.HotelID)
	if err != nil {
		if err == repository.ErrHotelNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if getRole(c) != model.RoleAdmin && hotel.ManagerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hotel"})
	}

	room := model.Room{
		HotelID:      req.HotelID,
		RoomType:     req.RoomType,
		PriceCents:   req.PriceCents,
		Availability: true,
		Features:     strings.TrimSpace(req.Features),
	}
	if req.Availability != nil {
		room.Availability = *req.Availability
	}
	if err := h.Rooms.Create(ctx, &room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, room)
}

// Update rewrites a room, including its administrative availability flag.
func (h *RoomHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hotel, err := h.Hotels.GetByID(ctx, room.HotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if getRole(c) != model.RoleAdmin && hotel.ManagerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hotel"})
	}

	if v := strings.TrimSpace(req.RoomType); v != "" {
		room.RoomType = v
	}
	if req.PriceCents > 0 {
		room.PriceCents = req.PriceCents
	}
	if req.Availability != nil {
		room.Availability = *req.Availability
	}
	if req.Features != "" {
		room.Features = strings.TrimSpace(req.Features)
	}
	if err := h.Rooms.Update(ctx, &room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	return c.JSON(http.StatusOK, room)
}

// Delete removes a room. Managers only their own hotels; Admin any.
func (h *RoomHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hotel, err := h.Hotels.GetByID(ctx, room.HotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if getRole(c) != model.RoleAdmin && hotel.ManagerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hotel"})
	}

	if err := h.Rooms.Delete(ctx, id); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
