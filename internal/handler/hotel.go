package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

// HotelHandler bundles dependencies for hotel endpoints.
type HotelHandler struct {
	Hotels *repository.HotelRepo
}

func NewHotelHandler(h *repository.HotelRepo) *HotelHandler {
	if h == nil {
		panic("nil HotelRepo")
	}
	return &HotelHandler{Hotels: h}
}

type hotelReq struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Amenities string `json:"amenities"`
}

// List returns all hotels. Public.
func (h *HotelHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotels, err := h.Hotels.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"hotels": hotels})
}

// Get returns one hotel by id. Public.
func (h *HotelHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrHotelNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, hotel)
}

// Search filters hotels by location substring and amenity list. Public.
func (h *HotelHandler) Search(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotels, err := h.Hotels.Search(ctx,
		strings.TrimSpace(c.QueryParam("location")),
		strings.TrimSpace(c.QueryParam("amenities")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"hotels": hotels})
}

// Create registers a new hotel. The caller becomes its manager unless an
// Admin names another manager_id in the body.
func (h *HotelHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		hotelReq
		ManagerID uint64 `json:"manager_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Location) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/location required"})
	}

	managerID := uid
	if getRole(c) == model.RoleAdmin && req.ManagerID != 0 {
		managerID = req.ManagerID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel := model.Hotel{
		ManagerID: managerID,
		Name:      req.Name,
		Location:  strings.TrimSpace(req.Location),
		Amenities: strings.TrimSpace(req.Amenities),
	}
	if err := h.Hotels.Create(ctx, &hotel); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hotel failed"})
	}
	return c.JSON(http.StatusCreated, hotel)
}

// Update rewrites a hotel's fields. Managers may only touch their own
// hotels; Admin may touch any.
func (h *HotelHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req hotelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrHotelNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if getRole(c) != model.RoleAdmin && hotel.ManagerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hotel"})
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		hotel.Name = v
	}
	if v := strings.TrimSpace(req.Location); v != "" {
		hotel.Location = v
	}
	if req.Amenities != "" {
		hotel.Amenities = strings.TrimSpace(req.Amenities)
	}
	if err := h.Hotels.Update(ctx, &hotel); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update hotel failed"})
	}
	return c.JSON(http.StatusOK, hotel)
}

// Delete removes a hotel. Admin only; rooms cascade at the schema level.
func (h *HotelHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Hotels.Delete(ctx, id); err != nil {
		if err == repository.ErrHotelNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete hotel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
