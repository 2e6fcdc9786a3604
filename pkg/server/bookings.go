package server

import (
	"net/http"
	"strconv"

	"shareit/pkg/apperrors"
	"shareit/pkg/dto"
	"shareit/pkg/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createBooking(c *gin.Context) {
	booker, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req dto.BookingCreate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	booking, err := h.svc.Bookings.Create(c.Request.Context(), booker, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) decideBooking(c *gin.Context) {
	user, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		h.fail(c, apperrors.Validationf("query parameter approved must be true or false"))
		return
	}
	booking, err := h.svc.Bookings.Decide(c.Request.Context(), id, user, approved)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) getBooking(c *gin.Context) {
	user, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	booking, err := h.svc.Bookings.FindByID(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) listBookerBookings(c *gin.Context) {
	h.listBookings(c, service.AsBooker)
}

func (h *Handler) listOwnerBookings(c *gin.Context) {
	h.listBookings(c, service.AsOwner)
}

func (h *Handler) listBookings(c *gin.Context, scope service.Scope) {
	user, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	from, size, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	state := c.DefaultQuery("state", "ALL")
	bookings, err := h.svc.Bookings.List(c.Request.Context(), user, state, scope, from, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
