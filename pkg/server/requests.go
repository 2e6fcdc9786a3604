package server

import (
	"net/http"

	"shareit/pkg/dto"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createRequest(c *gin.Context) {
	user, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req dto.ItemRequestCreate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	request, err := h.svc.Requests.Create(c.Request.Context(), user, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *Handler) listOwnRequests(c *gin.Context) {
	user, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	requests, err := h.svc.Requests.FindOwn(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) listOtherRequests(c *gin.Context) {
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
	requests, err := h.svc.Requests.FindOthers(c.Request.Context(), user, from, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) getRequest(c *gin.Context) {
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
	request, err := h.svc.Requests.FindByID(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}
