package server

import (
	"net/http"

	"shareit/pkg/dto"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createItem(c *gin.Context) {
	owner, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req dto.ItemCreate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.svc.Items.Create(c.Request.Context(), owner, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
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
	var req dto.ItemUpdate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.svc.Items.Update(c.Request.Context(), id, user, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
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
	if err := h.svc.Items.Delete(c.Request.Context(), id, user); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) getItem(c *gin.Context) {
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
	item, err := h.svc.Items.FindByID(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) listOwnItems(c *gin.Context) {
	owner, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	from, size, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.svc.Items.FindByOwner(c.Request.Context(), owner, from, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) searchItems(c *gin.Context) {
	from, size, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.svc.Items.Search(c.Request.Context(), c.Query("text"), from, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) addComment(c *gin.Context) {
	author, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req dto.CommentCreate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	comment, err := h.svc.Items.AddComment(c.Request.Context(), id, author, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
