// Package server exposes the rental workflows over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"shareit/pkg/apperrors"
	"shareit/pkg/database"
	"shareit/pkg/dto"
	"shareit/pkg/logging"
	"shareit/pkg/metrics"
	"shareit/pkg/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// UserIDHeader carries the id of the calling user.
const UserIDHeader = "X-Sharer-User-Id"

const (
	defaultFrom = 0
	defaultSize = 10
)

type Handler struct {
	svc    *service.Services
	db     *gorm.DB
	logger *zerolog.Logger
}

func NewHandler(svc *service.Services, db *gorm.DB, logger *zerolog.Logger) *Handler {
	return &Handler{svc: svc, db: db, logger: logger}
}

// NewRouter builds the gin engine with every route of the server.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestID(), logging.Middleware(h.logger), metrics.Middleware("server"))

	users := r.Group("/users")
	users.POST("", h.createUser)
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PATCH("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)

	items := r.Group("/items")
	items.POST("", h.createItem)
	items.GET("", h.listOwnItems)
	items.GET("/search", h.searchItems)
	items.GET("/:id", h.getItem)
	items.PATCH("/:id", h.updateItem)
	items.DELETE("/:id", h.deleteItem)
	items.POST("/:id/comment", h.addComment)

	bookings := r.Group("/bookings")
	bookings.POST("", h.createBooking)
	bookings.GET("", h.listBookerBookings)
	bookings.GET("/owner", h.listOwnerBookings)
	bookings.GET("/:id", h.getBooking)
	bookings.PATCH("/:id", h.decideBooking)

	requests := r.Group("/requests")
	requests.POST("", h.createRequest)
	requests.GET("", h.listOwnRequests)
	requests.GET("/all", h.listOtherRequests)
	requests.GET("/:id", h.getRequest)

	r.GET("/manage/health", h.health)
	r.GET("/metrics", metrics.Handler())
	return r
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := database.Ping(ctx, h.db); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "database unavailable"})
		return
	}
	c.Status(http.StatusOK)
}

// fail writes err with the status of its kind. Internal errors are logged
// and replaced with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", logging.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: apperrors.PublicMessage(err)})
}

func userID(c *gin.Context) (int64, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return 0, apperrors.Validationf("header %s is required", UserIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Validationf("header %s must be an integer", UserIDHeader)
	}
	return id, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.Validationf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validationf("query parameter %s must be an integer", key)
	}
	return v, nil
}

func pageParams(c *gin.Context) (int, int, error) {
	from, err := queryInt(c, "from", defaultFrom)
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(c, "size", defaultSize)
	if err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

// bindJSON decodes the body and maps binding failures to validation errors.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validationf("invalid request body: %v", err)
	}
	return nil
}
