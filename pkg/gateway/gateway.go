// Package gateway validates client requests and relays them to the server.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shareit/pkg/apperrors"
	"shareit/pkg/dto"
	"shareit/pkg/logging"
	"shareit/pkg/metrics"
	"shareit/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const UserIDHeader = "X-Sharer-User-Id"

type Gateway struct {
	client  *Client
	limiter *UserLimiter
	logger  *zerolog.Logger
	now     func() time.Time
}

func New(client *Client, limiter *UserLimiter, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		client:  client,
		limiter: limiter,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func NewRouter(g *Gateway) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestID(), logging.Middleware(g.logger), metrics.Middleware("gateway"))

	r.GET("/manage/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", metrics.Handler())

	api := r.Group("", g.limiter.Middleware())

	users := api.Group("/users")
	users.POST("", g.createUser)
	users.GET("", g.relay)
	users.GET("/:id", g.withPathID(g.relay))
	users.PATCH("/:id", g.withPathID(g.updateUser))
	users.DELETE("/:id", g.withPathID(g.relay))

	items := api.Group("/items", g.requireUser)
	items.POST("", g.createItem)
	items.GET("", g.withPage(g.relay))
	items.GET("/search", g.withPage(g.searchItems))
	items.GET("/:id", g.withPathID(g.relay))
	items.PATCH("/:id", g.withPathID(g.updateItem))
	items.DELETE("/:id", g.withPathID(g.relay))
	items.POST("/:id/comment", g.withPathID(g.addComment))

	bookings := api.Group("/bookings", g.requireUser)
	bookings.POST("", g.createBooking)
	bookings.GET("", g.withPage(g.listBookings))
	bookings.GET("/owner", g.withPage(g.listBookings))
	bookings.GET("/:id", g.withPathID(g.relay))
	bookings.PATCH("/:id", g.withPathID(g.decideBooking))

	requests := api.Group("/requests", g.requireUser)
	requests.POST("", g.createRequest)
	requests.GET("", g.relay)
	requests.GET("/all", g.withPage(g.relay))
	requests.GET("/:id", g.withPathID(g.relay))

	return r
}

// requireUser rejects calls without an integer caller id.
func (g *Gateway) requireUser(c *gin.Context) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		g.reject(c, apperrors.Validationf("header %s is required", UserIDHeader))
		return
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		g.reject(c, apperrors.Validationf("header %s must be an integer", UserIDHeader))
		return
	}
	c.Next()
}

func (g *Gateway) withPathID(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := strconv.ParseInt(c.Param("id"), 10, 64); err != nil {
			g.reject(c, apperrors.Validationf("invalid id %q", c.Param("id")))
			return
		}
		next(c)
	}
}

// withPage checks from >= 0 and size > 0 when they are present.
func (g *Gateway) withPage(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := c.GetQuery("from"); ok {
			from, err := strconv.Atoi(raw)
			if err != nil || from < 0 {
				g.reject(c, apperrors.Validationf("from must be a non-negative integer"))
				return
			}
		}
		if raw, ok := c.GetQuery("size"); ok {
			size, err := strconv.Atoi(raw)
			if err != nil || size <= 0 {
				g.reject(c, apperrors.Validationf("size must be a positive integer"))
				return
			}
		}
		next(c)
	}
}

func (g *Gateway) createUser(c *gin.Context) {
	var req dto.UserCreate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

func (g *Gateway) updateUser(c *gin.Context) {
	var req dto.UserUpdate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

func (g *Gateway) createItem(c *gin.Context) {
	var req dto.ItemCreate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

func (g *Gateway) updateItem(c *gin.Context) {
	var req dto.ItemUpdate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

// searchItems answers blank queries itself.
func (g *Gateway) searchItems(c *gin.Context) {
	if strings.TrimSpace(c.Query("text")) == "" {
		c.JSON(http.StatusOK, []dto.Item{})
		return
	}
	g.relay(c)
}

func (g *Gateway) addComment(c *gin.Context) {
	var req dto.CommentCreate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

func (g *Gateway) createBooking(c *gin.Context) {
	var req dto.BookingCreate
	if !g.bind(c, &req, func() error { return req.Validate(g.now()) }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

func (g *Gateway) decideBooking(c *gin.Context) {
	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		g.reject(c, apperrors.Validationf("query parameter approved must be true or false"))
		return
	}
	query := url.Values{}
	query.Set("approved", strconv.FormatBool(approved))
	g.forward(c, query, nil)
}

// listBookings normalizes state to upper case before relaying.
func (g *Gateway) listBookings(c *gin.Context) {
	query := c.Request.URL.Query()
	raw := c.DefaultQuery("state", "ALL")
	state, ok := models.ParseBookingState(raw)
	if !ok {
		g.reject(c, apperrors.Validationf("Unknown state: %s", raw))
		return
	}
	query.Set("state", string(state))
	g.forward(c, query, nil)
}

func (g *Gateway) createRequest(c *gin.Context) {
	var req dto.ItemRequestCreate
	if !g.bind(c, &req, func() error { return req.Validate() }) {
		return
	}
	g.forward(c, c.Request.URL.Query(), req)
}

// relay passes the call through unchanged.
func (g *Gateway) relay(c *gin.Context) {
	g.forward(c, c.Request.URL.Query(), nil)
}

func (g *Gateway) bind(c *gin.Context, dst interface{}, validate func() error) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		g.reject(c, apperrors.Validationf("invalid request body: %v", err))
		return false
	}
	if err := validate(); err != nil {
		g.reject(c, err)
		return false
	}
	return true
}

func (g *Gateway) forward(c *gin.Context, query url.Values, body interface{}) {
	call := Call{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Query:     query,
		UserID:    c.GetHeader(UserIDHeader),
		RequestID: logging.GetRequestID(c),
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			g.reject(c, err)
			return
		}
		call.Body = data
	}

	resp, err := g.client.Do(c.Request.Context(), call)
	if errors.Is(err, ErrUnavailable) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: ErrUnavailable.Error()})
		return
	}
	if err != nil {
		g.reject(c, err)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	if len(resp.Body) == 0 {
		c.Status(resp.Status)
		return
	}
	c.Data(resp.Status, contentType, resp.Body)
}

func (g *Gateway) reject(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		g.logger.Error().Err(err).Str("request_id", logging.GetRequestID(c)).Msg("gateway request failed")
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: apperrors.PublicMessage(err)})
}
