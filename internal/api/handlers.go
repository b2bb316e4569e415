package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lookout/internal/articles"
	"lookout/internal/briefing"
	"lookout/internal/profiles"
	"lookout/pkg/logging"
)

// BriefingService is the part of the generator the API depends on.
type BriefingService interface {
	Run(ctx context.Context, opts briefing.RunOptions) (*briefing.RunSummary, error)
	Preview(ctx context.Context, email string) (string, error)
	LastRun() *briefing.RunInfo
}

// ProfileReader lists registered user profiles.
type ProfileReader interface {
	List() ([]profiles.UserProfile, error)
}

// Handlers exposes the briefing trigger API.
type Handlers struct {
	service BriefingService
	store   ProfileReader
	logger  logging.Logger
}

func NewHandlers(service BriefingService, store ProfileReader, logger logging.Logger) *Handlers {
	return &Handlers{
		service: service,
		store:   store,
		logger:  logger,
	}
}

// RegisterRoutes attaches the API endpoints to the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.POST("/generate", h.Generate)
	router.GET("/preview/:email", h.Preview)
	router.GET("/users", h.ListUsers)
}

type generateRequest struct {
	Email     string `json:"email"`
	SendEmail *bool  `json:"send_email"`
}

type generateResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	UsersProcessed int    `json:"users_processed"`
	Successful     int    `json:"successful"`
	Failed         int    `json:"failed"`
}

// Generate triggers a briefing run for all users, or one user when the body
// names an email.
func (h *Handlers) Generate(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	summary, err := h.service.Run(c.Request.Context(), briefing.RunOptions{
		Email:     req.Email,
		SendEmail: req.SendEmail,
	})
	if err != nil {
		h.writeRunError(c, err)
		return
	}

	status := "completed"
	if summary.Failed > 0 && summary.Successful == 0 {
		status = "failed"
	} else if summary.Failed > 0 {
		status = "partial"
	}

	c.JSON(http.StatusOK, generateResponse{
		Status:         status,
		Message:        "briefing run finished",
		UsersProcessed: summary.UsersProcessed,
		Successful:     summary.Successful,
		Failed:         summary.Failed,
	})
}

// Preview renders one user's briefing without sending it.
func (h *Handlers) Preview(c *gin.Context) {
	document, err := h.service.Preview(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.writeRunError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(document))
}

// ListUsers returns the registered profiles, read-only.
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.store.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read profiles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read profiles"})
		return
	}
	if users == nil {
		users = []profiles.UserProfile{}
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

func (h *Handlers) writeRunError(c *gin.Context, err error) {
	var fetchErr *articles.FetchError
	switch {
	case errors.Is(err, briefing.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, briefing.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Briefing request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
