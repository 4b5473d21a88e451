package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/app"
	"github.com/yourusername/vidstream-go/internal/domain"
)

// VideoHandler handles video-info requests
type VideoHandler struct {
	provider  domain.Provider
	publisher *app.Publisher
	logger    *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(provider domain.Provider, publisher *app.Publisher, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		provider:  provider,
		publisher: publisher,
		logger:    logger,
	}
}

// InfoRequest represents a request for video metadata
type InfoRequest struct {
	URL          string `json:"url" binding:"required"`
	SubscriberID string `json:"subscriberId"`
}

type infoPayload struct {
	domain.VideoMetadata
	Formats domain.Catalog `json:"formats"`
}

// Info handles POST /api/info
func (h *VideoHandler) Info(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "URL is required"})
		return
	}

	h.publisher.Stage(req.SubscriberID, "fetching_info", "Fetching video information...", 10)

	info, err := h.provider.GetMetadata(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Video info error", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.publisher.Stage(req.SubscriberID, "info_complete", "Video information loaded successfully", 100)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": infoPayload{
			VideoMetadata: info.Metadata(),
			Formats:       domain.BuildCatalog(info.Formats),
		},
	})
}
