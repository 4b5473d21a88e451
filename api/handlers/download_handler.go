package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/app"
	"github.com/yourusername/vidstream-go/internal/domain"
)

// DownloadHandler handles download requests: it validates the chosen
// format against a fresh metadata snapshot, allocates a session and
// streams the media bytes as the response body.
type DownloadHandler struct {
	provider  domain.Provider
	registry  *app.Registry
	publisher *app.Publisher
	pipe      *app.Pipe
	logger    *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(
	provider domain.Provider,
	registry *app.Registry,
	publisher *app.Publisher,
	pipe *app.Pipe,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		provider:  provider,
		registry:  registry,
		publisher: publisher,
		pipe:      pipe,
		logger:    logger,
	}
}

// DownloadRequest represents a request to start a download
type DownloadRequest struct {
	URL          string `json:"url" binding:"required"`
	FormatID     string `json:"formatId" binding:"required"`
	SubscriberID string `json:"subscriberId" binding:"required"`
}

// Download handles POST /api/download
func (h *DownloadHandler) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "URL, formatId, and subscriberId are required",
		})
		return
	}

	// Re-fetch metadata so a stale client-supplied format id is caught
	// against the current snapshot.
	info, err := h.provider.GetMetadata(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Download metadata fetch failed",
			zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Format validation happens before any session exists.
	format, err := info.FindFormat(req.FormatID)
	if err != nil {
		h.logger.Warn("Format not found",
			zap.String("url", req.URL),
			zap.String("format_id", req.FormatID))
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Format %s not found", req.FormatID),
		})
		return
	}

	session := h.registry.Create(req.SubscriberID)

	container := format.Container
	if container == "" {
		container = "mp4"
	}
	filename := domain.SanitizeTitle(info.Title) + "." + container

	contentType := "audio/mpeg"
	if format.HasVideo {
		contentType = "video/mp4"
	}

	h.logger.Info("Starting download",
		zap.String("session_id", session.ID),
		zap.String("url", req.URL),
		zap.String("format_id", req.FormatID),
		zap.String("filename", filename))

	h.publisher.Started(session, filename)

	stream, err := h.provider.OpenStream(c.Request.Context(), req.URL, req.FormatID)
	if err != nil {
		h.pipe.Abort(session, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	if total := stream.TotalBytes(); total > 0 {
		c.Header("Content-Length", strconv.FormatInt(total, 10))
	}
	c.Status(http.StatusOK)

	// Mid-stream failures surface to the client as a truncated body;
	// the error detail travels over the subscriber channel.
	h.pipe.Stream(c.Request.Context(), stream, session, c.Writer)
}
