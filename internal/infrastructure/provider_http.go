package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/domain"
)

// WorkerProvider talks to an external extraction worker over HTTP. The
// worker owns the platform-specific reverse engineering; this client
// only fetches metadata and opens byte streams.
type WorkerProvider struct {
	baseURL   string
	userAgent string
	config    *domain.ProviderConfig
	client    *http.Client
	logger    *zap.Logger
}

// NewWorkerProvider creates a provider client from configuration
func NewWorkerProvider(config *domain.ProviderConfig, logger *zap.Logger) *WorkerProvider {
	return &WorkerProvider{
		baseURL:   config.BaseURL,
		userAgent: config.UserAgent,
		config:    config,
		// No client-level timeout: metadata calls are bounded per
		// request below, stream bodies outlive any sane fixed bound.
		client: &http.Client{},
		logger: logger,
	}
}

type infoRequest struct {
	URL string `json:"url"`
}

type workerError struct {
	Error string `json:"error"`
}

// GetMetadata fetches video details and the raw format list from the
// worker. The call is bounded by the configured metadata timeout; a
// timeout surfaces as a ProviderError like any other fetch failure.
func (p *WorkerProvider) GetMetadata(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.MetadataTimeout)
	defer cancel()

	body, err := json.Marshal(infoRequest{URL: videoURL})
	if err != nil {
		return nil, domain.NewProviderError("metadata encode", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/info", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewProviderError("metadata request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	p.logger.Info("Fetching video info", zap.String("url", videoURL))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.NewProviderError("metadata fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewProviderError("metadata fetch", p.readError(resp))
	}

	var info domain.VideoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, domain.NewProviderError("metadata decode", err)
	}

	return &info, nil
}

// OpenStream opens the worker's byte stream for the chosen format. The
// response body is returned as-is; no timeout applies beyond the
// caller's context, since a stream legitimately runs for minutes.
func (p *WorkerProvider) OpenStream(ctx context.Context, videoURL, formatID string) (domain.MediaStream, error) {
	streamURL := fmt.Sprintf("%s/api/stream?url=%s&format_id=%s",
		p.baseURL, url.QueryEscape(videoURL), url.QueryEscape(formatID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, domain.NewProviderError("stream request", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	p.logger.Info("Opening media stream",
		zap.String("url", videoURL),
		zap.String("format_id", formatID))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.NewProviderError("stream open", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := p.readError(resp)
		resp.Body.Close()
		return nil, domain.NewProviderError("stream open", err)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	return &workerStream{body: resp.Body, total: total}, nil
}

// readError extracts the worker's error message from a non-200
// response, falling back to the status line.
func (p *WorkerProvider) readError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var we workerError
		if json.Unmarshal(data, &we) == nil && we.Error != "" {
			return fmt.Errorf("%s", we.Error)
		}
	}
	return fmt.Errorf("worker returned status %d", resp.StatusCode)
}

type workerStream struct {
	body  io.ReadCloser
	total int64
}

func (s *workerStream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close drains the remainder so the underlying connection is reusable,
// then closes the body.
func (s *workerStream) Close() error {
	io.Copy(io.Discard, io.LimitReader(s.body, 1<<20))
	return s.body.Close()
}

func (s *workerStream) TotalBytes() int64 {
	return s.total
}
