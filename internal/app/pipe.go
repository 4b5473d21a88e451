package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/domain"
)

// Pipe bridges a provider media stream to an outbound writer while
// driving the progress publisher and finalizing session state. One
// pipe call owns its session for the lifetime of the transfer.
type Pipe struct {
	registry  *Registry
	publisher *Publisher
	config    *domain.DownloadConfig
	logger    *zap.Logger
}

// NewPipe creates a streaming pipe
func NewPipe(registry *Registry, publisher *Publisher, config *domain.DownloadConfig, logger *zap.Logger) *Pipe {
	return &Pipe{
		registry:  registry,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// Stream copies the provider stream to w chunk by chunk, publishing a
// progress event per chunk. Backpressure from the consumer is honored
// by the blocking Write; the provider is not read ahead of it. The
// stream is closed on every exit path. Returns the error that ended
// the transfer, nil on graceful completion.
func (p *Pipe) Stream(ctx context.Context, stream domain.MediaStream, session *domain.Session, w io.Writer) error {
	defer stream.Close()

	flusher, _ := w.(http.Flusher)
	total := stream.TotalBytes()
	startedAt := time.Now()

	buf := make([]byte, p.config.ChunkSize)
	var downloaded int64

	for {
		// Consumer disconnect cancels the request context; stop
		// reading from the provider as soon as we notice.
		if err := ctx.Err(); err != nil {
			p.fail(session, err)
			return err
		}

		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				p.fail(session, writeErr)
				return writeErr
			}
			downloaded += int64(n)
			p.publisher.OnProgress(session, int64(n), downloaded, total, startedAt)
			if flusher != nil {
				flusher.Flush()
			}
		}

		if readErr == io.EOF {
			p.complete(session, downloaded)
			return nil
		}
		if readErr != nil {
			err := domain.NewProviderError("stream read", readErr)
			p.fail(session, err)
			return err
		}
	}
}

// Abort finalizes a session that failed before or during streaming:
// error transition, error event, delayed removal. Safe to call for a
// session that already reached a terminal state.
func (p *Pipe) Abort(session *domain.Session, err error) {
	p.fail(session, err)
}

func (p *Pipe) complete(session *domain.Session, downloaded int64) {
	if !session.MarkCompleted() {
		return
	}

	p.logger.Info("Download completed",
		zap.String("session_id", session.ID),
		zap.Int64("bytes", downloaded))

	p.publisher.Completed(session)
	p.registry.ScheduleRemoval(session.ID, p.config.SuccessRemovalDelay)
}

func (p *Pipe) fail(session *domain.Session, err error) {
	if !session.MarkFailed(err.Error()) {
		return
	}

	p.logger.Error("Download failed",
		zap.String("session_id", session.ID),
		zap.Error(err))

	p.publisher.Failed(session, err)
	p.registry.ScheduleRemoval(session.ID, p.config.ErrorRemovalDelay)
}
