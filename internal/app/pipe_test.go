package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/domain"
	"github.com/yourusername/vidstream-go/pkg/events"
)

// fakeStream serves scripted chunks and then either ends cleanly or
// fails, standing in for a provider media stream.
type fakeStream struct {
	chunks  [][]byte
	failErr error

	mu     sync.Mutex
	idx    int
	closed bool
	total  int64
}

func newFakeStream(total int64, failErr error, chunks ...[]byte) *fakeStream {
	return &fakeStream{chunks: chunks, failErr: failErr, total: total}
}

func (f *fakeStream) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.idx < len(f.chunks) {
		n := copy(p, f.chunks[f.idx])
		f.idx++
		return n, nil
	}
	if f.failErr != nil {
		return 0, f.failErr
	}
	return 0, io.EOF
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStream) TotalBytes() int64 { return f.total }

func (f *fakeStream) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func testPipe(t *testing.T) (*Pipe, *Registry, *recordingSink) {
	t.Helper()
	sink := newRecordingSink()
	registry := newTestRegistry()
	publisher := NewPublisher(sink, zap.NewNop())
	config := &domain.DownloadConfig{
		ChunkSize:           1024,
		SuccessRemovalDelay: 20 * time.Millisecond,
		ErrorRemovalDelay:   20 * time.Millisecond,
	}
	return NewPipe(registry, publisher, config, zap.NewNop()), registry, sink
}

func TestPipe_StreamCompletes(t *testing.T) {
	pipe, registry, sink := testPipe(t)
	session := registry.Create("sub-1")

	stream := newFakeStream(1000, nil, bytes.Repeat([]byte{'a'}, 500), bytes.Repeat([]byte{'b'}, 500))
	var out bytes.Buffer

	err := pipe.Stream(context.Background(), stream, session, &out)
	require.NoError(t, err)

	assert.Equal(t, 1000, out.Len())
	assert.Equal(t, domain.StatusCompleted, session.Status())
	assert.True(t, stream.wasClosed())

	assert.Len(t, sink.ofType("sub-1", events.TypeDownloadProgress), 2)
	require.Len(t, sink.ofType("sub-1", events.TypeDownloadComplete), 1)

	// Final progress sample reaches 100 percent.
	progress := sink.ofType("sub-1", events.TypeDownloadProgress)
	last := progress[len(progress)-1].Data.(progressPayload)
	assert.Equal(t, 100, last.Percent)

	// Session is reaped after the success delay.
	assert.Eventually(t, func() bool {
		_, err := registry.Get(session.ID)
		return errors.Is(err, domain.ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestPipe_StreamErrorMidTransfer(t *testing.T) {
	pipe, registry, sink := testPipe(t)
	session := registry.Create("sub-1")

	stream := newFakeStream(1000, errors.New("connection reset"), bytes.Repeat([]byte{'a'}, 500))
	var out bytes.Buffer

	err := pipe.Stream(context.Background(), stream, session, &out)
	require.Error(t, err)

	var provErr *domain.ProviderError
	assert.ErrorAs(t, err, &provErr)

	assert.Equal(t, domain.StatusError, session.Status())
	assert.True(t, stream.wasClosed())

	// Exactly one progress event and one error event reached the
	// subscriber.
	assert.Len(t, sink.ofType("sub-1", events.TypeDownloadProgress), 1)
	errs := sink.ofType("sub-1", events.TypeDownloadError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Data.(errorPayload).Error, "connection reset")

	// Session is reaped after the error delay.
	assert.Eventually(t, func() bool {
		_, err := registry.Get(session.ID)
		return errors.Is(err, domain.ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestPipe_WriterFailureIsCancellation(t *testing.T) {
	pipe, registry, sink := testPipe(t)
	session := registry.Create("sub-1")

	stream := newFakeStream(1000, nil, bytes.Repeat([]byte{'a'}, 500), bytes.Repeat([]byte{'b'}, 500))
	writer := &failingWriter{err: errors.New("broken pipe")}

	err := pipe.Stream(context.Background(), stream, session, writer)
	require.Error(t, err)

	assert.Equal(t, domain.StatusError, session.Status())
	assert.True(t, stream.wasClosed())
	assert.Empty(t, sink.ofType("sub-1", events.TypeDownloadProgress))
	assert.Len(t, sink.ofType("sub-1", events.TypeDownloadError), 1)
}

func TestPipe_ContextCancelStopsReading(t *testing.T) {
	pipe, registry, _ := testPipe(t)
	session := registry.Create("sub-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := newFakeStream(1000, nil, bytes.Repeat([]byte{'a'}, 500))
	var out bytes.Buffer

	err := pipe.Stream(ctx, stream, session, &out)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, domain.StatusError, session.Status())
	assert.Zero(t, out.Len())
	assert.True(t, stream.wasClosed())
}

func TestPipe_AbortBeforeStreaming(t *testing.T) {
	pipe, registry, sink := testPipe(t)
	session := registry.Create("sub-1")

	pipe.Abort(session, errors.New("stream open failed"))

	assert.Equal(t, domain.StatusError, session.Status())
	assert.Len(t, sink.ofType("sub-1", events.TypeDownloadError), 1)
}

func TestPipe_ConcurrentSessionsDoNotCrossPublish(t *testing.T) {
	pipe, registry, sink := testPipe(t)

	sessionA := registry.Create("sub-a")
	sessionB := registry.Create("sub-b")

	var wg sync.WaitGroup
	run := func(session *domain.Session) {
		defer wg.Done()
		stream := newFakeStream(300,
			nil,
			bytes.Repeat([]byte{'x'}, 100),
			bytes.Repeat([]byte{'y'}, 100),
			bytes.Repeat([]byte{'z'}, 100))
		var out bytes.Buffer
		pipe.Stream(context.Background(), stream, session, &out)
	}

	wg.Add(2)
	go run(sessionA)
	go run(sessionB)
	wg.Wait()

	for _, e := range sink.forSubscriber("sub-a") {
		assert.Equal(t, sessionA.ID, downloadID(t, e))
	}
	for _, e := range sink.forSubscriber("sub-b") {
		assert.Equal(t, sessionB.ID, downloadID(t, e))
	}
	assert.NotEmpty(t, sink.forSubscriber("sub-a"))
	assert.NotEmpty(t, sink.forSubscriber("sub-b"))
}

func downloadID(t *testing.T, e events.Event) string {
	t.Helper()
	switch data := e.Data.(type) {
	case startedPayload:
		return data.DownloadID
	case progressPayload:
		return data.DownloadID
	case completePayload:
		return data.DownloadID
	case errorPayload:
		return data.DownloadID
	default:
		t.Fatalf("unexpected event payload %T", e.Data)
		return ""
	}
}
