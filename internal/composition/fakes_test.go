package composition

import (
	"context"
	"errors"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/sink"
	"github.com/ivlev/photo2video/internal/timeline"
)

var errDiskFull = errors.New("disk full")

type fakeSink struct {
	mu      sync.Mutex
	opened  int
	openErr error
	// failOn makes the n-th Append (1-based) fail.
	failOn      int
	finalizeErr error
	// drainPool borrows every pool buffer before the session is handed out.
	drainPool bool
	sess      *fakeSession
}

func (f *fakeSink) Open(_ context.Context, settings sink.Settings) (sink.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	if err := os.WriteFile(settings.Path, nil, 0644); err != nil {
		return nil, err
	}
	f.sess = &fakeSession{
		settings: settings,
		pool:     sink.NewBufferPool(settings.Bounds(), settings.Buffers),
		failOn:   f.failOn,
		finalErr: f.finalizeErr,
	}
	if f.drainPool {
		for range settings.Buffers {
			if _, err := f.sess.pool.Get(context.Background()); err != nil {
				return nil, err
			}
		}
	}
	return f.sess, nil
}

func (f *fakeSink) session() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

type fakeSession struct {
	settings sink.Settings
	pool     *sink.BufferPool
	failOn   int
	finalErr error

	mu        sync.Mutex
	calls     int
	appended  []timeline.TimeValue
	ended     timeline.TimeValue
	finished  int
	finalized int
}

func (s *fakeSession) Ready() bool { return true }

func (s *fakeSession) WaitReady(ctx context.Context) error { return ctx.Err() }

func (s *fakeSession) Buffers() *sink.BufferPool { return s.pool }

func (s *fakeSession) Append(buf *image.RGBA, pts timeline.TimeValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == s.failOn {
		return errDiskFull
	}
	if buf.Rect != s.settings.Bounds() {
		return sink.ErrFrameSize
	}
	s.appended = append(s.appended, pts)
	return nil
}

func (s *fakeSession) EndSession(at timeline.TimeValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = at
}

func (s *fakeSession) MarkInputFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
}

func (s *fakeSession) Finalize(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized++
	return s.finalErr
}

type fakeExporter struct {
	mu    sync.Mutex
	calls int
	req   export.Request
	err   error
}

func (e *fakeExporter) Export(_ context.Context, req export.Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.req = req
	if e.err != nil {
		return "", e.err
	}
	return req.Output, os.WriteFile(req.Output, nil, 0644)
}

var testLogger = zerolog.Nop()

func writeEmpty(path string) error {
	return os.WriteFile(path, nil, 0644)
}
