package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/photo2video/internal/system"
	"github.com/ivlev/photo2video/internal/timeline"
)

// defaultDepth is how many frames may wait for the encoder before the
// session stops reporting ready.
const defaultDepth = 2

// FFmpegSink encodes raw RGBA frames with an ffmpeg child process.
type FFmpegSink struct {
	logger zerolog.Logger
	binary string
}

func NewFFmpegSink(logger zerolog.Logger) *FFmpegSink {
	return &FFmpegSink{
		logger: logger.With().Str("component", "sink").Logger(),
		binary: "ffmpeg",
	}
}

func (s *FFmpegSink) Open(ctx context.Context, settings Settings) (Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Codec == "" {
		settings.Codec = "libx264"
	}

	bin, err := exec.LookPath(s.binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	// Surface permission problems before the encoder swallows them.
	f, err := os.OpenFile(settings.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	f.Close()

	args := buildArgs(settings)
	s.logger.Debug().Strs("args", args).Msg("starting encoder")

	cmd := exec.CommandContext(ctx, bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.Remove(settings.Path)
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		os.Remove(settings.Path)
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	sess := newSession(settings, stdin, s.logger)
	sess.g.Go(sess.writeLoop)
	sess.g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			err = fmt.Errorf("%w: ffmpeg wait error: %v, output: %s", ErrSessionAborted, err, tail(stderr.String(), 2048))
			sess.exited(err)
			return err
		}
		return nil
	})
	return sess, nil
}

func buildArgs(settings Settings) []string {
	fps := fmt.Sprintf("%d", settings.FrameRate)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", settings.Width, settings.Height),
		"-framerate", fps,
		"-i", "-",
		"-c:v", settings.Codec,
		"-pix_fmt", "yuv420p",
		"-r", fps,
	}
	args = append(args, system.QualityArgs(settings.Codec, settings.Quality)...)
	args = append(args, "-movflags", "+faststart", "-f", "mp4", settings.Path)
	return args
}

type frameJob struct {
	tick int64
	pix  []byte
}

type ffmpegSession struct {
	settings Settings
	logger   zerolog.Logger
	pool     *BufferPool
	w        io.WriteCloser
	g        errgroup.Group

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []frameJob
	free     [][]byte
	depth    int
	lastTick int64
	endTick  int64
	finished bool
	err      error
	exitErr  error

	finalizeOnce sync.Once
	finalizeErr  error
}

func newSession(settings Settings, w io.WriteCloser, logger zerolog.Logger) *ffmpegSession {
	buffers := settings.Buffers
	if buffers <= 0 {
		buffers = defaultDepth
	}
	s := &ffmpegSession{
		settings: settings,
		logger:   logger,
		pool:     NewBufferPool(settings.Bounds(), buffers),
		w:        w,
		depth:    defaultDepth,
		lastTick: -1,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *ffmpegSession) Buffers() *BufferPool { return s.pool }

func (s *ffmpegSession) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err == nil && !s.finished && len(s.queue) < s.depth
}

func (s *ffmpegSession) WaitReady(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		switch {
		case s.err != nil:
			return s.err
		case s.finished:
			return ErrInputFinished
		case len(s.queue) < s.depth:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}
		s.cond.Wait()
	}
}

func (s *ffmpegSession) Append(buf *image.RGBA, pts timeline.TimeValue) error {
	if buf.Rect != s.settings.Bounds() {
		return fmt.Errorf("%w: got %v", ErrFrameSize, buf.Rect)
	}
	tv, exact := pts.Rescale(s.settings.FrameRate)
	if !exact {
		return fmt.Errorf("timestamp %s is not on a frame boundary at %d fps", pts, s.settings.FrameRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.err != nil:
		return s.err
	case s.finished:
		return ErrInputFinished
	case tv.Value <= s.lastTick:
		return fmt.Errorf("%w: %s after tick %d", ErrNonMonotonic, pts, s.lastTick)
	case len(s.queue) >= s.depth:
		return ErrNotReady
	}

	var pix []byte
	if n := len(s.free); n > 0 {
		pix, s.free = s.free[n-1], s.free[:n-1]
	} else {
		pix = make([]byte, len(buf.Pix))
	}
	copy(pix, buf.Pix)

	s.queue = append(s.queue, frameJob{tick: tv.Value, pix: pix})
	s.lastTick = tv.Value
	s.cond.Broadcast()
	return nil
}

func (s *ffmpegSession) EndSession(at timeline.TimeValue) {
	tv, exact := at.Rescale(s.settings.FrameRate)
	end := tv.Value
	if !exact {
		end++
	}
	s.mu.Lock()
	s.endTick = end
	s.mu.Unlock()
}

func (s *ffmpegSession) MarkInputFinished() {
	s.mu.Lock()
	s.finished = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *ffmpegSession) Finalize(ctx context.Context) error {
	s.finalizeOnce.Do(func() {
		s.MarkInputFinished()

		done := make(chan error, 1)
		go func() { done <- s.g.Wait() }()

		select {
		case err := <-done:
			s.mu.Lock()
			if s.exitErr != nil {
				err = s.exitErr
			}
			s.mu.Unlock()
			s.finalizeErr = err
		case <-ctx.Done():
			s.fail(ctx.Err())
			s.finalizeErr = ctx.Err()
		}
	})
	return s.finalizeErr
}

func (s *ffmpegSession) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.cond.Broadcast()
	s.mu.Unlock()
	s.w.Close()
}

// exited records that the encoder stopped on its own with err.
func (s *ffmpegSession) exited(err error) {
	s.mu.Lock()
	s.exitErr = err
	s.mu.Unlock()
	s.fail(err)
}

// writeLoop feeds the encoder one frame per tick, repeating the previous
// frame until the next queued timestamp.
func (s *ffmpegSession) writeLoop() error {
	var last []byte
	next := int64(0)

	write := func(pix []byte) error {
		if _, err := s.w.Write(pix); err != nil {
			s.fail(err)
			return fmt.Errorf("write frame %d: %w", next, err)
		}
		next++
		return nil
	}

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.finished && s.err == nil {
			s.cond.Wait()
		}
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			return err
		}
		if len(s.queue) == 0 {
			end := s.endTick
			s.mu.Unlock()
			for last != nil && next < end {
				if err := write(last); err != nil {
					return err
				}
			}
			s.logger.Debug().Int64("frames", next).Msg("input drained")
			return s.w.Close()
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		hold := last
		if hold == nil {
			hold = job.pix
		}
		for next < job.tick {
			if err := write(hold); err != nil {
				return err
			}
		}
		if err := write(job.pix); err != nil {
			return err
		}

		s.mu.Lock()
		if last != nil {
			s.free = append(s.free, last)
		}
		s.cond.Broadcast()
		s.mu.Unlock()
		last = job.pix
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var _ Session = (*ffmpegSession)(nil)

// IsAborted reports whether err came from an encoder that exited with an
// error. Such errors carry the encoder's output.
func IsAborted(err error) bool {
	return errors.Is(err, ErrSessionAborted)
}
