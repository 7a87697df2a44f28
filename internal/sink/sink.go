// Package sink defines the video sink a conversion writes frames into and
// provides an ffmpeg-backed implementation.
package sink

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/photo2video/internal/timeline"
)

var (
	ErrNotReady       = errors.New("sink is not ready for more data")
	ErrInputFinished  = errors.New("sink input already marked finished")
	ErrNonMonotonic   = errors.New("presentation timestamp does not advance")
	ErrFrameSize      = errors.New("pixel buffer does not match the render size")
	ErrUnsupported    = errors.New("unsupported sink settings")
	ErrSessionAborted = errors.New("sink session aborted")
)

type PixelFormat string

const PixelFormatRGBA PixelFormat = "rgba"

// Settings configures one sink session.
type Settings struct {
	Path        string
	FileFormat  string
	Codec       string
	PixelFormat PixelFormat
	FrameRate   int32
	Width       int
	Height      int
	Quality     int
	// Buffers bounds the pixel buffer pool handed out by the session.
	Buffers int
}

func (s Settings) Validate() error {
	switch {
	case s.Path == "":
		return fmt.Errorf("%w: empty output path", ErrUnsupported)
	case s.FileFormat != "" && s.FileFormat != "mp4":
		return fmt.Errorf("%w: file format %q", ErrUnsupported, s.FileFormat)
	case s.PixelFormat != "" && s.PixelFormat != PixelFormatRGBA:
		return fmt.Errorf("%w: pixel format %q", ErrUnsupported, s.PixelFormat)
	case s.FrameRate <= 0:
		return fmt.Errorf("%w: frame rate %d", ErrUnsupported, s.FrameRate)
	case s.Width <= 0 || s.Height <= 0 || s.Width%2 != 0 || s.Height%2 != 0:
		return fmt.Errorf("%w: render size %dx%d", ErrUnsupported, s.Width, s.Height)
	}
	return nil
}

// Bounds is the pixel rectangle every appended buffer must cover.
func (s Settings) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Sink opens write sessions.
type Sink interface {
	Open(ctx context.Context, settings Settings) (Session, error)
}

// Session accepts frames in presentation order from a single writer.
// Every frame is held on screen until the next one, so a still needs only
// its first and last keyframes.
type Session interface {
	// Ready reports whether Append would accept a frame right now.
	Ready() bool
	// WaitReady blocks until the session can take a frame, the session
	// fails, or ctx is done.
	WaitReady(ctx context.Context) error
	// Buffers is the pool frames should be drawn into.
	Buffers() *BufferPool
	// Append queues a copy of buf for pts; buf may be reused on return.
	Append(buf *image.RGBA, pts timeline.TimeValue) error
	// EndSession holds the last frame until at.
	EndSession(at timeline.TimeValue)
	// MarkInputFinished closes the input. Further appends fail.
	MarkInputFinished()
	// Finalize drains the input, waits for the encoder and reports the
	// outcome. It marks the input finished if the caller did not.
	Finalize(ctx context.Context) error
}
