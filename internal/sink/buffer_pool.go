package sink

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// BufferPool hands out *image.RGBA frames of one fixed size. At most
// capacity buffers are out at a time; Get blocks until one is returned.
type BufferPool struct {
	rect  image.Rectangle
	sem   *semaphore.Weighted
	pool  sync.Pool
	inUse atomic.Int64
}

func NewBufferPool(rect image.Rectangle, capacity int) *BufferPool {
	if capacity <= 0 {
		capacity = 1
	}
	p := &BufferPool{
		rect: rect,
		sem:  semaphore.NewWeighted(int64(capacity)),
	}
	p.pool.New = func() interface{} {
		return image.NewRGBA(rect)
	}
	return p
}

// Get borrows a buffer. Its previous contents are undefined.
func (p *BufferPool) Get(ctx context.Context) (*image.RGBA, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire pixel buffer: %w", err)
	}
	p.inUse.Add(1)
	return p.pool.Get().(*image.RGBA), nil
}

// Put returns a buffer obtained from Get.
func (p *BufferPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if img.Rect == p.rect {
		p.pool.Put(img)
	}
	p.inUse.Add(-1)
	p.sem.Release(1)
}

// InUse is the number of buffers currently borrowed.
func (p *BufferPool) InUse() int {
	return int(p.inUse.Load())
}

func (p *BufferPool) Bounds() image.Rectangle {
	return p.rect
}
