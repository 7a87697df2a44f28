// Package source provides the still images a conversion turns into video.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Load for an index the source does not hold.
var ErrNotFound = errors.New("image not found")

// Source is an ordered, indexable set of still images.
type Source interface {
	Count() int
	Load(ctx context.Context, index int) (image.Image, error)
	Close() error
}

// DefaultDPI is the render resolution for PDF pages.
const DefaultDPI = 150

const slatePrefix = "slate:"

// Open picks a source for input: "slate:N" for N generated slates, a PDF
// file, an image file or a directory of images.
func Open(input string, dpi int) (Source, error) {
	if rest, ok := strings.CutPrefix(input, slatePrefix); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid slate count %q", rest)
		}
		return NewSlateSource(n), nil
	}

	fi, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() && strings.HasSuffix(strings.ToLower(input), ".pdf") {
		return NewPDFSource(input, dpi)
	}
	return NewImageSource(input)
}

func checkIndex(ctx context.Context, index, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index < 0 || index >= count {
		return fmt.Errorf("%w: index %d of %d", ErrNotFound, index, count)
	}
	return nil
}
