package source

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const slateSize = 720

var slatePalette = []color.RGBA{
	{0x1f, 0x4e, 0x79, 0xff},
	{0x8c, 0x2d, 0x19, 0xff},
	{0x2e, 0x6b, 0x30, 0xff},
	{0x5b, 0x2c, 0x6f, 0xff},
}

// SlateSource generates numbered test cards. Each card is a QR code of its
// index on a coloured field, so frames can be identified in the output.
type SlateSource struct {
	count int
}

func NewSlateSource(count int) *SlateSource {
	return &SlateSource{count: count}
}

func (s *SlateSource) Count() int { return s.count }

func (s *SlateSource) Load(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(ctx, index, s.count); err != nil {
		return nil, err
	}

	q, err := qrcode.New(fmt.Sprintf("slate %d/%d", index+1, s.count), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("slate %d: %w", index, err)
	}
	code := q.Image(slateSize / 2)

	bg := slatePalette[index%len(slatePalette)]
	card := image.NewRGBA(image.Rect(0, 0, slateSize*4/3, slateSize))
	draw.Draw(card, card.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	offset := card.Bounds().Size().Sub(code.Bounds().Size()).Div(2)
	draw.Draw(card, code.Bounds().Add(offset), code, code.Bounds().Min, draw.Src)
	return card, nil
}

func (s *SlateSource) Close() error { return nil }
