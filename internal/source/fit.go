package source

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Fit scales src into dst preserving its aspect ratio and fills the
// remaining area with black.
func Fit(dst *image.RGBA, src image.Image) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, FitRect(dst.Bounds(), src.Bounds()), src, src.Bounds(), draw.Over, nil)
}

// FitRect is the largest rectangle with src's aspect ratio centred in dst.
func FitRect(dst, src image.Rectangle) image.Rectangle {
	dw, dh := dst.Dx(), dst.Dy()
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rectangle{Min: dst.Min, Max: dst.Min}
	}

	w, h := dw, dw*sh/sw
	if h > dh {
		w, h = dh*sw/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}
