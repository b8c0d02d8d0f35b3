package deck

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jose-valero/tourneydeck/internal/ui"
)

var subtextColor = color.RGBA{120, 120, 120, 255}

// paintKey rasterizes one key spec onto a size x size tile: flat
// background, icon top-left, label centered, subtext along the bottom.
func paintKey(size int, k ui.Key) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(k.Bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13

	if k.Icon != "" {
		drawText(img, face, k.Icon, k.Fg, 4, 14)
	}
	if k.Label != "" {
		drawCentered(img, face, fitText(face, k.Label, size-8), k.Fg, size, size/2+4)
	}
	if k.Subtext != "" {
		drawCentered(img, face, fitText(face, k.Subtext, size-4), subtextColor, size, size-6)
	}
	return img
}

func drawText(dst *image.RGBA, face font.Face, s string, c color.RGBA, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawCentered(dst *image.RGBA, face font.Face, s string, c color.RGBA, width, y int) {
	w := font.MeasureString(face, s).Ceil()
	x := (width - w) / 2
	if x < 2 {
		x = 2
	}
	drawText(dst, face, s, c, x, y)
}

// fitText trims from the right until the string fits maxWidth pixels.
func fitText(face font.Face, s string, maxWidth int) string {
	for len(s) > 0 && font.MeasureString(face, s).Ceil() > maxWidth {
		s = s[:len(s)-1]
	}
	return s
}
