package deck

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/jose-valero/tourneydeck/internal/ui"
)

func TestPaintKeyFillsBackground(t *testing.T) {
	k := ui.Key{Label: "START", Icon: ">", Subtext: "R2", Bg: ui.Green, Fg: ui.White}
	img := paintKey(72, k)

	b := img.Bounds()
	assert.Equal(t, 72, b.Dx())
	assert.Equal(t, 72, b.Dy())

	// corners are never covered by text
	assert.Equal(t, color.Color(ui.Green), img.At(0, 71))
	assert.Equal(t, color.Color(ui.Green), img.At(71, 71))
}

func TestPaintKeyEmptySpec(t *testing.T) {
	assert.NotPanics(t, func() {
		paintKey(72, ui.Key{Bg: ui.Black, Fg: ui.White})
	})
}

func TestFitTextTrimsToWidth(t *testing.T) {
	face := basicfont.Face7x13
	long := "an extremely long player name"
	got := fitText(face, long, 60)

	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, font.MeasureString(face, got).Ceil(), 60)
	assert.Less(t, len(got), len(long))

	assert.Equal(t, "ok", fitText(face, "ok", 60))
}
