package display

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNRGBA_PassesThroughPackedImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, img, toNRGBA(img))
}

func TestToNRGBA_RepacksSubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	src.SetNRGBA(3, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	sub := src.SubImage(image.Rect(2, 2, 6, 6))
	got := toNRGBA(sub)

	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	assert.Equal(t, 16, got.Stride)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 40}, got.NRGBAAt(1, 1))
}

func TestToNRGBA_ConvertsOtherModels(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 200})

	got := toNRGBA(src)
	assert.Equal(t, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, got.NRGBAAt(0, 0))
}

func TestDisplayError(t *testing.T) {
	cause := errors.New("boom")
	err := &DisplayError{Message: "no display", Cause: cause}

	assert.Equal(t, "no display: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no display", (&DisplayError{Message: "no display"}).Error())
}
