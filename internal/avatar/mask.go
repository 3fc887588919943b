package avatar

import (
	"image"
	"sync"
)

// maskCache holds one circular mask per requested size.
type maskCache struct {
	mu    sync.Mutex
	masks map[image.Point]*image.Alpha
}

func newMaskCache() *maskCache {
	return &maskCache{masks: make(map[image.Point]*image.Alpha)}
}

func (c *maskCache) get(width, height int) *image.Alpha {
	key := image.Pt(width, height)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.masks[key]; ok {
		return m
	}
	m := CircleMask(width, height)
	c.masks[key] = m
	return m
}

// apply multiplies img's alpha channel by the circular mask for its size.
func (c *maskCache) apply(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	mask := c.get(b.Dx(), b.Dy())

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m := mask.AlphaAt(x, y).A
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y) + 3
			img.Pix[i] = uint8(uint16(img.Pix[i]) * uint16(m) / 255)
		}
	}
	return img
}

// CircleMask returns an opaque ellipse inscribed in a width×height rectangle
// on a transparent background. A pixel is inside when its centre is.
func CircleMask(width, height int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, width, height))

	rx := float64(width) / 2
	ry := float64(height) / 2
	for y := 0; y < height; y++ {
		dy := (float64(y) + 0.5 - ry) / ry
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - rx) / rx
			if dx*dx+dy*dy <= 1 {
				mask.Pix[mask.PixOffset(x, y)] = 0xff
			}
		}
	}
	return mask
}
