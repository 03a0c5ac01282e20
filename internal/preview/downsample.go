package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to size x size with CatmullRom filtering. Scaling
// happens in premultiplied RGBA so transparent background does not darken
// the stroke edges.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(premul, premul.Bounds(), img, b, draw.Src, nil)

	out := image.NewNRGBA(premul.Bounds())
	draw.Draw(out, out.Bounds(), premul, image.Point{}, draw.Src)
	return out
}
