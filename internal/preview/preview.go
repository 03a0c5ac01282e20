// Package preview draws a top-down image of a sampled trajectory so an
// exported channel can be checked at a glance.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"anim-cfg-export/internal/mathutil"
	"anim-cfg-export/internal/modelcfg"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/lucasb-eyer/go-colorful"
)

// Supersample is the oversampling factor used before downsampling.
const Supersample = 3

var (
	startColor, _ = colorful.Hex("#2b6cff")
	endColor, _   = colorful.Hex("#ff5a1f")
)

// Render projects the translations of ts onto the XY plane and draws the
// path, coloured from start to end of the range.
func Render(ts []mathutil.Transform, size int) *image.NRGBA {
	renderSize := size * Supersample
	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	if len(ts) == 0 || size <= 0 {
		return img
	}

	pts := make([][2]float64, len(ts))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, m := range ts {
		p := mathutil.Translation(m)
		pts[i] = [2]float64{p[0], p[1]}
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	// Fit the larger extent into the canvas with a 10% margin, Y up.
	extent := math.Max(maxX-minX, maxY-minY)
	if extent == 0 {
		extent = 1
	}
	margin := 0.1 * float64(renderSize)
	scale := (float64(renderSize) - 2*margin) / extent
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	half := float64(renderSize) / 2
	project := func(p [2]float64) (float64, float64) {
		return half + (p[0]-cx)*scale, half - (p[1]-cy)*scale
	}

	radius := float64(Supersample)
	for i := range pts {
		t := 0.0
		if len(pts) > 1 {
			t = float64(i) / float64(len(pts)-1)
		}
		c := colorAt(t)
		x0, y0 := project(pts[i])
		if i+1 < len(pts) {
			x1, y1 := project(pts[i+1])
			drawLine(img, x0, y0, x1, y1, radius*0.5, c, colorAt(float64(i+1)/float64(len(pts)-1)))
		}
		stamp(img, x0, y0, radius, c)
	}

	return Downsample(img, size)
}

func colorAt(t float64) colorful.Color {
	return startColor.BlendHcl(endColor, t).Clamped()
}

func drawLine(img *image.NRGBA, x0, y0, x1, y1, r float64, c0, c1 colorful.Color) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	for s := 0; s <= steps; s++ {
		t := 0.0
		if steps > 0 {
			t = float64(s) / float64(steps)
		}
		stamp(img, x0+(x1-x0)*t, y0+(y1-y0)*t, r, c0.BlendHcl(c1, t).Clamped())
	}
}

// stamp fills an opaque disc centred on (x, y).
func stamp(img *image.NRGBA, x, y, r float64, c colorful.Color) {
	red, green, blue := c.RGB255()
	b := img.Bounds()
	for py := int(math.Floor(y - r)); py <= int(math.Ceil(y+r)); py++ {
		for px := int(math.Floor(x - r)); px <= int(math.Ceil(x+r)); px++ {
			if px < b.Min.X || py < b.Min.Y || px >= b.Max.X || py >= b.Max.Y {
				continue
			}
			dx, dy := float64(px)+0.5-x, float64(py)+0.5-y
			if dx*dx+dy*dy > r*r {
				continue
			}
			i := img.PixOffset(px, py)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = red, green, blue, 255
		}
	}
}

// PathFor returns the preview path next to a channel file.
func PathFor(channelPath, format string) string {
	return strings.TrimSuffix(channelPath, filepath.Ext(channelPath)) + "." + format
}

// Encode renders img as WebP or TGA, chosen by the extension of path.
func Encode(path string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = nativewebp.Encode(&buf, img, nil)
	case ".tga":
		err = tga.Encode(&buf, img)
	default:
		err = fmt.Errorf("unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("preview: encode %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// Save encodes img and writes it to path atomically.
func Save(path string, img image.Image) error {
	data, err := Encode(path, img)
	if err != nil {
		return err
	}
	return modelcfg.WriteFileAtomic(path, data)
}
