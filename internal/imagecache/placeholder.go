package imagecache

import (
	"image/color"

	"github.com/fogleman/gg"
)

// NewPlaceholder draws the neutral background used when a template carries
// no image URI or its fetch fails after retries. The one handle is shared,
// so the fallback looks identical wherever it appears.
func NewPlaceholder(width, height int) *Handle {
	dc := gg.NewContext(width, height)
	dc.SetColor(color.NRGBA{R: 0xEC, G: 0xEF, B: 0xF1, A: 0xFF})
	dc.Clear()

	w := float64(width)
	h := float64(height)
	inset := float64(min(width, height)) / 12
	dc.SetColor(color.NRGBA{R: 0xB0, G: 0xBE, B: 0xC5, A: 0xFF})
	dc.SetLineWidth(2)
	dc.DrawRectangle(inset, inset, w-2*inset, h-2*inset)
	dc.Stroke()
	dc.DrawLine(inset, inset, w-inset, h-inset)
	dc.DrawLine(w-inset, inset, inset, h-inset)
	dc.Stroke()

	return &Handle{Image: dc.Image(), Placeholder: true}
}
