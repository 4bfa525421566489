package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Base design canvas in portrait layout units. Export renders at a multiple
// of this density, 1080x1920 at the default 3x export scale.
const (
	BaseWidth  = 360
	BaseHeight = 640
)

// MarkRow is one subject line of the marks grid, text exactly as stored.
type MarkRow struct {
	Subject string
	Text    string
}

// Scene is the flattened description of one poster composition.
type Scene struct {
	Background   image.Image
	Photo        image.Image
	PhotoScale   float64
	PhotoOffsetX float64
	PhotoOffsetY float64
	StudentName  string
	UnitLabel    string
	Percentage   string
	Marks        []MarkRow
	QR           image.Image
}

var (
	inkColor   = color.NRGBA{R: 0x26, G: 0x32, B: 0x38, A: 0xFF}
	mutedColor = color.NRGBA{R: 0x54, G: 0x6E, B: 0x7A, A: 0xFF}
)

// Compositor flattens poster scenes into bitmaps.
type Compositor struct {
	fonts *Fonts
}

// NewCompositor builds a compositor drawing with the given fonts.
func NewCompositor(fonts *Fonts) *Compositor {
	return &Compositor{fonts: fonts}
}

// Render draws the scene at scale times the base design density and returns
// the flattened image. The background is cover-fitted to the canvas, the
// photo is drawn with the user transform clipped to its slot, and the text
// blocks and marks grid are laid out over a translucent panel.
func (c *Compositor) Render(s Scene, scale float64) (image.Image, error) {
	if s.Background == nil {
		return nil, fmt.Errorf("scene has no background")
	}
	if scale <= 0 {
		scale = 1
	}
	width := int(math.Round(BaseWidth * scale))
	height := int(math.Round(BaseHeight * scale))
	w := float64(width)
	h := float64(height)

	dc := gg.NewContext(width, height)
	dc.DrawImage(imaging.Fill(s.Background, width, height, imaging.Center, imaging.Lanczos), 0, 0)

	if s.Photo != nil {
		c.drawPhoto(dc, s, w, h, scale)
	}

	// translucent panel keeps the text legible on any template background
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRoundedRectangle(0.08*w, 0.43*h, 0.84*w, 0.46*h, 8*scale)
	dc.Fill()

	if s.StudentName != "" {
		if err := c.drawText(dc, s.StudentName, 22*scale, 0.5*w, 0.48*h, 0.5, 0.5, inkColor); err != nil {
			return nil, err
		}
	}
	if s.UnitLabel != "" {
		if err := c.drawText(dc, s.UnitLabel, 13*scale, 0.5*w, 0.525*h, 0.5, 0.5, mutedColor); err != nil {
			return nil, err
		}
	}
	if err := c.drawText(dc, s.Percentage+"%", 26*scale, 0.5*w, 0.585*h, 0.5, 0.5, inkColor); err != nil {
		return nil, err
	}

	rowY := 0.64 * h
	rowH := 0.031 * h
	for _, row := range s.Marks {
		if err := c.drawText(dc, row.Subject, 13*scale, 0.12*w, rowY, 0, 0.5, inkColor); err != nil {
			return nil, err
		}
		if err := c.drawText(dc, row.Text, 13*scale, 0.88*w, rowY, 1, 0.5, inkColor); err != nil {
			return nil, err
		}
		dc.SetRGBA(0, 0, 0, 0.08)
		dc.SetLineWidth(1)
		dc.DrawLine(0.12*w, rowY+rowH/2, 0.88*w, rowY+rowH/2)
		dc.Stroke()
		rowY += rowH
	}

	if s.QR != nil {
		qSize := int(math.Round(0.085 * h))
		qr := imaging.Resize(s.QR, qSize, qSize, imaging.NearestNeighbor)
		dc.DrawImage(qr, width-qSize-int(0.04*w), height-qSize-int(0.02*h))
	}

	return dc.Image(), nil
}

func (c *Compositor) drawPhoto(dc *gg.Context, s Scene, w, h, scale float64) {
	side := 0.36 * w
	cx := 0.5 * w
	cy := 0.27 * h
	pscale := s.PhotoScale
	if pscale <= 0 {
		pscale = 1
	}

	filled := imaging.Fill(s.Photo, int(side), int(side), imaging.Center, imaging.Lanczos)
	scaledSide := int(math.Round(side * pscale))
	scaled := imaging.Resize(filled, scaledSide, scaledSide, imaging.Lanczos)

	dc.DrawRectangle(cx-side/2, cy-side/2, side, side)
	dc.Clip()
	px := int(math.Round(cx + s.PhotoOffsetX*scale))
	py := int(math.Round(cy + s.PhotoOffsetY*scale))
	dc.DrawImageAnchored(scaled, px, py, 0.5, 0.5)
	dc.ResetClip()
}

func (c *Compositor) drawText(dc *gg.Context, text string, size, x, y, ax, ay float64, col color.Color) error {
	face, err := c.fonts.Face(size)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(col)
	dc.DrawStringAnchored(text, x, y, ax, ay)
	return nil
}
