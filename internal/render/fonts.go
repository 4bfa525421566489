package render

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed poster typeface. Faces are minted per use rather
// than cached because opentype faces are not safe for concurrent renders.
type Fonts struct {
	parsed *opentype.Font
}

// NewFonts parses the configured TTF, falling back to the embedded Go
// Regular face when the path is empty or unreadable.
func NewFonts(customPath string, log *zap.Logger) (*Fonts, error) {
	data := goregular.TTF
	if customPath != "" {
		custom, err := os.ReadFile(customPath)
		if err != nil {
			log.Warn("poster font unavailable, using embedded fallback",
				zap.String("path", customPath), zap.Error(err))
		} else {
			data = custom
		}
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse poster font: %w", err)
	}
	return &Fonts{parsed: parsed}, nil
}

// Face returns a new face at the given point size.
func (f *Fonts) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face at %.1fpt: %w", size, err)
	}
	return face, nil
}
