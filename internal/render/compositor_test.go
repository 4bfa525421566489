package render

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCompositor(t *testing.T) *Compositor {
	t.Helper()
	fonts, err := NewFonts("", zap.NewNop())
	require.NoError(t, err)
	return NewCompositor(fonts)
}

func TestCompositorRenderAtExportDensity(t *testing.T) {
	c := testCompositor(t)
	scene := Scene{
		Background:  imaging.New(4, 8, color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}),
		StudentName: "Asha Patel",
		UnitLabel:   "Unit Test 1",
		Percentage:  "62.50",
		Marks:       []MarkRow{{Subject: "Math", Text: "30"}, {Subject: "Science", Text: "20"}},
	}

	img, err := c.Render(scene, 3)
	require.NoError(t, err)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1920, img.Bounds().Dy())
}

func TestCompositorRenderPreviewDensity(t *testing.T) {
	c := testCompositor(t)
	img, err := c.Render(Scene{Background: imaging.New(2, 2, color.NRGBA{A: 0xFF}), Percentage: "0.00"}, 1)
	require.NoError(t, err)
	assert.Equal(t, BaseWidth, img.Bounds().Dx())
	assert.Equal(t, BaseHeight, img.Bounds().Dy())
}

func TestCompositorRequiresBackground(t *testing.T) {
	c := testCompositor(t)
	_, err := c.Render(Scene{Percentage: "0.00"}, 1)
	assert.Error(t, err)
}

func TestCompositorDrawsTextPanel(t *testing.T) {
	c := testCompositor(t)
	scene := Scene{
		Background: imaging.New(4, 8, color.NRGBA{A: 0xFF}),
		Percentage: "75.00",
	}

	img, err := c.Render(scene, 1)
	require.NoError(t, err)

	// panel pixel over a black background stays close to white
	panelY := 0.44 * float64(BaseHeight)
	r, g, b, _ := img.At(BaseWidth/2, int(panelY)).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Greater(t, g>>8, uint32(200))
	assert.Greater(t, b>>8, uint32(200))
}

func TestCompositorRendersAllLayers(t *testing.T) {
	c := testCompositor(t)
	qr, err := ShareQR("https://example.com/p/abc", 64)
	require.NoError(t, err)

	scene := Scene{
		Background:   imaging.New(4, 8, color.NRGBA{R: 0x20, G: 0x40, B: 0x60, A: 0xFF}),
		Photo:        imaging.New(3, 3, color.NRGBA{R: 0xFF, A: 0xFF}),
		PhotoScale:   2.0,
		PhotoOffsetX: 4,
		PhotoOffsetY: -2,
		StudentName:  "Asha Patel",
		UnitLabel:    "Unit Test 2",
		Percentage:   "88.75",
		Marks:        []MarkRow{{Subject: "Math", Text: "40"}, {Subject: "Science", Text: "31"}},
		QR:           qr,
	}

	img, err := c.Render(scene, 2)
	require.NoError(t, err)
	assert.Equal(t, 720, img.Bounds().Dx())
	assert.Equal(t, 1280, img.Bounds().Dy())
}

func TestShareQRSize(t *testing.T) {
	qr, err := ShareQR("https://example.com/p/abc", 128)
	require.NoError(t, err)
	assert.Equal(t, 128, qr.Bounds().Dx())
	assert.Equal(t, 128, qr.Bounds().Dy())
}

func TestFontsFallbackToEmbedded(t *testing.T) {
	fonts, err := NewFonts("does-not-exist.ttf", zap.NewNop())
	require.NoError(t, err)

	face, err := fonts.Face(14)
	require.NoError(t, err)
	assert.NotNil(t, face)
}
