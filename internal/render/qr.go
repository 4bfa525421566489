package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// ShareQR renders the QR code embedded on exported posters when enabled.
func ShareQR(url string, size int) (image.Image, error) {
	data, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode share qr: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode share qr: %w", err)
	}
	return img, nil
}
