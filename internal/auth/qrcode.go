package auth

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCodeDataURL encode une URI otpauth:// en PNG "data:image/png;base64,...".
func QRCodeDataURL(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: empty provisioning uri", ErrInvalidInput)
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
