package scanning

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
)

// EncodedImage is an image ready for model submission: raw bytes plus the
// MIME type they carry.
type EncodedImage struct {
	MIME string
	Data []byte
}

// DataURI renders the image as a self-describing embeddable string,
// data:<mime>;base64,<payload>.
func (e EncodedImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", e.MIME, base64.StdEncoding.EncodeToString(e.Data))
}

// Format returns the bare format suffix, e.g. "jpeg" for "image/jpeg".
func (e EncodedImage) Format() string {
	return strings.TrimPrefix(e.MIME, "image/")
}

// MIMEForExt maps a filename extension to its image MIME type. A leading dot
// is tolerated. Unrecognized or missing extensions default to JPEG.
func MIMEForExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png", "webp", "gif":
		return "image/" + ext
	default:
		return "image/jpeg"
	}
}

// EncodeFile wraps raw image bytes read from a file with the MIME type
// implied by the filename extension. The bytes are decode-checked first so a
// corrupt upload fails before any model call.
func EncodeFile(data []byte, ext string) (EncodedImage, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return EncodedImage{}, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	return EncodedImage{MIME: MIMEForExt(ext), Data: data}, nil
}

// EncodePixels re-encodes an in-memory image as JPEG regardless of its
// source format.
func EncodePixels(img image.Image) (EncodedImage, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return EncodedImage{}, fmt.Errorf("%w: encoding jpeg: %w", ErrImageDecode, err)
	}
	return EncodedImage{MIME: "image/jpeg", Data: buf.Bytes()}, nil
}
