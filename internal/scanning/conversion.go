package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// pdfToJPEG renders the first page of a PDF as a JPEG image. Receipts are
// almost always single page.
func pdfToJPEG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToJPEG decodes an uploaded image (JPEG, PNG, GIF, WebP, or HEIC) and
// re-encodes it as JPEG.
func imageToJPEG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF photos (common on iPhones) are outside the standard image
	// package, decode them with the pure Go decoder.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, WebP, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format by looking at
// the ftyp box brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// NormalizeUpload turns an uploaded file (image or PDF) into an EncodedImage
// ready for model submission. PDFs are rendered, HEIC and other non-JPEG
// formats are converted, and existing JPEGs pass through unchanged after a
// decode check. All failures wrap ErrImageDecode and happen before any
// network call.
func NormalizeUpload(data []byte, contentType string) (EncodedImage, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if mimeType == "application/pdf" {
		jpegData, err := pdfToJPEG(data)
		if err != nil {
			return EncodedImage{}, fmt.Errorf("%w: converting PDF: %w", ErrImageDecode, err)
		}
		return EncodedImage{MIME: "image/jpeg", Data: jpegData}, nil
	}

	if mimeType == "image/jpeg" && !isHEICFormat(data) {
		// Already JPEG, keep the original bytes instead of recompressing.
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return EncodedImage{}, fmt.Errorf("%w: %w", ErrImageDecode, err)
		}
		return EncodedImage{MIME: "image/jpeg", Data: data}, nil
	}

	jpegData, err := imageToJPEG(data, mimeType)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	return EncodedImage{MIME: "image/jpeg", Data: jpegData}, nil
}
