package scanning

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// testPNG returns a small valid PNG image.
func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 4; i++ {
		img.Set(i, i, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).NotTo(HaveOccurred())
	return buf.Bytes()
}

var _ = Describe("MIMEForExt", func() {
	DescribeTable("extension mapping",
		func(ext, expected string) {
			Expect(MIMEForExt(ext)).To(Equal(expected))
		},
		Entry("jpg", "jpg", "image/jpeg"),
		Entry("jpeg", "jpeg", "image/jpeg"),
		Entry("uppercase JPG", "JPG", "image/jpeg"),
		Entry("png", "png", "image/png"),
		Entry("webp", "webp", "image/webp"),
		Entry("gif", "gif", "image/gif"),
		Entry("leading dot", ".png", "image/png"),
		Entry("unrecognized", "tiff", "image/jpeg"),
		Entry("missing", "", "image/jpeg"),
	)
})

var _ = Describe("EncodedImage", func() {
	Describe("DataURI", func() {
		It("renders a MIME-typed base64 data URI", func() {
			img := EncodedImage{MIME: "image/png", Data: []byte("pixels")}
			uri := img.DataURI()
			Expect(uri).To(HavePrefix("data:image/png;base64,"))
			payload := strings.TrimPrefix(uri, "data:image/png;base64,")
			decoded, err := base64.StdEncoding.DecodeString(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal([]byte("pixels")))
		})
	})

	Describe("Format", func() {
		It("strips the image/ prefix", func() {
			Expect(EncodedImage{MIME: "image/jpeg"}.Format()).To(Equal("jpeg"))
		})
	})
})

var _ = Describe("EncodeFile", func() {
	When("the bytes are a valid image", func() {
		It("wraps them with the MIME type implied by the extension", func() {
			img, err := EncodeFile(testPNG(), "png")
			Expect(err).NotTo(HaveOccurred())
			Expect(img.MIME).To(Equal("image/png"))
			Expect(img.DataURI()).To(HavePrefix("data:image/png;base64,"))
		})

		It("defaults to JPEG for an unrecognized extension", func() {
			img, err := EncodeFile(testPNG(), "xyz")
			Expect(err).NotTo(HaveOccurred())
			Expect(img.MIME).To(Equal("image/jpeg"))
		})
	})

	When("the bytes are not a decodable image", func() {
		It("returns an image decode error", func() {
			_, err := EncodeFile([]byte("not an image"), "jpg")
			Expect(err).To(MatchError(ErrImageDecode))
		})
	})
})

var _ = Describe("EncodePixels", func() {
	It("always encodes as JPEG", func() {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		encoded, err := EncodePixels(img)
		Expect(err).NotTo(HaveOccurred())
		Expect(encoded.MIME).To(Equal("image/jpeg"))
		Expect(encoded.DataURI()).To(HavePrefix("data:image/jpeg;base64,"))
	})
})

var _ = Describe("NormalizeUpload", func() {
	When("uploading a PNG", func() {
		It("converts it to JPEG", func() {
			img, err := NormalizeUpload(testPNG(), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(img.MIME).To(Equal("image/jpeg"))
			_, format, decodeErr := image.Decode(bytes.NewReader(img.Data))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
		})
	})

	When("uploading undecodable bytes", func() {
		It("fails with an image decode error", func() {
			_, err := NormalizeUpload([]byte("garbage"), "image/png")
			Expect(err).To(MatchError(ErrImageDecode))
		})
	})

	When("uploading a fake PDF", func() {
		It("fails with an image decode error", func() {
			_, err := NormalizeUpload([]byte("%PDF-1.4 not really"), "application/pdf")
			Expect(err).To(MatchError(ErrImageDecode))
		})
	})
})
