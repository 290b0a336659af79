package scanning

import "errors"

// ErrImageDecode marks input bytes that are not a decodable image. The
// pipeline fails with it before any model call is made.
var ErrImageDecode = errors.New("image decode failed")

// ErrExtraction marks a failed model call: transport error, timeout, or a
// payload that does not conform to the Receipt shape.
var ErrExtraction = errors.New("receipt extraction failed")

// Item is one parsed product line from a receipt.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit"`  // includes the package specification, e.g. "500 μL ×10"
	Price    float64 `json:"price"` // unit price, major currency units
	StockID  string  `json:"stock_id"`
	Vendor   string  `json:"vendor"`
	Comment  string  `json:"comment"`
}

// Receipt is the structured record extracted from one photographed purchase
// document. Items follow receipt layout top to bottom and may be empty.
type Receipt struct {
	Date        string  `json:"date"` // YYYY-MM-DD, no time component
	TotalAmount float64 `json:"total_amount"`
	Items       []Item  `json:"items"`
}

// Extractor defines the interface for receipt extraction providers. One
// invocation is exactly one model call: no retries, no streaming, no partial
// results.
type Extractor interface {
	// ExtractReceipt sends the fixed instruction plus the image to the model
	// and returns the validated Receipt.
	ExtractReceipt(img EncodedImage) (*Receipt, error)
	// Close closes the extractor and releases resources
	Close() error
}
