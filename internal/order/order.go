package order

import (
	"fmt"
	"strconv"

	"github.com/TTTPOB/auto-quartzy/internal/scanning"
)

// DisplayRow is one receipt item flattened for tabular editing. Rows are a
// transient projection: created fresh on each extraction and fully replaced
// by the operator's edited table before submission.
type DisplayRow struct {
	Name          string  `json:"name"`
	CatalogNumber string  `json:"catalog_number"`
	Quantity      int     `json:"quantity"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	Vendor        string  `json:"vendor"`
	Comment       string  `json:"comment"`
	Date          string  `json:"date"`
}

// Project flattens a receipt into one row per item, preserving receipt order
// and broadcasting the receipt date into every row. A receipt with no items
// yields an empty table, not an error.
func Project(receipt *scanning.Receipt) []DisplayRow {
	rows := make([]DisplayRow, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		rows = append(rows, DisplayRow{
			Name:          item.Name,
			CatalogNumber: item.StockID,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
			Price:         item.Price,
			Vendor:        item.Vendor,
			Comment:       item.Comment,
			Date:          receipt.Date,
		})
	}
	return rows
}

// Money is the price pair required by the ordering API. Amount is in minor
// currency units, rendered as a decimal string.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Request is one create call payload for the ordering API.
type Request struct {
	LabID         string `json:"lab_id"`
	TypeID        string `json:"type_id"`
	Name          string `json:"name"`
	VendorName    string `json:"vendor_name"`
	CatalogNumber string `json:"catalog_number"`
	Price         Money  `json:"price"`
	Quantity      int    `json:"quantity"`
	Notes         string `json:"notes"`
}

// Config holds the fixed per-batch values every request shares.
type Config struct {
	LabID    string
	TypeID   string
	Currency string
}

// MapRow converts one edited row into an order request. The ×100 amount
// scaling assumes the configured currency has exactly two decimal places of
// minor-unit resolution, which holds for the default CNY. The notes field
// carries date, comment, and unit since the outbound schema has no dedicated
// fields for them.
func MapRow(row DisplayRow, cfg Config) Request {
	return Request{
		LabID:         cfg.LabID,
		TypeID:        cfg.TypeID,
		Name:          row.Name,
		VendorName:    row.Vendor,
		CatalogNumber: row.CatalogNumber,
		Price: Money{
			Amount:   strconv.FormatFloat(row.Price*100, 'f', -1, 64),
			Currency: cfg.Currency,
		},
		Quantity: row.Quantity,
		Notes:    fmt.Sprintf("Date: %s, comment: %s, unit: %s", row.Date, row.Comment, row.Unit),
	}
}

// MapAll applies MapRow to every row, order-preserving and independent per
// row. No cross-row validation or deduplication happens here.
func MapAll(rows []DisplayRow, cfg Config) []Request {
	requests := make([]Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, MapRow(row, cfg))
	}
	return requests
}
