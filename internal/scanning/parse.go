package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// decodeReceipt parses the model's JSON output into a Receipt and checks
// schema conformance: parseable date, non-empty item names, non-negative
// quantities and prices. Anything beyond that is trusted as extracted.
func decodeReceipt(text string) (*Receipt, error) {
	text = strings.TrimSpace(text)

	// Structured output should be bare JSON, but some providers still wrap
	// it in markdown fences.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var receipt Receipt
	if err := json.Unmarshal([]byte(text), &receipt); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	date, err := normalizeDate(receipt.Date)
	if err != nil {
		return nil, err
	}
	receipt.Date = date

	if receipt.TotalAmount < 0 {
		return nil, fmt.Errorf("negative total amount %v", receipt.TotalAmount)
	}

	if receipt.Items == nil {
		receipt.Items = []Item{}
	}
	for i, item := range receipt.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item %d has no name", i)
		}
		if item.Quantity < 0 {
			return nil, fmt.Errorf("item %d has negative quantity %d", i, item.Quantity)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("item %d has negative price %v", i, item.Price)
		}
	}

	return &receipt, nil
}

// normalizeDate parses the extracted date and renders it as YYYY-MM-DD.
func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing date")
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, raw); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}
