package scanning

import "strings"

// knownVendors are suppliers whose short names go into the vendor field
// verbatim when the receipt matches them.
var knownVendors = []string{
	"生工",
	"赛音图",
	"NEB",
	"Thermo",
	"金石百优",
}

// vendorAliases maps supplier names as printed on receipts to the
// abbreviations used in the inventory system.
var vendorAliases = []struct {
	Printed string
	Short   string
}{
	{"泽平", "QSP"},
	{"恒诺创新", "卓一航"},
}

// receiptPrompt is the fixed instruction sent with every extraction call. It
// carries the vendor normalization rules, the specification-in-unit rule,
// and the uncertainty-to-comment rule.
var receiptPrompt = buildReceiptPrompt()

func buildReceiptPrompt() string {
	var b strings.Builder
	b.WriteString(`Parse the information in this purchase receipt image:
the date, the vendor, the product lines (name, quantity, catalog number, unit, unit price), the grand total, and any remarks.
If a parsed value looks wrong, fill in an error value of the matching type instead.

Common suppliers (write exactly this short name when the receipt matches one; the full names are too long):
`)
	for _, v := range knownVendors {
		b.WriteString(v)
		b.WriteString("\n")
	}
	for _, a := range vendorAliases {
		b.WriteString("If you see ")
		b.WriteString(a.Printed)
		b.WriteString(", write ")
		b.WriteString(a.Short)
		b.WriteString("\n")
	}
	b.WriteString(`However, if the brand column names a real brand, use what the brand column says.
Only fall back to the short names above when the brand column says generic or domestic, or when there is no brand column at all.

Put anything you are unsure about into the comment field, and also put the receipt letterhead into the comment field.

The unit field must fold in the package specification as well, e.g. "500 μL ×10", not just the container.
`)
	return b.String()
}
