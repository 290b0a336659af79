package receipt

import (
	"encoding/json"
	"time"

	"github.com/TTTPOB/auto-quartzy/internal/order"
	"github.com/TTTPOB/auto-quartzy/internal/scanning"
)

// Scan is one archived extraction: the parsed receipt plus the stored image
// it came from. The receipt itself is immutable once extracted; edits happen
// on the derived display rows, never here.
type Scan struct {
	ID          string           `json:"id"`
	Receipt     scanning.Receipt `json:"receipt"`
	Filename    string           `json:"filename"`
	ContentType string           `json:"content_type"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Submission is one archived submission batch: the edited rows that were
// sent and the raw per-row results the ordering API returned. Kept so an
// operator can see what a partially failed batch actually created before
// re-submitting.
type Submission struct {
	ID        string             `json:"id"`
	Rows      []order.DisplayRow `json:"rows"`
	Results   []json.RawMessage  `json:"results"`
	CreatedAt time.Time          `json:"created_at"`
}
