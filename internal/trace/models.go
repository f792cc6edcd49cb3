package trace

import (
	"time"

	"agritrust/internal/ledger"
)

// Traceability is the read-only per-lot projection: the ordered event
// timeline plus derived rollups.
type Traceability struct {
	LotID        string          `json:"lotId"`
	Timeline     []*ledger.Event `json:"timeline"`
	Summary      Summary         `json:"summary"`
	Locations    []LocationPoint `json:"locations"`
	Participants []string        `json:"participants"`
	// Documents and Images are flattened unions across all events with
	// duplicates preserved. Known inconsistency carried over from the
	// upstream behavior: callers that need uniqueness de-duplicate
	// themselves, and counts would change if we did it here.
	Documents []string `json:"documents"`
	Images    []string `json:"images"`
}

// Summary is the derived per-lot rollup.
type Summary struct {
	TotalEvents   int       `json:"totalEvents"`
	VerifiedCount int       `json:"verifiedCount"`
	LastUpdate    time.Time `json:"lastUpdate"`
	Status        string    `json:"status"`
}

// LocationPoint projects a located event for map rendering.
type LocationPoint struct {
	EventID   string           `json:"eventId"`
	Type      ledger.EventType `json:"type"`
	Location  ledger.Location  `json:"location"`
	Timestamp time.Time        `json:"timestamp"`
}
