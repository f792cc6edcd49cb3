package ledger

import "time"

// EventType enumerates the seven supply-chain event kinds.
type EventType string

const (
	TypePlanting      EventType = "planting"
	TypeHarvesting    EventType = "harvesting"
	TypeProcessing    EventType = "processing"
	TypeQualityCheck  EventType = "quality_check"
	TypeShipping      EventType = "shipping"
	TypeDelivery      EventType = "delivery"
	TypeCertification EventType = "certification"
)

func (t EventType) IsValid() bool {
	_, ok := schemas[t]
	return ok
}

// Location is an optional geo reference carried by an event.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Event is one fact in a lot's provenance history.
//
// Events are immutable after creation except for the Verified flag, which
// has a single dedicated mutation path.
type Event struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	LotID           string         `json:"lotId"`
	Actor           string         `json:"actor"`
	Timestamp       time.Time      `json:"timestamp"`
	Location        *Location      `json:"location,omitempty"`
	Metadata        map[string]any `json:"metadata"`
	Documents       []string       `json:"documents,omitempty"`
	Images          []string       `json:"images,omitempty"`
	ContentHash     string         `json:"contentHash,omitempty"`
	LedgerReference string         `json:"ledgerReference,omitempty"`
	Verified        bool           `json:"verified"`
}

// CreateEventInput carries everything an actor supplies when appending an
// event; id, timestamp, references, and the verified flag are assigned by
// the ledger.
type CreateEventInput struct {
	Type      EventType
	LotID     string
	Actor     string
	Location  *Location
	Metadata  map[string]any
	Documents []string
	Images    []string
}
