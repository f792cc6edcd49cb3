package ledger

import (
	"sort"

	dErrors "agritrust/pkg/domain-errors"
)

// Schema lists the metadata fields an event type requires and the ones it
// may carry. Validation is structural: field presence only, no value typing.
// Unknown extra keys are always permitted.
type Schema struct {
	Required []string
	Optional []string
}

// schemas is the single source of truth the ledger consults before
// accepting an event.
var schemas = map[EventType]Schema{
	TypePlanting: {
		Required: []string{"crop", "variety", "area"},
		Optional: []string{"seed_source", "soil_type", "irrigation"},
	},
	TypeHarvesting: {
		Required: []string{"quantity", "unit", "quality_grade"},
		Optional: []string{"moisture_content", "harvest_method"},
	},
	TypeProcessing: {
		Required: []string{"process_type", "input_quantity", "output_quantity"},
		Optional: []string{"facility", "batch_number"},
	},
	TypeQualityCheck: {
		Required: []string{"test_type", "result", "inspector"},
		Optional: []string{"certification", "lab_reference"},
	},
	TypeShipping: {
		Required: []string{"destination", "carrier", "tracking_number"},
		Optional: []string{"vehicle", "departure_time", "estimated_arrival"},
	},
	TypeDelivery: {
		Required: []string{"received_by", "condition"},
		Optional: []string{"discrepancies", "storage_location"},
	},
	TypeCertification: {
		Required: []string{"cert_type", "certifier", "valid_until"},
		Optional: []string{"certificate_number", "scope"},
	},
}

// SchemaFor returns the metadata schema for an event type.
func SchemaFor(t EventType) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// ValidateMetadata checks that every required field for the event type is
// present in the metadata. The returned error names every missing field.
func ValidateMetadata(t EventType, metadata map[string]any) error {
	schema, ok := schemas[t]
	if !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", t)
	}
	var missing []string
	for _, field := range schema.Required {
		if _, present := metadata[field]; !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return dErrors.Newf(dErrors.CodeValidation, "event type %q missing required metadata fields: %v", t, missing)
	}
	return nil
}
