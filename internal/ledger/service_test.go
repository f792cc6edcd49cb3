package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrust/internal/platform/content"
	"agritrust/internal/platform/ledgerlog"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

type LedgerServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	log     *ledgerlog.Memory
	service *Service
	ctx     context.Context
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.log = ledgerlog.NewMemory()
	var err error
	s.service, err = New(s.store, content.NewSHA256(), s.log)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

// validMetadata returns a metadata map satisfying the type's schema.
func validMetadata(t EventType) map[string]any {
	schema, _ := SchemaFor(t)
	metadata := make(map[string]any, len(schema.Required))
	for _, field := range schema.Required {
		metadata[field] = "value"
	}
	return metadata
}

func (s *LedgerServiceSuite) createEvent(input CreateEventInput) *Event {
	event, err := s.service.CreateEvent(s.ctx, input)
	s.Require().NoError(err)
	return event
}

func (s *LedgerServiceSuite) TestCreateEvent() {
	s.Run("accepts a schema-complete event and trusts it at write time", func() {
		event := s.createEvent(CreateEventInput{
			Type:  TypeHarvesting,
			LotID: "LOT-001",
			Actor: "did:agri:farmer-1",
			Metadata: map[string]any{
				"quantity":       1200,
				"unit":           "kg",
				"quality_grade":  "A",
				"harvest_method": "manual",
				"custom_note":    "extra keys are permitted",
			},
		})
		s.Contains(event.ID, "evt-")
		s.True(event.Verified)
		s.NotEmpty(event.LedgerReference)
		s.Empty(event.ContentHash) // no attachments
	})

	s.Run("attachments produce a content-addressed reference", func() {
		event := s.createEvent(CreateEventInput{
			Type:      TypeCertification,
			LotID:     "LOT-001",
			Actor:     "did:agri:auditor-1",
			Metadata:  validMetadata(TypeCertification),
			Documents: []string{"cert.pdf"},
		})
		s.Contains(event.ContentHash, "sha256:")
	})

	s.Run("every append reaches the ledger log", func() {
		before := s.log.Len()
		s.createEvent(CreateEventInput{
			Type:     TypePlanting,
			LotID:    "LOT-002",
			Actor:    "did:agri:farmer-1",
			Metadata: validMetadata(TypePlanting),
		})
		s.Equal(before+1, s.log.Len())
	})

	s.Run("rejects unknown event type before any mutation", func() {
		_, err := s.service.CreateEvent(s.ctx, CreateEventInput{
			Type:     EventType("auction"),
			LotID:    "LOT-003",
			Actor:    "did:agri:farmer-1",
			Metadata: map[string]any{},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		events, listErr := s.service.EventsForLot(s.ctx, "LOT-003")
		s.Require().NoError(listErr)
		s.Empty(events)
	})

	s.Run("rejects empty lot id and actor", func() {
		_, err := s.service.CreateEvent(s.ctx, CreateEventInput{Type: TypePlanting, Actor: "did:agri:x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreateEvent(s.ctx, CreateEventInput{Type: TypePlanting, LotID: "LOT-1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestSchemaEnforcement drops each required field for every event type and
// expects a validation error naming it.
func (s *LedgerServiceSuite) TestSchemaEnforcement() {
	for eventType := range map[EventType]struct{}{
		TypePlanting: {}, TypeHarvesting: {}, TypeProcessing: {},
		TypeQualityCheck: {}, TypeShipping: {}, TypeDelivery: {}, TypeCertification: {},
	} {
		schema, ok := SchemaFor(eventType)
		s.Require().True(ok)

		for _, missing := range schema.Required {
			s.Run(string(eventType)+" without "+missing, func() {
				metadata := validMetadata(eventType)
				delete(metadata, missing)

				_, err := s.service.CreateEvent(s.ctx, CreateEventInput{
					Type:     eventType,
					LotID:    "LOT-SCHEMA",
					Actor:    "did:agri:actor",
					Metadata: metadata,
				})
				s.Require().Error(err)
				s.True(dErrors.HasCode(err, dErrors.CodeValidation))
				s.Contains(err.Error(), missing)
			})
		}

		s.Run(string(eventType)+" with full metadata", func() {
			_, err := s.service.CreateEvent(s.ctx, CreateEventInput{
				Type:     eventType,
				LotID:    "LOT-SCHEMA",
				Actor:    "did:agri:actor",
				Metadata: validMetadata(eventType),
			})
			s.NoError(err)
		})
	}
}

func (s *LedgerServiceSuite) TestOrdering() {
	s.Run("reads are ordered by timestamp, not arrival", func() {
		t1 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		t2 := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

		// Insert the later event first.
		later, err := s.service.CreateEvent(requestcontext.WithTime(s.ctx, t2), CreateEventInput{
			Type: TypeHarvesting, LotID: "LOT-ORD", Actor: "did:agri:a",
			Metadata: validMetadata(TypeHarvesting),
		})
		s.Require().NoError(err)
		earlier, err := s.service.CreateEvent(requestcontext.WithTime(s.ctx, t1), CreateEventInput{
			Type: TypePlanting, LotID: "LOT-ORD", Actor: "did:agri:a",
			Metadata: validMetadata(TypePlanting),
		})
		s.Require().NoError(err)

		events, err := s.service.EventsForLot(s.ctx, "LOT-ORD")
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(earlier.ID, events[0].ID)
		s.Equal(later.ID, events[1].ID)
	})

	s.Run("identical timestamps keep insertion order", func() {
		at := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, at)

		first, err := s.service.CreateEvent(ctx, CreateEventInput{
			Type: TypePlanting, LotID: "LOT-TIE", Actor: "did:agri:a",
			Metadata: validMetadata(TypePlanting),
		})
		s.Require().NoError(err)
		second, err := s.service.CreateEvent(ctx, CreateEventInput{
			Type: TypeHarvesting, LotID: "LOT-TIE", Actor: "did:agri:b",
			Metadata: validMetadata(TypeHarvesting),
		})
		s.Require().NoError(err)

		// Stable across repeated reads.
		for i := 0; i < 3; i++ {
			events, err := s.service.EventsForLot(s.ctx, "LOT-TIE")
			s.Require().NoError(err)
			s.Require().Len(events, 2)
			s.Equal(first.ID, events[0].ID)
			s.Equal(second.ID, events[1].ID)
		}
	})

	s.Run("timeline is the same projection", func() {
		fromEvents, err := s.service.EventsForLot(s.ctx, "LOT-ORD")
		s.Require().NoError(err)
		fromTimeline, err := s.service.Timeline(s.ctx, "LOT-ORD")
		s.Require().NoError(err)
		s.Equal(fromEvents, fromTimeline)
	})
}

func (s *LedgerServiceSuite) TestVerification() {
	s.Run("verify reflects the stored flag and update flips it", func() {
		event := s.createEvent(CreateEventInput{
			Type: TypeDelivery, LotID: "LOT-VER", Actor: "did:agri:d",
			Metadata: validMetadata(TypeDelivery),
		})
		s.True(s.service.VerifyEvent(s.ctx, event.ID))

		s.Require().NoError(s.service.UpdateEventVerification(s.ctx, event.ID, false))
		s.False(s.service.VerifyEvent(s.ctx, event.ID))

		details, err := s.service.EventDetails(s.ctx, event.ID)
		s.Require().NoError(err)
		s.False(details.Verified)
	})

	s.Run("verify of an unknown event is false", func() {
		s.False(s.service.VerifyEvent(s.ctx, "evt-ghost"))
	})

	s.Run("update of an unknown event reports not found", func() {
		err := s.service.UpdateEventVerification(s.ctx, "evt-ghost", true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LedgerServiceSuite) TestEventDetails() {
	s.Run("unknown event reports not found", func() {
		_, err := s.service.EventDetails(s.ctx, "evt-ghost")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
