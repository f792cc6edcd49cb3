package trace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrust/internal/ledger"
	dErrors "agritrust/pkg/domain-errors"
)

// stubSource serves canned timelines keyed by lot and counts reads.
type stubSource struct {
	timelines map[string][]*ledger.Event
	reads     int
}

func (s *stubSource) Timeline(_ context.Context, lotID string) ([]*ledger.Event, error) {
	s.reads++
	return s.timelines[lotID], nil
}

// mapCache is an in-process Cache for exercising the read-through path.
type mapCache struct {
	entries map[string]*Traceability
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]*Traceability)} }

func (c *mapCache) Get(_ context.Context, lotID string) (*Traceability, bool) {
	t, ok := c.entries[lotID]
	return t, ok
}

func (c *mapCache) Put(_ context.Context, lotID string, t *Traceability) { c.entries[lotID] = t }

func (c *mapCache) Invalidate(_ context.Context, lotID string) { delete(c.entries, lotID) }

type TraceServiceSuite struct {
	suite.Suite
	source *stubSource
	ctx    context.Context
}

func TestTraceServiceSuite(t *testing.T) {
	suite.Run(t, new(TraceServiceSuite))
}

func (s *TraceServiceSuite) SetupTest() {
	s.source = &stubSource{timelines: make(map[string][]*ledger.Event)}
	s.ctx = context.Background()
}

func (s *TraceServiceSuite) newService(opts ...Option) *Service {
	svc, err := New(s.source, opts...)
	s.Require().NoError(err)
	return svc
}

func at(day int) time.Time {
	return time.Date(2026, 6, day, 10, 0, 0, 0, time.UTC)
}

func (s *TraceServiceSuite) TestTraceability() {
	s.source.timelines["LOT-001"] = []*ledger.Event{
		{
			ID: "evt-1", Type: ledger.TypePlanting, LotID: "LOT-001",
			Actor: "did:agri:farmer-1", Timestamp: at(1), Verified: true,
			Location:  &ledger.Location{Latitude: -1.29, Longitude: 36.82, Address: "Kiambu"},
			Documents: []string{"seed-invoice.pdf"},
		},
		{
			ID: "evt-2", Type: ledger.TypeHarvesting, LotID: "LOT-001",
			Actor: "did:agri:farmer-1", Timestamp: at(2), Verified: true,
			Images: []string{"harvest.jpg"},
		},
		{
			ID: "evt-3", Type: ledger.TypeShipping, LotID: "LOT-001",
			Actor: "did:agri:logistics-1", Timestamp: at(3), Verified: false,
			Location:  &ledger.Location{Latitude: -4.04, Longitude: 39.66, Address: "Mombasa"},
			Documents: []string{"seed-invoice.pdf", "waybill.pdf"},
		},
	}
	svc := s.newService()

	trace, err := svc.Traceability(s.ctx, "LOT-001")
	s.Require().NoError(err)

	s.Run("summary counts and status", func() {
		s.Equal(3, trace.Summary.TotalEvents)
		s.Equal(2, trace.Summary.VerifiedCount)
		s.Equal("active", trace.Summary.Status)
		s.Equal(at(3), trace.Summary.LastUpdate)
	})

	s.Run("timeline preserves source order", func() {
		s.Require().Len(trace.Timeline, 3)
		s.Equal("evt-1", trace.Timeline[0].ID)
		s.Equal("evt-3", trace.Timeline[2].ID)
	})

	s.Run("participants are deduplicated in first-seen order", func() {
		s.Equal([]string{"did:agri:farmer-1", "did:agri:logistics-1"}, trace.Participants)
	})

	s.Run("locations project only events that carry one", func() {
		s.Require().Len(trace.Locations, 2)
		s.Equal("evt-1", trace.Locations[0].EventID)
		s.Equal("Kiambu", trace.Locations[0].Location.Address)
		s.Equal("evt-3", trace.Locations[1].EventID)
	})

	s.Run("documents and images concatenate without deduplication", func() {
		s.Equal([]string{"seed-invoice.pdf", "seed-invoice.pdf", "waybill.pdf"}, trace.Documents)
		s.Equal([]string{"harvest.jpg"}, trace.Images)
	})
}

func (s *TraceServiceSuite) TestEmptyLot() {
	svc := s.newService()

	trace, err := svc.Traceability(s.ctx, "LOT-NONE")
	s.Require().NoError(err)

	s.Equal(0, trace.Summary.TotalEvents)
	s.Equal("inactive", trace.Summary.Status)
	s.False(trace.Summary.LastUpdate.IsZero())
	s.Empty(trace.Timeline)
	s.Empty(trace.Participants)
	s.Empty(trace.Documents)
}

func (s *TraceServiceSuite) TestValidation() {
	svc := s.newService()

	_, err := svc.Traceability(s.ctx, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *TraceServiceSuite) TestCache() {
	s.source.timelines["LOT-C"] = []*ledger.Event{
		{ID: "evt-1", Type: ledger.TypePlanting, LotID: "LOT-C", Actor: "did:agri:f", Timestamp: at(1), Verified: true},
	}
	cache := newMapCache()
	svc := s.newService(WithCache(cache))

	s.Run("second read is served from cache", func() {
		first, err := svc.Traceability(s.ctx, "LOT-C")
		s.Require().NoError(err)
		s.Equal(1, s.source.reads)

		second, err := svc.Traceability(s.ctx, "LOT-C")
		s.Require().NoError(err)
		s.Equal(1, s.source.reads)
		s.Equal(first, second)
	})

	s.Run("invalidation forces a re-derive", func() {
		cache.Invalidate(s.ctx, "LOT-C")

		_, err := svc.Traceability(s.ctx, "LOT-C")
		s.Require().NoError(err)
		s.Equal(2, s.source.reads)
	})
}
