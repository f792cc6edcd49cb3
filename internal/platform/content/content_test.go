package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SHA256Suite struct {
	suite.Suite
	addresser SHA256
}

func TestSHA256Suite(t *testing.T) {
	suite.Run(t, new(SHA256Suite))
}

func (s *SHA256Suite) SetupTest() {
	s.addresser = NewSHA256()
}

func (s *SHA256Suite) TestAddress() {
	s.Run("reference carries the hash scheme", func() {
		ref, err := s.addresser.Address(map[string]any{"lot": "LOT-001"})
		s.Require().NoError(err)
		s.True(strings.HasPrefix(ref, "sha256:"))
		s.Len(ref, len("sha256:")+64)
	})

	s.Run("key order does not change the reference", func() {
		a, err := s.addresser.Address(map[string]any{"quantity": 1200, "unit": "kg", "grade": "A"})
		s.Require().NoError(err)
		b, err := s.addresser.Address(map[string]any{"grade": "A", "unit": "kg", "quantity": 1200})
		s.Require().NoError(err)
		s.Equal(a, b)
	})

	s.Run("struct and equivalent map share a reference", func() {
		type payload struct {
			Unit     string `json:"unit"`
			Quantity int    `json:"quantity"`
		}
		a, err := s.addresser.Address(payload{Unit: "kg", Quantity: 1200})
		s.Require().NoError(err)
		b, err := s.addresser.Address(map[string]any{"quantity": 1200, "unit": "kg"})
		s.Require().NoError(err)
		s.Equal(a, b)
	})

	s.Run("distinct payloads diverge", func() {
		a, err := s.addresser.Address(map[string]any{"lot": "LOT-001"})
		s.Require().NoError(err)
		b, err := s.addresser.Address(map[string]any{"lot": "LOT-002"})
		s.Require().NoError(err)
		s.NotEqual(a, b)
	})

	s.Run("unmarshalable payload reports an error", func() {
		_, err := s.addresser.Address(make(chan int))
		s.Error(err)
	})
}
