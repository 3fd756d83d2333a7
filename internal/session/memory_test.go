package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/pkg/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory(time.Hour)
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newExtraction() *models.Extraction {
	return &models.Extraction{
		SessionID: uuid.NewString(),
		Passport:  &models.Passport{LastName: "Eriksson", FirstName: "Anna"},
		CreatedAt: time.Now(),
	}
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	ex := s.newExtraction()
	s.Require().NoError(s.store.Save(s.ctx, ex))

	found, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().NoError(err)
	s.Equal("Eriksson", found.Passport.LastName)
}

func (s *MemoryStoreSuite) TestFindUnknownID() {
	_, err := s.store.Find(s.ctx, uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindReturnsCopy() {
	ex := s.newExtraction()
	s.Require().NoError(s.store.Save(s.ctx, ex))

	first, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().NoError(err)
	first.SessionID = "mutated"

	second, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().NoError(err)
	s.Equal(ex.SessionID, second.SessionID)
}

func (s *MemoryStoreSuite) TestSaveUpserts() {
	ex := s.newExtraction()
	s.Require().NoError(s.store.Save(s.ctx, ex))

	updated := *ex
	updated.Attorney = &models.Attorney{LastName: "Smith"}
	s.Require().NoError(s.store.Save(s.ctx, &updated))

	found, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Attorney)
	s.Equal("Smith", found.Attorney.LastName)
}

func (s *MemoryStoreSuite) TestDelete() {
	ex := s.newExtraction()
	s.Require().NoError(s.store.Save(s.ctx, ex))
	s.Require().NoError(s.store.Delete(s.ctx, ex.SessionID))

	_, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, ex.SessionID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestExpiry() {
	ex := s.newExtraction()
	s.Require().NoError(s.store.Save(s.ctx, ex))

	// Move the clock past the TTL instead of sleeping.
	s.store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.store.sweepOnce()
	s.Empty(s.store.sessions)
}

func (s *MemoryStoreSuite) TestZeroTTLNeverExpires() {
	s.store = NewMemory(0)
	ex := s.newExtraction()
	ex.CreatedAt = time.Now().Add(-24 * time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, ex))

	_, err := s.store.Find(s.ctx, ex.SessionID)
	s.Require().NoError(err)
}
