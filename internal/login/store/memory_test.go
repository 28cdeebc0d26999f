package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemorySuite) TestGet() {
	ctx := context.Background()

	s.Run("empty store reports not found", func() {
		_, err := s.store.Get(ctx)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("returns the stored record", func() {
		user := &models.UserRecord{UserID: "42", Username: "ada", DisplayName: "Ada L."}
		s.Require().NoError(s.store.Put(ctx, user))

		got, err := s.store.Get(ctx)
		s.NoError(err)
		s.Equal(user, got)
	})

	s.Run("returned record does not alias the stored one", func() {
		user := &models.UserRecord{UserID: "42", ConnectedServices: []string{"acme"}}
		s.Require().NoError(s.store.Put(ctx, user))

		got, err := s.store.Get(ctx)
		s.Require().NoError(err)
		got.ConnectedServices[0] = "mutated"

		again, err := s.store.Get(ctx)
		s.Require().NoError(err)
		s.Equal("acme", again.ConnectedServices[0])
	})
}

func (s *InMemorySuite) TestPut() {
	ctx := context.Background()

	s.Run("nil record is rejected", func() {
		err := s.store.Put(ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("overwrites the prior record", func() {
		s.Require().NoError(s.store.Put(ctx, &models.UserRecord{UserID: "1"}))
		s.Require().NoError(s.store.Put(ctx, &models.UserRecord{UserID: "2"}))

		got, err := s.store.Get(ctx)
		s.NoError(err)
		s.Equal("2", got.UserID)
	})
}

func (s *InMemorySuite) TestClear() {
	ctx := context.Background()

	s.Run("empty store reports not found", func() {
		_, err := s.store.Clear(ctx)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("returns the prior record and empties the store", func() {
		user := &models.UserRecord{UserID: "42", Username: "ada"}
		s.Require().NoError(s.store.Put(ctx, user))

		prior, err := s.store.Clear(ctx)
		s.NoError(err)
		s.Equal(user, prior)

		_, err = s.store.Get(ctx)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}
