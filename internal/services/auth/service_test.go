package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/mocks"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	records *memory.Records
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.records = memory.NewRecords()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Secret = []byte("test-secret")
	s.service = New(s.records, s.clock, mocks.NewMockRandom(), cfg)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateGuestPersistsPlayerWithTickets() {
	session, err := s.service.CreateGuest(s.ctx, "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.DisplayName)

	player, err := s.records.GetPlayer(s.ctx, session.PlayerID)
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, player.Rating)
	s.Equal(10, player.Tickets[model.ModeCapture])
}

func (s *ServiceSuite) TestIssuedTokenValidates() {
	issued, err := s.service.Issue("alice", "Alice")
	s.Require().NoError(err)

	session, err := s.service.ValidateToken(issued.Token)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), session.PlayerID)
	s.Equal("Alice", session.DisplayName)
	s.True(s.clock.Now().Add(24*time.Hour).Equal(session.ExpiresAt))
}

func (s *ServiceSuite) TestExpiredTokenIsRejected() {
	issued, err := s.service.Issue("alice", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	_, err = s.service.ValidateToken(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestTokenSignedWithOtherSecretIsRejected() {
	cfg := DefaultConfig()
	cfg.Secret = []byte("other-secret")
	other := New(s.records, s.clock, mocks.NewMockRandom(), cfg)
	issued, err := other.Issue("alice", "Alice")
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestUnsignedTokenIsRejected() {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(signed)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestAIIdentityIsRejected() {
	issued, err := s.service.Issue("ai-1", "Bot")
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestGarbageIsRejected() {
	_, err := s.service.ValidateToken("not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestMissingSecret() {
	svc := New(s.records, s.clock, mocks.NewMockRandom(), DefaultConfig())

	_, err := svc.Issue("alice", "Alice")
	s.ErrorIs(err, ErrNoSecret)
	_, err = svc.ValidateToken("x")
	s.ErrorIs(err, ErrNoSecret)
}
