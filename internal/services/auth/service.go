package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSecret     = errors.New("token secret is not configured")
)

// Claims are the JWT claims issued to and accepted from players. The
// subject is the player id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Session is a verified identity
type Session struct {
	Token       string
	PlayerID    model.PlayerID
	DisplayName string
	ExpiresAt   time.Time
}

// Config holds configuration for the auth service
type Config struct {
	Secret         []byte
	Issuer         string
	TokenDuration  time.Duration
	StarterTickets int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Issuer:         "sudampvp",
		TokenDuration:  24 * time.Hour,
		StarterTickets: 10,
	}
}

// Service verifies bearer tokens and issues guest tokens
type Service struct {
	records storage.Records
	clock   clock.Clock
	random  random.Random
	cfg     Config
	parser  *jwt.Parser
}

// New creates a new auth Service
func New(records storage.Records, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	return &Service{
		records: records,
		clock:   clock,
		random:  random,
		cfg:     cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(clock.Now),
			jwt.WithExpirationRequired(),
		),
	}
}

// CreateGuest creates a player record with starter tickets and returns a
// token for it
func (s *Service) CreateGuest(ctx context.Context, displayName string) (*Session, error) {
	now := s.clock.Now()
	player := &model.Player{
		ID:          model.PlayerID("p-" + s.random.UUID()),
		DisplayName: displayName,
		Rating:      model.DefaultRating,
		Tickets:     make(map[model.Mode]int, len(model.AllModes)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, m := range model.AllModes {
		player.Tickets[m] = s.cfg.StarterTickets
	}
	if err := s.records.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return s.Issue(player.ID, displayName)
}

// Issue signs a token for a player
func (s *Service) Issue(id model.PlayerID, displayName string) (*Session, error) {
	if len(s.cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	now := s.clock.Now()
	expires := now.Add(s.cfg.TokenDuration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{
		Token:       signed,
		PlayerID:    id,
		DisplayName: displayName,
		ExpiresAt:   expires,
	}, nil
}

// ValidateToken verifies a token's signature and expiry
func (s *Service) ValidateToken(tokenString string) (*Session, error) {
	if len(s.cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || model.PlayerID(claims.Subject).IsAI() {
		return nil, ErrInvalidToken
	}

	session := &Session{
		Token:       tokenString,
		PlayerID:    model.PlayerID(claims.Subject),
		DisplayName: claims.Name,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
