// Package service holds the resume-token service: a signed proof handed out
// at join time that a reconnecting client must present, so a replayed room
// code and player id alone are never enough to take over a seat.
package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken rejects a missing, expired, or mismatched resume token.
var ErrInvalidToken = errors.New("invalid or expired token")

// ResumeClaims bind a resume token to one seat in one room.
type ResumeClaims struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

// ResumeTokens issues and validates resume tokens. A zero-secret service is
// disabled: it issues nothing and accepts every reconnect, for setups that
// rely on the room code alone.
type ResumeTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewResumeTokens creates the token service. An empty secret disables it.
func NewResumeTokens(secret string) *ResumeTokens {
	return &ResumeTokens{secret: []byte(secret), ttl: 24 * time.Hour}
}

// Enabled reports whether tokens are issued and enforced.
func (s *ResumeTokens) Enabled() bool { return len(s.secret) > 0 }

// Issue signs a token for a seat. Returns "" when the service is disabled.
func (s *ResumeTokens) Issue(roomCode, playerID string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	claims := &ResumeClaims{
		RoomCode: roomCode,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks that the token matches the claimed seat.
func (s *ResumeTokens) Validate(tokenString, roomCode, playerID string) error {
	if !s.Enabled() {
		return nil
	}
	token, err := jwt.ParseWithClaims(tokenString, &ResumeClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(*ResumeClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}
	if claims.RoomCode != roomCode || claims.PlayerID != playerID {
		return ErrInvalidToken
	}
	return nil
}
