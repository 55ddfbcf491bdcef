// Package qr mints and verifies the signed, single-use check-in credentials
// bound to approved bookings. Only the SHA-256 hash of a token is ever
// persisted; the live token value is handed to the caller exactly once.
package qr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chargeslot/internal/faults"
)

// Verification failure codes.
const (
	CodeInvalid = "QrInvalid"
	CodeExpired = "QrExpired"
)

// Claims is the signed payload of a check-in token. The jti registered claim
// carries the random nonce that makes every issued token unique.
type Claims struct {
	BookingID string `json:"booking_id"`
	StationID string `json:"station_id"`
	SlotStart int64  `json:"slot_start"`
	jwt.RegisteredClaims
}

// Service signs and verifies check-in tokens with a keyed MAC.
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService returns a token service over the shared secret.
func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used for issuance and expiry checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue mints a token for the booking plus the hash to persist on it.
func (s *Service) Issue(bookingID, stationID string, slotStart, expiry time.Time) (token, hash string, err error) {
	if bookingID == "" {
		return "", "", errors.New("qr: booking id is required")
	}

	now := s.now()
	claims := Claims{
		BookingID: bookingID,
		StationID: stationID,
		SlotStart: slotStart.UTC().Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry.UTC()),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return token, HashToken(token), nil
}

// Verify checks signature and expiry of a presented token and returns its
// claims plus the storage hash used to locate the booking. It is read-only;
// single-use semantics are enforced by the booking lookup and status check.
func (s *Service) Verify(tokenString string) (*Claims, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("qr: unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", faults.New(faults.Validation, CodeExpired, "qr token has expired")
		}
		return nil, "", faults.New(faults.Validation, CodeInvalid, "qr token is not valid")
	}
	if !token.Valid || claims.BookingID == "" {
		return nil, "", faults.New(faults.Validation, CodeInvalid, "qr token is not valid")
	}
	return claims, HashToken(tokenString), nil
}

// HashToken computes the one-way storage hash of an encoded token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
