// Package auth выпускает и проверяет токены резервации мест в комнатах.
// Лобби выдаёт короткоживущий JWT, игровой сервер проверяет его при
// подключении по WebSocket/KCP.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Время жизни резервации: клиент должен успеть подключиться к комнате.
const DefaultReservationTTL = 30 * time.Second

var (
	ErrTokenInvalid = errors.New("токен резервации недействителен")
	ErrTokenExpired = errors.New("токен резервации истёк")
)

// ReservationClaims содержит привязку резервации к комнате и игроку.
type ReservationClaims struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	jwt.RegisteredClaims
}

// TokenService подписывает и проверяет токены резервации (HS256).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService создаёт сервис токенов. ttl <= 0 означает DefaultReservationTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// IssueReservation выпускает токен на подключение playerName к комнате roomID.
func (ts *TokenService) IssueReservation(roomID, playerName string) (string, error) {
	now := time.Now()
	claims := &ReservationClaims{
		RoomID:     roomID,
		PlayerName: playerName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mmo-miner",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

// ValidateReservation проверяет подпись и срок действия токена.
func (ts *TokenService) ValidateReservation(tokenString string) (*ReservationClaims, error) {
	claims := &ReservationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.RoomID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
