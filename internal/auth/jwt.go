package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer - значение поля iss в токенах сервиса
const Issuer = "navserver"

// ErrInvalidToken возвращается для просроченного, поддельного или битого токена
var ErrInvalidToken = errors.New("auth: недействительный токен")

// Claims - данные JWT токена оператора
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет JWT токены операторов (HS256)
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт выпускающего с секретом в base64.
// Пустой секрет заменяется случайным: токены живут до перезапуска.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	var key []byte
	if secret == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("генерация секрета: %w", err)
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("секрет JWT не в base64: %w", err)
		}
		if len(decoded) < 32 {
			return nil, errors.New("секрет JWT должен быть не короче 32 байт")
		}
		key = decoded
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: key, ttl: ttl}, nil
}

// Generate создаёт токен для оператора
func (ti *TokenIssuer) Generate(username string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate проверяет подпись и сроки токена
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// GenerateSecureSecret генерирует случайный секрет в base64
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
