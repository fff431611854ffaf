package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskboard/internal/models/user"
)

var ErrInvalidToken = errors.New("невалидный токен")

// Principal - аутентифицированный пользователь запроса.
type Principal struct {
	UserID uuid.UUID
	Roles  []user.Role
}

func (p *Principal) HasRole(role user.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issuer выпускает и проверяет подписанные HS256 токены.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(u *user.User) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("секрет подписи пуст")
	}

	roles := make([]string, len(u.Roles))
	for idx, r := range u.Roles {
		roles[idx] = string(r)
	}

	now := time.Now()
	claims := tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UUID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия и возвращает Principal.
func (i *Issuer) Parse(tokenStr string) (*Principal, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("неожиданный метод подписи")
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	roles := make([]user.Role, len(claims.Roles))
	for idx, r := range claims.Roles {
		roles[idx] = user.Role(r)
	}

	return &Principal{UserID: userID, Roles: roles}, nil
}
