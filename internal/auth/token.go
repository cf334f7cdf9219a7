package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims del access token. Permisos usa la forma "recurso:accion".
type Claims struct {
	UserID   string   `json:"userId"`
	IsAdmin  bool     `json:"isAdmin"`
	Permisos []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// GenerarAccessToken firma un JWT RS256 con kid, iss, aud, iat, nbf y jti.
func (l *Llaves) GenerarAccessToken(userID string, isAdmin bool, permisos []string) (string, error) {
	if userID == "" {
		return "", errors.New("userID vacío")
	}
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		IsAdmin:  isAdmin,
		Permisos: permisos,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    l.issuer,
			Audience:  []string{l.audience},
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        fmt.Sprintf("%s-%d", userID, now.UnixNano()),
		},
	}

	tok := jwt.NewWithClaims(signMethod(), claims)
	tok.Header["kid"] = l.activeKID
	return tok.SignedString(l.priv)
}

// Validar revisa firma, iss, aud y exp.
func (l *Llaves) Validar(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(l.issuer),
		jwt.WithAudience(l.audience),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		k, _ := t.Header["kid"].(string)
		if k == "" {
			return nil, errors.New("kid ausente")
		}
		pub, ok := l.pub(k)
		if !ok {
			return nil, errors.New("kid desconocido")
		}
		return pub, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("token inválido")
	}

	c, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, errors.New("claims inválidas")
	}
	if c.UserID == "" {
		return nil, errors.New("token sin userId")
	}
	return c, nil
}
