package service

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"

	"github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/identity"
)

// Claims is the access-token payload. Role and org are embedded so middleware
// can build the request identity without a user lookup on every call.
type Claims struct {
	UserID string `json:"uid"`
	OrgID  string `json:"org"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func (t *tokenIssuer) Issue(user *domain.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		UserID: user.ID.String(),
		OrgID:  user.OrgID.String(),
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    "leadstack",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (t *tokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Identity reconstructs the caller identity carried by the claims.
func (c *Claims) Identity() (identity.Identity, snowflake.ID, error) {
	userID, err := snowflake.ParseString(c.UserID)
	if err != nil {
		return identity.Identity{}, 0, domain.ErrInvalidToken
	}
	orgID, err := snowflake.ParseString(c.OrgID)
	if err != nil {
		return identity.Identity{}, 0, domain.ErrInvalidToken
	}
	role := identity.Role(c.Role)
	if !role.Valid() {
		return identity.Identity{}, 0, domain.ErrInvalidToken
	}
	return identity.Identity{UserID: userID, Role: role}, orgID, nil
}
