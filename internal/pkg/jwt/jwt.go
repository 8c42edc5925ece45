package jwt

import (
	"fmt"
	"time"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "disruption-manager-secret-change-me"

var secret = []byte(defaultSecret)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Claims is the JWT payload issued by the identity provider.
type Claims struct {
	OrgID          string `json:"orgId"`
	Username       string `json:"username"`
	Name           string `json:"name,omitempty"`
	IsOrgStaff     bool   `json:"isOrgStaff,omitempty"`
	IsOrgAdmin     bool   `json:"isOrgAdmin,omitempty"`
	IsSystemAdmin  bool   `json:"isSystemAdmin,omitempty"`
	IsOperatorUser bool   `json:"isOperatorUser,omitempty"`
	OperatorOrgID  string `json:"operatorOrgId,omitempty"`
	jwtlib.RegisteredClaims
}

// Session converts the claims into the request actor.
func (c *Claims) Session() *models.Session {
	return &models.Session{
		OrgID:          c.OrgID,
		Username:       c.Username,
		Name:           c.Name,
		IsOrgStaff:     c.IsOrgStaff,
		IsOrgAdmin:     c.IsOrgAdmin,
		IsSystemAdmin:  c.IsSystemAdmin,
		IsOperatorUser: c.IsOperatorUser,
		OperatorOrgID:  c.OperatorOrgID,
	}
}

// Sign creates a signed JWT token for the given session.
func Sign(sess models.Session, ttl time.Duration) (string, error) {
	claims := Claims{
		OrgID:          sess.OrgID,
		Username:       sess.Username,
		Name:           sess.Name,
		IsOrgStaff:     sess.IsOrgStaff,
		IsOrgAdmin:     sess.IsOrgAdmin,
		IsSystemAdmin:  sess.IsSystemAdmin,
		IsOperatorUser: sess.IsOperatorUser,
		OperatorOrgID:  sess.OperatorOrgID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   sess.Username,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token string and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.OrgID == "" {
		return nil, fmt.Errorf("token has no organisation")
	}
	return claims, nil
}
