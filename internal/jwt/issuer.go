// Package jwt emite y valida los access tokens de admin (HS256).
package jwt

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidIssuer = errors.New("invalid_issuer")

// Issuer firma access tokens con un secreto compartido.
type Issuer struct {
	Iss       string
	AccessTTL time.Duration
	secret    []byte
}

func NewIssuer(iss, secret string, accessTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &Issuer{Iss: iss, AccessTTL: accessTTL, secret: []byte(secret)}
}

// IssueAdminAccess emite un Access Token de admin. Cada token tiene un sid
// nuevo: los tokens CSRF quedan atados a él.
func (i *Issuer) IssueAdminAccess(c AdminAccessClaims) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)
	if c.SessionID == "" {
		c.SessionID = uuid.NewString()
	}

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   c.AdminID,
		"email": c.Email,
		"roles": c.Roles,
		"sid":   c.SessionID,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
