package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Parse valida firma HS256, iss y exp/nbf (con 30s de tolerancia) y
// devuelve los claims de admin.
func (i *Issuer) Parse(token string) (AdminAccessClaims, error) {
	keyfunc := func(*jwtv5.Token) (any, error) { return i.secret, nil }

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return AdminAccessClaims{}, errors.New("invalid_jwt")
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return AdminAccessClaims{}, errors.New("claims_type")
	}
	if iss, _ := claims["iss"].(string); i.Iss != "" && iss != i.Iss {
		return AdminAccessClaims{}, ErrInvalidIssuer
	}

	out := AdminAccessClaims{
		AdminID:   str(claims["sub"]),
		Email:     str(claims["email"]),
		SessionID: str(claims["sid"]),
	}
	if arr, ok := claims["roles"].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				out.Roles = append(out.Roles, s)
			}
		}
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
