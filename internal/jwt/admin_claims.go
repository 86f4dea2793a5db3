package jwt

import "strings"

// AdminAccessClaims son los claims del access token de admin
type AdminAccessClaims struct {
	AdminID   string   `json:"sub"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	SessionID string   `json:"sid"`
}

// IsAdmin reporta si roles incluye "admin".
func (c AdminAccessClaims) IsAdmin() bool {
	for _, r := range c.Roles {
		if strings.EqualFold(r, "admin") {
			return true
		}
	}
	return false
}
