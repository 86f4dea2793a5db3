package util

import "strings"

// MaskEmail deja visible la primera letra del usuario y del dominio:
// "john.doe@example.com" => "j…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskEmails aplica MaskEmail a cada destinatario.
func MaskEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, MaskEmail(s))
	}
	return out
}
