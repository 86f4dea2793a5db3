// Package settings mantiene el único registro de configuración SMTP de la
// instalación: defaults, guardado sanitizado y lectura cacheada.
package settings

import (
	"fmt"
	"strings"
)

// OptionName es la clave bajo la que se persiste el registro.
const OptionName = "mailrelay_smtp_settings"

// DefaultPort es el puerto de submission.
const DefaultPort = 587

// Encryption es el modo de seguridad de la conexión SMTP.
type Encryption string

const (
	EncryptionNone Encryption = "none"
	EncryptionSSL  Encryption = "ssl" // TLS implícito
	EncryptionTLS  Encryption = "tls" // STARTTLS
)

// ParseEncryption acepta none|ssl|tls sin distinguir mayúsculas. Vacío es tls.
func ParseEncryption(s string) (Encryption, error) {
	switch e := Encryption(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EncryptionTLS, nil
	case EncryptionNone, EncryptionSSL, EncryptionTLS:
		return e, nil
	default:
		return "", fmt.Errorf("unknown encryption %q", s)
	}
}

// Record es la configuración SMTP persistida.
type Record struct {
	Host       string     `json:"host"`
	Port       int        `json:"port"`
	Encryption Encryption `json:"encryption"`
	Auth       bool       `json:"auth"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	FromEmail  string     `json:"from_email"`
	FromName   string     `json:"from_name"`
	Debug      bool       `json:"debug"`
}

// Identity es la identidad propia del host, de la que salen los defaults
// del remitente.
type Identity struct {
	AdminEmail string
	SiteName   string
}

// Defaults devuelve el registro inicial para una instalación nueva.
func Defaults(id Identity) Record {
	return Record{
		Port:       DefaultPort,
		Encryption: EncryptionTLS,
		Auth:       true,
		FromEmail:  id.AdminEmail,
		FromName:   id.SiteName,
	}
}
