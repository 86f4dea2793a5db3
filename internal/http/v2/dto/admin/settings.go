package admin

import (
	"bytes"
	"encoding/json"
)

// SMTPSettingsResponse es la vista del registro. El password nunca se devuelve.
type SMTPSettingsResponse struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Encryption  string `json:"encryption"`
	Auth        bool   `json:"auth"`
	Username    string `json:"username"`
	HasPassword bool   `json:"has_password"`
	FromEmail   string `json:"from_email"`
	FromName    string `json:"from_name"`
	Debug       bool   `json:"debug"`
}

// SMTPSettingsRequest es el body JSON de POST /v2/admin/smtp/settings.
// Auth y Debug ausentes valen false. Password ausente conserva el guardado.
type SMTPSettingsRequest struct {
	Host       string     `json:"host"`
	Port       FlexString `json:"port"`
	Encryption string     `json:"encryption"`
	Auth       *bool      `json:"auth"`
	Username   string     `json:"username"`
	Password   *string    `json:"password"`
	FromEmail  string     `json:"from_email"`
	FromName   string     `json:"from_name"`
	Debug      *bool      `json:"debug"`
}

// FlexString acepta un número o un string JSON (port: 587 o "587").
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
