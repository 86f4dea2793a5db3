package admin

// TestEmailRequest es el body JSON de POST /v2/admin/smtp/test.
type TestEmailRequest struct {
	TestEmail string `json:"test_email"`
	CSRF      string `json:"_csrf,omitempty"`
}

// TestEmailResponse es el sobre de respuesta del envío de prueba.
type TestEmailResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}
