package admin

// LoginRequest es el body de POST /v2/admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse devuelve el access token de admin.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CSRFResponse devuelve el token CSRF de la sesión y dónde enviarlo.
type CSRFResponse struct {
	Token     string `json:"csrf_token"`
	Header    string `json:"header"`
	FormField string `json:"form_field"`
	ExpiresIn int64  `json:"expires_in"`
}
