package email

// DebugLevel controla cuánto loguea el Deliverer.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	// DebugConversation loguea la conversación SMTP completa (AUTH redactado).
	DebugConversation
)

// Modos de seguridad del Transport.
const (
	SecureNone = ""
	SecureSSL  = "ssl" // TLS implícito
	SecureTLS  = "tls" // STARTTLS
)

// Transport es el handle mutable de un envío en curso. Los hooks
// before-send lo configuran antes de cualquier I/O de red.
type Transport struct {
	SMTP       bool // modo SMTP habilitado
	Host       string
	Port       int
	SMTPAuth   bool
	Secure     string
	Username   string
	Password   string
	From       string
	FromName   string
	DebugLevel DebugLevel
}

// defaultTransport es lo que recibe el primer hook: SMTP apagado.
func defaultTransport() Transport {
	return Transport{Port: 25}
}
