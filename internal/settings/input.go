package settings

import (
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Input son los datos crudos del formulario de configuración.
//
// Auth y Debug son booleanos obligatorios: la capa que parsea el request
// convierte "checkbox ausente" en false y "presente" en true antes de llegar acá.
type Input struct {
	Host       string
	Port       string
	Encryption string
	Auth       bool
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	Debug      bool
	// KeepPassword conserva el password guardado e ignora Password. Lo usa
	// la capa HTTP cuando el campo password no vino en el request.
	KeepPassword bool
}

var (
	strictPolicy *bluemonday.Policy
	validate     *validator.Validate
	initOnce     sync.Once
)

func initSanitizers() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
		validate = validator.New()
	})
}

// cleanText quita todo HTML, colapsa espacios y saltos de línea y recorta.
// bluemonday decodifica las entidades del texto y re-escapa la salida. Los
// "&" se escapan antes para que una entidad tipeada ("&amp;") sobreviva al
// UnescapeString final tal cual.
func cleanText(s string) string {
	initSanitizers()
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// IsEmail valida sintaxis de dirección de correo.
func IsEmail(s string) bool {
	initSanitizers()
	return validate.Var(s, "required,email") == nil
}

// sanitize convierte Input en Record o devuelve los errores por campo.
func sanitize(in Input) (Record, error) {
	ve := &ValidationError{}
	rec := Record{
		Host:     cleanText(in.Host),
		Auth:     in.Auth,
		Username: cleanText(in.Username),
		Password: in.Password,
		FromName: cleanText(in.FromName),
		Debug:    in.Debug,
	}

	rec.Port = DefaultPort
	if p := strings.TrimSpace(in.Port); p != "" {
		n, err := strconv.Atoi(p)
		switch {
		case err != nil:
			ve.add("port", "must be a number")
		case n <= 0 || n > 65535:
			ve.add("port", "must be between 1 and 65535")
		default:
			rec.Port = n
		}
	}

	enc, err := ParseEncryption(in.Encryption)
	if err != nil {
		ve.add("encryption", "must be one of none, ssl, tls")
	}
	rec.Encryption = enc

	rec.FromEmail = strings.TrimSpace(in.FromEmail)
	if !IsEmail(rec.FromEmail) {
		ve.add("from_email", "must be a valid email address")
	}

	if len(ve.Fields) > 0 {
		return Record{}, ve
	}
	return rec, nil
}
