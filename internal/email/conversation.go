package email

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

const redacted = "[redacted]"

// conversationLog es el DebugWriter del cliente SMTP: una línea de log por
// línea del protocolo. Las credenciales del intercambio AUTH se reemplazan.
//
// go-smtp escribe en el mismo writer lo enviado y lo recibido, así que las
// respuestas del server se reconocen por el código de 3 dígitos.
type conversationLog struct {
	mu     sync.Mutex
	log    *zap.Logger
	buf    bytes.Buffer
	inAuth bool
}

func newConversationLog(l *zap.Logger) *conversationLog {
	return &conversationLog{log: l.With(logger.Component("email.smtp.conversation"))}
}

func (w *conversationLog) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf.Next(i+1)), "\r\n")
		w.emit(line)
	}
	return len(p), nil
}

// Flush emite lo que quedó sin salto de línea.
func (w *conversationLog) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}

func (w *conversationLog) emit(line string) {
	w.log.Info("smtp", zap.String("line", w.redact(line)))
}

func (w *conversationLog) redact(line string) string {
	if fields := strings.Fields(line); len(fields) >= 1 && strings.EqualFold(fields[0], "AUTH") {
		w.inAuth = true
		if len(fields) >= 3 {
			return fields[0] + " " + fields[1] + " " + redacted
		}
		return line
	}
	if !w.inAuth {
		return line
	}
	if isReply(line) {
		// 334 es un challenge, el intercambio sigue
		if !strings.HasPrefix(line, "334") {
			w.inAuth = false
		}
		return line
	}
	return redacted
}

func isReply(line string) bool {
	if len(line) < 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return len(line) == 3 || line[3] == ' ' || line[3] == '-'
}
