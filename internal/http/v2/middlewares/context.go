package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims JWT parseadas
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta claims en el contexto
func WithClaims(ctx context.Context, c jwtx.AdminAccessClaims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims obtiene las claims del contexto. ok es false si no hubo token válido.
func GetClaims(ctx context.Context) (jwtx.AdminAccessClaims, bool) {
	c, ok := ctx.Value(ctxClaimsKey).(jwtx.AdminAccessClaims)
	return c, ok
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}
