// Package email es la primitiva de envío de la instalación.
//
// Un envío pasa por: Transport con defaults (SMTP apagado) → hooks
// before-send (el Applicator copia la configuración guardada) → composición
// MIME con go-mail → Deliverer (conversación SMTP con emersion/go-smtp) →
// observers (log de debug, métricas).
package email
