package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

// DebugObserver loguea una línea por envío (test o real) mientras el modo
// debug esté activo en la configuración guardada.
type DebugObserver struct {
	settings SettingsLoader
	log      *zap.Logger
}

// NewDebugObserver crea el observer. Con log nil usa el logger global.
func NewDebugObserver(s SettingsLoader, log *zap.Logger) *DebugObserver {
	return &DebugObserver{settings: s, log: log}
}

func (o *DebugObserver) OnMailEvent(ctx context.Context, ev MailEvent) {
	rec, err := o.settings.Load(ctx)
	if err != nil || !rec.Debug {
		return
	}

	log := o.log
	if log == nil {
		log = logger.From(ctx)
	}
	fields := []zap.Field{
		logger.Component("email.observer"),
		logger.Recipients(ev.To),
		logger.Subject(ev.Subject),
		logger.Bool("sent", ev.Err == nil),
		logger.DurationMs(ev.Duration),
	}
	if ev.Err != nil {
		fields = append(fields, logger.Err(ev.Err))
	}
	log.Info("mail event", fields...)
}
