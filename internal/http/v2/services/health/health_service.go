// Package health contiene el service para health checks.
package health

import (
	"context"
	"os"
	"time"

	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/health"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Pinger es cualquier dependencia que sabe verificar su conexión.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Components map[string]Pinger // ej: "options_store", "cache"
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    os.Getenv("SERVICE_VERSION"),
		Components: make(map[string]dto.HealthStatus, len(s.deps.Components)),
		Timestamp:  time.Now().UTC(),
	}

	for name, p := range s.deps.Components {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := p.Ping(cctx)
		cancel()
		if err != nil {
			log.Warn("component unhealthy", logger.String("component_name", name), logger.Err(err))
			resp.Components[name] = dto.HealthStatus{Status: "error", Error: err.Error()}
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = dto.HealthStatus{Status: "ok"}
	}
	return resp
}
