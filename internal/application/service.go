package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
)

// Metrics receives operational measurements from the services.
type Metrics interface {
	ObserveOperation(service, operation string, elapsed time.Duration)
	ReservationOperation(operation, result string)
	ReservationConflict()
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}
func (noopMetrics) ReservationOperation(string, string)            {}
func (noopMetrics) ReservationConflict()                           {}

// serviceBase holds the collaborators every service shares.
type serviceBase struct {
	name        string
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	metrics     Metrics
}

func newServiceBase(name string, idGenerator func() string, now func() time.Time, logger *slog.Logger) serviceBase {
	if idGenerator == nil {
		idGenerator = domain.NewID
	}
	if now == nil {
		now = time.Now
	}
	return serviceBase{
		name:        name,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		metrics:     noopMetrics{},
	}
}

func (b *serviceBase) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, b.logger, b.name, operation, attrs...)
}

// observe records the duration of operation; use as defer b.observe(op, time.Now()).
func (b *serviceBase) observe(operation string, started time.Time) {
	b.metrics.ObserveOperation(b.name, operation, time.Since(started))
}

// SetMetrics routes the service measurements to m.
func (b *serviceBase) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	b.metrics = m
}
