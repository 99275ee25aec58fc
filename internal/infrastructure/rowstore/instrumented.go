package rowstore

import (
	"context"
	"errors"
	"time"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/pkg/metrics"
)

// Instrumented wraps a RowStore and records Prometheus metrics for every call.
type Instrumented struct {
	next    ports.RowStore
	backend string
}

// Instrument returns store wrapped with metrics labelled by backend.
func Instrument(store ports.RowStore, backend string) *Instrumented {
	return &Instrumented{next: store, backend: backend}
}

func (s *Instrumented) Fetch(ctx context.Context, table ports.TableSchema) ([]ports.StoredRow, error) {
	start := time.Now()
	rows, err := s.next.Fetch(ctx, table)
	s.observe("fetch", start, err)
	return rows, err
}

func (s *Instrumented) Append(ctx context.Context, table ports.TableSchema, row []string) error {
	start := time.Now()
	err := s.next.Append(ctx, table, row)
	s.observe("append", start, err)
	return err
}

func (s *Instrumented) Replace(ctx context.Context, table ports.TableSchema, locator string, row []string) error {
	start := time.Now()
	err := s.next.Replace(ctx, table, locator, row)
	s.observe("replace", start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, table ports.TableSchema, locator string) error {
	start := time.Now()
	err := s.next.Delete(ctx, table, locator)
	s.observe("delete", start, err)
	return err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrTableNotFound):
		result = "table_not_found"
	case err != nil:
		result = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(s.backend, op, result).Inc()
	metrics.StoreOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}
