package spreadsheet

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/markusbuck/spreadsheet"

var tracer = otel.Tracer(instrumentationName)

// result attribute values for spreadsheet_set_content_total
const (
	resultOK          = "ok"
	resultInvalidName = "invalid_name"
	resultFormat      = "formula_format"
	resultCircular    = "circular_dependency"
)

// metrics holds one spreadsheet's instruments. every spreadsheet creates its
// own so that instances carry no shared state beyond the provider.
type metrics struct {
	setTotal     metric.Int64Counter
	setDuration  metric.Float64Histogram
	recalculated metric.Int64Histogram
	cellErrors   metric.Int64Counter
	persistTotal metric.Int64Counter
}

func newMetrics(provider metric.MeterProvider) *metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	m, err := buildMetrics(provider.Meter(instrumentationName))
	if err != nil {
		// instruments only fail on invalid names, fall back to no-ops
		m, _ = buildMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)

	m.setTotal, err = meter.Int64Counter(
		"spreadsheet_set_content_total",
		metric.WithDescription("Total number of SetContent calls by result"),
	)
	if err != nil {
		return nil, err
	}

	m.setDuration, err = meter.Float64Histogram(
		"spreadsheet_set_content_duration_seconds",
		metric.WithDescription("Duration of SetContent including recalculation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.recalculated, err = meter.Int64Histogram(
		"spreadsheet_recalculated_cells",
		metric.WithDescription("Number of cells re-evaluated per accepted change"),
	)
	if err != nil {
		return nil, err
	}

	m.cellErrors, err = meter.Int64Counter(
		"spreadsheet_cell_errors_total",
		metric.WithDescription("Cells whose formula evaluated to an error value"),
	)
	if err != nil {
		return nil, err
	}

	m.persistTotal, err = meter.Int64Counter(
		"spreadsheet_persist_total",
		metric.WithDescription("Save and load operations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// recordSet records the outcome of one SetContent call
func (m *metrics) recordSet(ctx context.Context, result string, duration time.Duration, recalculated int) {
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.setTotal.Add(ctx, 1, attrs)
	m.setDuration.Record(ctx, duration.Seconds(), attrs)
	if result == resultOK {
		m.recalculated.Record(ctx, int64(recalculated))
	}
}

func (m *metrics) recordCellError(ctx context.Context, code string) {
	m.cellErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

func (m *metrics) recordPersist(ctx context.Context, op string, success bool) {
	m.persistTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("success", success),
	))
}

// startPersistSpan creates a span around a save or load
func startPersistSpan(ctx context.Context, op string, cells int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Spreadsheet."+op,
		trace.WithAttributes(attribute.Int("spreadsheet.cell_count", cells)),
	)
}
