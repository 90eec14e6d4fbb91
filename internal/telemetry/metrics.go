package telemetry

import (
	"context"
	"fmt"
	"time"

	"qahwa/internal/config"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Metrics holds the business and gateway instruments of the storefront.
type Metrics struct {
	CartMutations   metric.Int64Counter
	CartLines       metric.Int64Histogram
	OrdersCreated   metric.Int64Counter
	OrdersCancelled metric.Int64Counter
	RevenueTotal    metric.Float64Counter
	GatewayCalls    metric.Int64Counter
	GatewayDuration metric.Float64Histogram
}

// Histogram buckets in milliseconds.
var durationBuckets = []float64{2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	cartMutations, err := meter.Int64Counter(
		"cart_mutations_total",
		metric.WithDescription("Cart mutations by operation, mode and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart mutations counter: %w", err)
	}

	cartLines, err := meter.Int64Histogram(
		"cart_lines",
		metric.WithDescription("Number of distinct lines in a cart when it is opened"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart lines histogram: %w", err)
	}

	ordersCreated, err := meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	ordersCancelled, err := meter.Int64Counter(
		"orders_cancelled_total",
		metric.WithDescription("Total number of orders cancelled by customers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cancelled orders counter: %w", err)
	}

	revenueTotal, err := meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total value of placed orders"),
		metric.WithUnit("EGP"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	gatewayCalls, err := meter.Int64Counter(
		"gateway_calls_total",
		metric.WithDescription("Calls to the remote data gateway"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway calls counter: %w", err)
	}

	gatewayDuration, err := meter.Float64Histogram(
		"gateway_call_duration",
		metric.WithDescription("Remote data gateway call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway duration histogram: %w", err)
	}

	return &Metrics{
		CartMutations:   cartMutations,
		CartLines:       cartLines,
		OrdersCreated:   ordersCreated,
		OrdersCancelled: ordersCancelled,
		RevenueTotal:    revenueTotal,
		GatewayCalls:    gatewayCalls,
		GatewayDuration: gatewayDuration,
	}, nil
}

// NewNopMetrics returns instruments that record nothing.
func NewNopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	if err != nil {
		// The noop meter never fails.
		panic(err)
	}
	return m
}

// InitMetrics configures the OTLP/HTTP meter provider and registers it globally.
func InitMetrics(ctx context.Context, cfg config.TelemetryConfig) (*Metrics, *sdkmetric.MeterProvider, error) {
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.MetricsEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(provider)

	m, err := NewMetrics(provider.Meter(cfg.ServiceName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}

	return m, provider, nil
}

// RecordCartMutation counts one cart mutation.
func (m *Metrics) RecordCartMutation(ctx context.Context, op, mode string, success bool) {
	m.CartMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cart.operation", op),
		attribute.String("cart.mode", mode),
		attribute.String("status", status(success)),
	))
}

// RecordGatewayCall records a gateway call that started at start.
func (m *Metrics) RecordGatewayCall(ctx context.Context, op, table string, start time.Time, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", table),
		attribute.String("db.system", "postgresql"),
		attribute.String("status", status(success)),
	)
	m.GatewayCalls.Add(ctx, 1, attrs)
	m.GatewayDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

// RecordOrderPlaced counts a placed order and its value.
func (m *Metrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, lines int) {
	attrs := metric.WithAttributes(attribute.Int("order.lines", lines))
	m.OrdersCreated.Add(ctx, 1, attrs)
	m.RevenueTotal.Add(ctx, total.InexactFloat64())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func newResource(ctx context.Context, cfg config.TelemetryConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
