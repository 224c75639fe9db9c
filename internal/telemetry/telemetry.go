package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Provider keeps the run's counters in memory so they can be summarized on exit
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	reader        *sdkmetric.ManualReader
}

// New creates an in-memory meter provider
func New() *Provider {
	reader := sdkmetric.NewManualReader()
	return &Provider{
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		reader:        reader,
	}
}

// SetGlobal installs the provider as the process-wide meter provider
func (p *Provider) SetGlobal() {
	otel.SetMeterProvider(p.meterProvider)
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

// Snapshot returns every integer sum collected so far, keyed by
// "name" or "name{attr=value,...}".
func (p *Provider) Snapshot(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	encoder := attribute.DefaultEncoder()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				key := m.Name
				if dp.Attributes.Len() > 0 {
					key += "{" + dp.Attributes.Encoded(encoder) + "}"
				}
				counts[key] += dp.Value
			}
		}
	}
	return counts, nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}
