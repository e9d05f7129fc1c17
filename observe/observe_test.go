package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "valid", cfg: Config{ServiceName: "vendora"}},
		{name: "missing name", cfg: Config{}, want: ErrMissingServiceName},
		{
			name: "bad tracing exporter",
			cfg:  Config{ServiceName: "v", Tracing: TracingConfig{Enabled: true, Exporter: "jaeger"}},
			want: ErrInvalidTracingExporter,
		},
		{
			name: "bad sample pct",
			cfg:  Config{ServiceName: "v", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 2}},
			want: ErrInvalidSamplePct,
		},
		{
			name: "bad metrics exporter",
			cfg:  Config{ServiceName: "v", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}},
			want: ErrInvalidMetricsExporter,
		},
		{
			name: "bad log level",
			cfg:  Config{ServiceName: "v", Logging: LoggingConfig{Enabled: true, Level: "trace"}},
			want: ErrInvalidLogLevel,
		},
		{
			name: "disabled sections are not checked",
			cfg:  Config{ServiceName: "v", Metrics: MetricsConfig{Exporter: "statsd"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	var logs bytes.Buffer
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "vendora-test",
		Version:     "0.0.1",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Output: &logs},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	obs.Logger().Info(context.Background(), "started")
	if logs.Len() == 0 {
		t.Error("logger did not write to configured output")
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	if err := mw.Run(context.Background(), Op{Name: "smoke"}, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want %v", err, ErrMissingServiceName)
	}
}
