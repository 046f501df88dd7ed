package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/queuecast/paxcache/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "paxcache",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: false},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleNewObserver_validation() {
	// Missing service name triggers validation error
	cfg := observe.Config{
		ServiceName: "",
	}

	ctx := context.Background()
	_, err := observe.NewObserver(ctx, cfg)
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "paxcache",
		Version:     "1.0.0",
		Tracing: observe.TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 0.5,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  true,
			Exporter: "prometheus",
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid:", err)
	} else {
		fmt.Println("Configuration is valid")
	}
	// Output:
	// Configuration is valid
}

func ExampleFetchMeta_SpanName() {
	meta := observe.FetchMeta{
		Namespace: "pax",
		Prefix:    "schedule",
	}
	fmt.Println(meta.SpanName())

	meta2 := observe.FetchMeta{
		Namespace: "pax",
		Prefix:    "airports",
	}
	fmt.Println(meta2.SpanName())
	// Output:
	// cache.fetch.pax.schedule
	// cache.fetch.pax.airports
}

func ExampleCacheMeta_Validate() {
	meta := observe.CacheMeta{Namespace: "pax", Mirrored: true}
	if err := meta.Validate(); err != nil {
		fmt.Println("Invalid:", err)
	} else {
		fmt.Println("Valid cache metadata")
	}

	meta2 := observe.CacheMeta{}
	if errors.Is(meta2.Validate(), observe.ErrMissingNamespace) {
		fmt.Println("Caught: missing namespace")
	}
	// Output:
	// Valid cache metadata
	// Caught: missing namespace
}

func ExampleNewLoggerWithWriter() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	ctx := context.Background()
	logger.Info(ctx, "cache ready", observe.Field{Key: "namespace", Value: "pax"})

	fmt.Println("Logged message contains 'cache ready':", bytes.Contains(buf.Bytes(), []byte("cache ready")))
	// Output:
	// Logged message contains 'cache ready': true
}

func ExampleLogger_WithCache() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	meta := observe.CacheMeta{
		Namespace: "pax",
		Mirrored:  true,
	}

	// Create a tier-scoped logger
	tierLogger := logger.WithCache(meta)

	ctx := context.Background()
	tierLogger.Info(ctx, "sweep completed")

	output := buf.String()
	fmt.Println("Contains cache.namespace:", bytes.Contains([]byte(output), []byte("cache.namespace")))
	fmt.Println("Contains cache.mirrored:", bytes.Contains([]byte(output), []byte("cache.mirrored")))
	// Output:
	// Contains cache.namespace: true
	// Contains cache.mirrored: true
}

func ExampleMiddleware_Wrap() {
	ctx := context.Background()

	// Create observer with disabled exporters for example
	cfg := observe.Config{
		ServiceName: "paxcache",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     observe.LoggingConfig{Enabled: false},
	}
	obs, _ := observe.NewObserver(ctx, cfg)
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	mw, _ := observe.MiddlewareFromObserver(obs)

	// The raw provider call
	fetch := func(ctx context.Context) ([]byte, error) {
		return []byte(`{"airport":"LIS","flights":118}`), nil
	}

	// Wrap with tracing, metrics, and logging
	wrapped := mw.Wrap(observe.FetchMeta{
		Namespace: "pax",
		Prefix:    "schedule",
	}, fetch)

	payload, err := wrapped(ctx)
	if err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println(string(payload))
	}
	// Output:
	// {"airport":"LIS","flights":118}
}

func ExampleParseLogLevel() {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, s := range levels {
		level := observe.ParseLogLevel(s)
		fmt.Printf("%s -> %s\n", s, level)
	}
	// Output:
	// debug -> debug
	// info -> info
	// warn -> warn
	// error -> error
	// unknown -> info
}
