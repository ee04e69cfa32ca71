// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/version"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var ProviderSet = wire.NewSet(ProvideTracerProvider)

// Conf OTLP 上报配置；未启用时 span 只在进程内生成，不导出
type Conf struct {
	Enabled bool
	// Protocol grpc 或 http
	Protocol    string
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	ServiceName string
	// SampleRatio 0~1，默认全部采样
	SampleRatio float64
	// ExportTimeout 单位秒
	ExportTimeout int
}

func (c *Conf) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "sniper"
	}
	if c.Protocol == "" {
		c.Protocol = "grpc"
	}
	if c.Endpoint == "" {
		if c.Protocol == "grpc" {
			c.Endpoint = "localhost:4317"
		} else {
			c.Endpoint = "localhost:4318"
		}
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = 10
	}
}

// ProvideTracerProvider 安装全局 TracerProvider，cleanup 刷出剩余 span
func ProvideTracerProvider(conf Conf) (*sdktrace.TracerProvider, func(), error) {
	conf.SetDefaults()
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(conf.SampleRatio))

	if !conf.Enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
		otel.SetTracerProvider(tp)
		return tp, func() { _ = tp.Shutdown(context.Background()) }, nil
	}

	ctx := context.Background()
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(conf.ServiceName),
		semconv.ServiceVersionKey.String(version.GetVersion().Version),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	timeout := time.Duration(conf.ExportTimeout) * time.Second
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(timeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Infow("tracing initialized", "protocol", conf.Protocol, "endpoint", conf.Endpoint)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warnw("failed to shutdown tracer provider", "error", err)
		}
	}
	return tp, cleanup, nil
}

func newExporter(ctx context.Context, conf Conf) (sdktrace.SpanExporter, error) {
	timeout := time.Duration(conf.ExportTimeout) * time.Second
	switch conf.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(conf.Endpoint),
			otlptracegrpc.WithTimeout(timeout),
		}
		if conf.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(conf.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(conf.Headers))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	case "http":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(conf.Endpoint),
			otlptracehttp.WithTimeout(timeout),
		}
		if conf.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(conf.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(conf.Headers))
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", conf.Protocol)
	}
}
