//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package otel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	otelCfg "eros/pkg/logging/otel/config"
	"eros/third_party/forked/golang/glog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"
	"go.opentelemetry.io/otel/metric/unit"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	meterProvider *metric.MeterProvider
	providerMu    sync.RWMutex
)

func Initialize(args ...interface{}) (err error) {
	sz := len(args)
	if sz == 0 {
		err = fmt.Errorf("otel config argument not as expected")
		glog.Error(err)
		return
	}
	var c *otelCfg.Config
	var ok bool
	if c, ok = args[0].(*otelCfg.Config); !ok {
		err = fmt.Errorf("wrong argument type")
		glog.Error(err)
		return
	}
	c.Validate()
	if c.Enabled {
		c.Dump()
		err = InitMetricProvider(c)
		if err == nil {
			glog.Info("eros otel initialized")
		}
	}
	return
}

func Finalize() {
	providerMu.Lock()
	p := meterProvider
	meterProvider = nil
	providerMu.Unlock()
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		glog.Warningf("otel shutdown: %s", err)
	}
}

func InitMetricProvider(config *otelCfg.Config) error {
	providerMu.Lock()
	defer providerMu.Unlock()
	if meterProvider != nil {
		glog.Info("meter provider already initialized")
		return nil
	}
	config.SetDefaultIfNotDefined()
	otelCfg.OtelConfig = config

	ctx := context.Background()

	ackView := metric.NewView(
		metric.Instrument{
			Name:  "*ack_latency*",
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: aggregation.ExplicitBucketHistogram{
				Boundaries: config.HistogramBuckets.AckLatency,
			},
		})
	connectView := metric.NewView(
		metric.Instrument{
			Name:  "*connect*",
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: aggregation.ExplicitBucketHistogram{
				Boundaries: config.HistogramBuckets.Connect,
			},
		})

	provider, err := NewMeterProvider(ctx, *config, ackView, connectView)
	if err != nil {
		glog.Errorf("otel meter provider: %s", err)
		return err
	}
	meterProvider = provider
	global.SetMeterProvider(provider)
	return nil
}

func NewMeterProvider(ctx context.Context, cfg otelCfg.Config, vis ...metric.View) (*metric.MeterProvider, error) {
	exp, err := NewHTTPExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res := getResourceInfo(cfg.AppName, cfg.Environment)

	reader := metric.NewPeriodicReader(exp, metric.WithInterval(time.Duration(cfg.Resolution)*time.Second))
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
		metric.WithView(vis...),
	), nil
}

func NewHTTPExporter(ctx context.Context, cfg otelCfg.Config) (metric.Exporter, error) {
	var deltaTemporalitySelector = func(metric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Host + ":" + fmt.Sprintf("%d", cfg.Port)),
		otlpmetrichttp.WithURLPath(cfg.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithCompression(otlpmetrichttp.NoCompression),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  240 * time.Second,
		}),
	}
	if !cfg.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func IsEnabled() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return meterProvider != nil
}

func GetHistogramForAckLatency() (syncint64.Histogram, error) {
	var err error
	ackLatencyHistogramOnce.Do(func() {
		meter := global.Meter(MeterName)
		ackLatencyHistogram, err = meter.SyncInt64().Histogram(
			PopulateErosMetricNamePrefix("ack_latency"),
			instrument.WithDescription("Round trip of acknowledged sends"),
			instrument.WithUnit(unit.Milliseconds),
		)
	})
	if ackLatencyHistogram == nil && err == nil {
		err = errors.New("histogram not ready")
	}
	return ackLatencyHistogram, err
}

func GetHistogramForConnect() (syncint64.Histogram, error) {
	var err error
	connectHistogramOnce.Do(func() {
		meter := global.Meter(MeterName)
		connectHistogram, err = meter.SyncInt64().Histogram(
			PopulateErosMetricNamePrefix("connect"),
			instrument.WithDescription("Time taken to establish a transport connection"),
			instrument.WithUnit(unit.Milliseconds),
		)
	})
	if connectHistogram == nil && err == nil {
		err = errors.New("histogram not ready")
	}
	return connectHistogram, err
}

func GetCounter(counterName CMetric) (syncint64.Counter, error) {
	if counterMetric, ok := countMetricMap[counterName]; ok {
		counterMetric.createCounter.Do(func() {
			meter := global.Meter(MeterName)
			counterMetric.counter, _ = meter.SyncInt64().Counter(
				PopulateErosMetricNamePrefix(counterMetric.metricName),
				instrument.WithDescription(counterMetric.metricDesc),
			)
		})
		if counterMetric.counter != nil {
			return counterMetric.counter, nil
		}
		return nil, errors.New("counter object not ready")
	}
	return nil, errors.New("no such counter exists")
}

// RecordBytes counts n bytes sent (DirTx) or received (DirRx) on a channel.
func RecordBytes(link string, dir string, channel int, n int) {
	RecordCountN(LinkBytes, int64(n), []Tags{{Link, link}, {Direction, dir}, {Channel, strconv.Itoa(channel)}})
}

func RecordDiscard(link string, wireSize int) {
	tags := []Tags{{Link, link}}
	RecordCount(Discards, tags)
	RecordCountN(DiscardBytes, int64(wireSize), tags)
}

func RecordStateChange(link string, state string) {
	RecordCount(StateChange, []Tags{{Link, link}, {State, state}})
}

func RecordAckLatency(link string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	if h, err := GetHistogramForAckLatency(); err == nil {
		h.Record(context.Background(), latency.Milliseconds(),
			attribute.String(Link, link),
			attribute.String(Status, status))
	}
	RecordCount(RspResult, []Tags{{Link, link}, {Result, status}})
}

func RecordConnect(endpoint string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	if h, err := GetHistogramForConnect(); err == nil {
		h.Record(context.Background(), latency.Milliseconds(),
			attribute.String(Endpoint, endpoint),
			attribute.String(Status, status))
	}
}

func RecordCount(counterName CMetric, tags []Tags) {
	RecordCountN(counterName, 1, tags)
}

func RecordCountN(counterName CMetric, n int64, tags []Tags) {
	if !IsEnabled() {
		return
	}
	ctx := context.Background()
	if counter, err := GetCounter(counterName); err == nil {
		if len(tags) != 0 {
			counter.Add(ctx, n, covertTagsToOTELAttributes(tags)...)
		} else {
			counter.Add(ctx, n)
		}
	} else {
		glog.Error(err)
	}
}

func covertTagsToOTELAttributes(tags []Tags) (attr []attribute.KeyValue) {
	attr = make([]attribute.KeyValue, len(tags))
	for i := 0; i < len(tags); i++ {
		attr[i] = attribute.String(tags[i].TagName, tags[i].TagValue)
	}
	return
}

func PopulateErosMetricNamePrefix(metricName string) string {
	return EROS_METRIC_PREFIX + metricName
}

func getResourceInfo(appName string, env string) *resource.Resource {
	hostname, _ := os.Hostname()

	return resource.NewWithAttributes(semconv.SchemaURL,
		semconv.HostNameKey.String(hostname),
		semconv.ServiceNameKey.String(appName),
		semconv.DeploymentEnvironmentKey.String(env),
		attribute.String("application", appName),
	)
}
