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
	"strconv"

	"eros/third_party/forked/golang/glog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/asyncfloat64"
	"go.opentelemetry.io/otel/metric/unit"
)

type (
	RateSample struct {
		Channel   int
		Direction string
		Rate      float64
	}

	// RateSource is polled on every collection for per-channel byte rates.
	RateSource interface {
		ID() string
		RateSamples() []RateSample
	}
)

var rateGauge asyncfloat64.Gauge

// RegisterRateGauge exports the rolling byte rates of src as an async gauge.
func RegisterRateGauge(src RateSource) {
	if !IsEnabled() {
		return
	}
	meter := global.Meter(MeterName)
	rateGaugeOnce.Do(func() {
		var err error
		rateGauge, err = meter.AsyncFloat64().Gauge(
			PopulateErosMetricNamePrefix("rate"),
			instrument.WithUnit(unit.Bytes),
			instrument.WithDescription("Rolling byte rate per channel and direction"),
		)
		if err != nil {
			glog.Errorf("rate gauge: %s", err)
		}
	})
	if rateGauge == nil {
		return
	}
	id := src.ID()
	if err := meter.RegisterCallback(
		[]instrument.Asynchronous{rateGauge},
		func(ctx context.Context) {
			for _, s := range src.RateSamples() {
				rateGauge.Observe(ctx, s.Rate,
					attribute.String(Link, id),
					attribute.String(Direction, s.Direction),
					attribute.String(Channel, strconv.Itoa(s.Channel)))
			}
		},
	); err != nil {
		glog.Warningf("rate gauge callback: %s", err)
	}
}
