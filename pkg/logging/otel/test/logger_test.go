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

// Exercises the eros metrics against a local mock OTLP/HTTP collector.
package otel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/logging/otel"
	config "eros/pkg/logging/otel/config"
)

func TestLinkMetricsExported(t *testing.T) {
	mc := runMockCollector(t)
	defer mc.MustStop(t)

	assert.False(t, otel.IsEnabled())
	// recording before the provider exists is a no-op
	otel.RecordBytes("before", otel.DirTx, 1, 10)

	cfg := &config.Config{
		Host:       mc.host,
		Port:       mc.port,
		Enabled:    true,
		Resolution: 1,
		AppName:    "eros-test",
	}
	require.NoError(t, otel.Initialize(cfg))
	require.True(t, otel.IsEnabled())

	otel.RecordBytes("link-a", otel.DirTx, 1, 100)
	otel.RecordBytes("link-a", otel.DirRx, 1, 60)
	otel.RecordDiscard("link-a", 7)
	otel.RecordStateChange("link-a", "CONNECTED")
	otel.RecordAckLatency("link-a", otel.StatusSuccess, 12*time.Millisecond)
	otel.RecordConnect("127.0.0.1:9", otel.StatusError, 3*time.Millisecond)

	// shutdown flushes the pending collection
	otel.Finalize()
	assert.False(t, otel.IsEnabled())

	names := mc.MetricNames()
	for _, n := range []string{"bytes", "discards", "discard_bytes", "state_change", "ack_latency", "rsp_result", "connect"} {
		assert.Contains(t, names, otel.PopulateErosMetricNamePrefix(n))
	}

	if m, ok := names[otel.PopulateErosMetricNamePrefix("ack_latency")]; ok {
		dps := m.GetHistogram().GetDataPoints()
		require.NotEmpty(t, dps)
		assert.Equal(t, float64(12), dps[0].GetSum())
	}
}
