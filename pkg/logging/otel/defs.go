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
	"sync"

	"go.opentelemetry.io/otel/metric/instrument/syncint64"
)

//*************************** Constants ****************************

type CMetric int

const (
	LinkBytes CMetric = CMetric(iota)
	Discards
	DiscardBytes
	StateChange
	RspResult
)

const (
	Link      = string("link")
	Direction = string("direction")
	Channel   = string("channel")
	State     = string("state")
	Endpoint  = string("endpoint")
	Status    = string("status")
	Result    = string("result")
)

const (
	DirRx = string("rx")
	DirTx = string("tx")
)

// OTEl Status
const (
	StatusSuccess string = "SUCCESS"
	StatusError   string = "ERROR"
	StatusTimeout string = "TIMEOUT"
	StatusNack    string = "NACK"
)

const EROS_METRIC_PREFIX = "eros.link."
const MeterName = "eros-link-meter"

//****************************** variables ***************************

var (
	ackLatencyHistogramOnce sync.Once
	connectHistogramOnce    sync.Once
	linkBytesCounterOnce    sync.Once
	discardsCounterOnce     sync.Once
	discardBytesCounterOnce sync.Once
	stateChangeCounterOnce  sync.Once
	rspResultCounterOnce    sync.Once
	rateGaugeOnce           sync.Once
)

var ackLatencyHistogram syncint64.Histogram
var connectHistogram syncint64.Histogram

type Tags struct {
	TagName  string
	TagValue string
}

type countMetric struct {
	metricName    string
	metricDesc    string
	counter       syncint64.Counter
	createCounter *sync.Once
}

var countMetricMap map[CMetric]*countMetric = map[CMetric]*countMetric{
	LinkBytes:    {"bytes", "Bytes moved over a link by direction and channel", nil, &linkBytesCounterOnce},
	Discards:     {"discards", "Packets discarded by framing, checksum or version checks", nil, &discardsCounterOnce},
	DiscardBytes: {"discard_bytes", "Wire bytes of discarded packets", nil, &discardBytesCounterOnce},
	StateChange:  {"state_change", "Transport state transitions", nil, &stateChangeCounterOnce},
	RspResult:    {"rsp_result", "Acknowledged sends by outcome", nil, &rspResultCounterOnce},
}
