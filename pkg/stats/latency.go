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

package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type (
	LatencyStat struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		total     time.Duration
		numErrors int64
	}

	// LatencyStats keeps one LatencyStat per outcome plus an overall one.
	LatencyStats struct {
		mtx   sync.Mutex
		all   LatencyStat
		kinds map[string]*LatencyStat
		order []string
	}

	LatencyData struct {
		Count        int64
		Errors       int64
		AvgLatency   time.Duration
		MinLatency   time.Duration
		MaxLatency   time.Duration
		P50Latency   time.Duration
		P95Latency   time.Duration
		P99Latency   time.Duration
		P9999Latency time.Duration
	}
)

func (s *LatencyStat) init() {
	if s.hist == nil {
		s.hist = hdrhistogram.New(1, int64(3600*time.Second), 3)
	}
}

func (s *LatencyStat) Put(tm time.Duration, err error) {
	s.mtx.Lock()
	s.init()
	if rerr := s.hist.RecordValue(int64(tm)); rerr != nil {
		s.hist.RecordValue(s.hist.HighestTrackableValue())
	}
	s.total += tm
	if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *LatencyStat) GetStats() (stat LatencyData) {
	s.mtx.Lock()
	s.init()
	stat.Count = s.hist.TotalCount()
	stat.Errors = s.numErrors
	stat.MinLatency = time.Duration(s.hist.Min())
	stat.MaxLatency = time.Duration(s.hist.Max())
	stat.P50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.P95Latency = time.Duration(s.hist.ValueAtQuantile(95.))
	stat.P99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	stat.P9999Latency = time.Duration(s.hist.ValueAtQuantile(99.99))
	if stat.Count != 0 {
		stat.AvgLatency = s.total / time.Duration(stat.Count)
	}
	s.mtx.Unlock()
	return
}

func (s *LatencyStat) Reset() {
	s.mtx.Lock()
	s.init()
	s.hist.Reset()
	s.total = 0
	s.numErrors = 0
	s.mtx.Unlock()
}

func NewLatencyStats() *LatencyStats {
	return &LatencyStats{kinds: make(map[string]*LatencyStat)}
}

func (s *LatencyStats) Put(kind string, tm time.Duration, err error) {
	s.all.Put(tm, err)
	s.kind(kind).Put(tm, err)
}

func (s *LatencyStats) kind(kind string) *LatencyStat {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	st, ok := s.kinds[kind]
	if !ok {
		st = &LatencyStat{}
		s.kinds[kind] = st
		s.order = append(s.order, kind)
	}
	return st
}

func (s *LatencyStats) All() LatencyData {
	return s.all.GetStats()
}

func (s *LatencyStats) Get(kind string) LatencyData {
	s.mtx.Lock()
	st, ok := s.kinds[kind]
	s.mtx.Unlock()
	if !ok {
		return LatencyData{}
	}
	return st.GetStats()
}

func (s *LatencyStats) Reset() {
	s.all.Reset()
	s.mtx.Lock()
	s.kinds = make(map[string]*LatencyStat)
	s.order = nil
	s.mtx.Unlock()
}

func (s *LatencyStats) PrettyPrint(w io.Writer) {
	msfunc := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}

	fmt.Fprintln(w,
		`
                                       round trip latency                                  |  number of |            |
 average   | min        | max        |        50% |      95%   |      99%   |     99.99% |  requests  | percentage | outcome
-----------+------------+------------+------------+------------+------------+------------+------------+------------+----------`)
	wstatFunc := func(stat *LatencyData, percentage float64, kind string) {
		fmt.Fprintf(w, "%11s %12s %12s %12s %12s %12s %12s %12d %12.2f %s\n",
			msfunc(stat.AvgLatency), msfunc(stat.MinLatency), msfunc(stat.MaxLatency), msfunc(stat.P50Latency),
			msfunc(stat.P95Latency), msfunc(stat.P99Latency), msfunc(stat.P9999Latency),
			stat.Count, percentage, kind)
	}
	all := s.all.GetStats()

	s.mtx.Lock()
	order := append([]string(nil), s.order...)
	s.mtx.Unlock()
	for _, k := range order {
		stat := s.Get(k)
		if stat.Count != 0 {
			wstatFunc(&stat, 100.0*float64(stat.Count)/float64(all.Count), k)
		}
	}
	fmt.Fprintln(w,
		"-----------+------------+------------+------------+------------+------------+------------+------------+------------+----------")
	wstatFunc(&all, 100.0, "all")
}
