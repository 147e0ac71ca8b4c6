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
	"sort"
	"sync"
	"time"
)

const (
	RateWindow  = 10
	RateRefresh = 500 * time.Millisecond
)

type (
	// StreamAnalytics tracks the bytes moved in one direction of one channel
	// and a rolling average of the byte rate.
	StreamAnalytics struct {
		mtx       sync.Mutex
		now       func() time.Time
		total     uint64
		prev      uint64
		packets   uint64
		lastFlush time.Time
		lastRate  float64
		deltas    []float64
	}

	Snapshot struct {
		Total   uint64
		Packets uint64
		Rate    float64 // bytes per second
	}
)

func NewStreamAnalytics() *StreamAnalytics {
	return NewStreamAnalyticsWithClock(time.Now)
}

func NewStreamAnalyticsWithClock(now func() time.Time) *StreamAnalytics {
	return &StreamAnalytics{
		now:       now,
		lastFlush: now(),
		deltas:    make([]float64, 0, RateWindow),
	}
}

func (s *StreamAnalytics) Register(size int) {
	s.mtx.Lock()
	s.total += uint64(size)
	s.packets++
	s.mtx.Unlock()
}

// Rate returns the mean of the last RateWindow per-interval rates. Calls
// closer than RateRefresh to the previous refresh return the cached value.
func (s *StreamAnalytics) Rate() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.rate()
}

func (s *StreamAnalytics) rate() float64 {
	now := s.now()
	elapsed := now.Sub(s.lastFlush)
	if elapsed < RateRefresh {
		return s.lastRate
	}
	delta := float64(s.total-s.prev) / elapsed.Seconds()

	s.deltas = append(s.deltas, delta)
	if len(s.deltas) > RateWindow {
		s.deltas = s.deltas[1:]
	}
	s.prev = s.total
	s.lastFlush = now

	var sum float64
	for _, d := range s.deltas {
		sum += d
	}
	s.lastRate = sum / float64(len(s.deltas))
	return s.lastRate
}

func (s *StreamAnalytics) Total() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.total
}

func (s *StreamAnalytics) Snapshot() (snap Snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	snap.Rate = s.rate()
	snap.Total = s.total
	snap.Packets = s.packets
	return
}

// RateRow is one line of the analytics table.
type RateRow struct {
	Channel int
	Rx      Snapshot
	Tx      Snapshot
}

func PrintRateTable(w io.Writer, rows []RateRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Channel < rows[j].Channel })
	fmt.Fprintln(w,
		`
 channel |  rx bytes/s  |   rx total   |  rx packets  |  tx bytes/s  |   tx total   |  tx packets
---------+--------------+--------------+--------------+--------------+--------------+-------------`)
	for _, r := range rows {
		ch := fmt.Sprintf("%d", r.Channel)
		if r.Channel < 0 {
			ch = "discard"
		}
		fmt.Fprintf(w, "%8s %14.1f %14d %14d %14.1f %14d %13d\n",
			ch, r.Rx.Rate, r.Rx.Total, r.Rx.Packets, r.Tx.Rate, r.Tx.Total, r.Tx.Packets)
	}
}
