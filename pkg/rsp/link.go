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


package rsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eros/pkg/errors"
	"eros/pkg/logging/otel"
	"eros/pkg/stats"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

var (
	DefaultConfig = Config{
		Name:    "rsp",
		Timeout: util.Duration{Duration: 5 * time.Second},
	}

	timeoutData   = []byte("Timeout")
	noHandlerData = []byte("no handler")
	panicData     = []byte("handler panic")
)

type (
	// Port moves whole packets. WritePacket sends one, the handler is called
	// for every packet received.
	Port interface {
		WritePacket(packet []byte) error
		SetPacketHandler(h func(packet []byte))
	}

	// HandlerFunc serves an incoming data frame. For DATA_ACK frames ok picks
	// RESP_ACK or RESP_NACK and resp is carried back as the reply data.
	// It runs on the port's receive goroutine and must not wait on Send of
	// the same link.
	HandlerFunc func(data []byte) (ok bool, resp []byte)

	Config struct {
		Name string
		// How long Send waits for the reply to a DATA_ACK frame.
		Timeout util.Duration
	}

	Response struct {
		OK   bool
		Data []byte
	}

	Counters struct {
		Sent     int64
		Acked    int64
		Nacked   int64
		TimedOut int64
		Received int64
		Dropped  int64
		Late     int64
	}

	Link struct {
		name    string
		config  Config
		port    Port
		seq     util.SeqCounter
		pending pendingTable

		hmtx    sync.RWMutex
		handler HandlerFunc

		latency  *stats.LatencyStats
		sent     util.AtomicCounter
		acked    util.AtomicCounter
		nacked   util.AtomicCounter
		timedOut util.AtomicCounter
		received util.AtomicCounter
		dropped  util.AtomicCounter
		late     util.AtomicCounter
	}
)

func (conf *Config) SetDefaultIfNotDefined() (set bool) {
	if conf.Name == "" {
		set = true
		conf.Name = DefaultConfig.Name
	}
	if conf.Timeout.Duration <= 0 {
		set = true
		conf.Timeout = DefaultConfig.Timeout
	}
	return
}

func (conf *Config) Dump() {
	glog.Infof("Reliability.Name: %s", conf.Name)
	glog.Infof("Reliability.Timeout: %s", conf.Timeout.Duration)
}

// NewLink takes over the packet handler of port. A nil config takes
// DefaultConfig.
func NewLink(port Port, config *Config) *Link {
	var c Config
	if config != nil {
		c = *config
	}
	c.SetDefaultIfNotDefined()
	l := &Link{
		name:    c.Name,
		config:  c,
		port:    port,
		latency: stats.NewLatencyStats(),
	}
	port.SetPacketHandler(l.receive)
	return l
}

func (l *Link) Name() string {
	return l.name
}

func (l *Link) SetHandler(h HandlerFunc) {
	l.hmtx.Lock()
	l.handler = h
	l.hmtx.Unlock()
}

// Send transmits data. Without requestAck it returns as soon as the frame is
// written. Otherwise it waits for the peer's reply, the configured timeout
// or ctx, whichever comes first. A timeout yields ErrTimeout together with a
// not-OK Response carrying "Timeout".
func (l *Link) Send(ctx context.Context, data []byte, requestAck bool) (Response, error) {
	return l.send(ctx, data, requestAck, l.config.Timeout.Duration)
}

func (l *Link) send(ctx context.Context, data []byte, requestAck bool, timeout time.Duration) (Response, error) {
	if !requestAck {
		f := &Frame{Header: Header{Seq: NoAckSeq, Type: DATA_NOACK}, Data: data}
		if err := l.port.WritePacket(f.Encode()); err != nil {
			return Response{}, err
		}
		l.sent.Inc()
		return Response{OK: true}, nil
	}

	seq := l.seq.Next()
	ch, err := l.pending.register(seq)
	if err != nil {
		return Response{}, fmt.Errorf("%s seq %d: %w", l.name, seq, err)
	}
	f := &Frame{Header: Header{Seq: seq, Type: DATA_ACK}, Data: data}
	start := time.Now()
	if err = l.port.WritePacket(f.Encode()); err != nil {
		l.pending.cancel(seq, ch)
		return Response{}, err
	}
	l.sent.Inc()
	if glog.LOG_VERBOSE {
		glog.Verbosef("%s: tx %s %d bytes", l.name, f.Header, len(data))
	}

	timer := util.NewTimerWrapper(timeout)
	timer.Reset(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		rtt := time.Since(start)
		if resp.Type == RESP_ACK {
			l.acked.Inc()
			l.latency.Put(otel.StatusSuccess, rtt, nil)
			otel.RecordAckLatency(l.name, otel.StatusSuccess, rtt)
			return Response{OK: true, Data: resp.Data}, nil
		}
		l.nacked.Inc()
		l.latency.Put(otel.StatusNack, rtt, nil)
		otel.RecordAckLatency(l.name, otel.StatusNack, rtt)
		return Response{OK: false, Data: resp.Data}, nil

	case <-timer.GetTimeoutCh():
		timer.Fired()
		l.pending.cancel(seq, ch)
		rtt := time.Since(start)
		l.timedOut.Inc()
		l.latency.Put(otel.StatusTimeout, rtt, errors.ErrTimeout)
		otel.RecordAckLatency(l.name, otel.StatusTimeout, rtt)
		glog.Errorf("%s: no response to seq %d within %s", l.name, seq, timeout)
		return Response{OK: false, Data: timeoutData}, errors.ErrTimeout

	case <-ctx.Done():
		l.pending.cancel(seq, ch)
		return Response{}, ctx.Err()
	}
}

// SendWithAck sends data expecting a reply within timeout, overriding the
// configured one when positive.
func (l *Link) SendWithAck(data []byte, timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = l.config.Timeout.Duration
	}
	return l.send(context.Background(), data, true, timeout)
}

func (l *Link) receive(packet []byte) {
	f, err := DecodeFrame(packet)
	if err != nil {
		l.dropped.Inc()
		glog.Warningf("%s: dropped frame: %s", l.name, err)
		return
	}
	l.received.Inc()
	if glog.LOG_VERBOSE {
		glog.Verbosef("%s: rx %s %d bytes", l.name, f.Header, len(f.Data))
	}

	switch {
	case f.Type.IsData():
		ok, resp := l.serve(f.Data)
		if f.Type != DATA_ACK {
			return
		}
		reply := &Frame{Header: Header{Seq: f.Seq, Type: RESP_NACK}, Data: resp}
		if ok {
			reply.Type = RESP_ACK
		}
		if err := l.port.WritePacket(reply.Encode()); err != nil {
			glog.Warningf("%s: reply to seq %d: %s", l.name, f.Seq, err)
		}
	case f.Type.IsResponse():
		// the frame outlives this call
		f.Data = append([]byte(nil), f.Data...)
		if !l.pending.deliver(f) {
			l.late.Inc()
			if glog.LOG_DEBUG {
				glog.Debugf("%s: unclaimed %s", l.name, f.Header)
			}
		}
	}
}

func (l *Link) serve(data []byte) (ok bool, resp []byte) {
	l.hmtx.RLock()
	h := l.handler
	l.hmtx.RUnlock()
	if h == nil {
		return false, noHandlerData
	}
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("%s: handler panic: %v", l.name, r)
			ok, resp = false, panicData
		}
	}()
	return h(data)
}

func (l *Link) Counters() Counters {
	return Counters{
		Sent:     l.sent.Get(),
		Acked:    l.acked.Get(),
		Nacked:   l.nacked.Get(),
		TimedOut: l.timedOut.Get(),
		Received: l.received.Get(),
		Dropped:  l.dropped.Get(),
		Late:     l.late.Get(),
	}
}

// LatencyStats holds the round trip of every acknowledged send, keyed by
// outcome.
func (l *Link) LatencyStats() *stats.LatencyStats {
	return l.latency
}

// Outstanding returns the number of sends waiting for a reply.
func (l *Link) Outstanding() int {
	return l.pending.outstanding()
}
