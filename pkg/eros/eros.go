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

/*
Package eros implements the dispatch core: one transport, the layer stack
above it, a receive goroutine delivering routed packets to per-channel
handlers, and traffic analytics.

Outbound:  payload -> routing -> verification? -> framing? -> transport
Inbound:   transport -> framing? -> verification? -> raw handler -> routing
           -> channel handler | catch-all handler

Packets failing framing, verification or the version check are counted on
channel -1 and their bytes kept in a bounded discard buffer.
*/
package eros

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eros/pkg/errors"
	"eros/pkg/logging/otel"
	"eros/pkg/proto"
	"eros/pkg/stats"
	"eros/pkg/transport"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

const (
	// DiscardChannel is the analytics slot for discarded bytes.
	DiscardChannel = -1
	discardLogTail = 64
)

type (
	ChannelAnalytics struct {
		Rx stats.Snapshot
		Tx stats.Snapshot
	}

	streamPair struct {
		rx *stats.StreamAnalytics
		tx *stats.StreamAnalytics
	}

	Eros struct {
		id       string
		name     string
		config   Config
		t        transport.Transport
		caps     transport.Capabilities
		framer   *proto.Framer
		verifier *proto.Verifier
		epoch    uint64

		hmtx     sync.RWMutex
		channels map[uint8]ChannelHandler
		catchAll CatchAllHandler
		raw      RawHandler

		amtx      sync.Mutex
		analytics map[int]*streamPair

		dmtx         sync.Mutex
		discard      []byte
		discardCount util.AtomicCounter

		closeCh   chan struct{}
		doneCh    chan struct{}
		closeOnce sync.Once
	}
)

// New starts the receive goroutine on t. A nil config takes DefaultConfig.
func New(t transport.Transport, config *Config) *Eros {
	var c Config
	if config != nil {
		c = *config
	}
	c.SetDefaultIfNotDefined()

	e := &Eros{
		id:        util.NewInstanceID(),
		config:    c,
		t:         t,
		caps:      t.Capabilities(),
		channels:  make(map[uint8]ChannelHandler),
		analytics: make(map[int]*streamPair),
		closeCh:   make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	e.name = fmt.Sprintf("%s[%s]", c.Name, e.id[:8])
	if e.caps.Framing {
		e.framer = proto.NewFramer()
		e.framer.MaxCarryOver = c.MaxCarryOver
	}
	if e.caps.Verification {
		e.verifier = proto.NewVerifier()
	}
	if glog.LOG_DEBUG {
		glog.Debugf("%s: started, framing=%t verification=%t", e.name, e.caps.Framing, e.caps.Verification)
	}
	go e.receiveLoop()
	return e
}

func (e *Eros) ID() string {
	return e.id
}

func (e *Eros) Name() string {
	return e.name
}

func (e *Eros) Transport() transport.Transport {
	return e.t
}

// Attach sets the handler of channel, replacing any earlier one. A nil
// handler detaches.
func (e *Eros) Attach(channel int, h ChannelHandler) error {
	if !proto.ValidChannel(channel) {
		return fmt.Errorf("attach %d: %w", channel, errors.ErrInvalidChannel)
	}
	e.hmtx.Lock()
	defer e.hmtx.Unlock()
	if h == nil {
		delete(e.channels, uint8(channel))
	} else {
		e.channels[uint8(channel)] = h
	}
	return nil
}

func (e *Eros) AttachCatchAll(h CatchAllHandler) {
	e.hmtx.Lock()
	e.catchAll = h
	e.hmtx.Unlock()
}

func (e *Eros) AttachRaw(h RawHandler) {
	e.hmtx.Lock()
	e.raw = h
	e.hmtx.Unlock()
}

// Encode runs payload through the outbound layers without sending it.
func (e *Eros) Encode(channel int, payload []byte) ([]byte, error) {
	if !proto.ValidChannel(channel) {
		return nil, fmt.Errorf("transmit %d: %w", channel, errors.ErrInvalidChannel)
	}
	packet, err := proto.Pack(payload, uint8(channel), false)
	if err != nil {
		return nil, err
	}
	if e.verifier != nil {
		packet = e.verifier.Pack(packet)
	}
	if e.framer != nil {
		packet = e.framer.Pack(packet)
	}
	return packet, nil
}

func (e *Eros) Transmit(channel int, payload []byte) error {
	packet, err := e.Encode(channel, payload)
	if err != nil {
		return err
	}
	if err = e.t.Write(packet); err != nil {
		return err
	}
	e.stream(channel).tx.Register(len(packet))
	otel.RecordBytes(e.name, otel.DirTx, channel, len(packet))
	if glog.LOG_VERBOSE {
		glog.Verbosef("%s: tx ch=%d %d bytes", e.name, channel, len(packet))
	}
	return nil
}

func (e *Eros) stream(channel int) *streamPair {
	e.amtx.Lock()
	defer e.amtx.Unlock()
	p, ok := e.analytics[channel]
	if !ok {
		p = &streamPair{
			rx: stats.NewStreamAnalyticsWithClock(e.config.Clock),
			tx: stats.NewStreamAnalyticsWithClock(e.config.Clock),
		}
		e.analytics[channel] = p
	}
	return p
}

func (e *Eros) receiveLoop() {
	defer close(e.doneCh)
	for {
		chunk, err := e.t.Read()
		if err != nil {
			if e.t.State() == transport.DEAD || e.isClosing() {
				glog.Infof("%s: transport closed, receive loop done", e.name)
				return
			}
			glog.Warningf("%s: read: %s", e.name, err)
			select {
			case <-e.closeCh:
				return
			case <-time.After(e.config.ReadErrorBackoff.Duration):
			}
			continue
		}
		e.checkEpoch()
		e.process(chunk)
	}
}

// checkEpoch drops a partial frame left over from a previous connection.
func (e *Eros) checkEpoch() {
	epoch := e.t.Epoch()
	if epoch == e.epoch {
		return
	}
	e.epoch = epoch
	if e.framer != nil && e.framer.Pending() > 0 {
		glog.Infof("%s: reconnected, dropped %d bytes of a partial frame", e.name, e.framer.Pending())
		e.framer.Reset()
	}
}

func (e *Eros) isClosing() bool {
	select {
	case <-e.closeCh:
		return true
	default:
		return false
	}
}

// process runs one transport chunk through the inbound layers.
func (e *Eros) process(chunk []byte) {
	if e.framer == nil {
		e.processPacket(chunk, chunk, len(chunk))
		return
	}
	for _, seg := range e.framer.Unpack(chunk) {
		if seg.Err != nil {
			e.discardPacket(seg.Raw, seg.WireSize(), seg.Err)
			continue
		}
		e.processPacket(seg.Payload, seg.Raw, seg.WireSize())
	}
}

func (e *Eros) processPacket(packet []byte, raw []byte, wireSize int) {
	if e.verifier != nil {
		var err error
		if packet, err = e.verifier.Unpack(packet); err != nil {
			e.discardPacket(raw, wireSize, err)
			return
		}
	}

	e.hmtx.RLock()
	rawHandler := e.raw
	e.hmtx.RUnlock()
	if rawHandler != nil {
		e.invoke(func() { rawHandler.HandleRaw(packet) })
	}

	header, payload, err := proto.Unpack(packet)
	if err != nil {
		e.discardPacket(raw, wireSize, err)
		return
	}
	channel := int(header.Channel)
	e.stream(channel).rx.Register(wireSize)
	otel.RecordBytes(e.name, otel.DirRx, channel, wireSize)
	if glog.LOG_VERBOSE {
		glog.Verbosef("%s: rx %s %d bytes", e.name, header, wireSize)
	}

	e.hmtx.RLock()
	h := e.channels[header.Channel]
	catchAll := e.catchAll
	e.hmtx.RUnlock()

	if h != nil {
		e.invoke(func() { h.HandlePacket(payload) })
	} else if catchAll != nil {
		e.invoke(func() { catchAll.HandlePacket(header.Channel, payload) })
	}
}

// invoke keeps a panicking handler from taking the receive loop down.
func (e *Eros) invoke(f func()) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("%s: handler panic: %v", e.name, r)
		}
	}()
	f()
}

func (e *Eros) discardPacket(raw []byte, wireSize int, cause error) {
	e.dmtx.Lock()
	e.discard = append(e.discard, raw...)
	if max := e.config.MaxDiscardBuffer; len(e.discard) > max {
		e.discard = append([]byte(nil), e.discard[len(e.discard)-max:]...)
	}
	e.dmtx.Unlock()

	e.discardCount.Inc()
	e.stream(DiscardChannel).rx.Register(wireSize)
	otel.RecordDiscard(e.name, wireSize)
	if glog.LOG_DEBUG {
		glog.Debugf("%s: discarded %d bytes: %s", e.name, wireSize, cause)
	}
}

// Analytics returns the rx and tx figures of channel (DiscardChannel for
// discards). Channels without traffic report zero values.
func (e *Eros) Analytics(channel int) (rx stats.Snapshot, tx stats.Snapshot) {
	e.amtx.Lock()
	p, ok := e.analytics[channel]
	e.amtx.Unlock()
	if !ok {
		return
	}
	return p.rx.Snapshot(), p.tx.Snapshot()
}

func (e *Eros) AnalyticsAll() map[int]ChannelAnalytics {
	e.amtx.Lock()
	pairs := make(map[int]*streamPair, len(e.analytics))
	for ch, p := range e.analytics {
		pairs[ch] = p
	}
	e.amtx.Unlock()

	out := make(map[int]ChannelAnalytics, len(pairs))
	for ch, p := range pairs {
		out[ch] = ChannelAnalytics{Rx: p.rx.Snapshot(), Tx: p.tx.Snapshot()}
	}
	return out
}

// RateRows flattens AnalyticsAll for stats.PrintRateTable.
func (e *Eros) RateRows() []stats.RateRow {
	all := e.AnalyticsAll()
	rows := make([]stats.RateRow, 0, len(all))
	for ch, a := range all {
		rows = append(rows, stats.RateRow{Channel: ch, Rx: a.Rx, Tx: a.Tx})
	}
	return rows
}

// RateSamples feeds the otel rate gauge.
func (e *Eros) RateSamples() []otel.RateSample {
	all := e.AnalyticsAll()
	samples := make([]otel.RateSample, 0, 2*len(all))
	for ch, a := range all {
		samples = append(samples,
			otel.RateSample{Channel: ch, Direction: otel.DirRx, Rate: a.Rx.Rate},
			otel.RateSample{Channel: ch, Direction: otel.DirTx, Rate: a.Tx.Rate})
	}
	return samples
}

// Discarded returns the number of bytes waiting in the discard buffer.
func (e *Eros) Discarded() int {
	e.dmtx.Lock()
	defer e.dmtx.Unlock()
	return len(e.discard)
}

// DiscardCount returns the number of packets discarded so far.
func (e *Eros) DiscardCount() int64 {
	return e.discardCount.Get()
}

func (e *Eros) DrainDiscarded() []byte {
	e.dmtx.Lock()
	defer e.dmtx.Unlock()
	b := e.discard
	e.discard = nil
	return b
}

func (e *Eros) LogDiscarded() {
	b := e.DrainDiscarded()
	if len(b) == 0 {
		return
	}
	glog.Warningf("%s: %d bytes were discarded due to encoding/decoding errors", e.name, len(b))
	glog.Warningf("%s: last %d bytes of discarded data: %s", e.name, discardLogTail, util.HexTail(b, discardLogTail))
}

func (e *Eros) State() transport.State {
	return e.t.State()
}

func (e *Eros) WaitForState(target transport.State, timeout time.Duration) bool {
	return e.t.WaitForState(target, timeout)
}

// Done is closed when the receive loop has ended.
func (e *Eros) Done() <-chan struct{} {
	return e.doneCh
}

// Shutdown closes the transport without waiting for the receive loop. It is
// the one to call from a handler, which runs on the receive goroutine.
func (e *Eros) Shutdown() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closeCh)
		err = e.t.Close()
	})
	return err
}

// Close closes the transport and waits for the receive loop to finish.
// Handlers must use Shutdown instead: Close would wait on their own loop.
func (e *Eros) Close() error {
	err := e.Shutdown()
	<-e.doneCh
	return err
}

// Spin blocks until ctx is done or the receive loop ends, logging the
// discard buffer every DiscardLogInterval when logDiscarded is set.
func (e *Eros) Spin(ctx context.Context, logDiscarded bool) error {
	ticker := time.NewTicker(e.config.DiscardLogInterval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.doneCh:
			if logDiscarded {
				e.LogDiscarded()
			}
			return nil
		case <-ticker.C:
			if logDiscarded {
				e.LogDiscarded()
			}
		}
	}
}
