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
	"sync"
	"time"

	"eros/pkg/proto"
	"eros/pkg/transport"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

// Packetizer is a Port that COBS frames packets directly over a byte-stream
// transport, without routing or verification. It runs its own receive
// goroutine.
type Packetizer struct {
	t       transport.Transport
	framer  *proto.Framer
	dropped util.AtomicCounter

	hmtx    sync.RWMutex
	handler func([]byte)

	epoch uint64

	closeCh   chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

const readErrorBackoff = 10 * time.Millisecond

func NewPacketizer(t transport.Transport) *Packetizer {
	p := &Packetizer{
		t:      t,
		framer:  proto.NewFramer(),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go p.receiveLoop()
	return p
}

func (p *Packetizer) SetPacketHandler(h func([]byte)) {
	p.hmtx.Lock()
	p.handler = h
	p.hmtx.Unlock()
}

func (p *Packetizer) WritePacket(packet []byte) error {
	return p.t.Write(p.framer.Pack(packet))
}

func (p *Packetizer) receiveLoop() {
	defer close(p.doneCh)
	for {
		chunk, err := p.t.Read()
		if err != nil {
			if p.t.State() == transport.DEAD {
				return
			}
			glog.Warningf("packetizer read: %s", err)
			select {
			case <-p.closeCh:
				return
			case <-time.After(readErrorBackoff):
			}
			continue
		}
		if epoch := p.t.Epoch(); epoch != p.epoch {
			p.epoch = epoch
			p.framer.Reset()
		}
		for _, seg := range p.framer.Unpack(chunk) {
			if seg.Err != nil {
				p.dropped.Inc()
				if glog.LOG_DEBUG {
					glog.Debugf("packetizer dropped %d bytes: %s", seg.WireSize(), seg.Err)
				}
				continue
			}
			p.hmtx.RLock()
			h := p.handler
			p.hmtx.RUnlock()
			if h != nil {
				h(seg.Payload)
			}
		}
	}
}

// Dropped returns the number of segments that failed COBS decoding.
func (p *Packetizer) Dropped() int64 {
	return p.dropped.Get()
}

func (p *Packetizer) Done() <-chan struct{} {
	return p.doneCh
}

// Close closes the transport and waits for the receive goroutine.
func (p *Packetizer) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		err = p.t.Close()
		<-p.doneCh
	})
	return
}
