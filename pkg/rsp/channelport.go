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

	"eros/pkg/eros"
)

// ChannelPort is a Port on one channel of an eros.Eros, putting RSP frames
// above routing, verification and framing.
type ChannelPort struct {
	e       *eros.Eros
	channel int

	mtx     sync.RWMutex
	handler func([]byte)
}

// NewChannelPort attaches to channel of e, replacing its current handler.
func NewChannelPort(e *eros.Eros, channel int) (*ChannelPort, error) {
	p := &ChannelPort{e: e, channel: channel}
	if err := e.Attach(channel, eros.ChannelHandlerFunc(p.handlePacket)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ChannelPort) Channel() int {
	return p.channel
}

func (p *ChannelPort) SetPacketHandler(h func([]byte)) {
	p.mtx.Lock()
	p.handler = h
	p.mtx.Unlock()
}

func (p *ChannelPort) WritePacket(packet []byte) error {
	return p.e.Transmit(p.channel, packet)
}

func (p *ChannelPort) handlePacket(payload []byte) {
	p.mtx.RLock()
	h := p.handler
	p.mtx.RUnlock()
	if h != nil {
		h(payload)
	}
}

// Close detaches from the channel. The Eros instance stays open.
func (p *ChannelPort) Close() error {
	return p.e.Attach(p.channel, nil)
}
