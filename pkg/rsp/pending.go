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

	"eros/pkg/errors"
)

const numSeq = 256

// pendingTable pairs responses with the senders waiting for them. It has one
// slot per sequence number, so it never holds more than 256 waiters or 256
// unclaimed responses.
type pendingTable struct {
	mtx       sync.Mutex
	waiters   [numSeq]chan *Frame
	unclaimed [numSeq]*Frame
}

// register reserves seq for one waiter. A response left over from an earlier
// use of seq is purged.
func (p *pendingTable) register(seq uint8) (<-chan *Frame, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.waiters[seq] != nil {
		return nil, errors.ErrSequenceBusy
	}
	p.unclaimed[seq] = nil
	ch := make(chan *Frame, 1)
	p.waiters[seq] = ch
	return ch, nil
}

// cancel releases seq if ch still holds it.
func (p *pendingTable) cancel(seq uint8, ch <-chan *Frame) {
	p.mtx.Lock()
	if w := p.waiters[seq]; w != nil && (<-chan *Frame)(w) == ch {
		p.waiters[seq] = nil
	}
	p.mtx.Unlock()
}

// deliver hands f to the waiter of its seq. Without one the frame is parked
// as unclaimed and false is returned.
func (p *pendingTable) deliver(f *Frame) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	ch := p.waiters[f.Seq]
	if ch == nil {
		p.unclaimed[f.Seq] = f
		return false
	}
	p.waiters[f.Seq] = nil
	ch <- f
	return true
}

func (p *pendingTable) outstanding() (n int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for _, w := range p.waiters {
		if w != nil {
			n++
		}
	}
	return
}

func (p *pendingTable) unclaimedCount() (n int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for _, f := range p.unclaimed {
		if f != nil {
			n++
		}
	}
	return
}
