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

package transport

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"eros/pkg/errors"
)

// Side selects which end of a named pipe a transport attaches to.
type Side int

const (
	SideA Side = iota
	SideB
	// SideLoopback reads the queue SideA writes to.
	SideLoopback
)

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "a":
		return SideA, nil
	case "b":
		return SideB, nil
	case "loopback":
		return SideLoopback, nil
	}
	return SideA, fmt.Errorf("unknown pipe side %q", s)
}

type pipePair struct {
	aToB chan []byte
	bToA chan []byte
}

// Registry owns the named in-process pipes. Transports opened on the same
// registry and name talk to each other.
type Registry struct {
	mtx   sync.Mutex
	pipes map[string]*pipePair
}

func NewRegistry() *Registry {
	return &Registry{pipes: make(map[string]*pipePair)}
}

func (r *Registry) pair(name string, queueSize int) *pipePair {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	p, ok := r.pipes[name]
	if !ok {
		p = &pipePair{
			aToB: make(chan []byte, queueSize),
			bToA: make(chan []byte, queueSize),
		}
		r.pipes[name] = p
	}
	return p
}

// Open attaches to one side of the pipe called name, creating it on first use.
func (r *Registry) Open(name string, side Side, config PipeConfig) *Pipe {
	config.Name = name
	config.SetDefaultIfNotDefined()
	p := r.pair(name, config.QueueSize)

	t := &Pipe{
		StateMachine: NewStateMachine(fmt.Sprintf("pipe:%s/%d", name, side), false),
		maxChunk:     config.MaxChunk,
		doneCh:       make(chan struct{}),
	}
	switch side {
	case SideA:
		t.tx, t.rx = p.aToB, p.bToA
	case SideB:
		t.tx, t.rx = p.bToA, p.aToB
	default:
		t.tx, t.rx = p.aToB, p.aToB
	}
	if t.maxChunk > 0 {
		seed := config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		t.rnd = rand.New(rand.NewSource(seed))
	}
	t.Set(CONNECTED)
	return t
}

// Pipe is a simulated serial line. With a MaxChunk every write is delivered
// in random pieces, the way a UART driver hands over whatever it has.
type Pipe struct {
	*StateMachine
	tx        chan<- []byte
	rx        <-chan []byte
	maxChunk  int
	wmtx      sync.Mutex
	rnd       *rand.Rand
	doneCh    chan struct{}
	closeOnce sync.Once
}

func (p *Pipe) Capabilities() Capabilities {
	return StreamCapabilities
}

func (p *Pipe) Read() ([]byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	case <-p.doneCh:
		return nil, errors.ErrClosed
	}
}

func (p *Pipe) Write(b []byte) error {
	p.wmtx.Lock()
	defer p.wmtx.Unlock()

	select {
	case <-p.doneCh:
		return errors.ErrClosed
	default:
	}
	data := append([]byte(nil), b...)
	for len(data) > 0 {
		n := len(data)
		if p.rnd != nil {
			if c := 1 + p.rnd.Intn(p.maxChunk); c < n {
				n = c
			}
		}
		select {
		case p.tx <- data[:n:n]:
		case <-p.doneCh:
			return errors.ErrClosed
		}
		data = data[n:]
	}
	return nil
}

func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.doneCh)
		p.StateMachine.Close()
	})
	return nil
}
