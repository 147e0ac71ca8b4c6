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
	"sync"
	"time"

	"eros/pkg/logging/otel"
	"eros/third_party/forked/golang/glog"
)

type State int32

const (
	CONNECTING = State(0)
	CONNECTED  = State(1)
	DEAD       = State(2)
)

func (s State) String() string {
	switch s {
	case CONNECTING:
		return "CONNECTING"
	case CONNECTED:
		return "CONNECTED"
	case DEAD:
		return "DEAD"
	}
	return "UNKNOWN"
}

// StateMachine is the connection lifecycle shared by all drivers.
//
//	CONNECTING -> CONNECTED -> DEAD
//	CONNECTED  -> CONNECTING   (auto-reconnect only)
//	CONNECTING -> DEAD
//
// DEAD is terminal.
type StateMachine struct {
	mtx           sync.Mutex
	name          string
	state         State
	autoReconnect bool
	epoch         uint64
	changed       chan struct{}
}

func NewStateMachine(name string, autoReconnect bool) *StateMachine {
	return &StateMachine{
		name:          name,
		state:         CONNECTING,
		autoReconnect: autoReconnect,
		changed:       make(chan struct{}),
	}
}

func (m *StateMachine) Name() string {
	return m.name
}

func (m *StateMachine) State() State {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.state
}

func (m *StateMachine) allowed(from, to State) bool {
	switch from {
	case CONNECTING:
		return to == CONNECTED || to == DEAD
	case CONNECTED:
		return to == DEAD || (to == CONNECTING && m.autoReconnect)
	}
	return false
}

// Set moves to s and wakes every waiter. It reports false for a transition
// the lifecycle does not allow, which leaves the state unchanged.
func (m *StateMachine) Set(s State) bool {
	m.mtx.Lock()
	from := m.state
	if !m.allowed(from, s) {
		m.mtx.Unlock()
		if glog.LOG_VERBOSE {
			glog.Verbosef("%s: ignored transition %s -> %s", m.name, from, s)
		}
		return false
	}
	m.state = s
	if s == CONNECTED {
		m.epoch++
	}
	close(m.changed)
	m.changed = make(chan struct{})
	m.mtx.Unlock()

	glog.Infof("%s: %s -> %s", m.name, from, s)
	otel.RecordStateChange(m.name, s.String())
	return true
}

// Epoch counts the transitions into CONNECTED. Bytes read under different
// epochs come from different connections.
func (m *StateMachine) Epoch() uint64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.epoch
}

// Changed returns a channel closed on the next transition.
func (m *StateMachine) Changed() <-chan struct{} {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.changed
}

// WaitForState blocks until the state equals target or the timeout elapses.
// A negative timeout waits without limit.
func (m *StateMachine) WaitForState(target State, timeout time.Duration) bool {
	var timeoutCh <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	for {
		m.mtx.Lock()
		cur := m.state
		ch := m.changed
		m.mtx.Unlock()

		if cur == target {
			return true
		}
		if cur == DEAD {
			return false
		}
		select {
		case <-ch:
		case <-timeoutCh:
			return m.State() == target
		}
	}
}

func (m *StateMachine) IsDead() bool {
	return m.State() == DEAD
}

func (m *StateMachine) Close() {
	m.Set(DEAD)
}
